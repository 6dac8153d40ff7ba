package main

import "github.com/timogilvie/agentcost/cmd"

func main() {
	cmd.Execute()
}

package session

import "testing"

func TestNew_AgentDispatch(t *testing.T) {
	tests := []struct {
		tag       string
		wantCodex bool
	}{
		{"codex", true},
		{"Codex", true},
		{"  codex  ", true},
		{"claude", false},
		{"", false},
		{"some-future-agent", false}, // unknown tags fall back to Claude
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			adapter := New(tt.tag)
			_, isCodex := adapter.(*CodexAdapter)
			if isCodex != tt.wantCodex {
				t.Errorf("New(%q) codex = %v, want %v", tt.tag, isCodex, tt.wantCodex)
			}
			if !isCodex {
				if _, isClaude := adapter.(*ClaudeAdapter); !isClaude {
					t.Errorf("New(%q) returned neither adapter", tt.tag)
				}
			}
		})
	}
}

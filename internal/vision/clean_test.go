// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vision

import "testing"

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain markdown untouched",
			in:   "# Title\n\nSome paragraph.",
			want: "# Title\n\nSome paragraph.",
		},
		{
			name: "markdown fence unwrapped",
			in:   "```markdown\n# Title\n\nBody.\n```",
			want: "# Title\n\nBody.",
		},
		{
			name: "bare fence unwrapped",
			in:   "```\n# Title\n```",
			want: "# Title",
		},
		{
			name: "thinking lines removed",
			in:   "# Title\nWait, no that heading is wrong\nLet me check the table again\n\nBody.",
			want: "# Title\n\nBody.",
		},
		{
			name: "final markdown marker removed",
			in:   "So final Markdown: here it is\n# Title\n\nBody.",
			want: "# Title\n\nBody.",
		},
		{
			name: "blank runs collapsed",
			in:   "# Title\n\n\n\n\nBody.",
			want: "# Title\n\nBody.",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\n# Title\n\n",
			want: "# Title",
		},
		{
			name: "fenced code inside page preserved",
			in:   "# Title\n\n```bash\n$ make build\n```\n\nDone.",
			want: "# Title\n\n```bash\n$ make build\n```\n\nDone.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTranscript(tt.in); got != tt.want {
				t.Errorf("CleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

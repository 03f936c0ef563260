package render

import (
	"slices"
	"testing"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "fits", text: "short reply", width: 20, want: []string{"short reply"}},
		{name: "word boundary", text: "scroll up to read older", width: 10, want: []string{"scroll up", "to read", "older"}},
		{name: "keeps blank lines", text: "a\n\nb", width: 10, want: []string{"a", "", "b"}},
		{name: "wide runes count double", text: "聊天记录很长", width: 4, want: []string{"聊天", "记录", "很长"}},
		{name: "breaks long token", text: "see https://example.com/x", width: 8, want: []string{"see", "https://", "example.", "com/x"}},
		{name: "no width", text: "unchanged", width: 0, want: []string{"unchanged"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("wrapText(%q,%d)=%v want %v", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

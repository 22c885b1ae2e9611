package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"Sr. Engineer (Go)", `Sr\. Engineer \(Go\)`},
		{"C++ / C#", `C\+\+ / C\#`},
		{"full-time_role!", `full\-time\_role\!`},
		{"a*b|c=d", `a\*b\|c\=d`},
		{`back\slash`, `back\\slash`},
		{"São Paulo", "São Paulo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMarkdownV2(tt.in), tt.in)
	}
}

func TestEscapeMarkdownV2URL(t *testing.T) {
	assert.Equal(t, "https://example.com/a_b?x=1", EscapeMarkdownV2URL("https://example.com/a_b?x=1"))
	assert.Equal(t, `https://example.com/wiki/Go_(lang\)`, EscapeMarkdownV2URL("https://example.com/wiki/Go_(lang)"))
}

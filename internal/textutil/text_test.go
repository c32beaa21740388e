package textutil

import (
	"testing"

	"github.com/wesm/textvault/internal/testutil"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"trims", "  hello world  ", "hello world"},
		{"composes combining accent", "cafe\u0301", "caf\u00e9"},
		{"already composed", "caf\u00e9", "caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.input); got != tt.want {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanMessageText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("see you at 5"), "see you at 5"},
		{"utf8 emoji", []byte("on my way 🚗"), "on my way 🚗"},
		{"empty", []byte{}, ""},
		{"windows-1252 smart quote", []byte{'I', 0x92, 'm', ' ', 'h', 'e', 'r', 'e'}, "I’m here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanMessageText(tt.input)
			if got != tt.want {
				t.Errorf("CleanMessageText() = %q, want %q", got, tt.want)
			}
			testutil.AssertValidUTF8(t, got)
		})
	}
}

func TestCleanMessageText_AlwaysValid(t *testing.T) {
	inputs := [][]byte{
		{0xff, 0xfe, 0xfd},
		{'o', 'k', 0xc3},
		{0x80, 0x81, 0x82, 0x83},
	}
	for _, in := range inputs {
		testutil.AssertValidUTF8(t, CleanMessageText(in))
	}
}

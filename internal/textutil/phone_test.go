package textutil

import "testing"

func TestDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (415) 555-0100", "14155550100"},
		{"415.555.0100", "4155550100"},
		{"alice@example.com", ""},
		{"", ""},
		{"chat123456", "123456"},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPhoneSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14155550100", "4155550100"},
		{"4155550100", "4155550100"},
		{"5550100", "5550100"},
		{"447700900000", "7700900000"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PhoneSuffix(tt.in); got != tt.want {
			t.Errorf("PhoneSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLooksLikePhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+1 (415) 555-0100", true},
		{"4155550100", true},
		{"415.555.0100", true},
		{"+", false},
		{"()- ", false},
		{"", false},
		{"alice@example.com", false},
		{"John Doe", false},
		{"555-CALL", false},
	}
	for _, tt := range tests {
		if got := LooksLikePhone(tt.in); got != tt.want {
			t.Errorf("LooksLikePhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

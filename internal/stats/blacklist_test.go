package stats

import "testing"

func TestIsBlacklisted(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"hello there", false},
		{"what a nice day", false},
		{"", true},
		{"   ", true},
		{"!dice 100", true},
		{"/help", true},
		{"  !dice 100", true},
		{"(emoticon)", true},
		{"(photo)", true},
		{"look at this (photo)", true},
		{"(voice note)", true},
		{"(deleted message)", true},
		{"parenthetical (aside) is fine", false},
		{"ends with exclamation!", false},
	}

	for _, tt := range tests {
		if got := IsBlacklisted(tt.content); got != tt.want {
			t.Errorf("IsBlacklisted(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

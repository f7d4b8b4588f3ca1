package exec

import "testing"

func TestControlChars(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"plain command", "go test ./...", false},
		{"embedded newline", "ls\ninjected", true},
		{"embedded carriage return", "ls\rinjected", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ControlChars.MatchString(tt.value); got != tt.want {
				t.Errorf("ControlChars.MatchString(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

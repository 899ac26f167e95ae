package expr

import (
	"errors"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		body string
		want int64
	}{
		{body: "1 day", want: 86400},
		{body: "2 hours", want: 7200},
		{body: "10 minutes", want: 600},
		{body: "45 seconds", want: 45},
		{body: "1 day 12 hours", want: 129600},
		{body: "2 hours minus 30 minutes", want: 5400},
		{body: "1 day minus 12 hours", want: 43200},
		{body: "", want: 86400},          // нет вклада — default сутки
		{body: "0 seconds", want: 86400}, // неположительная сумма — default сутки
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := ParseDuration(tt.body)
			if err != nil {
				t.Fatalf("ParseDuration(%q) error: %v", tt.body, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.body, got, tt.want)
			}
		})
	}
}

func TestParseDuration_BadToken(t *testing.T) {
	_, err := ParseDuration("1 banana")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SyntaxError, got %T", err)
	}
	if serr.Token != "banana" {
		t.Errorf("offending token = %q, want %q", serr.Token, "banana")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		at   string
		want int64
	}{
		{at: "8", want: 8 * 3600},
		{at: "8am", want: 8 * 3600},
		{at: "8pm", want: 20 * 3600},
		{at: "12pm", want: 12 * 3600},
		{at: "14:30", want: 14*3600 + 30*60},
		{at: "14:30:15", want: 14*3600 + 30*60 + 15},
		{at: " 2:30pm ", want: 14*3600 + 30*60},
		{at: "0:00:00", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			got, err := ParseClock(tt.at)
			if err != nil {
				t.Fatalf("ParseClock(%q) error: %v", tt.at, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.at, got, tt.want)
			}
		})
	}
}

func TestParseClock_Rejected(t *testing.T) {
	tests := []string{
		"8ampm",
		"8am9",
		"eight",
		"1:2:3:4",
		"24",
		"-1",
		"8:60",
		"8:00:60",
	}

	for _, at := range tests {
		t.Run(at, func(t *testing.T) {
			if _, err := ParseClock(at); !errors.Is(err, ErrSyntax) {
				t.Errorf("ParseClock(%q) = %v, want ErrSyntax", at, err)
			}
		})
	}
}

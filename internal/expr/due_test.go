package expr

import (
	"testing"
	"time"
)

// mustParse разбирает время в RFC3339 или валит тест.
func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts
}

func TestDue_Interval(t *testing.T) {
	last := mustParse(t, "2024-03-01T10:00:00Z")

	tests := []struct {
		name  string
		query string
		now   time.Time
		want  bool
	}{
		{
			name:  "every 2 hours just after boundary",
			query: "every 2 hours",
			now:   last.Add(7201 * time.Second),
			want:  true,
		},
		{
			name:  "every 2 hours just before boundary",
			query: "every 2 hours",
			now:   last.Add(7199 * time.Second),
			want:  false,
		},
		{
			name:  "every 2 hours exactly at boundary",
			query: "every 2 hours",
			now:   last.Add(7200 * time.Second),
			want:  false,
		},
		{
			name:  "minus one second under effective interval",
			query: "every 1 day minus 12 hours",
			now:   last.Add(12*time.Hour - time.Second),
			want:  false,
		},
		{
			name:  "minus exactly at effective interval",
			query: "every 1 day minus 12 hours",
			now:   last.Add(12 * time.Hour),
			want:  false,
		},
		{
			name:  "minus one second past effective interval",
			query: "every 1 day minus 12 hours",
			now:   last.Add(12*time.Hour + time.Second),
			want:  true,
		},
		{
			name:  "one-shot interval elapsed",
			query: "in 10 minutes",
			now:   last.Add(11 * time.Minute),
			want:  true,
		},
		{
			name:  "one-shot interval not yet",
			query: "in 10 minutes",
			now:   last.Add(9 * time.Minute),
			want:  false,
		},
		{
			name:  "zero duration falls back to one day",
			query: "every 0 seconds",
			now:   last.Add(25 * time.Hour),
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := Due(tt.query, last, tt.now)
			if err != nil {
				t.Fatalf("Due returned error: %v", err)
			}
			if due != tt.want {
				t.Errorf("Due(%q, last, last+%s) = %v, want %v",
					tt.query, tt.now.Sub(last), due, tt.want)
			}
		})
	}
}

func TestDue_Weekday(t *testing.T) {
	// 2024-03-04 is a Monday.
	monday := mustParse(t, "2024-03-04T12:00:00Z")

	tests := []struct {
		name  string
		query string
		last  time.Time
		now   time.Time
		want  bool
	}{
		{
			name:  "matching weekday after a week",
			query: "on monday",
			last:  monday.AddDate(0, 0, -7),
			now:   monday,
			want:  true,
		},
		{
			name:  "fired two days ago",
			query: "on monday",
			last:  monday.AddDate(0, 0, -2),
			now:   monday,
			want:  false,
		},
		{
			name:  "wrong weekday",
			query: "on tuesday",
			last:  monday.AddDate(0, 0, -7),
			now:   monday,
			want:  false,
		},
		{
			name:  "clock target not reached",
			query: "on monday @ 2pm",
			last:  monday.AddDate(0, 0, -7),
			now:   monday, // 12:00
			want:  false,
		},
		{
			name:  "clock target reached",
			query: "on monday @ 8am",
			last:  monday.AddDate(0, 0, -7),
			now:   monday, // 12:00
			want:  true,
		},
		{
			name:  "exactly five days elapsed",
			query: "on monday",
			last:  monday.AddDate(0, 0, -5),
			now:   monday,
			want:  true,
		},
		{
			name:  "just under five days elapsed",
			query: "on monday",
			last:  monday.AddDate(0, 0, -5).Add(time.Hour),
			now:   monday,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := Due(tt.query, tt.last, tt.now)
			if err != nil {
				t.Fatalf("Due returned error: %v", err)
			}
			if due != tt.want {
				t.Errorf("Due(%q) = %v, want %v", tt.query, due, tt.want)
			}
		})
	}
}

func TestDue_WindowClock(t *testing.T) {
	tests := []struct {
		name  string
		query string
		last  string
		now   string
		want  bool
	}{
		{
			name:  "fires after clock on the next day",
			query: "every 1 day @ 08:00:00",
			last:  "2024-03-01T09:00:00Z",
			now:   "2024-03-02T08:00:00Z",
			want:  true,
		},
		{
			name:  "does not fire before clock",
			query: "every 1 day @ 08:00:00",
			last:  "2024-03-01T09:00:00Z",
			now:   "2024-03-02T07:59:59Z",
			want:  false,
		},
		{
			name:  "does not fire twice on the same date",
			query: "every 1 day @ 08:00:00",
			last:  "2024-03-02T08:00:01Z",
			now:   "2024-03-02T09:00:00Z",
			want:  false,
		},
		{
			name:  "two day window skips the next day",
			query: "every 2 days @ 8am",
			last:  "2024-03-01T08:00:01Z",
			now:   "2024-03-02T09:00:00Z",
			want:  false,
		},
		{
			name:  "two day window fires a day after",
			query: "every 2 days @ 8am",
			last:  "2024-03-01T08:00:01Z",
			now:   "2024-03-03T09:00:00Z",
			want:  true,
		},
		{
			// У one-shot токенов длительность до "@" не расширяет
			// окно: clause ведёт себя как дневное окно.
			name:  "one-shot token ignores the stated window",
			query: "in 2 days @ 8am",
			last:  "2024-03-01T08:00:01Z",
			now:   "2024-03-02T09:00:00Z",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := Due(tt.query, mustParse(t, tt.last), mustParse(t, tt.now))
			if err != nil {
				t.Fatalf("Due returned error: %v", err)
			}
			if due != tt.want {
				t.Errorf("Due(%q) = %v, want %v", tt.query, due, tt.want)
			}
		})
	}
}

func TestDue_Composition(t *testing.T) {
	last := mustParse(t, "2024-03-01T10:00:00Z")
	now := last.Add(3 * time.Hour)

	// "every 2 hours" is due, "every 1 day" is not — in both orders.
	for _, query := range []string{
		"every 2 hours || every 1 day",
		"every 1 day || every 2 hours",
	} {
		due, err := Due(query, last, now)
		if err != nil {
			t.Fatalf("Due(%q) returned error: %v", query, err)
		}
		if !due {
			t.Errorf("Due(%q) = false, want true", query)
		}
	}

	// Neither clause due.
	due, err := Due("every 1 day || on monday", last, now)
	if err != nil {
		t.Fatalf("Due returned error: %v", err)
	}
	if due {
		t.Error("Due = true, want false")
	}
}

func TestDue_Cron(t *testing.T) {
	last := mustParse(t, "2024-03-01T08:30:00Z")

	// "cron 0 9 * * *" — daily at 09:00 UTC.
	due, err := Due("cron 0 9 * * *", last, mustParse(t, "2024-03-01T08:59:00Z"))
	if err != nil {
		t.Fatalf("Due returned error: %v", err)
	}
	if due {
		t.Error("due before the next activation, want false")
	}

	due, err = Due("cron 0 9 * * *", last, mustParse(t, "2024-03-01T09:00:01Z"))
	if err != nil {
		t.Fatalf("Due returned error: %v", err)
	}
	if !due {
		t.Error("not due after the next activation, want true")
	}
}

func TestDue_FailsClosed(t *testing.T) {
	last := mustParse(t, "2024-03-01T10:00:00Z")
	now := last.Add(48 * time.Hour)

	// Corrupted clause evaluates to not-due with a reported error.
	due, err := Due("every banana hours", last, now)
	if err == nil {
		t.Fatal("expected error for corrupted clause")
	}
	if due {
		t.Error("corrupted clause must not be due")
	}

	// A healthy clause still short-circuits past a corrupted one.
	due, err = Due("every banana hours || every 1 day", last, now)
	if err != nil {
		t.Fatalf("healthy clause should win, got error: %v", err)
	}
	if !due {
		t.Error("healthy clause should be due")
	}
}

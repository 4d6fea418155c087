package calendar

import (
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name  string
		value string
		loc   *time.Location
		want  string
		ok    bool
	}{
		{"plain date", "2026-10-15", time.UTC, "2026-10-15", true},
		{"plain date other zone", "2026-10-15", est, "2026-10-15", true},
		{"timestamp same day", "2026-10-15T09:30:00Z", time.UTC, "2026-10-15", true},
		{"timestamp shifts day", "2026-10-15T02:00:00Z", est, "2026-10-14", true},
		{"padded", "  2026-01-02 ", time.UTC, "2026-01-02", true},
		{"empty", "", time.UTC, "", false},
		{"garbage", "tomorrow", time.UTC, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DateKey(tt.value, tt.loc)
			if ok != tt.ok || got != tt.want {
				t.Errorf("DateKey(%q) = %q, %v; want %q, %v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTimeKey(t *testing.T) {
	if _, ok := TimeKey(nil, time.UTC); ok {
		t.Error("expected nil timestamp to report false")
	}
	ts := time.Date(2026, 10, 15, 23, 30, 0, 0, time.UTC)
	got, ok := TimeKey(&ts, time.FixedZone("CET", 3600))
	if !ok || got != "2026-10-16" {
		t.Errorf("expected 2026-10-16, got %q %v", got, ok)
	}
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2026-12-31", 1); got != "2027-01-01" {
		t.Errorf("expected 2027-01-01, got %s", got)
	}
	if got := AddDays("2026-03-01", -1); got != "2026-02-28" {
		t.Errorf("expected 2026-02-28, got %s", got)
	}
	if got := AddDays("nope", 1); got != "" {
		t.Errorf("expected empty key, got %s", got)
	}
}

func TestValidDate(t *testing.T) {
	if !ValidDate("2026-02-28") {
		t.Error("expected valid date")
	}
	if ValidDate("2026-02-30") {
		t.Error("expected Feb 30 to be rejected")
	}
	if ValidDate("2026-10-15T00:00:00Z") {
		t.Error("expected timestamp to be rejected as a due date")
	}
}

package dates

import (
	"testing"
	"time"
)

func TestIsValidDate(t *testing.T) {
	valid := []string{"2025-01-01", "2024-12-31", "2000-06-15", "2024-02-29"}
	for _, d := range valid {
		if !IsValidDate(d) {
			t.Fatalf("expected %q to be valid", d)
		}
	}

	invalid := []string{"2025/01/01", "01-01-2025", "2025-13-01", "2025-01-32", "not-a-date", "", "2025-02-30"}
	for _, d := range invalid {
		if IsValidDate(d) {
			t.Fatalf("expected %q to be invalid", d)
		}
	}
}

func TestIsValidDatetime(t *testing.T) {
	valid := []string{
		"2025-01-01T10:30:00Z",
		"2025-01-01T10:30",
		"2025-01-01T10:30:45",
		"2025-06-15T14:00:00+05:00",
		"2025-06-15T14:00:00.123Z",
	}
	for _, dt := range valid {
		if !IsValidDatetime(dt) {
			t.Fatalf("expected %q to be valid", dt)
		}
	}

	invalid := []string{"2025-01-01", "10:30", "not-a-datetime", ""}
	for _, dt := range invalid {
		if IsValidDatetime(dt) {
			t.Fatalf("expected %q to be invalid", dt)
		}
	}
}

func TestParseMillis(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()},
		{"2024-12-31T23:59:59Z", time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC).UnixMilli()},
		{"2024-06-01T12:00", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()},
		{"2024-06-01T12:00:00+02:00", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC).UnixMilli()},
	}
	for _, tt := range tests {
		got, err := ParseMillis(tt.in)
		if err != nil {
			t.Fatalf("ParseMillis(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMillis(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMillis("yesterday"); err == nil {
		t.Error("expected error for non-date input")
	}
}

func TestFormatISO(t *testing.T) {
	ms := time.Date(2024, 3, 5, 7, 8, 9, 10_000_000, time.UTC).UnixMilli()
	if got, want := FormatISO(ms), "2024-03-05T07:08:09.010Z"; got != want {
		t.Errorf("FormatISO = %q, want %q", got, want)
	}
}

func TestLooksLikeDate(t *testing.T) {
	if !LooksLikeDate("2024-13-45") {
		t.Error("expected malformed date to look like a date")
	}
	if !LooksLikeDate("2024-01-01T10:00") {
		t.Error("expected datetime to look like a date")
	}
	for _, s := range []string{"2024", "2024-03", "hello", ""} {
		if LooksLikeDate(s) {
			t.Errorf("LooksLikeDate(%q) = true, want false", s)
		}
	}
}

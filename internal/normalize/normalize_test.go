package normalize

import "testing"

func TestParseStatValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1.5K", 1500},
		{"2M", 2000000},
		{"", 0},
		{"junk", 0},
		{"  42 ", 42},
		{"1,234", 1234},
		{"3.2k", 3200},
		{"0", 0},
		{"1.2.3", 0},
	}
	for _, tt := range tests {
		if got := ParseStatValue(tt.in); got != tt.want {
			t.Errorf("ParseStatValue(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDateToISO(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jan 5, 2024 · 3:45 PM UTC", "2024-01-05T15:45:00Z"},
		{"Dec 31, 2023 · 12:05 AM UTC", "2023-12-31T00:05:00Z"},
		{"Jul 14, 2022 · 12:30 PM UTC", "2022-07-14T12:30:00Z"},
		{"Mar 9, 2021 · 9:00 AM UTC", "2021-03-09T09:00:00Z"},
		{"", ""},
		{"yesterday", "yesterday"},
		{"Foo 5, 2024 · 3:45 PM UTC", "Foo 5, 2024 · 3:45 PM UTC"},
		{"Feb 30, 2024 · 3:45 PM UTC", "Feb 30, 2024 · 3:45 PM UTC"},
		{"Jan 5, 2024 · 13:45 PM UTC", "Jan 5, 2024 · 13:45 PM UTC"},
	}
	for _, tt := range tests {
		if got := ParseDateToISO(tt.in); got != tt.want {
			t.Errorf("ParseDateToISO(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package order

import "testing"

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		year int
		seq  int64
		want string
	}{
		{2026, 1, "2026-00001"},
		{2026, 42, "2026-00042"},
		{2026, 99999, "2026-99999"},
		{2026, 100000, "2026-100000"}, // padding never truncates
		{2027, 1, "2027-00001"},       // counter keyed by year restarts the sequence
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.year, tc.seq); got != tc.want {
			t.Errorf("FormatNumber(%d, %d) = %q, want %q", tc.year, tc.seq, got, tc.want)
		}
	}
}

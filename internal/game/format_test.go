package game

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   Money
		want string
	}{
		{0, "0"},
		{50, "50"},
		{9_999, "9,999"},
		{10_000, "10.0K"},
		{12_345, "12.3K"},
		{999_999, "999.9K"},
		{1_500_000, "1.5M"},
		{2_000_000_000, "2.0B"},
		{MaxMoney, "9,999.0T"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

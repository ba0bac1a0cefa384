package game

import (
	"strconv"
	"strings"
)

var moneyUnits = []struct {
	threshold Money
	unit      Money
	suffix    string
}{
	{1_000_000_000_000, 1_000_000_000_000, "T"},
	{1_000_000_000, 1_000_000_000, "B"},
	{1_000_000, 1_000_000, "M"},
	{10_000, 1_000, "K"},
}

// FormatMoney renders m compactly: plain digits with separators below ten thousand,
// otherwise one decimal and a K/M/B/T suffix.
func FormatMoney(m Money) string {
	for _, u := range moneyUnits {
		if m >= u.threshold {
			whole := m / u.unit
			tenth := (m % u.unit) * 10 / u.unit
			return groupDigits(int64(whole)) + "." + strconv.FormatInt(int64(tenth), 10) + u.suffix
		}
	}
	return groupDigits(int64(m))
}

// groupDigits inserts thousands separators.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return FormatMoney(m)
}

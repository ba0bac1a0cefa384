package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 6, 3)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"top-left corner", 10, 10, true},
		{"inside", 12, 11, true},
		{"last column", 15, 12, true},
		{"right edge excluded", 16, 11, false},
		{"bottom edge excluded", 12, 13, false},
		{"left of rect", 9, 11, false},
		{"above rect", 12, 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(2, 3, 8, 4)
	if r.Right() != 10 {
		t.Errorf("Right() = %d, want 10", r.Right())
	}
	if r.Bottom() != 7 {
		t.Errorf("Bottom() = %d, want 7", r.Bottom())
	}
	if x, y := r.Center(); x != 6 || y != 5 {
		t.Errorf("Center() = (%d, %d), want (6, 5)", x, y)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.val, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.val, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		val, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 0},
		{-1, 5, 4},
		{-6, 5, 4},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := Wrap(tt.val, tt.n); got != tt.want {
			t.Errorf("Wrap(%d, %d) = %d, want %d", tt.val, tt.n, got, tt.want)
		}
	}
}

func TestTierColor(t *testing.T) {
	if TierColor(0) != ColorGray || TierColor(19) != ColorGray {
		t.Error("out-of-range levels should be gray")
	}
	if TierColor(1) != ColorYellow {
		t.Errorf("TierColor(1) = %d, want yellow", TierColor(1))
	}
	if TierColor(18) != ColorOrange {
		t.Errorf("TierColor(18) = %d, want orange", TierColor(18))
	}
}

package game

import "time"

// BoostType identifies a timed boost.
type BoostType string

const (
	BoostAutoMerge    BoostType = "AUTO_MERGE"
	BoostDoubleIncome BoostType = "DOUBLE_INCOME"
	BoostAutoSpawn    BoostType = "AUTO_SPAWN"
)

// BoostTypes lists every boost type.
var BoostTypes = []BoostType{BoostAutoMerge, BoostDoubleIncome, BoostAutoSpawn}

// Valid reports whether t is a known boost type.
func (t BoostType) Valid() bool {
	switch t {
	case BoostAutoMerge, BoostDoubleIncome, BoostAutoSpawn:
		return true
	}
	return false
}

// Boost is a timed modifier. It is active while now < EndTime (epoch milliseconds).
type Boost struct {
	Type    BoostType `json:"type"`
	EndTime int64     `json:"endTime"`
}

// Boosts holds at most one entry per type. Expired entries are kept; the set is bounded
// by the number of types.
type Boosts []Boost

// Activate returns the boosts with t extended by d, starting from the later of now and
// the current expiry.
func (bs Boosts) Activate(t BoostType, d time.Duration, now time.Time) Boosts {
	nowMs := now.UnixMilli()
	out := make(Boosts, 0, len(bs)+1)
	base := nowMs
	for _, b := range bs {
		if b.Type == t {
			base = max(base, b.EndTime)
			continue
		}
		out = append(out, b)
	}
	return append(out, Boost{Type: t, EndTime: base + d.Milliseconds()})
}

// Active reports whether t has not yet expired at now.
func (bs Boosts) Active(t BoostType, now time.Time) bool {
	return bs.Remaining(t, now) > 0
}

// Remaining returns the time left on t at now, or zero.
func (bs Boosts) Remaining(t BoostType, now time.Time) time.Duration {
	nowMs := now.UnixMilli()
	for _, b := range bs {
		if b.Type == t && nowMs < b.EndTime {
			return time.Duration(b.EndTime-nowMs) * time.Millisecond
		}
	}
	return 0
}

// Clone returns an independent copy.
func (bs Boosts) Clone() Boosts {
	if bs == nil {
		return nil
	}
	out := make(Boosts, len(bs))
	copy(out, bs)
	return out
}

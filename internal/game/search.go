package game

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// levelSource implements fuzzy.Source over catalog entries.
type levelSource []Level

func (s levelSource) Len() int {
	return len(s)
}

func (s levelSource) String(i int) string {
	return strings.ToLower(s[i].Name)
}

// SearchLevels fuzzy-matches query against catalog names, best match first. Hidden
// levels are only searchable once revealed. An empty query lists the visible catalog.
func SearchLevels(query string, revealHidden bool) []Level {
	visible := make(levelSource, 0, len(Levels))
	for _, lvl := range Levels {
		if lvl.Hidden && !revealHidden {
			continue
		}
		visible = append(visible, lvl)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return visible
	}

	matches := fuzzy.FindFrom(query, visible)
	results := make([]Level, len(matches))
	for i, m := range matches {
		results[i] = visible[m.Index]
	}
	return results
}

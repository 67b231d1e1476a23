package tui

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// pickItem is one selectable entry in a picker.
type pickItem struct {
	id    string
	label string
}

// picker is an inline filterable list used for voice and track selection.
type picker struct {
	title  string
	query  string
	items  []pickItem
	cursor int
	onPick func(id string)
}

// filtered returns the items ranked against the current query. An empty
// query keeps the original order.
func (p *picker) filtered() []pickItem {
	return rankItems(p.items, p.query)
}

// rankItems orders items by match quality: substring hits first (earliest
// occurrence wins), then by edit distance to the query.
func rankItems(items []pickItem, query string) []pickItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	type scored struct {
		item pickItem
		sub  int // substring position, -1 if none
		dist int
	}
	ranked := make([]scored, 0, len(items))
	for _, it := range items {
		label := strings.ToLower(it.label)
		sub := strings.Index(label, q)
		if sub < 0 && len(q) > len(label)+2 {
			continue
		}
		ranked = append(ranked, scored{
			item: it,
			sub:  sub,
			dist: levenshtein.ComputeDistance(label, q),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.sub >= 0) != (b.sub >= 0) {
			return a.sub >= 0
		}
		if a.sub >= 0 && b.sub >= 0 && a.sub != b.sub {
			return a.sub < b.sub
		}
		return a.dist < b.dist
	})
	out := make([]pickItem, len(ranked))
	for i, s := range ranked {
		out[i] = s.item
	}
	return out
}

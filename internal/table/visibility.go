package table

import "github.com/matthewbaird/backoffice/internal/schema"

// Viewport classifies the current viewport width.
type Viewport int

const (
	Desktop Viewport = iota
	Tablet
	Mobile
)

// Breakpoints, in px. Desktop applies no priority filtering; tablet shows
// priorities up to 3, mobile up to 2.
const (
	desktopMinWidth = 1024
	tabletMinWidth  = 768

	tabletMaxPriority = 3
	mobileMaxPriority = 2
)

// ViewportFor classifies a width in pixels.
func ViewportFor(width int) Viewport {
	switch {
	case width >= desktopMinWidth:
		return Desktop
	case width >= tabletMinWidth:
		return Tablet
	default:
		return Mobile
	}
}

// Reserved column keys that never appear in the row-detail expansion.
const (
	selectColumnKey  = "select"
	actionsColumnKey = "actions"
)

// ColumnVisible is the single predicate deciding whether a column renders on
// the current viewport: it must be requested, not detail-only, and within
// the viewport's priority budget. Header cells, body cells, and skeleton
// placeholders must all use this same predicate, or their column counts
// drift apart.
func ColumnVisible(c schema.Column, requested map[string]bool, vp Viewport) bool {
	if !requested[c.Key] || c.ExpandedOnly {
		return false
	}
	switch vp {
	case Tablet:
		return c.EffectivePriority() <= tabletMaxPriority
	case Mobile:
		return c.EffectivePriority() <= mobileMaxPriority
	}
	return true
}

// VisibleColumns filters columns through ColumnVisible, preserving order.
func VisibleColumns(columns []schema.Column, requested []string, vp Viewport) []schema.Column {
	set := keySet(requested)
	var out []schema.Column
	for _, c := range columns {
		if ColumnVisible(c, set, vp) {
			out = append(out, c)
		}
	}
	return out
}

// HiddenColumns returns the columns shown only in the row-detail expansion:
// everything outside the visible set, excluding the reserved select and
// actions columns.
func HiddenColumns(columns []schema.Column, visible []schema.Column) []schema.Column {
	shown := make(map[string]bool, len(visible))
	for _, c := range visible {
		shown[c.Key] = true
	}
	var out []schema.Column
	for _, c := range columns {
		if shown[c.Key] || c.Key == selectColumnKey || c.Key == actionsColumnKey {
			continue
		}
		out = append(out, c)
	}
	return out
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

package screens

import "unicode/utf8"

// LabelValue is a label text item associated with the value text that
// follows it in document order.
type LabelValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const (
	markerMaxLen    = 2
	skipValueMinLen = 10
)

// Pair walks items and emits a LabelValue for each catalog label that is
// followed by a non-label value. A short marker token (a lone digit or
// bullet) between a label and a long value is skipped. Pairs are not
// deduplicated.
func Pair(items []HarvestedText, cat Catalog) []LabelValue {
	var pairs []LabelValue
	for i := range items {
		label := items[i].Text()
		if !cat.IsLabel(label) || i+1 >= len(items) {
			continue
		}
		next := items[i+1].Text()
		if cat.IsLabel(next) {
			continue
		}

		value := next
		if utf8.RuneCountInString(next) <= markerMaxLen && i+2 < len(items) {
			if after := items[i+2].Text(); utf8.RuneCountInString(after) > skipValueMinLen {
				value = after
			}
		}
		if value == "" {
			continue
		}
		pairs = append(pairs, LabelValue{Label: label, Value: value})
	}
	return pairs
}

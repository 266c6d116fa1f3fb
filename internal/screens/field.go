package screens

import (
	"strings"
	"unicode/utf8"
)

// fullListMarker tags frames that hold numbered annotation blocks.
const fullListMarker = "full_list"

// ExtractField resolves a field value from harvested text. Resolution order:
// the first pair whose label contains a pattern; for descriptions, the
// joined full_list blocks; then the first item whose name contains a
// pattern and whose characters differ from that name.
func ExtractField(field Field, patterns []string, pairs []LabelValue, items []HarvestedText) (string, bool) {
	for _, p := range pairs {
		if containsAny(p.Label, patterns) {
			return p.Value, true
		}
	}

	if field == FieldDescription {
		if blocks, found := fullListBlocks(items); found {
			joined := strings.Join(blocks, "\n\n")
			return joined, joined != ""
		}
	}

	for _, it := range items {
		chars := strings.TrimSpace(it.Characters)
		if chars == "" || chars == strings.TrimSpace(it.Name) {
			continue
		}
		if containsAny(it.Name, patterns) {
			return chars, true
		}
	}
	return "", false
}

// fullListBlocks returns the long text of items inside full_list
// containers. found is true whenever any such item exists, even if every
// one of them was a short marker.
func fullListBlocks(items []HarvestedText) (blocks []string, found bool) {
	for _, it := range items {
		if !containsFold(it.Name, fullListMarker) && !containsFold(it.ParentName, fullListMarker) {
			continue
		}
		found = true
		chars := strings.TrimSpace(it.Characters)
		if utf8.RuneCountInString(chars) > skipValueMinLen {
			blocks = append(blocks, chars)
		}
	}
	return blocks, found
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && containsFold(s, p) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package screens

import (
	"math"
	"sort"
	"strings"
)

// Index groups records as page name → prefix → baseId → variants.
type Index map[string]map[string]*PrefixGroup

// PrefixGroup holds the screens of one prefix on one page. Cover comes from
// the first member that has one.
type PrefixGroup struct {
	Cover   *CoverData                `json:"coverData,omitempty"`
	Screens map[string][]ScreenRecord `json:"screens"`
}

// Group builds the index. Each baseId's variants are ordered by numeric
// suffix; a missing suffix counts as 0, non-numeric suffixes sort after all
// numeric ones, and ties fall back to the full name.
func Group(records []ScreenRecord) Index {
	idx := make(Index)
	for _, rec := range records {
		pages, ok := idx[rec.PageName]
		if !ok {
			pages = make(map[string]*PrefixGroup)
			idx[rec.PageName] = pages
		}
		prefix := prefixOf(rec.BaseID)
		g, ok := pages[prefix]
		if !ok {
			g = &PrefixGroup{Screens: make(map[string][]ScreenRecord)}
			pages[prefix] = g
		}
		if g.Cover == nil && rec.CoverData != nil {
			g.Cover = rec.CoverData
		}
		g.Screens[rec.BaseID] = append(g.Screens[rec.BaseID], rec)
	}

	for _, pages := range idx {
		for _, g := range pages {
			for _, variants := range g.Screens {
				sortVariants(variants)
			}
		}
	}
	return idx
}

func sortVariants(variants []ScreenRecord) {
	sort.SliceStable(variants, func(i, j int) bool {
		ri, ni := suffixKey(variants[i].Suffix)
		rj, nj := suffixKey(variants[j].Suffix)
		if ri != rj {
			return ri < rj
		}
		if ni != nj {
			return ni < nj
		}
		return variants[i].Name < variants[j].Name
	})
}

// suffixKey parses leading decimal digits the way parseInt does, saturating
// at math.MaxInt. rank is 1 when the suffix has no leading digit.
func suffixKey(suffix *string) (rank int, n int) {
	if suffix == nil {
		return 0, 0
	}
	s := strings.TrimSpace(*suffix)
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		d := int(s[digits] - '0')
		if n > (math.MaxInt-d)/10 {
			n = math.MaxInt
		} else {
			n = n*10 + d
		}
		digits++
	}
	if digits == 0 {
		return 1, 0
	}
	return 0, n
}

// Pages returns page names in sorted order.
func (idx Index) Pages() []string {
	pages := make([]string, 0, len(idx))
	for p := range idx {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages
}

// Prefixes returns the sorted prefixes of a page.
func (idx Index) Prefixes(page string) []string {
	prefixes := make([]string, 0, len(idx[page]))
	for p := range idx[page] {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Records flattens the index: pages, prefixes and baseIds sorted,
// variants in their grouped order.
func (idx Index) Records() []ScreenRecord {
	var out []ScreenRecord
	for _, page := range idx.Pages() {
		out = append(out, idx.PageRecords(page)...)
	}
	return out
}

// PageRecords flattens one page in the same order as Records.
func (idx Index) PageRecords(page string) []ScreenRecord {
	var out []ScreenRecord
	for _, prefix := range idx.Prefixes(page) {
		g := idx[page][prefix]
		baseIDs := make([]string, 0, len(g.Screens))
		for id := range g.Screens {
			baseIDs = append(baseIDs, id)
		}
		sort.Strings(baseIDs)
		for _, id := range baseIDs {
			out = append(out, g.Screens[id]...)
		}
	}
	return out
}

// Find returns the record with the given figma id.
func (idx Index) Find(figmaID string) (ScreenRecord, bool) {
	for _, pages := range idx {
		for _, g := range pages {
			for _, variants := range g.Screens {
				for _, rec := range variants {
					if rec.FigmaID == figmaID {
						return rec, true
					}
				}
			}
		}
	}
	return ScreenRecord{}, false
}

// Cover returns the first cover attached to prefix on any page, in page
// order.
func (idx Index) Cover(prefix string) *CoverData {
	for _, page := range idx.Pages() {
		if g, ok := idx[page][prefix]; ok && g.Cover != nil {
			return g.Cover
		}
	}
	return nil
}

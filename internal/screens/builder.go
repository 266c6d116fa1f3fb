package screens

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/figops/internal/figma"
)

// ErrNoScreens is returned when no node in the document follows the screen
// naming convention. It usually means the wrong document was supplied.
var ErrNoScreens = errors.New("screens: no node matches the PREFIX_NNNN naming pattern")

var datePattern = regexp.MustCompile(`[0-9]{2,4}\.[0-9]{2}\.[0-9]{2}`)

// ScreenRecord is the structured annotation data of one screen.
type ScreenRecord struct {
	ID                string     `json:"id"`
	FigmaID           string     `json:"figmaId"`
	Name              string     `json:"name"`
	BaseID            string     `json:"baseId"`
	Prefix            string     `json:"prefix"`
	Suffix            *string    `json:"suffix,omitempty"`
	IsParent          bool       `json:"isParent"`
	Description       *string    `json:"description,omitempty"`
	DescriptionItems  []string   `json:"descriptionItems,omitempty"`
	ScreenInformation *string    `json:"screenInformation,omitempty"`
	PageName          string     `json:"pageName"`
	SectionName       *string    `json:"sectionName,omitempty"`
	CreatedDate       *string    `json:"createdDate,omitempty"`
	CoverData         *CoverData `json:"coverData,omitempty"`
}

// WithDescriptionItems returns a copy of r carrying refined description
// lines.
func (r ScreenRecord) WithDescriptionItems(items []string) ScreenRecord {
	r.DescriptionItems = append([]string(nil), items...)
	return r
}

// traversalContext is inherited down the walk. It is passed by value so
// sibling subtrees never observe each other's updates.
type traversalContext struct {
	page    string
	section string
	date    string
}

func (c traversalContext) enter(n *figma.Node) traversalContext {
	c = c.withDate(n)
	switch n.Type {
	case figma.TypeCanvas:
		c.page = strings.TrimSpace(n.Name)
		c.section = ""
	case figma.TypeSection:
		c.section = strings.TrimSpace(n.Name)
	}
	return c
}

func (c traversalContext) withDate(n *figma.Node) traversalContext {
	if d := datePattern.FindString(n.Name); d != "" {
		c.date = d
	}
	return c
}

// Extractor builds screen records out of a document tree.
type Extractor struct {
	catalog Catalog
	log     *slog.Logger
}

func NewExtractor(cat Catalog, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Extractor{catalog: cat.withDefaults(), log: log}
}

// extraction holds the per-run bookkeeping of one ExtractAll call.
type extraction struct {
	*Extractor
	root    *figma.Node
	seen    map[string]bool
	covers  map[string]*CoverData
	records []ScreenRecord
}

// ExtractAll walks the document in pre-order and returns one record per
// distinct screen name, in encounter order. Screen subtrees are not
// searched for nested screens.
func (e *Extractor) ExtractAll(root *figma.Node) ([]ScreenRecord, error) {
	if root == nil {
		return nil, ErrNoScreens
	}
	run := &extraction{
		Extractor: e,
		root:      root,
		seen:      make(map[string]bool),
		covers:    make(map[string]*CoverData),
	}
	run.walk(root, nil, traversalContext{})

	if len(run.records) == 0 {
		return nil, ErrNoScreens
	}
	e.log.Debug("extraction complete", "screens", len(run.records), "prefixes", len(run.covers))
	return run.records, nil
}

func (r *extraction) walk(n *figma.Node, ancestors []*figma.Node, tc traversalContext) {
	if IsScreen(n) {
		r.build(n, ancestors, tc.withDate(n))
		return
	}
	tc = tc.enter(n)
	path := append(ancestors[:len(ancestors):len(ancestors)], n)
	for _, c := range n.Children {
		r.walk(c, path, tc)
	}
}

func (r *extraction) build(n *figma.Node, ancestors []*figma.Node, tc traversalContext) {
	sn, _ := ParseScreenName(n.Name)
	if r.seen[sn.Full] {
		r.log.Debug("duplicate screen name skipped", "name", sn.Full, "node_id", n.ID)
		return
	}
	r.seen[sn.Full] = true

	container, source := resolveContainer(r.root, n, ancestors)
	items := Harvest(container)
	pairs := Pair(items, r.catalog)

	rec := ScreenRecord{
		ID:       n.ID,
		FigmaID:  n.ID,
		Name:     sn.Full,
		BaseID:   sn.BaseID,
		Prefix:   sn.Prefix,
		IsParent: !sn.HasSuffix,
		PageName: tc.page,
	}
	if sn.HasSuffix {
		rec.Suffix = ptr(sn.Suffix)
	}
	if tc.section != "" {
		rec.SectionName = ptr(tc.section)
	}
	if v, ok := ExtractField(FieldDescription, r.catalog.Description, pairs, items); ok {
		rec.Description = ptr(v)
	}
	if v, ok := ExtractField(FieldScreenInformation, r.catalog.ScreenInformation, pairs, items); ok {
		if v = strings.TrimSpace(v); v != "" && v != "-" {
			rec.ScreenInformation = ptr(v)
		}
	}
	date := tc.date
	if v, ok := ExtractField(FieldCreatedDate, r.catalog.CreatedDate, pairs, items); ok {
		if d := datePattern.FindString(v); d != "" {
			date = d
		}
	}
	if date != "" {
		rec.CreatedDate = ptr(date)
	}
	rec.CoverData = r.cover(sn.Prefix)

	r.log.Debug("screen extracted",
		"name", rec.Name,
		"node_id", n.ID,
		"container", source,
		"texts", len(items),
		"pairs", len(pairs),
		"cover", rec.CoverData != nil,
	)
	r.records = append(r.records, rec)
}

// cover resolves the cover of a prefix once per run.
func (r *extraction) cover(prefix string) *CoverData {
	if c, ok := r.covers[prefix]; ok {
		return c
	}
	c := resolveCoverForPrefix(r.root, prefix)
	r.covers[prefix] = c
	return c
}

func ptr(s string) *string { return &s }

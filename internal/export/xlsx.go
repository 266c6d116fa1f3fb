package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/figops/internal/screens"
	"github.com/dgallion1/figops/internal/tasks"
)

const maxSheetName = 31

var header = []any{
	"Page", "Section", "Prefix", "Base ID", "Name", "Suffix", "Figma ID",
	"Created", "Screen Information", "Description", "Tasks Done", "Tasks",
	"Tests Pass", "Tests Fail", "Tests",
}

// WriteXLSX writes one sheet per page with a row per screen. plans is keyed
// by figma id and may be nil.
func WriteXLSX(w io.Writer, idx screens.Index, plans map[string]*tasks.Plan) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("create body style: %w", err)
	}

	pages := idx.Pages()
	if len(pages) == 0 {
		pages = []string{""}
	}

	used := make(map[string]bool)
	for i, page := range pages {
		name := sheetName(page, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writePage(f, name, idx.PageRecords(page), plans, bold, wrap); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writePage(f *excelize.File, sheet string, records []screens.ScreenRecord, plans map[string]*tasks.Plan, headerStyle, bodyStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, rec := range records {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		sum := plans[rec.FigmaID].Summary()
		values := []any{
			rec.PageName, deref(rec.SectionName), prefixOf(rec), rec.BaseID, rec.Name,
			deref(rec.Suffix), rec.FigmaID, deref(rec.CreatedDate), deref(rec.ScreenInformation),
			description(rec), sum.TasksDone, sum.Tasks, sum.TestsPass, sum.TestsFail, sum.Tests,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if len(records) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(header), len(records)+1)
		if err := f.SetCellStyle(sheet, "A2", end, bodyStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "I", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "J", "J", 60); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetName makes page usable as a sheet name: invalid characters
// replaced, length capped, duplicates numbered.
func sheetName(page string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(page))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Screens"
	}
	name = truncateRunes(name, maxSheetName)

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func prefixOf(rec screens.ScreenRecord) string {
	if sn, ok := screens.ParseScreenName(rec.Name); ok {
		return sn.Prefix
	}
	return ""
}

func description(rec screens.ScreenRecord) string {
	if len(rec.DescriptionItems) > 0 {
		return strings.Join(rec.DescriptionItems, "\n")
	}
	return deref(rec.Description)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

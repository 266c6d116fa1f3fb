package screens

import (
	"errors"
	"testing"

	"github.com/dgallion1/figops/internal/figma"
)

func TestExtractAll_EndToEnd(t *testing.T) {
	root := node(figma.TypeDocument, "doc",
		node(figma.TypeCanvas, "Page1",
			node(figma.TypeInstance, "AUTO_0001"),
			frame("notes",
				frame("AUTO_0001",
					text("label", "Description"),
					text("body", "긴 설명 내용입니다"),
				),
			),
		),
	)

	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.BaseID != "AUTO_0001" {
		t.Errorf("expected baseId AUTO_0001, got %q", rec.BaseID)
	}
	if rec.PageName != "Page1" {
		t.Errorf("expected page Page1, got %q", rec.PageName)
	}
	if !rec.IsParent || rec.Suffix != nil {
		t.Errorf("expected a parent screen without suffix, got %+v", rec)
	}
	if rec.Description == nil || *rec.Description != "긴 설명 내용입니다" {
		t.Errorf("expected description %q, got %v", "긴 설명 내용입니다", rec.Description)
	}
}

func TestExtractAll_FrameScreenWithAnnotationFrame(t *testing.T) {
	root := node(figma.TypeCanvas, "Page1",
		frame("AUTO_0001"),
		frame("notes",
			frame("AUTO_0001",
				text("label", "Description"),
				text("body", "긴 설명 내용입니다 추가"),
			),
		),
	)

	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.BaseID != "AUTO_0001" || rec.PageName != "Page1" {
		t.Errorf("expected AUTO_0001 on Page1, got %q on %q", rec.BaseID, rec.PageName)
	}
	if rec.Description == nil || *rec.Description != "긴 설명 내용입니다 추가" {
		t.Errorf("expected description %q, got %v", "긴 설명 내용입니다 추가", rec.Description)
	}
}

func TestExtractAll_NoScreens(t *testing.T) {
	root := node(figma.TypeDocument, "doc", node(figma.TypeCanvas, "Page1", frame("Login")))
	_, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if !errors.Is(err, ErrNoScreens) {
		t.Fatalf("expected ErrNoScreens, got %v", err)
	}
}

func TestExtractAll_ContextPageSectionDate(t *testing.T) {
	root := node(figma.TypeDocument, "doc",
		node(figma.TypeCanvas, "Login",
			node(figma.TypeSection, "로그인 24.01.15",
				frame("LOGN_0001"),
				frame("v2 2024.02.01", frame("LOGN_0002")),
			),
			frame("LOGN_0003"),
		),
		node(figma.TypeCanvas, "Join", frame("JOIN_0001")),
	)

	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	byName := map[string]ScreenRecord{}
	for _, r := range records {
		byName[r.Name] = r
	}

	first := byName["LOGN_0001"]
	if first.SectionName == nil || *first.SectionName != "로그인 24.01.15" {
		t.Errorf("expected section for LOGN_0001, got %v", first.SectionName)
	}
	if first.CreatedDate == nil || *first.CreatedDate != "24.01.15" {
		t.Errorf("expected inherited date 24.01.15, got %v", first.CreatedDate)
	}

	second := byName["LOGN_0002"]
	if second.CreatedDate == nil || *second.CreatedDate != "2024.02.01" {
		t.Errorf("expected overriding date 2024.02.01, got %v", second.CreatedDate)
	}

	// Siblings outside the section inherit neither section nor date.
	third := byName["LOGN_0003"]
	if third.SectionName != nil || third.CreatedDate != nil {
		t.Errorf("expected no section or date for LOGN_0003, got %+v", third)
	}
	if byName["JOIN_0001"].PageName != "Join" {
		t.Errorf("expected page Join, got %q", byName["JOIN_0001"].PageName)
	}
}

func TestExtractAll_SectionNamedLikeScreen(t *testing.T) {
	root := node(figma.TypeCanvas, "Page1",
		node(figma.TypeSection, "AUTO_0002", frame("AUTO_0003")),
	)
	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The section is the screen; its subtree is not searched.
	if len(records) != 1 || records[0].Name != "AUTO_0002" {
		t.Fatalf("expected only AUTO_0002, got %+v", records)
	}
	if records[0].SectionName != nil {
		t.Errorf("expected no section label, got %v", *records[0].SectionName)
	}
}

func TestExtractAll_FieldsFromPairs(t *testing.T) {
	root := node(figma.TypeCanvas, "Page1",
		frame("MYPG_0001_2",
			text("l1", "화면정보"),
			text("v1", "마이페이지 메인"),
			text("l2", "작성일"),
			text("v2", "2024.03.05 작성"),
			text("l3", "설명"),
			text("m", "1"),
			text("v3", "회원 정보와 주문 내역을 보여줍니다"),
		),
	)
	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := records[0]
	if rec.Suffix == nil || *rec.Suffix != "2" || rec.IsParent {
		t.Errorf("expected suffix 2, got %+v", rec)
	}
	if rec.ScreenInformation == nil || *rec.ScreenInformation != "마이페이지 메인" {
		t.Errorf("unexpected screen information %v", rec.ScreenInformation)
	}
	if rec.CreatedDate == nil || *rec.CreatedDate != "2024.03.05" {
		t.Errorf("unexpected created date %v", rec.CreatedDate)
	}
	if rec.Description == nil || *rec.Description != "회원 정보와 주문 내역을 보여줍니다" {
		t.Errorf("unexpected description %v", rec.Description)
	}
}

func TestExtractAll_DashScreenInformationIsAbsent(t *testing.T) {
	root := node(figma.TypeCanvas, "Page1",
		frame("AUTO_0001", text("l", "Screen Information"), text("v", "-")),
	)
	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records[0].ScreenInformation != nil {
		t.Errorf("expected absent screen information, got %q", *records[0].ScreenInformation)
	}
}

func TestExtractAll_CoverSharedAcrossPrefix(t *testing.T) {
	root := node(figma.TypeDocument, "doc",
		node(figma.TypeCanvas, "Page1",
			frame(CoverFrameName, text("t", "AGRE_0001 약관")),
			frame("AGRE_0001"),
			frame("AGRE_0002"),
			frame("PSET_0001"),
		),
	)
	records, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].CoverData == nil || records[0].CoverData != records[1].CoverData {
		t.Error("expected AGRE screens to share one resolved cover")
	}
	if records[2].CoverData != nil {
		t.Error("expected no cover for PSET")
	}
}

func TestExtractAll_DoesNotMutateInput(t *testing.T) {
	screen := frame("AUTO_0001", text("l", "Description"), text("v", "some description text"))
	root := node(figma.TypeCanvas, "Page1", screen)

	if _, err := NewExtractor(DefaultCatalog(), nil).ExtractAll(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 1 || len(screen.Children) != 2 || screen.Name != "AUTO_0001" {
		t.Fatal("expected input tree to be unchanged")
	}
}

func TestScreenRecord_WithDescriptionItems(t *testing.T) {
	rec := ScreenRecord{Name: "AUTO_0001"}
	lines := []string{"a", "b"}
	got := rec.WithDescriptionItems(lines)
	lines[0] = "changed"
	if rec.DescriptionItems != nil {
		t.Error("expected the original record to stay unchanged")
	}
	if got.DescriptionItems[0] != "a" {
		t.Errorf("expected a copied slice, got %v", got.DescriptionItems)
	}
}

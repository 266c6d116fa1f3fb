package screens

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Field names a semantic annotation a screen container may carry.
type Field string

const (
	FieldScreenID          Field = "screen_id"
	FieldCreatedDate       Field = "created_date"
	FieldScreenInformation Field = "screen_information"
	FieldDescription       Field = "description"
)

// Catalog is the table of recognized label spellings per field. Labels are
// matched case-insensitively against trimmed text; extraction treats each
// entry as a substring pattern.
type Catalog struct {
	ScreenID          []string `yaml:"screen_id" toml:"screen_id" json:"screen_id"`
	CreatedDate       []string `yaml:"created_date" toml:"created_date" json:"created_date"`
	ScreenInformation []string `yaml:"screen_information" toml:"screen_information" json:"screen_information"`
	Description       []string `yaml:"description" toml:"description" json:"description"`
}

// DefaultCatalog returns the built-in Korean and English label spellings.
func DefaultCatalog() Catalog {
	return Catalog{
		ScreenID:          []string{"화면ID", "화면 ID", "화면아이디", "화면번호", "Screen ID", "ScreenID", "Screen No"},
		CreatedDate:       []string{"작성일", "작성일자", "생성일", "등록일", "Created Date", "Created", "Date"},
		ScreenInformation: []string{"화면정보", "화면 정보", "화면명", "Screen Information", "Screen Info"},
		Description:       []string{"설명", "화면설명", "화면 설명", "기능설명", "Description", "Desc"},
	}
}

// LoadCatalog reads a catalog from a YAML or TOML file, chosen by
// extension. Fields left empty in the file keep their default spellings.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".toml":
		err = toml.Unmarshal(data, &c)
	default:
		return Catalog{}, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c.withDefaults(), nil
}

func (c Catalog) withDefaults() Catalog {
	def := DefaultCatalog()
	if len(c.ScreenID) == 0 {
		c.ScreenID = def.ScreenID
	}
	if len(c.CreatedDate) == 0 {
		c.CreatedDate = def.CreatedDate
	}
	if len(c.ScreenInformation) == 0 {
		c.ScreenInformation = def.ScreenInformation
	}
	if len(c.Description) == 0 {
		c.Description = def.Description
	}
	return c
}

// Patterns returns the spellings registered for a field.
func (c Catalog) Patterns(f Field) []string {
	switch f {
	case FieldScreenID:
		return c.ScreenID
	case FieldCreatedDate:
		return c.CreatedDate
	case FieldScreenInformation:
		return c.ScreenInformation
	case FieldDescription:
		return c.Description
	}
	return nil
}

// IsLabel reports whether text is exactly one of the catalog spellings.
func (c Catalog) IsLabel(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, group := range [][]string{c.ScreenID, c.CreatedDate, c.ScreenInformation, c.Description} {
		for _, label := range group {
			if strings.EqualFold(text, label) {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// Sevkiyat Converter - Reference Catalog Loader
// =============================================================================
//
// A catalog lists, per shipment category, the item names that belong to it.
// The matcher compares every order line against these lists.
//
// SUPPORTED FORMATS:
//
//   YAML (.yaml, .yml):
//
//     replacements:
//       GOGUSLU: GOGSU
//     categories:
//       tatli:
//         - Fıstıklı Baklava
//       donuk:
//         - Dondurma Kakaolu 350 GR
//       lojistik:
//         - Peçete
//
//   XLSX (.xlsx): one sheet per category named Tatlı, Donuk or Lojistik, item
//   names in column A. An optional "Değişimler" sheet holds replacement pairs
//   in columns A and B. Sheets whose name starts with "_" are skipped, and a
//   first row that only names the column ("Ürün", "Stok Adı") is a header.
//
// Entries keep their original spelling; normalization happens in the matcher.
//
// =============================================================================

package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/normalize"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// =============================================================================
// CATALOG STRUCTURE
// =============================================================================

// Catalog holds the reference entries for every shipment category.
type Catalog struct {
	// Source is the file the catalog was loaded from, if any.
	Source string

	// Entries maps each shipment category to its item names, in file order.
	Entries map[types.Category][]string

	// Replacements are spelling aliases applied on top of
	// normalize.DefaultReplacements before comparison.
	Replacements map[string]string
}

// New builds a catalog from in-memory entries.
func New(entries map[types.Category][]string) *Catalog {
	c := &Catalog{
		Entries:      make(map[types.Category][]string, len(types.ShipmentCategories)),
		Replacements: map[string]string{},
	}
	for cat, list := range entries {
		c.Entries[cat] = append([]string(nil), list...)
	}
	return c
}

// EntriesFor returns the entries of one category.
func (c *Catalog) EntriesFor(cat types.Category) []string {
	if c == nil {
		return nil
	}
	return c.Entries[cat]
}

// Size returns the total number of entries across categories.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, list := range c.Entries {
		n += len(list)
	}
	return n
}

// Normalizer returns the normalizer the matcher should use with this catalog:
// the default aliases, overridden by the catalog's own.
func (c *Catalog) Normalizer() *normalize.Normalizer {
	merged := make(map[string]string, len(normalize.DefaultReplacements))
	for k, v := range normalize.DefaultReplacements {
		merged[k] = v
	}
	if c != nil {
		for k, v := range c.Replacements {
			merged[normalize.Key(k)] = v
		}
	}
	return normalize.New(merged)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads a catalog, choosing the format by file extension.
func Load(path string) (*Catalog, error) {
	var (
		c   *Catalog
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = loadYAML(path)
	case ".xlsx":
		c, err = loadXLSX(path)
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported catalog format %q", filepath.Ext(path)),
			"use a .yaml, .yml or .xlsx catalog file",
		)
	}
	if err != nil {
		return nil, err
	}

	c.Source = path
	if c.Size() == 0 {
		return nil, errors.WithHint(
			errors.Newf("catalog %s has no entries", path),
			"list item names under tatli, donuk and lojistik",
		)
	}
	return c, nil
}

// fileFormat is the YAML document layout.
type fileFormat struct {
	Replacements map[string]string   `yaml:"replacements"`
	Categories   map[string][]string `yaml:"categories"`
}

func loadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML catalog document.
func ParseYAML(data []byte) (*Catalog, error) {
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog YAML")
	}

	c := New(nil)
	for key, list := range doc.Categories {
		cat, ok := categoryFromName(key)
		if !ok {
			return nil, errors.WithHintf(
				errors.Newf("unknown catalog category %q", key),
				"valid categories: %s", categoryNames(),
			)
		}
		c.Entries[cat] = append(c.Entries[cat], list...)
	}
	for k, v := range doc.Replacements {
		c.Replacements[k] = v
	}
	return c, nil
}

// replacementSheets are the normalized names of the XLSX replacements sheet.
var replacementSheets = map[string]bool{"DEGISIMLER": true, "REPLACEMENTS": true}

// headerCells are first-row values treated as a column title.
var headerCells = map[string]bool{
	"URUN": true, "URUN ADI": true, "STOK ADI": true, "ITEM": true, "ENTRY": true,
}

func loadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open catalog workbook")
	}
	defer f.Close()

	c := New(nil)
	for _, sheet := range f.GetSheetList() {
		if strings.HasPrefix(sheet, "_") {
			continue
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
		}

		if replacementSheets[normalize.Key(sheet)] {
			for i, row := range rows {
				if len(row) < 2 || (i == 0 && headerCells[normalize.Key(row[0])]) {
					continue
				}
				from, to := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
				if from != "" {
					c.Replacements[from] = to
				}
			}
			continue
		}

		cat, ok := categoryFromName(sheet)
		if !ok {
			if sheetIsEmpty(rows) {
				continue
			}
			return nil, errors.WithHintf(
				errors.Newf("unknown catalog sheet %q", sheet),
				"name sheets after a category (%s) or prefix them with _", categoryNames(),
			)
		}
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			entry := strings.TrimSpace(row[0])
			if entry == "" || (i == 0 && headerCells[normalize.Key(entry)]) {
				continue
			}
			c.Entries[cat] = append(c.Entries[cat], entry)
		}
	}
	return c, nil
}

// categoryFromName accepts category keys and display names in any spelling:
// "tatli", "Tatlı", "TATLI".
func categoryFromName(name string) (types.Category, bool) {
	key := normalize.Key(name)
	for _, cat := range types.ShipmentCategories {
		if key == normalize.Key(string(cat)) {
			return cat, true
		}
	}
	return "", false
}

func categoryNames() string {
	names := make([]string, len(types.ShipmentCategories))
	for i, cat := range types.ShipmentCategories {
		names[i] = string(cat)
	}
	return strings.Join(names, ", ")
}

func sheetIsEmpty(rows [][]string) bool {
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
	}
	return true
}

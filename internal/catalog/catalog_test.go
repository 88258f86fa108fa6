package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

const sampleYAML = `
replacements:
  KUNEFE: KUNEFE TEPSI
categories:
  tatli:
    - Fıstıklı Baklava
    - Künefe
  Donuk:
    - Dondurma Kakaolu 350 GR
  lojistik:
    - Peçete
`

func TestParseYAML(t *testing.T) {
	c, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Fıstıklı Baklava", "Künefe"}, c.EntriesFor(types.CategoryTatli))
	assert.Equal(t, []string{"Dondurma Kakaolu 350 GR"}, c.EntriesFor(types.CategoryDonuk))
	assert.Equal(t, []string{"Peçete"}, c.EntriesFor(types.CategoryLojistik))
	assert.Equal(t, 4, c.Size())
	assert.Equal(t, "KUNEFE TEPSI", c.Replacements["KUNEFE"])
}

func TestParseYAML_UnknownCategory(t *testing.T) {
	_, err := ParseYAML([]byte("categories:\n  icecek:\n    - Ayran\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "icecek")
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML([]byte("categories: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.Source)
	assert.Equal(t, 4, c.Size())
}

func TestLoad_EmptyCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: {}\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "catalog.json"))
	assert.Error(t, err)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Tatlı"))
	require.NoError(t, f.SetCellValue("Tatlı", "A1", "Ürün"))
	require.NoError(t, f.SetCellValue("Tatlı", "A2", "Fıstıklı Baklava"))
	require.NoError(t, f.SetCellValue("Tatlı", "A4", "Künefe"))

	_, err := f.NewSheet("DONUK")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("DONUK", "A1", "Dondurma Kakaolu 350 GR"))

	_, err = f.NewSheet("Değişimler")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Değişimler", "A1", "Amasra"))
	require.NoError(t, f.SetCellValue("Değişimler", "B1", "Dadaylı"))

	_, err = f.NewSheet("_notlar")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("_notlar", "A1", "ignored"))

	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fıstıklı Baklava", "Künefe"}, c.EntriesFor(types.CategoryTatli))
	assert.Equal(t, []string{"Dondurma Kakaolu 350 GR"}, c.EntriesFor(types.CategoryDonuk))
	assert.Empty(t, c.EntriesFor(types.CategoryLojistik))
	assert.Equal(t, "Dadaylı", c.Replacements["Amasra"])
}

func TestLoad_XLSXUnknownSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Icecek"))
	require.NoError(t, f.SetCellValue("Icecek", "A1", "Ayran"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Icecek")
}

func TestNormalizer_CatalogOverridesDefaults(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "DADAYLI", c.Normalizer().Key("Amasra"))

	c.Replacements["amasra"] = "Bartın"
	assert.Equal(t, "BARTIN", c.Normalizer().Key("Amasra"))
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Nil(t, c.EntriesFor(types.CategoryTatli))
	assert.Zero(t, c.Size())
	assert.NotNil(t, c.Normalizer())
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

func rulesOf(r *ValidationResult) []string {
	var rules []string
	for _, i := range r.Issues {
		rules = append(rules, i.Rule)
	}
	return rules
}

func TestValidate_CleanCatalog(t *testing.T) {
	c := New(map[types.Category][]string{
		types.CategoryTatli:    {"Baklava", "Künefe"},
		types.CategoryDonuk:    {"Dondurma"},
		types.CategoryLojistik: {"Peçete"},
	})

	r := Validate(c)
	assert.True(t, r.IsValid)
	assert.Empty(t, r.Issues)
	assert.Equal(t, 4, r.EntriesValidated)
}

func TestValidate_Findings(t *testing.T) {
	c := New(map[types.Category][]string{
		types.CategoryTatli: {"Baklava", "BAKLAVA ", "{promo}", "Su"},
		types.CategoryDonuk: {"baklava", "Dondurma"},
	})

	r := Validate(c)
	require.False(t, r.IsValid)
	assert.Equal(t, 1, r.ErrorCount)
	assert.Equal(t, 4, r.WarningCount)
	assert.Equal(t, 6, r.EntriesValidated)
	assert.Equal(t,
		[]string{"duplicate", "empty_entry", "short_entry", "cross_category", "empty_category"},
		rulesOf(r),
	)

	dup := r.Issues[0]
	assert.Equal(t, types.CategoryTatli, dup.Category)
	assert.Equal(t, 1, dup.Index)
	assert.Contains(t, dup.Error(), "WARNING")
	assert.Contains(t, dup.Error(), "#2")

	cross := r.Issues[3]
	assert.Equal(t, types.CategoryDonuk, cross.Category)
	assert.Contains(t, cross.Message, "Tatlı")

	assert.Equal(t, types.CategoryLojistik, r.Issues[4].Category)
	assert.NotContains(t, r.Issues[4].Error(), "#")
}

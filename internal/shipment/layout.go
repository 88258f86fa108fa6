package shipment

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ginjaninja78/sevkiyat-converter/internal/normalize"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// table is a category list laid out for one worksheet.
type table struct {
	title  string
	header []string
	widths []float64
	rows   [][]interface{}

	// totals marks row indexes rendered as subtotal rows.
	totals map[int]bool
}

func layoutFor(list *types.ShipmentList) table {
	switch list.Category {
	case types.CategoryTatli:
		return tatliLayout(list)
	case types.CategoryDonuk:
		return donukLayout(list)
	case types.CategoryLojistik:
		return lojistikLayout(list)
	default:
		return unmatchedLayout(list)
	}
}

// aggregate sums quantities per key, keeping first-seen order and the first
// spelling seen for each key.
type aggregate struct {
	order []string
	names map[string]string
	extra map[string]string
	sums  map[string]float64
}

func newAggregate() *aggregate {
	return &aggregate{
		names: map[string]string{},
		extra: map[string]string{},
		sums:  map[string]float64{},
	}
}

func (a *aggregate) add(key, name, extra string, qty float64) {
	if _, ok := a.sums[key]; !ok {
		a.order = append(a.order, key)
		a.names[key] = name
		a.extra[key] = extra
	}
	a.sums[key] += qty
}

// =============================================================================
// TATLI: one row per item
// =============================================================================

func tatliLayout(list *types.ShipmentList) table {
	agg := newAggregate()
	for _, r := range list.Entries {
		name := normalize.Clean(r.ItemDescription)
		agg.add(normalize.Key(name), name, "", r.Quantity)
	}

	t := table{
		title:  "Tatlı Sevkiyat Listesi",
		header: []string{"Sıra", "Ürün", "Miktar"},
		widths: []float64{8, 45, 12},
	}
	for i, key := range agg.order {
		t.rows = append(t.rows, []interface{}{i + 1, agg.names[key], agg.sums[key]})
	}
	return t
}

// =============================================================================
// DONUK: one row per item and package size
// =============================================================================

var packageSize = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|kilo|gram|gr|g)\b`)

// SplitSize separates a package size from an item name:
// "Dondurma Kakaolu 3.5kg" → ("Dondurma Kakaolu", "3,5 KG").
// Items without a size return an empty size.
func SplitSize(item string) (name, size string) {
	item = normalize.Clean(item)
	loc := packageSize.FindStringSubmatchIndex(item)
	if loc == nil {
		return item, ""
	}
	amount := strings.ReplaceAll(item[loc[2]:loc[3]], ".", ",")
	unit := "GR"
	if u := strings.ToUpper(item[loc[4]:loc[5]]); u == "KG" || u == "KILO" {
		unit = "KG"
	}
	name = strings.TrimSpace(item[:loc[0]] + " " + item[loc[1]:])
	name = strings.Trim(strings.Join(strings.Fields(name), " "), "-/ ")
	return name, amount + " " + unit
}

func donukLayout(list *types.ShipmentList) table {
	agg := newAggregate()
	for _, r := range list.Entries {
		name, size := SplitSize(r.ItemDescription)
		agg.add(normalize.Key(name)+"|"+size, name, size, r.Quantity)
	}

	t := table{
		title:  "Donuk Sevkiyat Listesi",
		header: []string{"Sıra", "Ürün", "Boy", "Miktar"},
		widths: []float64{8, 40, 12, 12},
	}
	for i, key := range agg.order {
		t.rows = append(t.rows, []interface{}{i + 1, agg.names[key], agg.extra[key], agg.sums[key]})
	}
	return t
}

// =============================================================================
// LOJISTIK: items grouped by branch, with a subtotal per branch
// =============================================================================

func lojistikLayout(list *types.ShipmentList) table {
	var branches []string
	perBranch := map[string]*aggregate{}
	for _, r := range list.Entries {
		agg, ok := perBranch[r.BranchCode]
		if !ok {
			agg = newAggregate()
			perBranch[r.BranchCode] = agg
			branches = append(branches, r.BranchCode)
		}
		name := normalize.Clean(r.ItemDescription)
		agg.add(normalize.Key(name), name, "", r.Quantity)
	}

	t := table{
		title:  "Lojistik Sevkiyat Listesi",
		header: []string{"Şube", "Ürün", "Miktar"},
		widths: []float64{20, 45, 12},
		totals: map[int]bool{},
	}
	for _, branch := range branches {
		agg := perBranch[branch]
		subtotal := 0.0
		for _, key := range agg.order {
			t.rows = append(t.rows, []interface{}{branch, agg.names[key], agg.sums[key]})
			subtotal += agg.sums[key]
		}
		t.totals[len(t.rows)] = true
		t.rows = append(t.rows, []interface{}{branch + " Toplam", "", subtotal})
	}
	return t
}

// =============================================================================
// UNMATCHED: one row per record, with everything needed to fix the catalog
// =============================================================================

func unmatchedLayout(list *types.ShipmentList) table {
	t := table{
		title:  "Eşleşmeyen Ürünler",
		header: []string{"Satır", "Ürün", "Miktar", "Şube", "Grup", "Kaynak Dosya", "Ham Alanlar"},
		widths: []float64{8, 40, 10, 18, 15, 25, 60},
	}
	for _, r := range list.Entries {
		t.rows = append(t.rows, []interface{}{
			r.RowNumber,
			r.ItemDescription,
			r.Quantity,
			r.BranchCode,
			r.Group,
			filepath.Base(r.SourceFile),
			formatRawFields(r.RawFields),
		})
	}
	return t
}

// formatRawFields renders fields as "key=value; ..." sorted by key.
func formatRawFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, fields[k])
	}
	return strings.Join(parts, "; ")
}

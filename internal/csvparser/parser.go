// =============================================================================
// Sevkiyat Converter - CSV Parser Module
// =============================================================================
//
// This module turns one branch order export into OrderRecords. Branch exports
// are inconsistent, so the parser tolerates:
//   - Different encodings (UTF-8 with or without BOM, Windows-1254, ISO-8859-9)
//   - Different delimiters (comma, semicolon, tab, pipe)
//   - Preamble lines above the header ("Şube Kodu: 27 - Adana (ADANA27)")
//   - Header spelling variants ("Miktar", "MİKTAR", "Adet")
//   - Turkish and English number formats ("1.234,50", "1,234.50", "5")
//
// PARSING PROCESS:
//   1. Read the whole file (one file is in memory at a time)
//   2. Try each Strategy (encoding × delimiter) in order
//   3. A strategy wins when it decodes cleanly and a header row with both an
//      item description and a quantity column is found
//   4. Every non-blank row after the header becomes one OrderRecord
//
// FAILURES:
//   Parse returns *errors.ParseError when the file cannot be opened, is empty,
//   or no strategy finds the required header. Rows are never dropped for bad
//   values: an unparseable quantity becomes 0 and is flagged in RawFields.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ginjaninja78/sevkiyat-converter/internal/config"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/normalize"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

// QuantityInvalidField is the RawFields key set on records whose quantity
// could not be parsed. Its value is the original text.
const QuantityInvalidField = "_quantity_invalid"

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how files are parsed.
type Settings struct {
	// Strategies are tried in order; see BuildStrategies.
	Strategies []Strategy

	// HeaderScanRows is how many leading rows may precede the header.
	HeaderScanRows int

	// Columns lists the accepted header spellings per logical column.
	Columns config.ColumnAliases
}

// SettingsFromConfig builds parser settings from the application config.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	strategies, err := BuildStrategies(cfg.Parser.Encodings, cfg.Parser.Delimiters)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Strategies:     strategies,
		HeaderScanRows: cfg.Parser.HeaderScanRows,
		Columns:        cfg.Columns,
	}, nil
}

// DefaultSettings returns the settings produced by the default config.
func DefaultSettings() Settings {
	s, err := SettingsFromConfig(config.Default())
	if err != nil {
		panic(err) // defaults are static
	}
	return s
}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData is the parsed content of one file.
type CSVData struct {
	// SourceFile is the path that was parsed.
	SourceFile string

	// Strategy is the strategy that read the file.
	Strategy Strategy

	// Headers are the cleaned header cells.
	Headers []string

	// HeaderRow is the 1-based line of the header.
	HeaderRow int

	// Branch is the file-level branch (preamble line or file name).
	Branch string

	// Records holds one OrderRecord per data row, in file order.
	Records []types.OrderRecord

	// InvalidQuantities counts records whose quantity was flagged.
	InvalidQuantities int
}

// columnLayout records where each logical column sits in the header.
type columnLayout struct {
	description int
	quantity    int
	group       int
	branch      int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns its order records.
func Parse(filePath string, settings Settings) ([]types.OrderRecord, error) {
	data, err := ParseFile(filePath, settings)
	if err != nil {
		return nil, err
	}
	return data.Records, nil
}

// ParseFile reads a CSV file and returns the records together with parsing
// metadata.
func ParseFile(filePath string, settings Settings) (*CSVData, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.NewParseError(filePath, errors.Wrap(err, "failed to open file"))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.NewParseErrorf(filePath, "file is empty")
	}
	if len(settings.Strategies) == 0 {
		return nil, errors.NewParseErrorf(filePath, "no parsing strategies configured")
	}

	scan := settings.HeaderScanRows
	if scan <= 0 {
		scan = 1
	}

	var attempts []string
	for _, strategy := range settings.Strategies {
		text, err := strategy.decode(raw)
		if err != nil {
			attempts = append(attempts, strategy.Name()+": "+err.Error())
			continue
		}

		rows, lines, err := readRows(text, strategy.Delimiter)
		if err != nil {
			attempts = append(attempts, strategy.Name()+": "+err.Error())
			continue
		}

		headerIdx, layout, ok := locateHeader(rows, scan, settings.Columns)
		if !ok {
			attempts = append(attempts, strategy.Name()+": required columns not found")
			continue
		}

		return buildData(filePath, strategy, rows, lines, headerIdx, layout), nil
	}

	err = errors.Newf("no strategy found a header with item description and quantity columns (tried %d)", len(attempts))
	err = errors.WithDetail(err, strings.Join(attempts, "\n"))
	err = errors.WithHint(err, "check the file encoding, delimiter, and that it has a Miktar/Adet column")
	return nil, errors.NewParseError(filePath, err)
}

// readRows splits decoded text into rows, keeping each row's starting line.
func readRows(text string, delimiter rune) ([][]string, []int, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to read CSV")
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("no rows")
	}
	return rows, lines, nil
}

// locateHeader finds the first row within the scan window that names both
// required columns.
func locateHeader(rows [][]string, scan int, aliases config.ColumnAliases) (int, columnLayout, bool) {
	limit := scan
	if limit > len(rows) {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		keys := make([]string, len(rows[i]))
		for j, cell := range rows[i] {
			keys[j] = normalize.Key(cell)
		}

		used := map[int]bool{}
		desc := findColumn(keys, aliases.Description, used)
		if desc < 0 {
			continue
		}
		used[desc] = true
		qty := findColumn(keys, aliases.Quantity, used)
		if qty < 0 {
			continue
		}
		used[qty] = true

		layout := columnLayout{description: desc, quantity: qty, group: -1, branch: -1}
		if g := findColumn(keys, aliases.Group, used); g >= 0 {
			layout.group = g
			used[g] = true
		}
		if b := findColumn(keys, aliases.Branch, used); b >= 0 {
			layout.branch = b
		}
		return i, layout, true
	}
	return -1, columnLayout{}, false
}

// findColumn returns the index of the first header matching an alias: exact
// matches across all aliases are preferred over substring matches.
func findColumn(keys []string, aliases []string, used map[int]bool) int {
	for _, alias := range aliases {
		a := normalize.Key(alias)
		for i, k := range keys {
			if !used[i] && k != "" && k == a {
				return i
			}
		}
	}
	for _, alias := range aliases {
		a := normalize.Key(alias)
		if a == "" {
			continue
		}
		for i, k := range keys {
			if !used[i] && k != "" && strings.Contains(k, a) {
				return i
			}
		}
	}
	return -1
}

// buildData converts the rows after the header into records.
func buildData(filePath string, strategy Strategy, rows [][]string, lines []int, headerIdx int, layout columnLayout) *CSVData {
	headers := cleanHeaders(rows[headerIdx])

	preambleBranch := branchFromPreamble(rows[:headerIdx])
	branch := preambleBranch
	if branch == "" {
		branch = branchFromFileName(filePath)
	}

	data := &CSVData{
		SourceFile: filePath,
		Strategy:   strategy,
		Headers:    headers,
		HeaderRow:  lines[headerIdx],
		Branch:     branch,
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				fields[header] = strings.TrimSpace(row[col])
			} else {
				fields[header] = ""
			}
		}

		rawQty := cell(row, layout.quantity)
		qty, ok := ParseQuantity(rawQty)
		if !ok {
			qty = 0
			fields[QuantityInvalidField] = rawQty
			data.InvalidQuantities++
		}

		recordBranch := branch
		if b := cell(row, layout.branch); b != "" && preambleBranch == "" {
			recordBranch = b
		}

		data.Records = append(data.Records, types.OrderRecord{
			SourceFile:      filePath,
			BranchCode:      recordBranch,
			ItemDescription: cell(row, layout.description),
			Quantity:        qty,
			Group:           cell(row, layout.group),
			RowNumber:       lines[i],
			RawFields:       fields,
		})
	}

	return data
}

// cleanHeaders trims header cells, names empty ones by position and makes
// duplicates unique.
func cleanHeaders(row []string) []string {
	cleaned := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, header := range row {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = "Column_" + strconv.Itoa(i+1)
		}
		if n := seen[header]; n > 0 {
			seen[header] = n + 1
			header = header + "_" + strconv.Itoa(n+1)
		} else {
			seen[header] = 1
		}
		cleaned[i] = header
	}
	return cleaned
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// BRANCH DETECTION
// =============================================================================

var parenthesised = regexp.MustCompile(`\(([^)]+)\)`)

// branchFromPreamble looks for a "Şube Kodu: ..." or "Şube Adı: ..." line
// above the header.
func branchFromPreamble(preamble [][]string) string {
	for _, row := range preamble {
		if b := branchFromLine(joinCells(row)); b != "" {
			return b
		}
	}
	return ""
}

func joinCells(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

// branchFromLine extracts the branch from a preamble line. The value after the
// colon is used; a "code - name" pair keeps the name; a parenthesised value
// wins over both; a trailing " DEPO" is dropped.
func branchFromLine(line string) string {
	up := normalize.Upper(line)
	if !strings.Contains(up, "SUBE") || !(strings.Contains(up, "KODU") || strings.Contains(up, "ADI")) {
		return ""
	}

	part := line
	if i := strings.Index(part, ":"); i >= 0 {
		part = part[i+1:]
	} else {
		return ""
	}
	if i := strings.Index(part, "-"); i >= 0 {
		part = part[i+1:]
	}
	part = strings.Trim(strings.TrimSpace(part), `"'`)
	if m := parenthesised.FindStringSubmatch(part); m != nil {
		return strings.TrimSpace(m[1])
	}
	if fields := strings.Fields(part); len(fields) > 1 && normalize.Key(fields[len(fields)-1]) == "DEPO" {
		part = strings.Join(fields[:len(fields)-1], " ")
	}
	return strings.TrimSpace(part)
}

// branchFromFileName uses the file name without extension, e.g. "adana27".
func branchFromFileName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// QUANTITIES
// =============================================================================

var dotThousands = regexp.MustCompile(`^[1-9]\d{0,2}(\.\d{3})+$`)

// ParseQuantity parses an ordered amount. It accepts "5", "5,5", "1.234,50",
// "1,234.50", "1.500" (Turkish thousands) and trailing unit words ("5 ADET").
// Negative, empty or non-numeric values report false.
func ParseQuantity(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	s = strings.TrimRightFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsSpace(r) })
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0:
		if dotThousands.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// =============================================================================
// Sevkiyat Converter - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Values come from, in
// increasing precedence:
//   1. Built-in defaults (SetDefaults)
//   2. The config file (config.yaml by default, optional)
//   3. Environment variables prefixed with SEVKIYAT_ (e.g. SEVKIYAT_OUTPUT_DIR)
//
// Reference catalogs live in their own file (catalog_file) and are loaded by
// the catalog package.
//
// =============================================================================

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "SEVKIYAT"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// OutputDir is where shipment workbooks are written.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// RunSubdir places each batch's artifacts in a timestamped subdirectory of
	// OutputDir so one run never overwrites another.
	// Default: true
	RunSubdir bool `mapstructure:"run_subdir"`

	// CatalogFile is the path to the reference catalog (.yaml, .yml or .xlsx).
	// Default: "./catalog.yaml"
	CatalogFile string `mapstructure:"catalog_file"`

	// ArchiveDir, when set, receives input files that were processed
	// successfully. Empty disables archival.
	ArchiveDir string `mapstructure:"archive_dir"`

	// ArchiveTimestampSubdirs files archived inputs under YYYY/MM/DD.
	// Default: false
	ArchiveTimestampSubdirs bool `mapstructure:"archive_timestamp_subdirs"`

	// OutputNameFormat names each artifact. Placeholders:
	//   {original} input file name without extension
	//   {category} category key (tatli, donuk, lojistik, eslesmeyen)
	//   {branch}   branch code
	//   {date}     current date (YYYYMMDD)
	//   {uuid}     random UUID
	// Default: "{original}_{category}.xlsx"
	OutputNameFormat string `mapstructure:"output_name_format"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// JSONLogs switches the logger to JSON output.
	JSONLogs bool `mapstructure:"json_logs"`

	// FuzzyThreshold is the minimum normalized Levenshtein similarity
	// (0..1] for a fuzzy catalog match.
	// Default: 0.85
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`

	// Parser controls the CSV parsing strategies.
	Parser ParserSettings `mapstructure:"parser"`

	// Columns holds the header aliases used to locate logical columns.
	Columns ColumnAliases `mapstructure:"columns"`
}

// ParserSettings configures the ordered parsing strategies. Every encoding is
// tried with every delimiter, in the order listed, until one yields a header.
type ParserSettings struct {
	// Encodings: utf-8, windows-1254, iso-8859-9.
	Encodings []string `mapstructure:"encodings"`

	// Delimiters: single characters, or the names "tab", "semicolon", "pipe", "comma".
	Delimiters []string `mapstructure:"delimiters"`

	// HeaderScanRows is how many leading rows may precede the header.
	HeaderScanRows int `mapstructure:"header_scan_rows"`
}

// ColumnAliases lists accepted header spellings per logical column. Matching
// is done on normalized text, so "Miktar", "MİKTAR" and "miktar" are equal.
type ColumnAliases struct {
	Description []string `mapstructure:"description"`
	Quantity    []string `mapstructure:"quantity"`
	Group       []string `mapstructure:"group"`
	Branch      []string `mapstructure:"branch"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "./output")
	v.SetDefault("run_subdir", true)
	v.SetDefault("catalog_file", "./catalog.yaml")
	v.SetDefault("archive_dir", "")
	v.SetDefault("archive_timestamp_subdirs", false)
	v.SetDefault("output_name_format", "{original}_{category}.xlsx")
	v.SetDefault("log_level", "info")
	v.SetDefault("json_logs", false)
	v.SetDefault("fuzzy_threshold", 0.85)

	v.SetDefault("parser.encodings", []string{"utf-8", "windows-1254", "iso-8859-9"})
	v.SetDefault("parser.delimiters", []string{",", ";", "tab", "|"})
	v.SetDefault("parser.header_scan_rows", 5)

	v.SetDefault("columns.description", []string{
		"STOK ADI", "STOK KODU", "STOKKODU", "STOK KOD", "URUN ADI", "URUN", "MALZEME", "ITEM", "DESCRIPTION",
	})
	v.SetDefault("columns.quantity", []string{"MIKTAR", "ADET", "QUANTITY"})
	v.SetDefault("columns.group", []string{"GRUP", "GRUP ADI", "KATEGORI", "KATEGORI ADI"})
	v.SetDefault("columns.branch", []string{"SUBE", "SUBE ADI", "SUBEADI", "BAYI", "BAYI ADI", "FIRMA ADI"})
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from configPath. A missing file is not an error:
// defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to stat config file %s", configPath)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// applyDefaults repairs values that were explicitly set to empty.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{original}_{category}.xlsx"
	}
	if cfg.Parser.HeaderScanRows <= 0 {
		cfg.Parser.HeaderScanRows = 5
	}
	if len(cfg.Parser.Encodings) == 0 {
		cfg.Parser.Encodings = []string{"utf-8"}
	}
	if len(cfg.Parser.Delimiters) == 0 {
		cfg.Parser.Delimiters = []string{","}
	}
}

// Validate checks that the configuration is usable.
func Validate(cfg *Config) error {
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		return errors.Newf("fuzzy_threshold must be in (0, 1], got %v", cfg.FuzzyThreshold)
	}
	if !strings.Contains(cfg.OutputNameFormat, "{category}") {
		return errors.WithHint(
			errors.Newf("output_name_format %q has no {category} placeholder", cfg.OutputNameFormat),
			"categories of one file would overwrite each other",
		)
	}
	if len(cfg.Columns.Description) == 0 {
		return errors.New("columns.description must list at least one alias")
	}
	if len(cfg.Columns.Quantity) == 0 {
		return errors.New("columns.quantity must list at least one alias")
	}
	for _, enc := range cfg.Parser.Encodings {
		if !SupportedEncoding(enc) {
			return errors.WithHint(
				errors.Newf("unsupported encoding %q", enc),
				"use utf-8, windows-1254 or iso-8859-9",
			)
		}
	}
	for _, d := range cfg.Parser.Delimiters {
		if _, err := DelimiterRune(d); err != nil {
			return err
		}
	}
	return nil
}

// SupportedEncoding reports whether the parser can decode enc.
func SupportedEncoding(enc string) bool {
	switch NormalizeEncodingName(enc) {
	case "utf-8", "windows-1254", "iso-8859-9":
		return true
	}
	return false
}

// NormalizeEncodingName maps common spellings to a canonical name.
func NormalizeEncodingName(enc string) string {
	e := strings.ToLower(strings.TrimSpace(enc))
	switch e {
	case "utf8", "utf-8", "utf-8-sig":
		return "utf-8"
	case "windows-1254", "cp1254", "win1254":
		return "windows-1254"
	case "iso-8859-9", "latin5", "iso8859-9":
		return "iso-8859-9"
	}
	return e
}

// DelimiterRune converts a configured delimiter to the rune used by encoding/csv.
func DelimiterRune(d string) (rune, error) {
	switch strings.ToLower(d) {
	case "\\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	case ",", "comma":
		return ',', nil
	}
	r := []rune(d)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, errors.Newf("invalid delimiter %q", d)
	}
	return r[0], nil
}

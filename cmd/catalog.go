// =============================================================================
// Sevkiyat Converter - Catalog Commands
// =============================================================================
//
// COMMAND USAGE:
//   sevkiyat catalog validate [--catalog FILE]
//   sevkiyat catalog match "ITEM NAME" [...] [--catalog FILE]
//
// 'validate' reports empty, duplicate, cross-category and too-short entries.
// It exits non-zero only for errors; warnings are printed.
//
// 'match' classifies item names the way the process command would, which
// helps when editing the catalog.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sevkiyat-converter/internal/catalog"
	"github.com/ginjaninja78/sevkiyat-converter/internal/errors"
	"github.com/ginjaninja78/sevkiyat-converter/internal/matcher"
	"github.com/ginjaninja78/sevkiyat-converter/internal/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the reference catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCatalogValidate()
	},
}

var catalogMatchCmd = &cobra.Command{
	Use:   "match ITEM...",
	Short: "Show which category each item name is routed to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCatalogMatch(args)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogMatchCmd)

	catalogCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Catalog file (overrides catalog_file)")
}

func catalogFile() string {
	if catalogPath != "" {
		return catalogPath
	}
	return appConfig.CatalogFile
}

func runCatalogValidate() error {
	path := catalogFile()
	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	result := catalog.Validate(cat)
	pterm.Info.Printf("Catalog: %s\n", path)
	for _, c := range types.ShipmentCategories {
		pterm.Printf("  %-10s %d entries\n", c.DisplayName(), len(cat.EntriesFor(c)))
	}
	if len(cat.Replacements) > 0 {
		pterm.Printf("  %-10s %d\n", "Aliases", len(cat.Replacements))
	}
	pterm.Println()

	for _, issue := range result.Issues {
		if issue.Severity == catalog.SeverityError {
			pterm.Error.Println(issue.Error())
		} else {
			pterm.Warning.Println(issue.Error())
		}
	}

	line := fmt.Sprintf("%d entries checked: %d error(s), %d warning(s)",
		result.EntriesValidated, result.ErrorCount, result.WarningCount)
	if !result.IsValid {
		pterm.Error.Println(line)
		return errors.Newf("catalog %s is invalid", path)
	}
	pterm.Success.Println(line)
	return nil
}

func runCatalogMatch(items []string) error {
	cat, err := catalog.Load(catalogFile())
	if err != nil {
		return err
	}
	m := matcher.New(cat,
		matcher.WithThreshold(appConfig.FuzzyThreshold),
		matcher.WithLogger(logger),
	)

	data := pterm.TableData{{"Ürün", "Kategori", "Eşleşme", "Katalog Kaydı"}}
	for _, item := range items {
		a := m.Classify(types.OrderRecord{ItemDescription: item})
		data = append(data, []string{item, a.Category.DisplayName(), string(a.Confidence), a.MatchedEntry})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// =============================================================================
// Sevkiyat Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   sevkiyat process [files...]   - Convert branch order CSVs to shipment workbooks
//   sevkiyat catalog validate     - Check the reference catalog
//   sevkiyat catalog match ITEM   - Show how an item name is classified
//   sevkiyat version              - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : Cobra command definitions
//   - internal/  : Parsing, matching, rendering and batch orchestration
//   - pkg/utils  : File discovery, naming, archival and the summary log
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sevkiyat-converter/cmd"
)

func main() {
	cmd.Execute()
}

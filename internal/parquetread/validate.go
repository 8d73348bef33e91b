package parquetread

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// pricingColumns: a usable extract needs at least one way to price a code,
// either RVU components or pre-computed fee amounts.
var pricingColumns = []string{"work_rvu", "fac_pe_rvu", "non_fac_pe_rvu", "fac_fee", "non_fac_fee"}

// ValidateSchema checks that the Parquet schema carries the addressing
// columns and at least one pricing column.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	for _, col := range []string{"hcpcs_code", "year"} {
		if !columns[col] {
			return fmt.Errorf("missing required column: %s", col)
		}
	}

	for _, col := range pricingColumns {
		if columns[col] {
			return nil
		}
	}
	return fmt.Errorf("no pricing columns found; need at least one of: %s",
		strings.Join(pricingColumns, ", "))
}

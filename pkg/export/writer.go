// Package export persists the merged labor table to output sinks.
package export

import (
	"strconv"

	"github.com/laborstats/bls-client/pkg/table"
)

// Writer is the interface any output sink must satisfy.
type Writer interface {
	Write(rows []table.MergedRow) error
	Close() error
}

// Columns is the canonical output column order.
var Columns = []string{
	"parish",
	"date",
	"labor_force",
	"employment",
	"unemployment",
	"unemployment_rate",
	"national_labor_force",
	"national_employment",
	"national_unemployment",
	"national_unemployment_rate",
}

// dateFormat renders dates as calendar days (always the first of the month).
const dateFormat = "2006-01-02"

// formatValue renders one metric cell; nil is the empty field.
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// rowFields renders one merged row in canonical column order.
func rowFields(row table.MergedRow) []string {
	return []string{
		row.Entity,
		row.Date.Format(dateFormat),
		formatValue(row.LaborForce),
		formatValue(row.Employment),
		formatValue(row.Unemployment),
		formatValue(row.UnemploymentRate),
		formatValue(row.NationalLaborForce),
		formatValue(row.NationalEmployment),
		formatValue(row.NationalUnemployment),
		formatValue(row.NationalUnemploymentRate),
	}
}

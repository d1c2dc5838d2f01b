// Package table pivots flat observations into wide per-entity rows and
// joins regional rows with national reference columns.
package table

import (
	"sort"
	"time"

	"github.com/laborstats/bls-client/pkg/catalog"
	"github.com/laborstats/bls-client/pkg/fetch"
)

// WideRow is one row per unique (entity, date) with one column per metric.
// A nil pointer is the explicit missing marker for a metric that had no
// observation in that month.
type WideRow struct {
	Entity string
	Date   time.Time

	LaborForce       *float64
	Employment       *float64
	Unemployment     *float64
	UnemploymentRate *float64
}

// Metric returns the column value for the given metric.
func (r *WideRow) Metric(m catalog.Metric) *float64 {
	switch m {
	case catalog.MetricLaborForce:
		return r.LaborForce
	case catalog.MetricEmployment:
		return r.Employment
	case catalog.MetricUnemployment:
		return r.Unemployment
	case catalog.MetricUnemploymentRate:
		return r.UnemploymentRate
	default:
		return nil
	}
}

// setMetric fills the column for the given metric.
func (r *WideRow) setMetric(m catalog.Metric, value float64) {
	v := value
	switch m {
	case catalog.MetricLaborForce:
		r.LaborForce = &v
	case catalog.MetricEmployment:
		r.Employment = &v
	case catalog.MetricUnemployment:
		r.Unemployment = &v
	case catalog.MetricUnemploymentRate:
		r.UnemploymentRate = &v
	}
}

// rowKey identifies one (entity, month) group.
type rowKey struct {
	entity string
	date   int64
}

// Reshape pivots observations into one WideRow per unique (entity, date).
// Output is sorted by entity (lexical) then date ascending, so repeated runs
// over the same input produce identical tables. Empty input yields empty
// output.
func Reshape(observations []fetch.Observation) []WideRow {
	if len(observations) == 0 {
		return nil
	}

	groups := make(map[rowKey]*WideRow)
	for _, obs := range observations {
		key := rowKey{entity: obs.Entity, date: obs.Date.Unix()}
		row, ok := groups[key]
		if !ok {
			row = &WideRow{Entity: obs.Entity, Date: obs.Date}
			groups[key] = row
		}
		row.setMetric(obs.Metric, obs.Value)
	}

	rows := make([]WideRow, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sortRows(rows)

	return rows
}

// sortRows orders rows by entity (lexical) then date ascending.
func sortRows(rows []WideRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Entity != rows[j].Entity {
			return rows[i].Entity < rows[j].Entity
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}

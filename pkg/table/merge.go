package table

import (
	"fmt"
	"sort"
)

// MergedRow is a regional WideRow augmented with the national columns for
// the same month. National columns carry the national_ prefix downstream to
// avoid colliding with the regional metric names. Nil national columns mean
// no national row existed for that date.
type MergedRow struct {
	WideRow

	NationalLaborForce       *float64
	NationalEmployment       *float64
	NationalUnemployment     *float64
	NationalUnemploymentRate *float64
}

// Merge left-joins regional rows with national rows on date. Every regional
// row survives exactly once; months without national data get nil national
// columns. National input must have at most one row per date - duplicates
// would silently multiply regional rows in a naive join, so they fail loudly
// instead.
func Merge(national, regional []WideRow) ([]MergedRow, error) {
	byDate := make(map[int64]WideRow, len(national))
	for _, row := range national {
		key := row.Date.Unix()
		if prev, dup := byDate[key]; dup {
			return nil, fmt.Errorf("duplicate national rows for %s (entities %q, %q)",
				row.Date.Format("2006-01"), prev.Entity, row.Entity)
		}
		byDate[key] = row
	}

	merged := make([]MergedRow, 0, len(regional))
	for _, row := range regional {
		m := MergedRow{WideRow: row}
		if nat, ok := byDate[row.Date.Unix()]; ok {
			m.NationalLaborForce = nat.LaborForce
			m.NationalEmployment = nat.Employment
			m.NationalUnemployment = nat.Unemployment
			m.NationalUnemploymentRate = nat.UnemploymentRate
		}
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Entity != merged[j].Entity {
			return merged[i].Entity < merged[j].Entity
		}
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged, nil
}

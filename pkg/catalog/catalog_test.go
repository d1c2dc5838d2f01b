package catalog

import (
	"regexp"
	"testing"
)

func TestNationalSeries(t *testing.T) {
	series := NationalSeries()

	if len(series) != 4 {
		t.Fatalf("NationalSeries() returned %d series, want 4", len(series))
	}

	for id, info := range series {
		if info.Entity != EntityNational {
			t.Errorf("Series %s entity = %q, want %q", id, info.Entity, EntityNational)
		}
	}

	// Every metric must be covered exactly once.
	seen := make(map[Metric]int)
	for _, info := range series {
		seen[info.Metric]++
	}
	for _, m := range Metrics() {
		if seen[m] != 1 {
			t.Errorf("Metric %s covered %d times, want 1", m, seen[m])
		}
	}
}

func TestParishSeries(t *testing.T) {
	series := ParishSeries()

	wantCount := Parishes() * len(Metrics())
	if len(series) != wantCount {
		t.Fatalf("ParishSeries() returned %d series, want %d", len(series), wantCount)
	}

	// LAUS county format: LAUCN + "22" + 3-digit county FIPS + "000000" + 4-digit measure code.
	idFormat := regexp.MustCompile(`^LAUCN22\d{3}000000000[3-6]$`)
	for id, info := range series {
		if !idFormat.MatchString(id) {
			t.Errorf("Series ID %q does not match LAUS county format", id)
		}
		if info.Entity == "" || info.Entity == EntityNational {
			t.Errorf("Series %s entity = %q, want a parish name", id, info.Entity)
		}
	}
}

func TestParishSeries_EveryParishHasAllMetrics(t *testing.T) {
	series := ParishSeries()

	byParish := make(map[string]map[Metric]bool)
	for _, info := range series {
		if byParish[info.Entity] == nil {
			byParish[info.Entity] = make(map[Metric]bool)
		}
		byParish[info.Entity][info.Metric] = true
	}

	if len(byParish) != Parishes() {
		t.Fatalf("Catalog covers %d parishes, want %d", len(byParish), Parishes())
	}

	for parish, metrics := range byParish {
		for _, m := range Metrics() {
			if !metrics[m] {
				t.Errorf("Parish %q missing metric %s", parish, m)
			}
		}
	}
}

func TestMetrics_CanonicalOrder(t *testing.T) {
	want := []Metric{
		MetricLaborForce,
		MetricEmployment,
		MetricUnemployment,
		MetricUnemploymentRate,
	}

	got := Metrics()
	if len(got) != len(want) {
		t.Fatalf("Metrics() returned %d metrics, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Metrics()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

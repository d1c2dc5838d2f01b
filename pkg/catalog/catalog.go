// Package catalog defines the immutable series catalogs for the BLS pull:
// the national CPS series, the Louisiana parish FIPS table, and the LAUS
// measure codes used to construct parish-level series IDs.
package catalog

import "fmt"

// Metric identifies one of the four labor-market measures tracked per entity.
type Metric string

const (
	// MetricLaborForce is the civilian labor force level.
	MetricLaborForce Metric = "labor_force"

	// MetricEmployment is the employment level.
	MetricEmployment Metric = "employment"

	// MetricUnemployment is the unemployment level.
	MetricUnemployment Metric = "unemployment"

	// MetricUnemploymentRate is the unemployment rate in percent.
	MetricUnemploymentRate Metric = "unemployment_rate"
)

// Metrics returns all metrics in canonical column order.
func Metrics() []Metric {
	return []Metric{
		MetricLaborForce,
		MetricEmployment,
		MetricUnemployment,
		MetricUnemploymentRate,
	}
}

// EntityNational is the entity name used for national-level series.
const EntityNational = "national"

// SeriesInfo describes what a BLS series ID measures: which entity it covers
// and which metric it carries.
type SeriesInfo struct {
	Entity string
	Metric Metric
}

// National CPS series IDs (seasonally adjusted, household survey).
var nationalSeriesIDs = map[Metric]string{
	MetricLaborForce:       "LNS11000000",
	MetricEmployment:       "LNS12000000",
	MetricUnemployment:     "LNS13000000",
	MetricUnemploymentRate: "LNS14000000",
}

// LAUS measure codes, appended as the last four digits of a LAUCN series ID.
var lausMeasureCodes = map[Metric]string{
	MetricLaborForce:       "0006",
	MetricEmployment:       "0005",
	MetricUnemployment:     "0004",
	MetricUnemploymentRate: "0003",
}

// stateFIPSLouisiana is the two-digit state FIPS code for Louisiana.
const stateFIPSLouisiana = "22"

// louisianaParishFIPS maps Louisiana parish names to three-digit county FIPS codes.
var louisianaParishFIPS = map[string]string{
	"Acadia Parish":               "001",
	"Allen Parish":                "003",
	"Ascension Parish":            "005",
	"Assumption Parish":           "007",
	"Avoyelles Parish":            "009",
	"Beauregard Parish":           "011",
	"Bienville Parish":            "013",
	"Bossier Parish":              "015",
	"Caddo Parish":                "017",
	"Calcasieu Parish":            "019",
	"Caldwell Parish":             "021",
	"Cameron Parish":              "023",
	"Catahoula Parish":            "025",
	"Claiborne Parish":            "027",
	"Concordia Parish":            "029",
	"De Soto Parish":              "031",
	"East Baton Rouge Parish":     "033",
	"East Carroll Parish":         "035",
	"East Feliciana Parish":       "037",
	"Evangeline Parish":           "039",
	"Franklin Parish":             "041",
	"Grant Parish":                "043",
	"Iberia Parish":               "045",
	"Iberville Parish":            "047",
	"Jackson Parish":              "049",
	"Jefferson Parish":            "051",
	"Jefferson Davis Parish":      "053",
	"Lafayette Parish":            "055",
	"Lafourche Parish":            "057",
	"La Salle Parish":             "059",
	"Lincoln Parish":              "061",
	"Livingston Parish":           "063",
	"Madison Parish":              "065",
	"Morehouse Parish":            "067",
	"Natchitoches Parish":         "069",
	"Orleans Parish":              "071",
	"Ouachita Parish":             "073",
	"Plaquemines Parish":          "075",
	"Pointe Coupee Parish":        "077",
	"Rapides Parish":              "079",
	"Red River Parish":            "081",
	"Richland Parish":             "083",
	"Sabine Parish":               "085",
	"St. Bernard Parish":          "087",
	"St. Charles Parish":          "089",
	"St. Helena Parish":           "091",
	"St. James Parish":            "093",
	"St. John the Baptist Parish": "095",
	"St. Landry Parish":           "097",
	"St. Martin Parish":           "099",
	"St. Mary Parish":             "101",
	"St. Tammany Parish":          "103",
	"Tangipahoa Parish":           "105",
	"Tensas Parish":               "107",
	"Terrebonne Parish":           "109",
	"Union Parish":                "111",
	"Vermilion Parish":            "113",
	"Vernon Parish":               "115",
	"Washington Parish":           "117",
	"Webster Parish":              "119",
	"West Baton Rouge Parish":     "121",
	"West Carroll Parish":         "123",
	"West Feliciana Parish":       "125",
	"Winn Parish":                 "127",
}

// NationalSeries returns the catalog of national series IDs, one per metric.
func NationalSeries() map[string]SeriesInfo {
	series := make(map[string]SeriesInfo, len(nationalSeriesIDs))
	for metric, id := range nationalSeriesIDs {
		series[id] = SeriesInfo{Entity: EntityNational, Metric: metric}
	}
	return series
}

// ParishSeries returns the catalog of LAUS series IDs covering every
// Louisiana parish and every metric. Series IDs follow the LAUS county
// format: "LAUCN" + state FIPS + county FIPS + "000000" + measure code.
func ParishSeries() map[string]SeriesInfo {
	series := make(map[string]SeriesInfo, len(louisianaParishFIPS)*len(lausMeasureCodes))
	for parish, countyFIPS := range louisianaParishFIPS {
		for metric, code := range lausMeasureCodes {
			id := fmt.Sprintf("LAUCN%s%s000000%s", stateFIPSLouisiana, countyFIPS, code)
			series[id] = SeriesInfo{Entity: parish, Metric: metric}
		}
	}
	return series
}

// Parishes returns the number of parishes in the catalog.
func Parishes() int {
	return len(louisianaParishFIPS)
}

// Package grid prepares the raw electricity-grid feed for modeling: column
// reduction, calendar aggregation, outlier marking and the chronological
// train/test split.
package grid

// Column names of the raw 5-minute feed. All power figures are gigawatts.
//
// The feed carries 20 generation-source columns: the six retained majors
// plus the 14 minor sources and interconnects in MinorColumns. demand,
// frequency and north_south are grid measurements rather than sources
// (north_south is an inter-regional transfer, like the interconnects but
// internal) and are dropped with the row id during reduction.
const (
	ColID         = "id"
	ColTimestamp  = "timestamp"
	ColDemand     = "demand"
	ColFrequency  = "frequency"
	ColNorthSouth = "north_south"

	ColCoal    = "coal"
	ColNuclear = "nuclear"
	ColCCGT    = "ccgt"
	ColWind    = "wind"
	ColPumped  = "pumped"
	ColHydro   = "hydro"

	// ColTotalOther replaces the minor source and interconnect columns
	// after reduction.
	ColTotalOther = "total_other"

	// ColOutlier is the binary indicator added to the model input frame.
	ColOutlier = "outlier"
)

// MajorColumns are the source columns retained through reduction.
var MajorColumns = []string{
	ColDemand, ColCoal, ColNuclear, ColCCGT, ColWind, ColPumped, ColHydro,
}

// MinorColumns are the low-signal source and interconnect columns folded
// into total_other.
var MinorColumns = []string{
	"biomass", "oil", "ocgt", "solar", "other",
	"french_ict", "dutch_ict", "irish_ict", "ew_ict",
	"nemo_ict", "ifa2_ict", "intelec_ict", "vkl_ict",
	"scotland_england",
}

// RequiredColumns is the full set the loader must find in the feed header.
func RequiredColumns() []string {
	out := []string{ColID, ColDemand, ColFrequency, ColNorthSouth}
	out = append(out, ColCoal, ColNuclear, ColCCGT, ColWind, ColPumped, ColHydro)
	out = append(out, MinorColumns...)
	return out
}

package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gridcast/gridcast/timeseries"
)

// WriteForecastTable writes the projections as a long-format CSV: one row
// per model per period, with the point forecast and the interval bounds.
func WriteForecastTable(path string, projections map[string]*timeseries.Forecast) error {
	if len(projections) == 0 {
		return fmt.Errorf("no projections to write")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"period", "model", "point", "lower", "upper", "level"}); err != nil {
		return err
	}

	models := make([]string, 0, len(projections))
	for name := range projections {
		models = append(models, name)
	}
	sort.Strings(models)

	for _, name := range models {
		fc := projections[name]
		for i := 0; i < fc.Len(); i++ {
			row := []string{
				fc.Periods[i].Format("2006-01"),
				name,
				formatValue(fc.Mean[i]),
				formatValue(fc.Lower[i]),
				formatValue(fc.Upper[i]),
				strconv.FormatFloat(fc.Level, 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

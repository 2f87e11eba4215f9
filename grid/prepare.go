package grid

import (
	"fmt"
	"math"
	"time"

	"github.com/gridcast/gridcast/timeseries"
)

// MarkOutlier adds a binary outlier column to a copy of the frame. Exactly
// one row is flagged: the row immediately following the single largest
// negative first difference of the target column. The flagged index is
// returned alongside the new frame.
func MarkOutlier(frame *timeseries.Frame, target string) (*timeseries.Frame, int, error) {
	values, err := frame.ColumnValues(target)
	if err != nil {
		return nil, 0, err
	}
	if len(values) < 2 {
		return nil, 0, fmt.Errorf("need at least two rows to locate an outlier in %s", target)
	}

	worst := math.Inf(1)
	worstIdx := -1
	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) || math.IsNaN(values[i-1]) {
			continue
		}
		d := values[i] - values[i-1]
		if d < worst {
			worst = d
			worstIdx = i
		}
	}
	if worstIdx < 0 {
		return nil, 0, fmt.Errorf("no finite first differences in %s", target)
	}

	out := frame.Copy()
	flag := make([]float64, frame.Len())
	flag[worstIdx] = 1
	if err := out.AddColumn(ColOutlier, flag); err != nil {
		return nil, 0, err
	}
	return out, worstIdx, nil
}

// BuildModelFrame produces the model input frame from the monthly
// aggregate: the outlier indicator is added and the coal column dropped to
// blunt its collinearity with the remaining regressors.
func BuildModelFrame(monthly *timeseries.Frame, target string) (*timeseries.Frame, int, error) {
	frame, outlierIdx, err := MarkOutlier(monthly, target)
	if err != nil {
		return nil, 0, err
	}
	frame.Drop(ColCoal)
	return frame, outlierIdx, nil
}

// Split partitions a frame at the first row whose year reaches cutoffYear.
// Train strictly precedes test and the two never overlap.
func Split(frame *timeseries.Frame, cutoffYear int) (train, test *timeseries.Frame) {
	cutoff := time.Date(cutoffYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	idx := frame.Len()
	for i, ts := range frame.Timestamps {
		if !ts.Before(cutoff) {
			idx = i
			break
		}
	}
	return frame.SliceRows(0, idx), frame.SliceRows(idx, frame.Len())
}

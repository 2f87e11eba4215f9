package grid

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridcast/gridcast/timeseries"
)

// rawFrame builds a minimal feed frame with every major and minor column
// present. Values default to a per-column constant so aggregation results
// are easy to predict.
func rawFrame(t *testing.T, timestamps []time.Time) *timeseries.Frame {
	t.Helper()
	f := timeseries.NewFrame(timestamps)
	n := len(timestamps)
	fill := func(name string, v float64) {
		col := make([]float64, n)
		for i := range col {
			col[i] = v
		}
		require.NoError(t, f.AddColumn(name, col))
	}
	for i, name := range MajorColumns {
		fill(name, float64(10+i))
	}
	for _, name := range MinorColumns {
		fill(name, 0.5)
	}
	return f
}

func fiveMinuteIndex(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * 5 * time.Minute)
	}
	return out
}

func TestSchemaColumnCensus(t *testing.T) {
	// Six retained source columns plus demand among the majors, 14 minors,
	// 20 generation sources in total; id, frequency and north_south are
	// measurements required at load but dropped during reduction.
	require.Len(t, MajorColumns, 7)
	require.Len(t, MinorColumns, 14)
	require.Len(t, RequiredColumns(), 24)
	require.NotContains(t, MajorColumns, ColNorthSouth)
	require.NotContains(t, MinorColumns, ColNorthSouth)
}

func TestReduceFoldsMinorsIntoTotalOther(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := rawFrame(t, fiveMinuteIndex(start, 4))

	reduced, err := Reduce(raw)
	require.NoError(t, err)

	wantCols := append(append([]string{}, MajorColumns...), ColTotalOther)
	require.Equal(t, wantCols, reduced.Names())

	total, err := reduced.ColumnValues(ColTotalOther)
	require.NoError(t, err)
	// 14 minor columns at 0.5 each.
	require.InDelta(t, 7.0, total[0], 1e-10)
}

func TestReduceClampsNegativeTotalOther(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := rawFrame(t, fiveMinuteIndex(start, 2))

	neg := []float64{-40, -40}
	require.NoError(t, raw.AddColumn("french_ict", neg))

	reduced, err := Reduce(raw)
	require.NoError(t, err)
	total, err := reduced.ColumnValues(ColTotalOther)
	require.NoError(t, err)
	require.Equal(t, 0.0, total[0], "net export should clamp to zero")
}

func TestReduceIgnoresNaNInMinorSum(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := rawFrame(t, fiveMinuteIndex(start, 2))

	require.NoError(t, raw.AddColumn("solar", []float64{math.NaN(), 0.5}))

	reduced, err := Reduce(raw)
	require.NoError(t, err)
	total, err := reduced.ColumnValues(ColTotalOther)
	require.NoError(t, err)
	require.InDelta(t, 6.5, total[0], 1e-10, "NaN cell drops out of the sum")
	require.InDelta(t, 7.0, total[1], 1e-10)
}

func TestReduceMissingColumnFatal(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := rawFrame(t, fiveMinuteIndex(start, 2))
	raw.Drop(ColWind)

	_, err := Reduce(raw)
	require.ErrorContains(t, err, "wind")
}

func TestAggregateDaily(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	// Two full days at hourly resolution.
	timestamps := make([]time.Time, 48)
	for i := range timestamps {
		timestamps[i] = start.Add(time.Duration(i) * time.Hour)
	}
	f := timeseries.NewFrame(timestamps)
	v := make([]float64, 48)
	for i := range v {
		v[i] = float64(i / 24) // 0 on day one, 1 on day two
	}
	require.NoError(t, f.AddColumn("wind", v))

	daily, err := Aggregate(f, Daily)
	require.NoError(t, err)
	require.Equal(t, 2, daily.Len())

	wind, err := daily.ColumnValues("wind")
	require.NoError(t, err)
	require.InDelta(t, 0.0, wind[0], 1e-10)
	require.InDelta(t, 1.0, wind[1], 1e-10)
}

func TestAggregateAllNaNBucketStaysNaN(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.Add(time.Hour), start.AddDate(0, 0, 1)}
	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn("wind", []float64{math.NaN(), math.NaN(), 3}))

	daily, err := Aggregate(f, Daily)
	require.NoError(t, err)
	wind, err := daily.ColumnValues("wind")
	require.NoError(t, err)
	require.True(t, math.IsNaN(wind[0]), "an all-NaN day must stay NaN, not become zero")
	require.Equal(t, 3.0, wind[1])
}

func TestAggregateGapIsFatal(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.AddDate(0, 0, 2)} // March 3rd, skipping the 2nd
	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn("wind", []float64{1, 2}))

	_, err := Aggregate(f, Daily)
	require.ErrorContains(t, err, "gap")
}

func TestAggregateMonthly(t *testing.T) {
	var timestamps []time.Time
	day := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC)
	for day.Before(end) {
		timestamps = append(timestamps, day)
		day = day.AddDate(0, 0, 1)
	}
	f := timeseries.NewFrame(timestamps)
	v := make([]float64, len(timestamps))
	for i, ts := range timestamps {
		v[i] = float64(ts.Month())
	}
	require.NoError(t, f.AddColumn("wind", v))

	monthly, err := Aggregate(f, Monthly)
	require.NoError(t, err)
	require.Equal(t, 3, monthly.Len())

	wind, err := monthly.ColumnValues("wind")
	require.NoError(t, err)
	for i, want := range []float64{1, 2, 3} {
		require.InDelta(t, want, wind[i], 1e-10)
	}
}

func TestMarkOutlierFlagsSteepestDrop(t *testing.T) {
	timestamps := make([]time.Time, 6)
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, i, 0)
	}
	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn("wind", []float64{10, 11, 3, 9, 10, 11}))

	marked, idx, err := MarkOutlier(f, "wind")
	require.NoError(t, err)
	require.Equal(t, 2, idx)

	flag, err := marked.ColumnValues(ColOutlier)
	require.NoError(t, err)
	count := 0
	for i, v := range flag {
		if v == 1 {
			count++
			require.Equal(t, idx, i)
		}
	}
	require.Equal(t, 1, count, "exactly one row is flagged")
	require.False(t, f.Has(ColOutlier), "input frame must not be modified")
}

func TestBuildModelFrameDropsCoal(t *testing.T) {
	timestamps := make([]time.Time, 4)
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, i, 0)
	}
	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn(ColCoal, []float64{5, 5, 5, 5}))
	require.NoError(t, f.AddColumn(ColWind, []float64{4, 8, 2, 6}))

	frame, _, err := BuildModelFrame(f, ColWind)
	require.NoError(t, err)
	require.False(t, frame.Has(ColCoal))
	require.True(t, frame.Has(ColOutlier))
}

func TestSplitPartition(t *testing.T) {
	timestamps := make([]time.Time, 48)
	base := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range timestamps {
		timestamps[i] = base.AddDate(0, i, 0)
	}
	f := timeseries.NewFrame(timestamps)
	require.NoError(t, f.AddColumn("wind", make([]float64, 48)))

	train, test := Split(f, 2022)
	require.Equal(t, 24, train.Len())
	require.Equal(t, 24, test.Len())
	require.Equal(t, 2021, train.Timestamps[train.Len()-1].Year())
	require.Equal(t, 2022, test.Timestamps[0].Year())
}

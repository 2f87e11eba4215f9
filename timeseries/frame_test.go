package timeseries

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func monthlyIndex(n int) []time.Time {
	out := make([]time.Time, n)
	base := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = base.AddDate(0, i, 0)
	}
	return out
}

func TestFrameAddAndSelect(t *testing.T) {
	f := NewFrame(monthlyIndex(3))
	require.NoError(t, f.AddColumn("a", []float64{1, 2, 3}))
	require.NoError(t, f.AddColumn("b", []float64{4, 5, 6}))

	require.Error(t, f.AddColumn("short", []float64{1}))

	sel, err := f.Select("b")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, sel.Names())

	_, err = f.Select("missing")
	require.Error(t, err)
}

func TestFrameDropPreservesOrder(t *testing.T) {
	f := NewFrame(monthlyIndex(2))
	require.NoError(t, f.AddColumn("a", []float64{1, 2}))
	require.NoError(t, f.AddColumn("b", []float64{3, 4}))
	require.NoError(t, f.AddColumn("c", []float64{5, 6}))

	f.Drop("b", "nonexistent")
	require.Equal(t, []string{"a", "c"}, f.Names())
	require.False(t, f.Has("b"))
}

func TestFrameApply(t *testing.T) {
	f := NewFrame(monthlyIndex(3))
	require.NoError(t, f.AddColumn("a", []float64{-1, 2, -3}))

	require.NoError(t, f.Apply("a", math.Abs))
	a, err := f.ColumnValues("a")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, a)

	require.Error(t, f.Apply("missing", math.Abs))
}

func TestFrameValidateRejectsDisorder(t *testing.T) {
	ts := monthlyIndex(3)
	ts[1], ts[2] = ts[2], ts[1]
	f := NewFrame(ts)
	require.Error(t, f.Validate())
}

func TestNaNColumns(t *testing.T) {
	f := NewFrame(monthlyIndex(2))
	require.NoError(t, f.AddColumn("clean", []float64{1, 2}))
	require.NoError(t, f.AddColumn("holed", []float64{1, math.NaN()}))

	require.Equal(t, []string{"holed"}, f.NaNColumns())
}

func TestLoadFrameFromReader(t *testing.T) {
	csv := strings.Join([]string{
		"timestamp,demand,wind",
		"2020-01-01 00:00:00,30.5,4.2",
		"2020-01-01 00:05:00,,4.0",
		"2020-01-01 00:10:00,31.0,NA",
	}, "\n")

	opts := DefaultCSVOptions()
	opts.Required = []string{"demand", "wind"}
	f, err := LoadFrameFromReader(strings.NewReader(csv), opts)
	require.NoError(t, err)
	require.Equal(t, 3, f.Len())

	demand, err := f.ColumnValues("demand")
	require.NoError(t, err)
	require.True(t, math.IsNaN(demand[1]), "empty cell should load as NaN")

	wind, err := f.ColumnValues("wind")
	require.NoError(t, err)
	require.True(t, math.IsNaN(wind[2]), "NA cell should load as NaN")
}

func TestLoadFrameMissingRequiredColumn(t *testing.T) {
	csv := "timestamp,demand\n2020-01-01 00:00:00,30.5\n"

	opts := DefaultCSVOptions()
	opts.Required = []string{"demand", "wind"}
	_, err := LoadFrameFromReader(strings.NewReader(csv), opts)
	require.ErrorContains(t, err, "missing required column wind")
}

func TestSaveFrameRoundTrip(t *testing.T) {
	f := NewFrame(monthlyIndex(3))
	require.NoError(t, f.AddColumn("wind", []float64{4.5, math.NaN(), 5.25}))

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, SaveFrame(f, path, "2006-01-02"))

	opts := DefaultCSVOptions()
	loaded, err := LoadFrame(path, opts)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Len())

	wind, err := loaded.ColumnValues("wind")
	require.NoError(t, err)
	require.Equal(t, 4.5, wind[0])
	require.True(t, math.IsNaN(wind[1]), "NaN should survive the round trip")
	require.Equal(t, 5.25, wind[2])
}

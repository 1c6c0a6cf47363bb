package kpi_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/barologd/internal/kpi"
	"codeberg.org/mutker/barologd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAt(ts int64, result store.SampleResult, mode store.SampleMode) store.Sample {
	return store.Sample{
		TimestampUTCMS: ts,
		Result:         result,
		Mode:           mode,
	}
}

func TestBuildKpiEmpty(t *testing.T) {
	k := kpi.BuildKpi(nil, nil)

	assert.Equal(t, 0, k.SamplesCount)
	assert.Equal(t, 0.0, k.Coverage)
	assert.Equal(t, 0.0, k.MedianGapMinutes)
	assert.Equal(t, 0.0, k.P90GapMinutes)
	assert.Equal(t, 0.0, k.MaxGapMinutes)
	assert.Equal(t, 0, k.TimeoutsCount)
	assert.Equal(t, 0, k.ErrorsCount)
	assert.Equal(t, 0, k.CancelledCount)
	assert.Equal(t, 0, k.DozeCount)
	assert.Equal(t, 0, k.AppStartsCount)
	assert.Equal(t, 0, k.WorkerColdStartsCount)
}

func TestBuildKpiGaps(t *testing.T) {
	loc := time.UTC
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	// Samples at 00:00, 00:15, 00:45, 01:00: gaps 15, 30, 15 minutes.
	samples := []store.Sample{
		sampleAt(base.UnixMilli(), store.ResultOK, store.ModeNoFGS),
		sampleAt(base.Add(15*time.Minute).UnixMilli(), store.ResultOK, store.ModeNoFGS),
		sampleAt(base.Add(45*time.Minute).UnixMilli(), store.ResultOK, store.ModeNoFGS),
		sampleAt(base.Add(60*time.Minute).UnixMilli(), store.ResultOK, store.ModeNoFGS),
	}

	k := kpi.BuildKpi(samples, nil)

	assert.Equal(t, 4, k.SamplesCount)
	assert.InDelta(t, 4.0/96.0, k.Coverage, 1e-9)
	assert.Equal(t, 15.0, k.MedianGapMinutes)
	// nearest-rank over [15, 15, 30]: index floor(2*0.9) = 1
	assert.Equal(t, 15.0, k.P90GapMinutes)
	assert.Equal(t, 30.0, k.MaxGapMinutes)
}

func TestBuildKpiP90PicksHighRank(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Nine 15-minute gaps then two 60-minute gaps: eleven gaps total, so
	// p90 indexes floor(10*0.9) = 9 into [15 x9, 60, 60].
	offsets := []time.Duration{0}
	for i := 1; i <= 9; i++ {
		offsets = append(offsets, time.Duration(i)*15*time.Minute)
	}
	offsets = append(offsets, offsets[len(offsets)-1]+time.Hour)
	offsets = append(offsets, offsets[len(offsets)-1]+time.Hour)

	var samples []store.Sample
	for _, offset := range offsets {
		samples = append(samples, sampleAt(base.Add(offset).UnixMilli(), store.ResultOK, store.ModeNoFGS))
	}

	k := kpi.BuildKpi(samples, nil)

	assert.Equal(t, 60.0, k.P90GapMinutes)
	assert.Equal(t, 60.0, k.MaxGapMinutes)
}

func TestBuildKpiSortsUnorderedInput(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	samples := []store.Sample{
		sampleAt(base.Add(45*time.Minute).UnixMilli(), store.ResultOK, store.ModeNoFGS),
		sampleAt(base.UnixMilli(), store.ResultOK, store.ModeNoFGS),
		sampleAt(base.Add(15*time.Minute).UnixMilli(), store.ResultOK, store.ModeNoFGS),
	}

	k := kpi.BuildKpi(samples, nil)

	assert.Equal(t, 30.0, k.MaxGapMinutes)
	assert.Equal(t, 15.0, k.MedianGapMinutes)
}

func TestBuildKpiClampsNegativeGaps(t *testing.T) {
	// Two samples with identical timestamps produce a zero gap, never a
	// negative one.
	samples := []store.Sample{
		sampleAt(1000, store.ResultOK, store.ModeNoFGS),
		sampleAt(1000, store.ResultOK, store.ModeNoFGS),
	}

	k := kpi.BuildKpi(samples, nil)

	assert.Equal(t, 0.0, k.MedianGapMinutes)
	assert.Equal(t, 0.0, k.MaxGapMinutes)
}

func TestBuildKpiCoverageNotClamped(t *testing.T) {
	samples := make([]store.Sample, 100)
	for i := range samples {
		samples[i] = sampleAt(int64(i)*60_000, store.ResultOK, store.ModeNoFGS)
	}

	k := kpi.BuildKpi(samples, nil)

	assert.Greater(t, k.Coverage, 1.0)
}

func TestBuildKpiCounts(t *testing.T) {
	doze := store.Sample{
		TimestampUTCMS: 5000,
		Result:         store.ResultOK,
		Mode:           store.ModeFGS,
		Diagnostics:    &store.Diagnostics{DozeMode: true},
	}
	samples := []store.Sample{
		sampleAt(1000, store.ResultTimeout, store.ModeNoFGS),
		sampleAt(2000, store.ResultError, store.ModeNoFGS),
		sampleAt(3000, store.ResultCancelled, store.ModeFGS),
		sampleAt(4000, store.ResultNoSensor, store.ModeNoFGS),
		doze,
	}
	events := []store.Event{
		{TimestampUTCMS: 1000, Type: store.EventAppStart},
		{TimestampUTCMS: 2000, Type: store.EventWorkerStart},
		{TimestampUTCMS: 3000, Type: store.EventProcessColdStartByWorker},
		{TimestampUTCMS: 4000, Type: store.EventAppStart},
	}

	k := kpi.BuildKpi(samples, events)

	assert.Equal(t, 1, k.TimeoutsCount)
	assert.Equal(t, 1, k.ErrorsCount)
	assert.Equal(t, 1, k.CancelledCount)
	assert.Equal(t, 2, k.FGSCount)
	assert.Equal(t, 3, k.NoFGSCount)
	assert.Equal(t, 1, k.DozeCount)
	assert.Equal(t, 2, k.AppStartsCount)
	assert.Equal(t, 1, k.WorkerColdStartsCount)
}

func TestDayBoundsHalfOpen(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)
	start, end := kpi.DayBounds(day, loc)

	lastInstant := time.Date(2026, 3, 14, 23, 59, 59, 999_000_000, loc).UnixMilli()
	nextMidnight := time.Date(2026, 3, 15, 0, 0, 0, 0, loc).UnixMilli()

	assert.GreaterOrEqual(t, lastInstant, start)
	assert.Less(t, lastInstant, end)
	assert.Equal(t, nextMidnight, end)

	// 00:00:00.000 of the next day belongs to the next day.
	assert.Equal(t, 15, kpi.LocalDate(nextMidnight, loc).Day())
	assert.Equal(t, 14, kpi.LocalDate(lastInstant, loc).Day())
}

func TestDayPages(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)

	pages := kpi.DayPages(today, []string{
		"2026-03-14", // duplicate of today
		"2026-03-12",
		"2026-03-13",
		"not-a-date",
	}, loc, 60)

	require.Len(t, pages, 3)
	assert.Equal(t, "2026-03-14", pages[0].Format(kpi.DayFormat))
	assert.Equal(t, "2026-03-13", pages[1].Format(kpi.DayFormat))
	assert.Equal(t, "2026-03-12", pages[2].Format(kpi.DayFormat))
}

func TestDayPagesLimit(t *testing.T) {
	loc := time.UTC
	today := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	pages := kpi.DayPages(today, []string{"2026-03-13", "2026-03-12", "2026-03-11"}, loc, 2)

	require.Len(t, pages, 2)
	assert.Equal(t, "2026-03-14", pages[0].Format(kpi.DayFormat))
	assert.Equal(t, "2026-03-13", pages[1].Format(kpi.DayFormat))
}

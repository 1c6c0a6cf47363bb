package kpi

import (
	"sort"

	"codeberg.org/mutker/barologd/internal/store"
)

// ExpectedSamplesPerDay follows from the 15-minute scheduler period.
const ExpectedSamplesPerDay = 96

const msPerMinute = 60_000.0

// DayKpi is derived on demand from one day's samples and events. It is
// never persisted; recomputation keeps it trivially consistent with the
// source rows.
type DayKpi struct {
	ExpectedSamples       int
	SamplesCount          int
	Coverage              float64
	MedianGapMinutes      float64
	P90GapMinutes         float64
	MaxGapMinutes         float64
	TimeoutsCount         int
	ErrorsCount           int
	CancelledCount        int
	FGSCount              int
	NoFGSCount            int
	DozeCount             int
	AppStartsCount        int
	WorkerColdStartsCount int
}

// BuildKpi computes the day summary. Source order of samples is not
// guaranteed; gaps are taken over the timestamp-sorted sequence, with
// clock-skewed negative gaps clamped to zero. Coverage is intentionally
// not clamped at 1.0.
func BuildKpi(samples []store.Sample, events []store.Event) DayKpi {
	sorted := make([]store.Sample, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TimestampUTCMS < sorted[j].TimestampUTCMS
	})

	var gaps []float64
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].TimestampUTCMS - sorted[i-1].TimestampUTCMS
		if delta < 0 {
			delta = 0
		}
		gaps = append(gaps, float64(delta)/msPerMinute)
	}

	k := DayKpi{
		ExpectedSamples:  ExpectedSamplesPerDay,
		SamplesCount:     len(samples),
		Coverage:         float64(len(samples)) / float64(ExpectedSamplesPerDay),
		MedianGapMinutes: percentile(gaps, 0.5),
		P90GapMinutes:    percentile(gaps, 0.9),
	}

	for _, gap := range gaps {
		if gap > k.MaxGapMinutes {
			k.MaxGapMinutes = gap
		}
	}

	for _, s := range sorted {
		switch s.Result {
		case store.ResultTimeout:
			k.TimeoutsCount++
		case store.ResultError:
			k.ErrorsCount++
		case store.ResultCancelled:
			k.CancelledCount++
		}
		switch s.Mode {
		case store.ModeFGS:
			k.FGSCount++
		case store.ModeNoFGS:
			k.NoFGSCount++
		}
		if s.Diagnostics != nil && s.Diagnostics.DozeMode {
			k.DozeCount++
		}
	}

	for _, e := range events {
		switch e.Type {
		case store.EventAppStart:
			k.AppStartsCount++
		case store.EventProcessColdStartByWorker:
			k.WorkerColdStartsCount++
		}
	}

	return k
}

// percentile is a nearest-rank estimator: sort ascending and index at
// floor((n-1) * p), clamped to valid bounds. Not interpolated.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := int(float64(len(sorted)-1) * p)
	if index < 0 {
		index = 0
	}
	if index > len(sorted)-1 {
		index = len(sorted) - 1
	}

	return sorted[index]
}

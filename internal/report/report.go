package report

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/barologd/internal/kpi"
	"codeberg.org/mutker/barologd/internal/store"
)

// BuildDayReport renders the shareable plain-text report for one day:
// a header line, the KPI block as "- label: value" lines, then one line per
// sample with an indented diagnostics line where one exists.
func BuildDayReport(day time.Time, summary kpi.DayKpi, samples []store.Sample, loc *time.Location) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Barometer report %s\n\n", day.Format(kpi.DayFormat))

	fmt.Fprintf(&b, "- samples: %d\n", summary.SamplesCount)
	fmt.Fprintf(&b, "- coverage: %.1f%% (%d/%d)\n", summary.Coverage*100, summary.SamplesCount, summary.ExpectedSamples)
	fmt.Fprintf(&b, "- median gap: %.1f min\n", summary.MedianGapMinutes)
	fmt.Fprintf(&b, "- p90 gap: %.1f min\n", summary.P90GapMinutes)
	fmt.Fprintf(&b, "- max gap: %.1f min\n", summary.MaxGapMinutes)
	fmt.Fprintf(&b, "- timeouts: %d\n", summary.TimeoutsCount)
	fmt.Fprintf(&b, "- errors: %d\n", summary.ErrorsCount)
	fmt.Fprintf(&b, "- cancelled: %d\n", summary.CancelledCount)
	fmt.Fprintf(&b, "- foreground: %d\n", summary.FGSCount)
	fmt.Fprintf(&b, "- background: %d\n", summary.NoFGSCount)
	fmt.Fprintf(&b, "- doze: %d\n", summary.DozeCount)
	fmt.Fprintf(&b, "- app starts: %d\n", summary.AppStartsCount)
	fmt.Fprintf(&b, "- cold starts by worker: %d\n", summary.WorkerColdStartsCount)

	if len(samples) > 0 {
		b.WriteString("\n")
	}
	for i := range samples {
		writeSampleLine(&b, &samples[i], loc)
	}

	return b.String()
}

func writeSampleLine(b *strings.Builder, s *store.Sample, loc *time.Location) {
	at := time.UnixMilli(s.TimestampUTCMS).In(loc).Format("15:04:05")

	pressure := "-"
	if s.PressureHpa != nil {
		pressure = fmt.Sprintf("%.2f", *s.PressureHpa)
	}
	fmt.Fprintf(b, "%s | %s | p=%s\n", at, s.Result, pressure)

	d := s.Diagnostics
	if d == nil {
		return
	}
	if d.FailureClass == nil && d.StopReason == nil {
		return
	}

	parts := []string{fmt.Sprintf("duration=%dms", d.DurationMS)}
	if d.FailureClass != nil {
		parts = append(parts, "class="+*d.FailureClass)
	}
	if d.FailureMessage != nil {
		parts = append(parts, "msg="+*d.FailureMessage)
	}
	if d.StopReason != nil {
		parts = append(parts, "stop="+*d.StopReason)
	}
	fmt.Fprintf(b, "    %s\n", strings.Join(parts, " "))
}

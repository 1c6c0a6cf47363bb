package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/barologd/internal/config"
	"codeberg.org/mutker/barologd/internal/kpi"
	"codeberg.org/mutker/barologd/internal/logger"
	"codeberg.org/mutker/barologd/internal/pid"
	"codeberg.org/mutker/barologd/internal/power"
	"codeberg.org/mutker/barologd/internal/report"
	"codeberg.org/mutker/barologd/internal/sampler"
	"codeberg.org/mutker/barologd/internal/schedule"
	"codeberg.org/mutker/barologd/internal/sensor"
	"codeberg.org/mutker/barologd/internal/session"
	"codeberg.org/mutker/barologd/internal/store"
)

// workKey is the logical name of the periodic sampling unit. All
// rescheduling replaces the unit registered under this key.
const workKey = "pressure_periodic_work"

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	repo, err := store.NewRepository(store.Config{DBPath: cfg.Database})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open sample store")
	}
	defer repo.Close()

	tracker := session.NewTracker()

	switch {
	case cfg.Report != "":
		runReport(repo, tracker, cfg.Report)
		return
	case cfg.Days:
		runDays(repo, tracker)
		return
	}

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	instrument, closeInstrument := openInstrument()
	defer closeInstrument()

	worker := sampler.NewWorker(
		sensor.NewReader(instrument),
		repo,
		power.NewSysfsProber(),
		tracker,
	)

	sched := schedule.New()
	reschedule := func(c config.Config) {
		sched.Reschedule(workKey,
			time.Duration(c.Interval)*time.Minute,
			schedule.TickConfig{
				UseForeground: c.UseForeground,
				Timeout:       time.Duration(c.TimeoutMS) * time.Millisecond,
			},
			worker.RunTick,
		)
	}
	reschedule(*cfg)

	cfg.Watch(func(next config.Config) {
		logger.Info().
			Bool("use_foreground", next.UseForeground).
			Msg("Rescheduled")
		reschedule(next)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	<-ctx.Done()
	sched.Stop()
	logger.Info().Msg("Exiting...")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func openInstrument() (sensor.Instrument, func()) {
	bmp, err := sensor.OpenBMP(cfg.SensorBus, uint16(cfg.SensorAddr))
	if err != nil {
		if sensor.IsNoInstrument(err) {
			logger.Warn().Err(err).Msg("No pressure instrument detected; recording NO_SENSOR samples")
			return sensor.Absent{}, func() {}
		}
		logger.Fatal().Err(err).Msg("failed to initialize pressure sensor")
	}

	return bmp, func() {
		if err := bmp.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close pressure sensor")
		}
	}
}

func runReport(repo store.Repository, tracker *session.Tracker, dayArg string) {
	ctx := context.Background()
	markInteractiveStart(ctx, repo, tracker, "report_mode")

	loc := time.Local
	day, err := time.ParseInLocation(kpi.DayFormat, dayArg, loc)
	if err != nil {
		logger.Fatal().Err(err).Str("day", dayArg).Msg("invalid report day")
	}

	start, end := kpi.DayBounds(day, loc)
	samples, err := repo.SamplesForRange(ctx, start, end)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load samples")
	}
	events, err := repo.EventsForRange(ctx, start, end)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load events")
	}

	summary := kpi.BuildKpi(samples, events)
	fmt.Print(report.BuildDayReport(day, summary, samples, loc))
}

func runDays(repo store.Repository, tracker *session.Tracker) {
	ctx := context.Background()
	markInteractiveStart(ctx, repo, tracker, "days_mode")

	stored, err := repo.DistinctDays(ctx, cfg.RecentDays)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load day list")
	}

	for _, day := range kpi.DayPages(time.Now(), stored, time.Local, cfg.RecentDays) {
		fmt.Println(day.Format(kpi.DayFormat))
	}
}

func markInteractiveStart(ctx context.Context, repo store.Repository, tracker *session.Tracker, detail string) {
	if !tracker.MarkUIStarted() {
		return
	}
	event := &store.Event{
		TimestampUTCMS: time.Now().UnixMilli(),
		Type:           store.EventAppStart,
		Detail:         detail,
	}
	if err := repo.InsertEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to record app start event")
	}
}

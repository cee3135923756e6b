package report

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pennantlabs/tradegate/internal/alerts"
	"github.com/pennantlabs/tradegate/internal/journal"
	"github.com/pennantlabs/tradegate/internal/observ"
	"github.com/pennantlabs/tradegate/internal/perf"
)

// Config holds the job schedules (cron specs with seconds, ET) and the
// baseline equity used when no snapshot exists yet.
type Config struct {
	WeeklyCron     string // default: Friday 16:30 ET
	DailyCron      string // default: weekdays 16:05 ET
	StartingEquity float64
	Perf           perf.Config
}

// Scheduler runs the periodic report jobs: the weekly performance report and
// the daily equity snapshot.
type Scheduler struct {
	cron    *cron.Cron
	store   journal.Store
	discord *alerts.DiscordClient
	cfg     Config
}

func NewScheduler(store journal.Store, discord *alerts.DiscordClient, cfg Config, loc *time.Location) *Scheduler {
	if cfg.WeeklyCron == "" {
		cfg.WeeklyCron = "0 30 16 * * 5"
	}
	if cfg.DailyCron == "" {
		cfg.DailyCron = "0 5 16 * * 1-5"
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		store:   store,
		discord: discord,
		cfg:     cfg,
	}
}

// RegisterAll wires the weekly and daily jobs.
func (s *Scheduler) RegisterAll() error {
	if _, err := s.cron.AddFunc(s.cfg.WeeklyCron, s.weeklyJob); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.DailyCron, s.dailyJob); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	observ.Log("scheduler_started", map[string]any{
		"weekly": s.cfg.WeeklyCron, "daily": s.cfg.DailyCron,
	})
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	observ.Log("scheduler_stopped", nil)
	return s.cron.Stop()
}

// RunWeeklyNow triggers the weekly report outside its schedule.
func (s *Scheduler) RunWeeklyNow() {
	s.weeklyJob()
}

func (s *Scheduler) weeklyJob() {
	now := time.Now()
	w, err := s.BuildFromJournal(now)
	if err != nil {
		observ.Error("weekly_report_failed", err, nil)
		observ.IncCounter("report_jobs_total", map[string]string{"job": "weekly", "status": "error"})
		return
	}

	if s.discord != nil {
		s.discord.Publish(alerts.Post{
			Title: "Weekly Performance Report",
			Body:  w.Render(),
			Color: alerts.ColorBlue,
		})
	}
	observ.IncCounter("report_jobs_total", map[string]string{"job": "weekly", "status": "ok"})
	observ.Log("weekly_report_published", map[string]any{
		"week_start": w.WeekStart, "trades": w.Summary.Trades, "net_pnl": w.Summary.NetPnL,
	})
}

// BuildFromJournal assembles the weekly report for the ET week containing now.
func (s *Scheduler) BuildFromJournal(now time.Time) (Weekly, error) {
	start, end := WeekRange(now)
	trades, err := s.store.ListClosedBetween(start, end)
	if err != nil {
		return Weekly{}, err
	}

	// The configured starting equity is the drawdown base; the latest
	// snapshot already includes the week's realized P&L and would
	// double-count it.
	return BuildWeekly(now, s.cfg.StartingEquity, journal.ClosedTrades(trades), nil, s.cfg.Perf), nil
}

// dailyJob records an end-of-day equity snapshot: the previous snapshot
// rolled forward by the realized P&L closed since then. Keeps the equity
// series moving even when no external snapshot is pushed.
func (s *Scheduler) dailyJob() {
	now := time.Now()

	equity := s.cfg.StartingEquity
	since := time.Time{}
	if snap, ok, err := s.store.LatestEquity(); err == nil && ok {
		equity = snap.Equity
		since = snap.At
	}

	trades, err := s.store.ListClosedBetween(since, now)
	if err != nil {
		observ.Error("daily_snapshot_failed", err, nil)
		observ.IncCounter("report_jobs_total", map[string]string{"job": "daily", "status": "error"})
		return
	}
	for _, t := range trades {
		equity += t.RealizedPnL
	}

	if err := s.store.RecordEquity(journal.EquitySnapshot{At: now.UTC(), Equity: equity}); err != nil {
		observ.Error("daily_snapshot_failed", err, nil)
		observ.IncCounter("report_jobs_total", map[string]string{"job": "daily", "status": "error"})
		return
	}
	observ.IncCounter("report_jobs_total", map[string]string{"job": "daily", "status": "ok"})
}

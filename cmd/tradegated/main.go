package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pennantlabs/tradegate/internal/alerts"
	"github.com/pennantlabs/tradegate/internal/calendar"
	"github.com/pennantlabs/tradegate/internal/config"
	"github.com/pennantlabs/tradegate/internal/entitlement"
	"github.com/pennantlabs/tradegate/internal/gate"
	"github.com/pennantlabs/tradegate/internal/journal"
	"github.com/pennantlabs/tradegate/internal/marketdata"
	"github.com/pennantlabs/tradegate/internal/observ"
	"github.com/pennantlabs/tradegate/internal/perf"
	"github.com/pennantlabs/tradegate/internal/regime"
	"github.com/pennantlabs/tradegate/internal/report"
	"github.com/pennantlabs/tradegate/internal/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to YAML config")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gateCfg, err := gateConfig(cfg.Gate)
	if err != nil {
		log.Fatalf("gate config: %v", err)
	}

	store, err := journal.OpenSQLite(cfg.Journal.Path)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	defer store.Close()

	quotes := buildQuotes(cfg.MarketData)
	if quotes != nil {
		defer quotes.Close()
	}

	discord := alerts.NewDiscordClient(alerts.Config{
		WebhookURL:       cfg.Alerts.DiscordWebhookURL,
		Username:         cfg.Alerts.Username,
		DedupeWindowSecs: cfg.Alerts.DedupeWindowSecs,
		RateLimitPerMin:  cfg.Alerts.RateLimitPerMin,
	})
	defer discord.Close()

	perfCfg := perf.Config{ProfitFactorCap: cfg.Perf.ProfitFactorCap}
	sched := report.NewScheduler(store, discord, report.Config{
		WeeklyCron:     cfg.Report.WeeklyCron,
		DailyCron:      cfg.Report.DailyCron,
		StartingEquity: cfg.Perf.StartingEquity,
		Perf:           perfCfg,
	}, calendar.Eastern())
	if err := sched.RegisterAll(); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()
	if cfg.Report.RunOnStart {
		sched.RunWeeklyNow()
	}

	srv := server.New(server.Options{
		GateConfig:     gateCfg,
		Policy:         policyConfig(cfg.Policy),
		PerfConfig:     perfCfg,
		StartingEquity: cfg.Perf.StartingEquity,
		Store:          store,
		Quotes:         quotes,
		Resolver: entitlement.NewResolver(entitlement.Config{
			DefaultTier: entitlement.Tier(cfg.Entitlement.DefaultTier),
			ProAPIKeys:  cfg.Entitlement.ProAPIKeys,
		}),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	observ.Log("server_started", map[string]any{"addr": cfg.Server.Addr})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		observ.Log("shutdown_signal", map[string]any{"signal": sig.String()})
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		observ.Error("shutdown_failed", err, nil)
	}
}

func gateConfig(g config.Gate) (gate.Config, error) {
	openH, openM, err := config.ParseHourMinute(g.OpenET)
	if err != nil {
		return gate.Config{}, err
	}
	closeH, closeM, err := config.ParseHourMinute(g.CloseET)
	if err != nil {
		return gate.Config{}, err
	}
	return gate.Config{OpenHour: openH, OpenMinute: openM, CloseHour: closeH, CloseMinute: closeM}, nil
}

func policyConfig(p config.Policy) regime.PolicyConfig {
	return regime.PolicyConfig{
		Version:        p.Version,
		VIXModerate:    p.VIXModerate,
		VIXHigh:        p.VIXHigh,
		GapModerate:    p.GapModerate,
		GapHigh:        p.GapHigh,
		BreadthRiskOff: p.BreadthRiskOff,
		Normal:         regime.Controls{RiskScale: p.Normal.RiskScale, MaxPositions: p.Normal.MaxPositions},
		Moderate:       regime.Controls{RiskScale: p.Moderate.RiskScale, MaxPositions: p.Moderate.MaxPositions},
		High:           regime.Controls{RiskScale: p.High.RiskScale, MaxPositions: p.High.MaxPositions},
	}
}

// buildQuotes assembles the provider chain: Alpaca primary when credentials
// are present, Yahoo fallback always. Returns nil only if neither can be
// constructed.
func buildQuotes(md config.MarketData) *marketdata.Manager {
	cache := marketdata.NewQuoteCache(marketdata.CacheConfig{
		HighVolumeTTL: time.Duration(md.CacheHighVolumeSecs) * time.Second,
		NormalTTL:     time.Duration(md.CacheNormalSecs) * time.Second,
	})

	yahoo := marketdata.NewYahooProvider(marketdata.YahooConfig{
		BaseURL:            md.Yahoo.BaseURL,
		RateLimitPerMinute: md.Yahoo.RateLimitPerMinute,
	})

	alpaca, err := marketdata.NewAlpacaProvider(marketdata.AlpacaConfig{
		BaseURL:            md.Alpaca.BaseURL,
		KeyID:              md.Alpaca.KeyID,
		SecretKey:          md.Alpaca.SecretKey,
		RateLimitPerMinute: md.Alpaca.RateLimitPerMinute,
		DailyCap:           md.Alpaca.DailyCap,
	})
	if err != nil {
		observ.Log("alpaca_disabled", map[string]any{"reason": err.Error()})
		return marketdata.NewManager(yahoo, nil, cache)
	}
	return marketdata.NewManager(alpaca, yahoo, cache)
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pennantlabs/tradegate/internal/entitlement"
	"github.com/pennantlabs/tradegate/internal/gate"
	"github.com/pennantlabs/tradegate/internal/journal"
	"github.com/pennantlabs/tradegate/internal/marketdata"
	"github.com/pennantlabs/tradegate/internal/observ"
	"github.com/pennantlabs/tradegate/internal/perf"
	"github.com/pennantlabs/tradegate/internal/regime"
	"github.com/pennantlabs/tradegate/internal/report"
)

// Server exposes the gate, context, performance, and report surfaces as a
// JSON API. All handlers are stateless reads over the journal plus pure
// computation, so no locking is needed beyond what the stores provide.
type Server struct {
	gateCfg  gate.Config
	policy   regime.PolicyConfig
	perfCfg  perf.Config
	equity   float64
	store    journal.Store
	quotes   *marketdata.Manager // nil when no providers are configured
	resolver *entitlement.Resolver
}

type Options struct {
	GateConfig     gate.Config
	Policy         regime.PolicyConfig
	PerfConfig     perf.Config
	StartingEquity float64
	Store          journal.Store
	Quotes         *marketdata.Manager
	Resolver       *entitlement.Resolver
}

func New(opts Options) *Server {
	return &Server{
		gateCfg:  opts.GateConfig,
		policy:   opts.Policy,
		perfCfg:  opts.PerfConfig,
		equity:   opts.StartingEquity,
		store:    opts.Store,
		quotes:   opts.Quotes,
		resolver: opts.Resolver,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", observ.HealthHandler())
	mux.Handle("/metrics", observ.Handler())
	mux.HandleFunc("GET /v1/gate", s.handleGate)
	mux.HandleFunc("GET /v1/context", s.handleContext)
	mux.HandleFunc("GET /v1/performance/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/performance/daily", s.handleDaily)
	mux.HandleFunc("GET /v1/performance/weekly", s.handleWeekly)
	mux.HandleFunc("GET /v1/trades", s.handleListTrades)
	mux.HandleFunc("POST /v1/trades", s.handleIngestTrade)
	mux.HandleFunc("GET /v1/report/weekly", s.handleReport)
	mux.HandleFunc("/v1/watchlists", s.handleWatchlists)
	return recoverer(mux)
}

// recoverer turns panics into 500s instead of dropped connections.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				observ.Log("handler_panic", map[string]any{"path": r.URL.Path, "panic": fmt.Sprint(rec)})
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) access(r *http.Request) entitlement.Access {
	return s.resolver.Resolve(r.Header.Get("X-API-Key"))
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid at timestamp, want RFC3339")
			return
		}
		at = parsed
	}
	writeJSON(w, http.StatusOK, gate.At(at, s.gateCfg))
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "market data providers not configured")
		return
	}

	q := r.URL.Query()
	inputs := marketdata.SnapshotInputs{}
	for _, p := range []struct {
		key string
		dst *float64
	}{
		{"breadth", &inputs.BreadthRiskOff},
		{"vix_percentile", &inputs.VIXPercentile},
		{"realized_vol", &inputs.RealizedVol},
	} {
		if v := q.Get(p.key); v != "" {
			if _, err := fmt.Sscanf(v, "%g", p.dst); err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+p.key)
				return
			}
		}
	}

	snap, err := s.quotes.BuildSnapshot(r.Context(), inputs)
	if err != nil {
		observ.Error("context_snapshot_failed", err, nil)
		writeError(w, http.StatusBadGateway, "market data unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": snap,
		"decision": regime.Evaluate(snap, s.policy),
	})
}

// weekTrades pulls the current ET week's closed trades from the journal.
func (s *Server) weekTrades(now time.Time) ([]journal.Trade, error) {
	start, end := report.WeekRange(now)
	return s.store.ListClosedBetween(start, end)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	trades, err := s.weekTrades(time.Now())
	if err != nil {
		observ.Error("summary_query_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  s.access(r),
		"summary": perf.Summarize(s.equity, journal.ClosedTrades(trades), s.perfCfg),
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	access := s.access(r)
	if access.IsLocked {
		writeJSON(w, http.StatusForbidden, map[string]any{"access": access, "error": "upgrade required"})
		return
	}
	trades, err := s.weekTrades(time.Now())
	if err != nil {
		observ.Error("daily_query_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	var unrealized float64
	if snap, ok, err := s.store.LatestEquity(); err == nil && ok {
		unrealized = snap.UnrealizedPnL
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access": access,
		"series": perf.DailySeries(s.equity, unrealized, journal.ClosedTrades(trades)),
	})
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	trades, err := s.weekTrades(time.Now())
	if err != nil {
		observ.Error("weekly_query_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access": s.access(r),
		"slots":  perf.WeeklySlots(time.Now(), journal.ClosedTrades(trades)),
	})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	access := s.access(r)
	if access.IsLocked {
		writeJSON(w, http.StatusForbidden, map[string]any{"access": access, "error": "upgrade required"})
		return
	}

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start timestamp")
			return
		}
		start = parsed
	}
	if v := q.Get("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end timestamp")
			return
		}
		end = parsed
	}

	trades, err := s.store.ListClosedBetween(start, end)
	if err != nil {
		observ.Error("trades_query_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if trades == nil {
		trades = []journal.Trade{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": access, "trades": trades})
}

type ingestTradeRequest struct {
	Ticker      string    `json:"ticker"`
	Side        string    `json:"side"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price"`
	EntryAt     time.Time `json:"entry_at"`
	ExitAt      time.Time `json:"exit_at"`
	RealizedPnL float64   `json:"realized_pnl"`
	ExitReason  string    `json:"exit_reason"`
}

func (s *Server) handleIngestTrade(w http.ResponseWriter, r *http.Request) {
	var req ingestTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Ticker == "" || req.ExitAt.IsZero() {
		writeError(w, http.StatusBadRequest, "ticker and exit_at are required")
		return
	}
	if req.Side != "long" && req.Side != "short" {
		writeError(w, http.StatusBadRequest, "side must be long or short")
		return
	}

	trade := journal.Trade{
		ID:          journal.NewID(),
		Ticker:      req.Ticker,
		Side:        req.Side,
		EntryPrice:  req.EntryPrice,
		ExitPrice:   req.ExitPrice,
		EntryAt:     req.EntryAt,
		ExitAt:      req.ExitAt,
		RealizedPnL: req.RealizedPnL,
		ExitReason:  req.ExitReason,
	}
	if err := s.store.RecordTrade(trade); err != nil {
		observ.Error("trade_ingest_failed", err, map[string]any{"ticker": trade.Ticker})
		writeError(w, http.StatusInternalServerError, "could not record trade")
		return
	}
	observ.IncCounter("trades_ingested_total", map[string]string{"ticker": trade.Ticker})
	writeJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	access := s.access(r)
	if access.IsLocked {
		writeJSON(w, http.StatusForbidden, map[string]any{"access": access, "error": "upgrade required"})
		return
	}

	now := time.Now()
	trades, err := s.weekTrades(now)
	if err != nil {
		observ.Error("report_query_failed", err, nil)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	weekly := report.BuildWeekly(now, s.equity, journal.ClosedTrades(trades), nil, s.perfCfg)
	writeJSON(w, http.StatusOK, map[string]any{
		"access": access,
		"report": weekly,
		"text":   weekly.Render(),
	})
}

// Watchlists moved to the portfolio product; the route is kept so old
// clients get a clean deprecation instead of a 404.
func (s *Server) handleWatchlists(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusGone, "watchlists have been deprecated")
}

package observ

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type registry struct {
	mu       sync.Mutex
	counters map[string]map[string]int64   // name -> labelsKey -> count
	gauges   map[string]map[string]float64 // name -> labelsKey -> value
	hist     map[string]map[string][]float64
}

var reg = &registry{
	counters: map[string]map[string]int64{},
	gauges:   map[string]map[string]float64{},
	hist:     map[string]map[string][]float64{},
}

// canonicalize label map so key order is stable
func canonLabels(lbl map[string]string) string {
	if len(lbl) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbl))
	for k := range lbl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(lbl[k])
	}
	return b.String()
}

func IncCounter(name string, labels map[string]string) {
	IncCounterBy(name, labels, 1.0)
}

func IncCounterBy(name string, labels map[string]string, value float64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.counters[name]
	if !ok {
		m = map[string]int64{}
		reg.counters[name] = m
	}
	k := canonLabels(labels)
	m[k] += int64(value)
}

func SetGauge(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.gauges[name]
	if !ok {
		m = map[string]float64{}
		reg.gauges[name] = m
	}
	k := canonLabels(labels)
	m[k] = value
}

func Observe(name string, value float64, labels map[string]string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	m, ok := reg.hist[name]
	if !ok {
		m = map[string][]float64{}
		reg.hist[name] = m
	}
	k := canonLabels(labels)
	m[k] = append(m[k], value)
}

// RecordDuration records a duration metric
func RecordDuration(name string, duration time.Duration, labels map[string]string) {
	Observe(name+"_ms", float64(duration.Milliseconds()), labels)
}

// Basic text/JSON dump for quick checks (not Prometheus format on purpose)
func Handler() http.Handler {
	type dump struct {
		Counters map[string]map[string]int64     `json:"counters"`
		Gauges   map[string]map[string]float64   `json:"gauges"`
		Hist     map[string]map[string][]float64 `json:"histograms"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dump{Counters: reg.counters, Gauges: reg.gauges, Hist: reg.hist})
	})
}

// HealthStatus summarizes service health for the /healthz endpoint.
type HealthStatus struct {
	Status    string        `json:"status"` // "healthy", "degraded", "failed"
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Metrics   HealthMetrics `json:"metrics"`
}

// HealthMetrics holds the signals worth watching on this service: quote
// provider reliability, gate traffic, and report job outcomes.
type HealthMetrics struct {
	QuoteRequests     int64   `json:"quote_requests"`
	QuoteErrors       int64   `json:"quote_errors"`
	QuoteErrorRate    float64 `json:"quote_error_rate"`
	QuoteFallbacks    int64   `json:"quote_fallbacks"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	GateDecisions     int64   `json:"gate_decisions"`
	ContextEvals      int64   `json:"context_evaluations"`
	ReportJobs        int64   `json:"report_jobs"`
	ReportJobFailures int64   `json:"report_job_failures"`
}

var (
	startTime = time.Now()
	version   = "dev" // Set via build flags
)

// SetVersion sets the version string for health reports.
func SetVersion(v string) {
	version = v
}

func sumCounter(name string) int64 {
	var total int64
	for _, count := range reg.counters[name] {
		total += count
	}
	return total
}

func sumCounterLabel(name, labelKV string) int64 {
	var total int64
	for key, count := range reg.counters[name] {
		if strings.Contains(key, labelKV) {
			total += count
		}
	}
	return total
}

// HealthHandler reports overall status derived from the registry. Provider
// failures degrade the status; a persistent error rate above 25% fails it.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		defer reg.mu.Unlock()

		m := HealthMetrics{
			QuoteRequests:     sumCounter("quote_requests_total"),
			QuoteErrors:       sumCounter("quote_errors_total"),
			QuoteFallbacks:    sumCounter("quote_fallbacks_total"),
			GateDecisions:     sumCounter("trade_gate_decisions_total"),
			ContextEvals:      sumCounter("market_context_evaluations_total"),
			ReportJobs:        sumCounter("report_jobs_total"),
			ReportJobFailures: sumCounterLabel("report_jobs_total", "status=error"),
		}
		if m.QuoteRequests > 0 {
			m.QuoteErrorRate = float64(m.QuoteErrors) / float64(m.QuoteRequests)
		}
		hits := sumCounter("quote_cache_hits_total")
		misses := sumCounter("quote_cache_misses_total")
		if hits+misses > 0 {
			m.CacheHitRate = float64(hits) / float64(hits+misses)
		}

		status := "healthy"
		if m.QuoteFallbacks > 0 || providerDegraded() {
			status = "degraded"
		}
		if m.QuoteRequests > 20 && m.QuoteErrorRate > 0.25 {
			status = "failed"
		}

		statusCode := http.StatusOK
		if status == "failed" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthStatus{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Uptime:    time.Since(startTime).String(),
			Version:   version,
			Metrics:   m,
		})
	})
}

// providerDegraded checks the per-provider health gauges (0=failed 1=degraded 2=healthy).
func providerDegraded() bool {
	for _, status := range reg.gauges["provider_health_status"] {
		if status < 2 {
			return true
		}
	}
	return false
}

// Simple liveness handler.
func Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

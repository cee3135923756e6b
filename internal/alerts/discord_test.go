package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestPublishSendsEmbed(t *testing.T) {
	var received atomic.Int64
	var lastTitle atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Username string `json:"username"`
			Embeds   []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Color       int    `json:"color"`
			} `json:"embeds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Embeds) == 1 {
			lastTitle.Store(payload.Embeds[0].Title)
		}
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewDiscordClient(Config{WebhookURL: srv.URL, Username: "tradegate"})
	defer c.Close()

	c.Publish(Post{Title: "Weekly Report", Body: "flat week", Color: ColorBlue})
	waitFor(t, func() bool { return received.Load() == 1 })
	if got := lastTitle.Load(); got != "Weekly Report" {
		t.Fatalf("want title Weekly Report, got %v", got)
	}
}

func TestPublishDedupes(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewDiscordClient(Config{WebhookURL: srv.URL})
	defer c.Close()

	post := Post{Title: "dup", Body: "same"}
	c.Publish(post)
	c.Publish(post)
	waitFor(t, func() bool { return received.Load() == 1 })
	time.Sleep(100 * time.Millisecond)
	if got := received.Load(); got != 1 {
		t.Fatalf("duplicate inside window should be dropped, got %d sends", got)
	}
}

func TestDedupeCacheExpiresAndPrunes(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewDiscordClient(Config{WebhookURL: srv.URL, DedupeWindowSecs: 1})
	defer c.Close()

	c.Publish(Post{Title: "daily", Body: "snapshot"})
	waitFor(t, func() bool { return received.Load() == 1 })

	time.Sleep(1100 * time.Millisecond)

	// Outside the window the same post sends again, and the expired hash
	// was removed rather than accumulating.
	c.Publish(Post{Title: "daily", Body: "snapshot"})
	waitFor(t, func() bool { return received.Load() == 2 })

	c.mu.Lock()
	size := len(c.dedupeCache)
	c.mu.Unlock()
	if size != 1 {
		t.Fatalf("expired dedupe entries should be pruned, cache has %d", size)
	}
}

func TestPublishRetriesOnFailure(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewDiscordClient(Config{WebhookURL: srv.URL})
	defer c.Close()

	c.Publish(Post{Title: "retry", Body: "once"})
	waitFor(t, func() bool { return attempts.Load() >= 2 })
}

func TestDisabledClientIsNoop(t *testing.T) {
	c := NewDiscordClient(Config{})
	defer c.Close()
	if c.Enabled() {
		t.Fatal("client without webhook URL should be disabled")
	}
	c.Publish(Post{Title: "ignored"}) // must not panic or block
}

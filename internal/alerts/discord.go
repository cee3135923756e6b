package alerts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pennantlabs/tradegate/internal/observ"
)

// Embed colors used for posts.
const (
	ColorGreen  = 0x2ECC71
	ColorRed    = 0xE74C3C
	ColorOrange = 0xE67E22
	ColorBlue   = 0x3498DB
)

// Config controls the Discord publisher. An empty WebhookURL disables it.
type Config struct {
	WebhookURL       string
	Username         string
	DedupeWindowSecs int
	RateLimitPerMin  int
	TimeoutSeconds   int
	MaxRetries       int
}

// Post is one message to publish.
type Post struct {
	Title string
	Body  string
	Color int
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type queuedPost struct {
	post      Post
	attempts  int
	nextRetry time.Time
}

// DiscordClient publishes posts to a Discord webhook through a bounded queue
// with dedupe, rate limiting, and retry with exponential backoff.
type DiscordClient struct {
	cfg        Config
	httpClient *http.Client
	queue      chan queuedPost
	ctx        context.Context
	cancel     context.CancelFunc

	mu          sync.Mutex
	dedupeCache map[string]time.Time
	sentTimes   []time.Time
}

func NewDiscordClient(cfg Config) *DiscordClient {
	if cfg.DedupeWindowSecs <= 0 {
		cfg.DedupeWindowSecs = 300
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = 20
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &DiscordClient{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		queue:       make(chan queuedPost, 256),
		ctx:         ctx,
		cancel:      cancel,
		dedupeCache: make(map[string]time.Time),
	}
	go c.worker()
	return c
}

// Enabled reports whether a webhook is configured.
func (c *DiscordClient) Enabled() bool {
	return c.cfg.WebhookURL != ""
}

// Publish enqueues a post. Duplicates inside the dedupe window and posts over
// the rate limit are dropped silently; publishing is best-effort.
func (c *DiscordClient) Publish(post Post) {
	if !c.Enabled() {
		return
	}

	hash := postHash(post)
	window := time.Duration(c.cfg.DedupeWindowSecs) * time.Second
	c.mu.Lock()
	for h, seen := range c.dedupeCache {
		if time.Since(seen) >= window {
			delete(c.dedupeCache, h)
		}
	}
	if _, ok := c.dedupeCache[hash]; ok {
		c.mu.Unlock()
		observ.IncCounter("discord_posts_deduped_total", nil)
		return
	}
	c.dedupeCache[hash] = time.Now()

	cutoff := time.Now().Add(-time.Minute)
	kept := c.sentTimes[:0]
	for _, t := range c.sentTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.sentTimes = kept
	if len(c.sentTimes) >= c.cfg.RateLimitPerMin {
		c.mu.Unlock()
		observ.IncCounter("discord_posts_rate_limited_total", nil)
		return
	}
	c.sentTimes = append(c.sentTimes, time.Now())
	c.mu.Unlock()

	select {
	case c.queue <- queuedPost{post: post, nextRetry: time.Now()}:
	default:
		observ.IncCounter("discord_posts_dropped_total", nil)
	}
}

// Close stops the worker. Queued posts are abandoned.
func (c *DiscordClient) Close() {
	c.cancel()
}

func (c *DiscordClient) worker() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case qp := <-c.queue:
			if wait := time.Until(qp.nextRetry); wait > 0 {
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(wait):
				}
			}

			if err := c.send(qp.post); err != nil {
				qp.attempts++
				if qp.attempts >= c.cfg.MaxRetries {
					observ.Error("discord_post_failed", err, map[string]any{"title": qp.post.Title})
					observ.IncCounter("discord_webhook_errors_total", nil)
					continue
				}
				backoff := time.Duration(math.Pow(2, float64(qp.attempts))) * time.Second
				jitter := time.Duration(rand.Float64() * float64(backoff) * 0.1)
				qp.nextRetry = time.Now().Add(backoff + jitter)
				select {
				case c.queue <- qp:
				default:
					observ.IncCounter("discord_posts_dropped_total", nil)
				}
				continue
			}
			observ.IncCounter("discord_posts_sent_total", nil)
		}
	}
}

func (c *DiscordClient) send(post Post) error {
	payload := discordPayload{
		Username: c.cfg.Username,
		Embeds: []discordEmbed{{
			Title:       post.Title,
			Description: post.Body,
			Color:       post.Color,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}
	return nil
}

func postHash(post Post) string {
	sum := sha256.Sum256([]byte(post.Title + "\x00" + post.Body))
	return fmt.Sprintf("%x", sum)[:16]
}

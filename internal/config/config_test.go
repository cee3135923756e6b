package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Gate.OpenET != "10:00" || c.Gate.CloseET != "15:55" {
		t.Fatalf("gate defaults: %+v", c.Gate)
	}
	if c.Policy.VIXHigh != 25 || c.Policy.BreadthRiskOff != -0.5 {
		t.Fatalf("policy defaults: %+v", c.Policy)
	}
	if c.Perf.ProfitFactorCap != 99 {
		t.Fatalf("perf defaults: %+v", c.Perf)
	}
	if c.Entitlement.DefaultTier != "free" {
		t.Fatalf("entitlement defaults: %+v", c.Entitlement)
	}
}

func TestLoadFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
gate:
  open_et: "09:45"
policy:
  vix_high: 30
alerts:
  discord_webhook_url: "https://example.com/from-file"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DISCORD_WEBHOOK_URL", "https://example.com/from-env")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Gate.OpenET != "09:45" {
		t.Fatalf("file value not applied: %+v", c.Gate)
	}
	if c.Gate.CloseET != "15:55" {
		t.Fatalf("unset values still default: %+v", c.Gate)
	}
	if c.Policy.VIXHigh != 30 {
		t.Fatalf("policy override not applied: %+v", c.Policy)
	}
	if c.Alerts.DiscordWebhookURL != "https://example.com/from-env" {
		t.Fatalf("env must win over file for secrets: %s", c.Alerts.DiscordWebhookURL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("missing file should default: %+v", c.Server)
	}
}

func TestParseHourMinute(t *testing.T) {
	h, m, err := ParseHourMinute("15:55")
	if err != nil || h != 15 || m != 55 {
		t.Fatalf("want 15:55, got %d:%d %v", h, m, err)
	}
	for _, bad := range []string{"", "15", "25:00", "10:60", "a:b"} {
		if _, _, err := ParseHourMinute(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}

package entitlement

import (
	"os"
)

// Subscription tiers. Free users get summary numbers with premium detail
// locked; pro users get everything.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Access is the gating envelope attached to API responses.
type Access struct {
	Tier     Tier `json:"tier"`
	IsLocked bool `json:"is_locked"`
}

// Config maps API keys to the pro tier.
type Config struct {
	DefaultTier Tier
	ProAPIKeys  []string
}

// Resolver decides the tier for a request. DEV_FORCE_PRO=1 forces pro for
// every request, for local development.
type Resolver struct {
	defaultTier Tier
	proKeys     map[string]bool
	devForcePro bool
}

func NewResolver(cfg Config) *Resolver {
	tier := cfg.DefaultTier
	if tier != TierPro {
		tier = TierFree
	}
	keys := make(map[string]bool, len(cfg.ProAPIKeys))
	for _, k := range cfg.ProAPIKeys {
		if k != "" {
			keys[k] = true
		}
	}
	return &Resolver{
		defaultTier: tier,
		proKeys:     keys,
		devForcePro: os.Getenv("DEV_FORCE_PRO") == "1",
	}
}

// Resolve returns the access envelope for the given API key (may be empty).
func (r *Resolver) Resolve(apiKey string) Access {
	if r.devForcePro || r.defaultTier == TierPro || r.proKeys[apiKey] {
		return Access{Tier: TierPro, IsLocked: false}
	}
	return Access{Tier: TierFree, IsLocked: true}
}

package entitlement

import "testing"

func TestResolve(t *testing.T) {
	r := NewResolver(Config{DefaultTier: TierFree, ProAPIKeys: []string{"pk_123"}})

	if a := r.Resolve(""); !a.IsLocked || a.Tier != TierFree {
		t.Fatalf("anonymous request should be locked, got %+v", a)
	}
	if a := r.Resolve("pk_123"); a.IsLocked || a.Tier != TierPro {
		t.Fatalf("pro key should unlock, got %+v", a)
	}
	if a := r.Resolve("pk_unknown"); !a.IsLocked {
		t.Fatalf("unknown key should be locked, got %+v", a)
	}
}

func TestDevForcePro(t *testing.T) {
	t.Setenv("DEV_FORCE_PRO", "1")
	r := NewResolver(Config{DefaultTier: TierFree})
	if a := r.Resolve(""); a.IsLocked {
		t.Fatalf("DEV_FORCE_PRO should unlock everything, got %+v", a)
	}
}

func TestDefaultTierPro(t *testing.T) {
	r := NewResolver(Config{DefaultTier: TierPro})
	if a := r.Resolve(""); a.IsLocked {
		t.Fatalf("pro default tier should unlock, got %+v", a)
	}
}

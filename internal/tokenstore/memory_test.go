package tokenstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	current := time.Unix(1000, 0)
	s := NewMemoryStoreWithNow(func() time.Time { return current })
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "k")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatalf("expected not revoked")
	}

	if err := s.SetRevoked(ctx, "k", time.Minute); err != nil {
		t.Fatalf("SetRevoked: %v", err)
	}
	revoked, _ = s.IsRevoked(ctx, "k")
	if !revoked {
		t.Fatalf("expected revoked")
	}

	current = current.Add(2 * time.Minute)
	revoked, _ = s.IsRevoked(ctx, "k")
	if revoked {
		t.Fatalf("expected marker to lapse")
	}
}

func TestMemoryStore_NonPositiveTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetRevoked(ctx, "k", 0); err != nil {
		t.Fatalf("SetRevoked: %v", err)
	}
	revoked, _ := s.IsRevoked(ctx, "k")
	if revoked {
		t.Fatalf("zero ttl must not create a marker")
	}
}

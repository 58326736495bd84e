package chef

import (
	"context"
	"errors"
	"testing"
	"time"

	"voicechef/agent/contract"
)

type staticChef struct{ id int }

func (s *staticChef) Run(context.Context, contract.ChefRequest) (contract.ChefResponse, error) {
	return contract.ChefResponse{Message: "ok"}, nil
}

func TestProviderCachesPerPhone(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	builds := 0
	p := NewProvider(func(ctx context.Context, phone string) (contract.Chef, error) {
		builds++
		return &staticChef{id: builds}, nil
	})

	first, err := p.Get(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := p.Get(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached instance on the second get")
	}
	if _, err := p.Get(ctx, "+15550002222"); err != nil {
		t.Fatalf("get other phone: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2", builds)
	}
}

func TestProviderRebuildsAfterTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Now()
	builds := 0
	p := NewProvider(func(ctx context.Context, phone string) (contract.Chef, error) {
		builds++
		return &staticChef{id: builds}, nil
	}, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	if _, err := p.Get(ctx, "+15550001111"); err != nil {
		t.Fatalf("get: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := p.Get(ctx, "+15550001111"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2 after ttl expiry", builds)
	}
}

func TestProviderInvalidateForcesRebuild(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	builds := 0
	p := NewProvider(func(ctx context.Context, phone string) (contract.Chef, error) {
		builds++
		return &staticChef{id: builds}, nil
	})

	if _, err := p.Get(ctx, "+15550001111"); err != nil {
		t.Fatalf("get: %v", err)
	}
	p.Invalidate("+15550001111")
	if _, err := p.Get(ctx, "+15550001111"); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if builds != 2 {
		t.Fatalf("builds = %d, want 2 after invalidate", builds)
	}
}

func TestProviderPropagatesBuildErrors(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("unknown restaurant")
	p := NewProvider(func(ctx context.Context, phone string) (contract.Chef, error) {
		return nil, wantErr
	})

	if _, err := p.Get(context.Background(), "+15550001111"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

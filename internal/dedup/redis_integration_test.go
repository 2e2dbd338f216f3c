//go:build integration

package dedup

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedis_CheckAndRecord(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	g := NewRedis(addr, 0, time.Minute)
	defer g.Close()
	ctx := context.Background()

	id := uuid.New().String()
	fresh, err := g.CheckAndRecord(ctx, id)
	if err != nil || !fresh {
		t.Fatalf("first check: fresh=%v err=%v", fresh, err)
	}
	fresh, err = g.CheckAndRecord(ctx, id)
	if err != nil || fresh {
		t.Fatalf("second check: fresh=%v err=%v", fresh, err)
	}
}

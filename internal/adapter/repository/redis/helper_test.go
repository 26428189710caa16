package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	infraredis "github.com/iho/paymentsengine/internal/infrastructure/redis"
)

// newTestStore returns a store on a fresh miniredis, connected the same way the server connects.
func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := infraredis.NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewIdempotencyStore(client), mr
}

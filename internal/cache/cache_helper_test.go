package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T, prefix string) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCacheHelper(client, prefix), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t, "test:")
	ctx := context.Background()

	type payload struct {
		ID    string `json:"id"`
		Score float64
	}

	in := payload{ID: "t-1", Score: 87.5}
	if err := helper.Set(ctx, "id:t-1", in, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "id:t-1", &out); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestHelper(t, "test:")

	var out string
	err := helper.Get(context.Background(), "missing", &out)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("Expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}

	var out string
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t, "test:")
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := helper.SetString(ctx, key, "value", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if exists, _ := helper.Exists(ctx, "a"); exists {
		t.Error("Key 'a' should have been deleted")
	}
	if exists, _ := helper.Exists(ctx, "c"); !exists {
		t.Error("Key 'c' should still exist")
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t, "question:")
	ctx := context.Background()

	keys := []string{"pool:p1:easy", "pool:p1:hard", "pool:p2:easy"}
	for _, key := range keys {
		if err := helper.SetString(ctx, key, "cached", time.Minute); err != nil {
			t.Fatalf("SetString failed: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "pool:p1:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	if exists, _ := helper.Exists(ctx, "pool:p1:easy"); exists {
		t.Error("pool:p1:easy should have been invalidated")
	}
	if exists, _ := helper.Exists(ctx, "pool:p1:hard"); exists {
		t.Error("pool:p1:hard should have been invalidated")
	}
	if exists, _ := helper.Exists(ctx, "pool:p2:easy"); !exists {
		t.Error("pool:p2:easy should not have been invalidated")
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t, "stats:")
	ctx := context.Background()

	fetchCalls := 0
	fetch := func() (interface{}, error) {
		fetchCalls++
		return map[string]int{"total": 42}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "course:c1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if first["total"] != 42 {
		t.Errorf("Expected total 42, got %d", first["total"])
	}
	if fetchCalls != 1 {
		t.Fatalf("Expected 1 fetch call, got %d", fetchCalls)
	}

	// The async cache write may still be in flight
	deadline := time.Now().Add(2 * time.Second)
	for {
		var cached map[string]int
		if err := helper.Get(ctx, "course:c1", &cached); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Value never appeared in cache")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "course:c1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute on warm cache failed: %v", err)
	}
	if fetchCalls != 1 {
		t.Errorf("Warm cache should not fetch again, got %d calls", fetchCalls)
	}
}

func TestCacheManager_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)

	if err := cm.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Expected ErrCacheNotAvailable, got %v", err)
	}
	if err := cm.ClearAll(context.Background()); err != nil {
		t.Errorf("ClearAll with nil client should be a no-op, got %v", err)
	}
}

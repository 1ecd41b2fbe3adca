package cache_test

import (
	"testing"
	"time"

	"github.com/Mai1203/project-gimnasio-app/internal/domain"
	"github.com/Mai1203/project-gimnasio-app/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]domain.Plan](5 * time.Minute)

	plans := []domain.Plan{{ID: "plan-1", Name: "Plan Básico", PriceCents: 2999, Active: true}}
	c.Set("plans:active", plans)

	got, ok := c.Get("plans:active")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(got) != 1 || got[0].ID != "plan-1" {
		t.Errorf("unexpected cached value: %+v", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

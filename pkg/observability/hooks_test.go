package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingCacheHooks struct {
	mu     sync.Mutex
	hits   int
	misses int
	sets   int
}

func (r *recordingCacheHooks) OnCacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *recordingCacheHooks) OnCacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *recordingCacheHooks) OnCacheSet(string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets++
}

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// Must not panic.
	Render().OnRenderStart(context.Background(), "tikz", "light")
	Render().OnRenderComplete(context.Background(), "tikz", "light", time.Second, nil)
	Render().OnStageComplete(context.Background(), "typeset", time.Second, nil)
	Cache().OnCacheHit("key")
	Cache().OnCacheMiss("key")
	Cache().OnCacheSet("key", 10)
}

func TestSetCacheHooks(t *testing.T) {
	defer Reset()

	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)

	Cache().OnCacheHit("a")
	Cache().OnCacheHit("b")
	Cache().OnCacheMiss("c")
	Cache().OnCacheSet("c", 128)

	if rec.hits != 2 || rec.misses != 1 || rec.sets != 1 {
		t.Errorf("recorded hits=%d misses=%d sets=%d", rec.hits, rec.misses, rec.sets)
	}
}

func TestSetNilHooksIgnored(t *testing.T) {
	defer Reset()

	SetCacheHooks(nil)
	SetRenderHooks(nil)

	if Cache() == nil || Render() == nil {
		t.Error("nil registration should keep previous hooks")
	}
}

func TestReset(t *testing.T) {
	rec := &recordingCacheHooks{}
	SetCacheHooks(rec)
	Reset()

	Cache().OnCacheHit("x")
	if rec.hits != 0 {
		t.Error("Reset should restore no-op hooks")
	}
}

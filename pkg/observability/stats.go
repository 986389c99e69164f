package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats counts events. It implements every hook interface and is safe for
// concurrent use.
type Stats struct {
	Resolved    atomic.Int64
	Failed      atomic.Int64
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64
	Requests    atomic.Int64
	HTTPErrors  atomic.Int64
}

// Register installs s as the resolver, cache and HTTP hooks.
func (s *Stats) Register() {
	SetResolverHooks(s)
	SetCacheHooks(s)
	SetHTTPHooks(s)
}

func (s *Stats) OnResolveStart(context.Context, string, string, int) {}

func (s *Stats) OnResolveComplete(_ context.Context, _, _ string, _ bool, _ time.Duration, err error) {
	if err != nil {
		s.Failed.Add(1)
		return
	}
	s.Resolved.Add(1)
}

func (s *Stats) OnCacheHit(context.Context, string)      { s.CacheHits.Add(1) }
func (s *Stats) OnCacheMiss(context.Context, string)     { s.CacheMisses.Add(1) }
func (s *Stats) OnCacheSet(context.Context, string, int) {}

func (s *Stats) OnRequest(context.Context, string, string, string) { s.Requests.Add(1) }
func (s *Stats) OnResponse(context.Context, string, string, string, int, time.Duration) {
}
func (s *Stats) OnError(context.Context, string, string, string, error) { s.HTTPErrors.Add(1) }

package integrations

import (
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerThreshold is the number of failed requests to one host, within the
// breaker window, after which requests to it fail fast.
const breakerThreshold = 5

// breakers holds one circuit breaker per registry host.
type breakers struct {
	mu  sync.Mutex
	set map[string]*circuit.Breaker
}

func newBreakers() *breakers {
	return &breakers{set: make(map[string]*circuit.Breaker)}
}

func (b *breakers) get(rawURL string) (string, *circuit.Breaker) {
	host := hostOf(rawURL)

	b.mu.Lock()
	defer b.mu.Unlock()

	if br, ok := b.set[host]; ok {
		return host, br
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 10 * time.Second
	exp.MaxInterval = 2 * time.Minute
	exp.Reset()

	br := circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    exp,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	b.set[host] = br
	return host, br
}

// states reports "open" or "closed" per host.
func (b *breakers) states() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]string, len(b.set))
	for host, br := range b.set {
		if br.Tripped() {
			out[host] = "open"
		} else {
			out[host] = "closed"
		}
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

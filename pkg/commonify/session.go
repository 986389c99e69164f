package commonify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mifi/commonify/pkg/manifest"
)

// Record describes one converted package.
type Record struct {
	Source       Coordinate    `json:"source" bson:"source"`
	Result       Result        `json:"result" bson:"result"`
	Depth        int           `json:"depth" bson:"depth"`
	Dependencies manifest.Deps `json:"dependencies,omitempty" bson:"dependencies,omitempty"`
	Edges        []Edge        `json:"edges,omitempty" bson:"edges,omitempty"`
}

// Session collects the output of one run. The publish queue only grows.
type Session struct {
	ID        string
	Root      Coordinate
	Scope     string
	CreatedAt time.Time
	// Result is the converted root package, nil if it was not eligible.
	Result *Result

	mu       sync.Mutex
	actions  []PublishAction
	records  []Record
	resolved map[Coordinate]*Result
}

// NewSession starts a session for converting root into scope.
func NewSession(root Coordinate, scope string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Root:      root,
		Scope:     scope,
		CreatedAt: time.Now().UTC(),
		resolved:  make(map[Coordinate]*Result),
	}
}

// Actions returns the queued publish actions in queue order.
func (s *Session) Actions() []PublishAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.actions)
}

// Records returns the converted packages in queue order.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

func (s *Session) queue(a PublishAction, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
	s.records = append(s.records, r)
}

// remember stores the outcome for a concrete source coordinate so a
// dependency reached twice in one run is only converted once. res may be nil
// for ineligible packages.
func (s *Session) remember(c Coordinate, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved[c] = res
}

func (s *Session) recall(c Coordinate) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resolved[c]
	return res, ok
}

// Package session keeps a history of successful commonify runs.
//
// A [Run] is recorded only after a whole dependency tree was converted, so
// every stored run lists publish commands that can be executed as they are.
// Two backends implement [Store]:
//   - file: one JSON document per run, the default for the CLI
//   - mongo: a MongoDB collection, for sharing history between machines
//
// # Usage
//
//	store, err := session.NewFileStore("") // $XDG_STATE_HOME/commonify/history
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if err := store.Save(ctx, session.FromSession(s, registryURL)); err != nil {
//	    return err
//	}
//	runs, err := store.List(ctx, 20)
package session

import (
	"context"
	"errors"
	"time"

	"github.com/mifi/commonify/pkg/commonify"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is the stored record of one successful run.
type Run struct {
	ID        string               `json:"id" bson:"_id"`
	Root      commonify.Coordinate `json:"root" bson:"root"`
	Scope     string               `json:"scope" bson:"scope"`
	Registry  string               `json:"registry,omitempty" bson:"registry,omitempty"`
	CreatedAt time.Time            `json:"created_at" bson:"created_at"`
	// Result is nil when the root package was not eligible.
	Result   *commonify.Result         `json:"result,omitempty" bson:"result,omitempty"`
	Actions  []commonify.PublishAction `json:"actions" bson:"actions"`
	Packages []commonify.Record        `json:"packages" bson:"packages"`
}

// FromSession builds the record of a finished session.
func FromSession(s *commonify.Session, registry string) *Run {
	return &Run{
		ID:        s.ID,
		Root:      s.Root,
		Scope:     s.Scope,
		Registry:  registry,
		CreatedAt: s.CreatedAt,
		Result:    s.Result,
		Actions:   s.Actions(),
		Packages:  s.Records(),
	}
}

// Store is the interface for run history backends.
type Store interface {
	// Save stores a run, replacing any run with the same ID.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit runs, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*Run, error)

	Close() error
}

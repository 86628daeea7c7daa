// Package cleanup deletes the entities a scenario created, best effort.
package cleanup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// Deleter removes a single entity by id.
type Deleter interface {
	Delete(ctx context.Context, id int) error
}

// DeleterFunc adapts a function to Deleter.
type DeleterFunc func(ctx context.Context, id int) error

func (f DeleterFunc) Delete(ctx context.Context, id int) error {
	return f(ctx, id)
}

// Tracker records created ids and deletes them at teardown. A Tracker
// belongs to one scenario and is not safe for concurrent use.
type Tracker struct {
	deleter Deleter
	logger  *slog.Logger
	ids     []int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates an empty Tracker.
func NewTracker(deleter Deleter, opts ...Option) *Tracker {
	t := &Tracker{deleter: deleter}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return t
}

// Track records id for deletion.
func (t *Tracker) Track(id int) {
	t.ids = append(t.ids, id)
	t.logger.Debug("tracking entity for cleanup", "id", id)
}

// TrackPtr records *id, ignoring nil.
func (t *Tracker) TrackPtr(id *int) {
	if id != nil {
		t.Track(*id)
	}
}

// IDs returns a copy of the tracked ids in insertion order.
func (t *Tracker) IDs() []int {
	return append([]int(nil), t.ids...)
}

func (t *Tracker) Len() int {
	return len(t.ids)
}

// Flush deletes every tracked id in order. A failing id does not stop the
// others. The tracker is always empty afterwards; the failures are returned
// joined and wrapped in ErrCleanup.
func (t *Tracker) Flush(ctx context.Context) error {
	if len(t.ids) == 0 {
		return nil
	}

	ids := t.ids
	t.ids = nil

	t.logger.Info("cleaning up created entities", "count", len(ids))

	var failures []error
	for _, id := range ids {
		if err := t.delete(ctx, id); err != nil {
			t.logger.Warn("failed to delete entity", "id", id, "error", err)
			failures = append(failures, fmt.Errorf("id %d: %w", id, err))
			continue
		}
		t.logger.Info("deleted entity", "id", id)
	}

	if len(failures) > 0 {
		return errors.WrapError(
			errors.Join(failures...),
			errors.ErrCleanup,
			fmt.Sprintf("%d of %d deletions failed", len(failures), len(ids)),
		)
	}
	return nil
}

// delete runs the deleter, turning a panic into an error.
func (t *Tracker) delete(ctx context.Context, id int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during delete: %v", r)
		}
	}()
	if t.deleter == nil {
		return fmt.Errorf("no deleter configured")
	}
	return t.deleter.Delete(ctx, id)
}

// Cleanup flushes and only logs the outcome. It is the teardown entry point
// and never fails the caller.
func (t *Tracker) Cleanup(ctx context.Context) {
	if err := t.Flush(ctx); err != nil {
		t.logger.Error("cleanup incomplete", "error", err)
	}
}

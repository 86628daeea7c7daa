package harness

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/saturnines/gqlprobe/pkg/cleanup"
	"github.com/saturnines/gqlprobe/pkg/config"
	"github.com/saturnines/gqlprobe/pkg/datagen"
	"github.com/saturnines/gqlprobe/pkg/errors"
	"github.com/saturnines/gqlprobe/pkg/extract"
	"github.com/saturnines/gqlprobe/pkg/transport/graphql"
)

// State is the lifecycle position of a Scenario.
type State int

const (
	StateBuilding State = iota
	StateExecuted
	StateCleaned
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateExecuted:
		return "executed"
	case StateCleaned:
		return "cleaned"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Scenario is one run of build, send, assert, extract and track. It moves
// from building to executed on its first request and to cleaned at
// teardown; nothing can be sent once cleaned. A Scenario is used by a single
// goroutine.
type Scenario struct {
	name    string
	harness *Harness
	gen     *datagen.Generator
	tracker *cleanup.Tracker
	logger  *slog.Logger
	state   State
}

func newTracker(s *Scenario) *cleanup.Tracker {
	return cleanup.NewTracker(cleanup.DeleterFunc(s.deleteUser), cleanup.WithLogger(s.logger))
}

func (s *Scenario) Name() string {
	return s.name
}

func (s *Scenario) State() State {
	return s.state
}

// Data returns the scenario's own generator.
func (s *Scenario) Data() *datagen.Generator {
	return s.gen
}

func (s *Scenario) Settings() *config.Settings {
	return s.harness.settings
}

// Tracker exposes the cleanup tracker, mainly for inspection.
func (s *Scenario) Tracker() *cleanup.Tracker {
	return s.tracker
}

// NewBuilder returns a builder bound to the harness schema, if any.
func (s *Scenario) NewBuilder() *graphql.Builder {
	b := graphql.NewBuilder()
	if s.harness.schema != nil {
		b.WithSchema(s.harness.schema)
	}
	return b
}

// Log writes a message tagged with the scenario name.
func (s *Scenario) Log(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Execute builds and sends a request. Build errors are returned before
// anything reaches the network.
func (s *Scenario) Execute(ctx context.Context, b *graphql.Builder) (*graphql.Response, error) {
	if s.state == StateCleaned {
		return nil, errors.WrapError(
			fmt.Errorf("scenario %q already cleaned up", s.name),
			errors.ErrValidation,
			"execute",
		)
	}

	env, err := b.Envelope()
	if err != nil {
		return nil, err
	}

	resp, err := s.harness.client.Send(ctx, env)
	if err != nil {
		return nil, err
	}
	s.state = StateExecuted
	return resp, nil
}

// AssertStatus checks the HTTP status code.
func (s *Scenario) AssertStatus(resp *graphql.Response, want int) error {
	if resp.Status != want {
		return errors.WrapError(
			fmt.Errorf("expected status code %d but got %d", want, resp.Status),
			errors.ErrValidation,
			"assert status",
		)
	}
	return nil
}

// AssertNoErrors fails when the body carries a GraphQL errors list,
// whatever the HTTP status.
func (s *Scenario) AssertNoErrors(resp *graphql.Response) error {
	return resp.Err()
}

// AssertValid is AssertStatus(200) followed by AssertNoErrors.
func (s *Scenario) AssertValid(resp *graphql.Response) error {
	if err := s.AssertStatus(resp, http.StatusOK); err != nil {
		return err
	}
	return s.AssertNoErrors(resp)
}

// Extract returns the value at path, or false when any segment is missing.
func (s *Scenario) Extract(resp *graphql.Response, path string) (interface{}, bool) {
	return resp.Path(path)
}

// Require is Extract that treats absence as an ErrExtraction.
func (s *Scenario) Require(resp *graphql.Response, path string) (interface{}, error) {
	v, ok := resp.Path(path)
	if !ok {
		return nil, errors.WrapError(fmt.Errorf("no value at %s", path), errors.ErrExtraction, "extract")
	}
	return v, nil
}

// RequireString extracts a string.
func (s *Scenario) RequireString(resp *graphql.Response, path string) (string, error) {
	v, err := s.Require(resp, path)
	if err != nil {
		return "", err
	}
	str, ok := extract.String(v)
	if !ok {
		return "", errors.WrapError(fmt.Errorf("value at %s is %T, not a string", path, v), errors.ErrExtraction, "extract")
	}
	return str, nil
}

// RequireInt extracts an integer. Numeric strings are accepted, as IDs
// often come back that way.
func (s *Scenario) RequireInt(resp *graphql.Response, path string) (int, error) {
	v, err := s.Require(resp, path)
	if err != nil {
		return 0, err
	}
	n, ok := extract.Int(v)
	if !ok {
		return 0, errors.WrapError(fmt.Errorf("value at %s is %v, not an integer", path, v), errors.ErrExtraction, "extract")
	}
	return n, nil
}

// Track registers a created user for deletion at teardown.
func (s *Scenario) Track(id int) {
	s.tracker.Track(id)
	s.Log("tracking user for cleanup", "id", id)
}

// teardownTimeout bounds cleanup once it no longer follows the caller's
// cancellation.
const teardownTimeout = 30 * time.Second

// Teardown deletes tracked users, best effort, and moves the scenario to
// cleaned. Failures are logged only. Calling it twice is a no-op.
// Deletions still go out when ctx is already cancelled, bounded by
// teardownTimeout.
func (s *Scenario) Teardown(ctx context.Context) {
	if s.state == StateCleaned {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	s.tracker.Cleanup(ctx)
	s.state = StateCleaned
}

// deleteUser is the cleanup deleter: mutation { deleteUser(id: N) { id } }.
func (s *Scenario) deleteUser(ctx context.Context, id int) error {
	env, err := graphql.NewBuilder().
		MutationOperation("deleteUser").
		Argument("id", id).
		Fields("id").
		Envelope()
	if err != nil {
		return err
	}

	resp, err := s.harness.client.Send(ctx, env)
	if err != nil {
		return err
	}
	return s.AssertValid(resp)
}

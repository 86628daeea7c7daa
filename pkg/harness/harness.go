// Package harness runs API scenarios against a GraphQL endpoint.
//
// Each scenario owns its generator and cleanup tracker, so scenarios can run
// in parallel without sharing mutable state. The only shared value is the
// resolved configuration, which is read-only.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/config"
	"github.com/saturnines/gqlprobe/pkg/datagen"
	"github.com/saturnines/gqlprobe/pkg/errors"
	"github.com/saturnines/gqlprobe/pkg/transport/graphql"
)

// Harness holds what scenarios share: settings, client and schema.
type Harness struct {
	settings *config.Settings
	client   *graphql.Client
	logger   *slog.Logger
	schema   *ast.Schema
	newGen   func() *datagen.Generator
}

// Option configures a Harness.
type Option func(*Harness)

// WithClient replaces the client built from settings.
func WithClient(client *graphql.Client) Option {
	return func(h *Harness) {
		h.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithSchema validates every scenario request against schema before sending.
func WithSchema(schema *ast.Schema) Option {
	return func(h *Harness) {
		h.schema = schema
	}
}

// WithGeneratorFactory controls how each scenario's generator is made.
func WithGeneratorFactory(newGen func() *datagen.Generator) Option {
	return func(h *Harness) {
		h.newGen = newGen
	}
}

// New creates a Harness. Without WithClient the client is configured from
// settings: endpoint, timeouts, content type, retries, logging and auth.
// A configured schema file is loaded unless WithSchema was given.
func New(settings *config.Settings, opts ...Option) (*Harness, error) {
	if settings == nil {
		return nil, errors.WrapError(fmt.Errorf("settings are nil"), errors.ErrConfiguration, "create harness")
	}

	h := &Harness{
		settings: settings,
		newGen:   func() *datagen.Generator { return datagen.New() },
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if h.client == nil {
		authHandler, err := auth.FromSettings(settings)
		if err != nil {
			return nil, err
		}
		h.client = graphql.NewClient(settings.BaseURL,
			graphql.WithTimeout(settings.RequestTimeout),
			graphql.WithConnectTimeout(settings.ConnectionTimeout),
			graphql.WithContentType(settings.ContentType),
			graphql.WithRetry(settings.RetryAttempts),
			graphql.WithAuthHandler(authHandler),
			graphql.WithLogger(h.logger),
			graphql.WithRequestLogging(settings.RequestLogging),
			graphql.WithResponseLogging(settings.ResponseLogging),
		)
	}

	if h.schema == nil && settings.SchemaFile != "" {
		schema, err := graphql.LoadSchema(settings.SchemaFile)
		if err != nil {
			return nil, err
		}
		h.schema = schema
	}

	return h, nil
}

func (h *Harness) Settings() *config.Settings {
	return h.settings
}

func (h *Harness) Client() *graphql.Client {
	return h.client
}

func (h *Harness) Logger() *slog.Logger {
	return h.logger
}

// NewScenario starts a scenario in the building state.
func (h *Harness) NewScenario(name string) *Scenario {
	s := &Scenario{
		name:    name,
		harness: h,
		gen:     h.newGen(),
		logger:  h.logger.With("scenario", name),
		state:   StateBuilding,
	}
	s.tracker = newTracker(s)
	return s
}

// ScenarioFunc is the body of a scenario.
type ScenarioFunc func(ctx context.Context, s *Scenario) error

// Run executes fn in a fresh scenario and always tears it down afterwards,
// whatever fn returned. A panic in fn fails the scenario.
func (h *Harness) Run(ctx context.Context, name string, fn ScenarioFunc) Result {
	s := h.NewScenario(name)
	start := time.Now()
	h.logger.Info("starting scenario", "scenario", name)

	err := runGuarded(ctx, s, fn)

	s.Teardown(ctx)

	result := Result{
		Name:     name,
		Passed:   err == nil,
		Err:      err,
		Duration: time.Since(start),
	}
	if err != nil {
		h.logger.Error("scenario failed", "scenario", name, "error", err, "duration", result.Duration)
	} else {
		h.logger.Info("scenario passed", "scenario", name, "duration", result.Duration)
	}
	return result
}

func runGuarded(ctx context.Context, s *Scenario, fn ScenarioFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WrapError(fmt.Errorf("%v", r), errors.ErrValidation, "scenario panicked")
		}
	}()
	return fn(ctx, s)
}

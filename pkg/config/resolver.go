package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// Resolver merges four value sources into a single effective setting per key.
// Priority is fixed: environment variable, process property, file, default.
// A Resolver is safe for concurrent use; the file is read once on first use.
type Resolver struct {
	file      string
	props     map[string]string
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
	known     []string
	loader    FileLoader

	loadOnce   sync.Once
	fileValues map[string]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFile sets the configuration file path.
func WithFile(path string) ResolverOption {
	return func(r *Resolver) {
		r.file = path
	}
}

// WithProperties sets process-level properties, matched against keys verbatim.
func WithProperties(props map[string]string) ResolverOption {
	return func(r *Resolver) {
		r.props = make(map[string]string, len(props))
		for k, v := range props {
			r.props[k] = v
		}
	}
}

// WithLookupEnv replaces os.LookupEnv, mostly for tests.
func WithLookupEnv(lookup func(string) (string, bool)) ResolverOption {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

// WithLogger sets the logger used to report the file load outcome.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithKnownKeys overrides the key set used to flag unknown file entries.
func WithKnownKeys(keys []string) ResolverOption {
	return func(r *Resolver) {
		r.known = keys
	}
}

// WithFileLoader swaps the loader used to read the configuration file.
func WithFileLoader(loader FileLoader) ResolverOption {
	return func(r *Resolver) {
		r.loader = loader
	}
}

// NewResolver creates a Resolver. Without WithFile it reads DefaultConfigFile
// from the working directory when present.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		file:      DefaultConfigFile,
		props:     map[string]string{},
		lookupEnv: os.LookupEnv,
		known:     KnownKeys,
		loader:    NewFileLoader(&EnvExpander{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// EnvKey returns the environment variable form of a key.
func EnvKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Resolve returns the first non-empty value for key, or def.
func (r *Resolver) Resolve(key, def string) string {
	v, _ := r.lookup(key, def)
	return v
}

// Source reports which source supplies the effective value for key.
func (r *Resolver) Source(key string) SourceKind {
	_, src := r.lookup(key, "")
	return src
}

// File returns the configured file path.
func (r *Resolver) File() string {
	return r.file
}

func (r *Resolver) lookup(key, def string) (string, SourceKind) {
	if v, ok := r.lookupEnv(EnvKey(key)); ok && v != "" {
		return v, SourceEnv
	}
	if v := r.props[key]; v != "" {
		return v, SourceProperty
	}
	r.loadOnce.Do(r.loadFile)
	if v := r.fileValues[key]; v != "" {
		return v, SourceFile
	}
	return def, SourceDefault
}

func (r *Resolver) loadFile() {
	r.fileValues = map[string]string{}
	if r.file == "" {
		return
	}

	values, err := r.loader.Load(r.file)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.logger.Info("configuration file not found, using default values", "file", r.file)
		return
	case err != nil:
		r.logger.Error("failed to load configuration file, using default values", "file", r.file, "error", err)
		return
	}

	r.fileValues = values
	r.logger.Info("loaded configuration", "file", r.file, "keys", len(values))

	for key := range values {
		if suggestion, unknown := SuggestKey(key, r.known); unknown {
			if suggestion != "" {
				r.logger.Warn("unknown configuration key", "key", key, "did_you_mean", suggestion)
			} else {
				r.logger.Warn("unknown configuration key", "key", key)
			}
		}
	}
}

// ParseProperties parses "key=value" pairs, as given on the command line.
func ParseProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.WrapError(
				fmt.Errorf("expected key=value, got %q", pair),
				errors.ErrConfiguration,
				"invalid property",
			)
		}
		props[key] = value
	}
	return props, nil
}

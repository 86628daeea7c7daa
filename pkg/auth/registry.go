package auth

import (
	"fmt"
	"sync"

	"github.com/saturnines/gqlprobe/pkg/config"
	"github.com/saturnines/gqlprobe/pkg/errors"
)

// AuthCreator defines a function that creates an auth handler from config
type AuthCreator func(*config.Auth) (Handler, error)

// AuthRegistry maintains a registry of auth handler creators
type AuthRegistry struct {
	creators map[config.AuthType]AuthCreator
	mutex    sync.RWMutex
}

// NewAuthRegistry creates a new auth registry with default handlers
func NewAuthRegistry() *AuthRegistry {
	registry := &AuthRegistry{
		creators: make(map[config.AuthType]AuthCreator),
	}

	registry.Register(config.AuthTypeBasic, createBasicAuth)
	registry.Register(config.AuthTypeAPIKey, createAPIKeyAuth)
	registry.Register(config.AuthTypeBearer, createBearerAuth)
	return registry
}

// Register adds a new auth creator to the registry
func (r *AuthRegistry) Register(authType config.AuthType, creator AuthCreator) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.creators[authType] = creator
}

// Create creates an auth handler based on the config.
// A nil config or AuthTypeNone yields a nil handler: requests go out unauthenticated.
func (r *AuthRegistry) Create(authConfig *config.Auth) (Handler, error) {
	if authConfig == nil || authConfig.Type == config.AuthTypeNone || authConfig.Type == "" {
		return nil, nil
	}

	r.mutex.RLock()
	creator, exists := r.creators[authConfig.Type]
	r.mutex.RUnlock()

	if !exists {
		return nil, errors.WrapError(
			fmt.Errorf("unsupported auth type: %s", authConfig.Type),
			errors.ErrConfiguration,
			"invalid auth type",
		)
	}

	return creator(authConfig)
}

var defaultRegistry = NewAuthRegistry()

// CreateHandler creates a handler using the default registry.
func CreateHandler(authConfig *config.Auth) (Handler, error) {
	return defaultRegistry.Create(authConfig)
}

// RegisterAuthHandler adds a creator to the default registry.
func RegisterAuthHandler(authType config.AuthType, creator AuthCreator) {
	defaultRegistry.Register(authType, creator)
}

// FromSettings builds the handler selected by graphql.auth.type.
func FromSettings(s *config.Settings) (Handler, error) {
	return CreateHandler(s.Auth())
}

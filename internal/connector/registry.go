// internal/connector/registry.go
package connector

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry manages connector registrations.
type Registry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
	byPlatform map[Platform][]Connector
	logger     *zap.Logger
}

// NewRegistry creates a new connector registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		connectors: make(map[string]Connector),
		byPlatform: make(map[Platform][]Connector),
		logger:     logger.Named("connector_registry"),
	}
}

// Register adds a connector to the registry.
func (r *Registry) Register(name string, c Connector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connectors[name]; exists {
		return fmt.Errorf("connector %s already registered", name)
	}

	r.connectors[name] = c
	platform := c.Platform()
	r.byPlatform[platform] = append(r.byPlatform[platform], c)

	r.logger.Info("Connector registered",
		zap.String("name", name),
		zap.String("platform", string(platform)))

	return nil
}

// Get retrieves a connector by name.
func (r *Registry) Get(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.connectors[name]
	if !exists {
		return nil, fmt.Errorf("connector %s not found", name)
	}

	return c, nil
}

// Ads retrieves a connector by name and requires the ads capability.
func (r *Registry) Ads(name string) (AdsConnector, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	ads, ok := c.(AdsConnector)
	if !ok {
		return nil, fmt.Errorf("connector %s does not fetch campaigns", name)
	}
	return ads, nil
}

// Messaging retrieves a connector by name and requires the send capability.
func (r *Registry) Messaging(name string) (MessagingConnector, error) {
	c, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	msg, ok := c.(MessagingConnector)
	if !ok {
		return nil, fmt.Errorf("connector %s cannot send messages", name)
	}
	return msg, nil
}

// ByPlatform retrieves all connectors for a platform.
func (r *Registry) ByPlatform(p Platform) []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectors := r.byPlatform[p]
	result := make([]Connector, len(connectors))
	copy(result, connectors)

	return result
}

// List returns all registered connector names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}

	return names
}

// Unregister removes a connector from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.connectors[name]
	if !exists {
		return fmt.Errorf("connector %s not found", name)
	}

	delete(r.connectors, name)

	platform := c.Platform()
	platformConnectors := r.byPlatform[platform]
	for i, conn := range platformConnectors {
		if conn.Name() == name {
			r.byPlatform[platform] = append(platformConnectors[:i], platformConnectors[i+1:]...)
			break
		}
	}

	r.logger.Info("Connector unregistered", zap.String("name", name))

	return nil
}

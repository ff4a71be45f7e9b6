package client

import (
	"sync"

	"github.com/gear6io/stardog-go/client/config"
	httpproto "github.com/gear6io/stardog-go/client/protocols/http"
	"github.com/gear6io/stardog-go/pkg/errors"
	"github.com/rs/zerolog"
)

// Connection holds the endpoint, credentials and connection-wide reasoning
// flag shared by every call. It owns no background resources.
//
// Setters may be called at any time, but a call in flight keeps the values it
// read when it started.
type Connection struct {
	mu        sync.RWMutex
	endpoint  string
	username  string
	password  string
	reasoning bool

	transport *httpproto.Client
	logger    zerolog.Logger
}

// New creates a connection from client configuration
func New(cfg *config.Config, logger zerolog.Logger) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrConfigInvalid, err, "invalid client configuration")
	}

	return &Connection{
		endpoint:  cfg.Server.Endpoint,
		username:  cfg.Auth.Username,
		password:  cfg.Auth.Password,
		reasoning: cfg.Query.Reasoning,
		transport: httpproto.NewClient(cfg.Server.Timeout, logger),
		logger:    logger.With().Str("component", "stardog-client").Logger(),
	}, nil
}

// NewConnection creates a connection to endpoint with default settings and no
// credentials
func NewConnection(endpoint string, logger zerolog.Logger) *Connection {
	return &Connection{
		endpoint:  endpoint,
		transport: httpproto.NewClient(config.DefaultConfig().Server.Timeout, logger),
		logger:    logger.With().Str("component", "stardog-client").Logger(),
	}
}

// SetEndpoint sets the base URL of the server, e.g. "http://localhost:5820/"
func (c *Connection) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

// SetCredentials sets the basic-auth user and password
func (c *Connection) SetCredentials(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.password = password
}

// SetReasoning sets the connection-wide reasoning flag
func (c *Connection) SetReasoning(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasoning = enabled
}

// Endpoint returns the base URL of the server
func (c *Connection) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// Username returns the basic-auth user, "" when none is set
func (c *Connection) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Reasoning returns the connection-wide reasoning flag
func (c *Connection) Reasoning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reasoning
}

// Close releases idle HTTP connections
func (c *Connection) Close() error {
	c.transport.Close()
	return nil
}

type snapshot struct {
	target    httpproto.Target
	reasoning bool
}

func (c *Connection) snapshot() snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return snapshot{
		target: httpproto.Target{
			BaseURL:  c.endpoint,
			Username: c.username,
			Password: c.password,
		},
		reasoning: c.reasoning,
	}
}

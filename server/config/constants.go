package config

const (
	// DefaultHTTPPort is the port a Stardog server listens on by default
	DefaultHTTPPort = 5820

	// DefaultServerAddress binds to loopback; the stand-in is a development tool
	DefaultServerAddress = "127.0.0.1"

	// DefaultConfigFile is read by cmd/server when present
	DefaultConfigFile = "stardog-stub.yml"

	// MaxQueryBodyBytes bounds a single query request body
	MaxQueryBodyBytes = 8 * 1024 * 1024
)

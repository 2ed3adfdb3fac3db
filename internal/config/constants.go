package config

import "time"

// Default listen ports for the two HTTP surfaces
const (
	DefaultContentPort = 8000
	DefaultCapturePort = 3001
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Outbound forwarding timeout, applied per target independently
const ForwardTimeout = 30 * time.Second

// Background job intervals
const CleanupJobInterval = time.Hour

// Default page size for the captures listing
const DefaultCaptureLimit = 50

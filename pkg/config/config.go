package config

import "time"

// Server defaults
const (
	DefaultPort         = "8080"
	DefaultEnv          = "production"
	DefaultBackend      = "memory"
	DefaultDataDir      = "./data/insights"
	DefaultMaxMemoryMB  = 48
	DefaultTickInterval = 60 * time.Second
	DefaultLocale       = "en-US"
	DefaultCurrency     = "$"
)

// HTTP server timeouts
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second
	ShutdownTimeout    = 30 * time.Second
	RequestTimeout     = 5 * time.Second
)

// Background task intervals
const (
	BadgerGCInterval = 10 * time.Minute
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 16
	WSChannelBuffer   = 8
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

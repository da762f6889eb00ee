// Package handlers implements the HTTP surface of relaybot: the webhook
// that receives relay notifications, the health endpoint, and the
// read-only room statistics endpoints.
package handlers

import (
	"relaybot.io/relaybot/internal/bot"
	"relaybot.io/relaybot/internal/pkg/worker"
	"relaybot.io/relaybot/internal/stats"
)

// Server holds all API handlers.
type Server struct {
	pipeline *bot.Pipeline
	recorder *stats.Recorder
	pools    *worker.Pools
}

// ServerDeps holds all dependencies for creating a Server. Manual DI, no
// framework.
type ServerDeps struct {
	Pipeline *bot.Pipeline
	Recorder *stats.Recorder
	Pools    *worker.Pools
}

// NewServer creates a Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		pipeline: deps.Pipeline,
		recorder: deps.Recorder,
		pools:    deps.Pools,
	}
}

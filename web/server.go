package web

import (
	"context"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"

	"schedulehub/handlers"
	"schedulehub/web/api"
)

// joinAttemptsPerMinute caps room create/join calls per client
const joinAttemptsPerMinute = 20

// Options wires the server to its services
type Options struct {
	api.Deps
	// DefaultRoomID serves requests without a room token, for a wall
	// display bound to one household
	DefaultRoomID string
}

// NewServer creates and configures the RWeb server
func NewServer(address string, opts Options) *rweb.Server {
	s := rweb.NewServer(rweb.ServerOptions{
		Address: address,
		Verbose: true,
	})
	setup(s, opts)
	return s
}

// NewTestServer builds the server with caller-supplied options, e.g. a
// ReadyChan and a dynamic port
func NewTestServer(so rweb.ServerOptions, opts Options) *rweb.Server {
	s := rweb.NewServer(so)
	setup(s, opts)
	return s
}

func setup(s *rweb.Server, opts Options) {
	s.Use(rweb.RequestInfo)
	s.Use(CorsMiddleware)
	s.Use(SecurityHeadersMiddleware)
	s.Use(RateLimitMiddleware("/api/v1/rooms", joinAttemptsPerMinute))
	s.Use(RoomTokenMiddleware(opts.Signer, opts.DefaultRoomID))
	s.Use(ViewMiddleware)
	s.Use(LoggingMiddleware)

	setupRoutes(s, api.New(opts.Deps), handlers.NewPages(opts.Store, opts.Hub, opts.Prefs))
	SetupStaticFiles(s)

	s.Get("/events", eventsHandler(s, opts.Hub))
}

// Run starts the server
func Run(s *rweb.Server, address string) error {
	logger.Info("Schedule hub web server starting on", "address", address)
	return s.Run()
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}


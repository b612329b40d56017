// Package app wires the polling server's components together and owns
// their lifecycle.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"classpoll/internal/api"
	"classpoll/internal/archive"
	"classpoll/internal/broadcast"
	"classpoll/internal/chat"
	"classpoll/internal/config"
	"classpoll/internal/roster"
	"classpoll/internal/session"
	"classpoll/internal/store"
	"classpoll/internal/websocket"
)

// Version is stamped by the build; the default covers go-install builds.
var Version = "1.0.0"

// Application owns every component of the polling server.
type Application struct {
	config      *config.Config
	archive     *archive.Archive
	coordinator *session.Coordinator
	registry    *websocket.Registry
	httpServer  *http.Server
}

// NewApplication builds the component graph in dependency order:
// Archive → Roster/Store → Registry → Gateway → Coordinator → Chat →
// WebSocket handler → API → HTTP server.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pollArchive, err := archive.Open(cfg.Archive.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open poll archive: %w", err)
	}

	registry := websocket.NewRegistry()
	gateway := broadcast.New(registry)

	coordinator := session.New(roster.New(), store.New(), gateway)
	coordinator.SetArchiver(pollArchive)

	relay := chat.New(gateway)

	wsHandler := websocket.NewHandler(registry, coordinator, relay,
		cfg.WebSocket.PingInterval, cfg.WebSocket.ReadTimeout)

	apiServer := api.NewServer(coordinator, pollArchive, registry,
		Version, cfg.PublicURL, cfg.Profile)

	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		archive:     pollArchive,
		coordinator: coordinator,
		registry:    registry,
		httpServer:  httpServer,
	}, nil
}

// Start begins serving and returns once the listener is up.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting classpoll v%s on %s://%s", Version, app.config.Scheme(), app.httpServer.Addr)

	serverErrCh := make(chan error, 1)
	go func() {
		var err error
		if app.config.Scheme() == "https" {
			err = app.httpServer.ListenAndServeTLS(app.config.HTTP.TLSCert, app.config.HTTP.TLSKey)
		} else {
			err = app.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.archive.Close()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("classpoll started successfully")
		return nil
	case <-ctx.Done():
		app.archive.Close()
		return ctx.Err()
	}
}

// Stop shuts down in reverse dependency order: HTTP listener first so
// no new commands arrive, then the coordinator, then the archive.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down classpoll")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	app.coordinator.Stop()

	if err := app.archive.Close(); err != nil {
		log.Printf("Archive shutdown error: %v", err)
	}

	log.Printf("classpoll shutdown complete")
	return nil
}

// Addr returns the address the server listens on.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}

package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"kickdemo-go/internal/auth"
	"kickdemo-go/internal/chat"
	"kickdemo-go/internal/config"
	"kickdemo-go/internal/kick"
	"kickdemo-go/internal/session"
	"kickdemo-go/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Application holds all the major components of the service.
type Application struct {
	Config        *config.Config
	Logger        *log.Logger
	Auth          *auth.Authenticator
	Sessions      session.Store
	Kick          *kick.Client
	Relay         *chat.Relay
	HTTPServer    *http.Server
	MetricsServer *http.Server

	store *storage.SQLiteStore // set when sessions are DB-backed
}

// New creates and initializes a new Application instance.
func New(cfg *config.Config) (*Application, error) {
	logger := log.New(os.Stdout, "kickdemo: ", log.LstdFlags)

	// Setup: Session store
	var sessions session.Store
	var store *storage.SQLiteStore
	if cfg.DBPath != "" {
		var err error
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		sessions = store
	} else {
		sessions = session.NewInMemoryStore()
	}

	// Setup: Authenticator
	flows := auth.NewInMemoryFlowStore(cfg.Auth.FlowTTL)
	authenticator := auth.NewAuthenticator(auth.Config{
		ClientID:      cfg.Auth.ClientID,
		ClientSecret:  cfg.Auth.ClientSecret,
		RedirectURI:   cfg.Auth.RedirectURI,
		Scopes:        cfg.Auth.Scopes,
		RefreshMargin: cfg.Auth.RefreshMargin,
	}, flows, logger)

	// Setup: API client and live-chat relay
	kickClient := kick.NewClient(logger)
	relay := chat.NewRelay(kickClient, chat.NewSubscriber(logger), logger)

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Auth:     authenticator,
		Sessions: sessions,
		Kick:     kickClient,
		Relay:    relay,
		store:    store,
	}

	app.HTTPServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: app.routes(),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	app.MetricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	return app, nil
}

// routes builds the HTTP router.
func (a *Application) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(a.requestLogger)

	r.Get("/", a.handleIndex)
	r.Get("/login", a.handleLogin)
	r.Get("/callback", a.handleCallback)
	r.Get("/logout", a.handleLogout)

	// Channel lookup works unauthenticated; a valid token is attached
	// when the session has one.
	r.Get("/channels/search", a.handleChannelsSearch)
	r.Get("/channels/suggest", a.handleChannelsSuggest)
	r.Get("/channels/{slug}", a.handleChannelRedirect)

	r.Get("/live-chat", a.handleLiveChat)
	r.Get("/live-chat/ws", a.Relay.HandleSocket)

	r.Group(func(pr chi.Router) {
		pr.Use(a.requireAuth)
		pr.Get("/me", a.handleMe)
		pr.Post("/send-chat", a.handleSendChat)
	})

	return r
}

// Start begins the application's services.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Println("Starting application services...")

	go func() {
		a.Logger.Printf("Starting metrics server on %s", a.MetricsServer.Addr)
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("Metrics server ListenAndServe: %v", err)
		}
	}()

	go func() {
		a.Logger.Printf("Starting HTTP server on %s", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application's services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Println("Stopping application services...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("HTTP server shutdown error: %v", err)
	}
	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("Metrics server shutdown error: %v", err)
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Printf("Error closing session store: %v", err)
		}
	}

	a.Logger.Println("Application stopped gracefully.")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "RequestID"

// App wires configuration, transport and storage into one router.
type App struct {
	cfg    *Config
	log    *Logger
	store  *EventStore     // nil when DATABASE_PATH is empty
	limits *rateLimitStore // nil when rate limiting is off
	router *gin.Engine

	// background tracks event writes started by request handlers.
	background sync.WaitGroup
}

// newApp builds the router. sender is injected so tests can swap the mail
// transport.
func newApp(cfg *Config, log *Logger, sender Sender) (*App, error) {
	app := &App{cfg: cfg, log: log}

	if cfg.DatabasePath != "" {
		store, err := OpenEventStore(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		app.store = store

		n, err := store.Purge(context.Background(), time.Now().AddDate(-1, 0, 0))
		if err != nil {
			log.Warn("privacy cleanup failed: %v", err)
		} else if n > 0 {
			log.Info("privacy cleanup: removed %d records older than 12 months", n)
		}
	}
	if cfg.RelayRateLimit > 0 {
		app.limits = newRateLimitStore(cfg.RelayRateLimit, cfg.RelayRateBurst)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(log))

	var events eventRecorder
	if app.store != nil {
		events = app.store
	}
	relay := NewRelayHandler(cfg, sender, app.limits, events, &app.background, log)
	relay.Register(r, cfg.RelayPath)
	if cfg.RelayPath != "/api/contact" {
		relay.Register(r, "/api/contact")
	}

	content := r.Group("/api/content")
	if app.store != nil {
		content.Use(visitorTracking(app.store, &app.background, log))
	}
	registerContentRoutes(content)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if app.store != nil {
		NewAdminHandler(cfg, app.store, log).Register(r)
		if !cfg.adminEnabled() {
			log.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set; admin login disabled")
		}
	}

	app.router = r
	return app, nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Close waits for pending event writes before closing the store. It is safe
// to call more than once.
func (a *App) Close() error {
	if a.limits != nil {
		a.limits.Stop()
	}
	a.background.Wait()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening on %s, relay at %s", srv.Addr, a.cfg.RelayPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	// Allow an in-flight dispatch to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.MailTimeout+5*time.Second)
	defer cancel()
	a.log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog(log *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[HTTP] %3d | %13v | %15s | %-7s %s | %s",
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Request.Method,
			c.Request.URL.Path,
			c.GetString(requestIDKey),
		)
	}
}

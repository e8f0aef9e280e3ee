// admin.go - privacy-conscious visit and relay accounting, plus the admin API
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RelayEvent is the outcome of one relay request. It never carries any of
// the submitted message fields.
type RelayEvent struct {
	ID        string    `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

type AdminStats struct {
	TotalVisitors    int64            `json:"total_visitors"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	VisitorsToday    int64            `json:"visitors_today"`
	VisitorsThisWeek int64            `json:"visitors_this_week"`
	RelayOutcomes    map[string]int64 `json:"relay_outcomes"`
	RecentEvents     []RelayEvent     `json:"recent_events"`
}

type eventRecorder interface {
	RecordRelay(ctx context.Context, ip, outcome string) error
}

// EventStore keeps hashed-IP visit and relay accounting in SQLite.
type EventStore struct {
	db   *sql.DB
	salt string
}

const eventSchema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,  -- Store hashed IP instead of raw IP
	user_agent TEXT,
	path TEXT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS relay_events (
	id TEXT PRIMARY KEY,
	hashed_ip TEXT NOT NULL,
	outcome TEXT NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS relay_events_timestamp ON relay_events (timestamp);
`

// OpenEventStore opens (or creates) the SQLite database at path.
func OpenEventStore(path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create event tables: %w", err)
	}
	return &EventStore{db: db, salt: randomToken()}, nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}

func randomToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

// hashIP is consistent per IP for the life of the process.
func (s *EventStore) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (s *EventStore) RecordRelay(ctx context.Context, ip, outcome string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relay_events (id, hashed_ip, outcome, timestamp) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), s.hashIP(ip), outcome, time.Now().UTC())
	return err
}

func (s *EventStore) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		s.hashIP(ip), userAgent, path, time.Now().UTC())
	return err
}

// Purge removes rows older than cutoff and returns how many were deleted.
func (s *EventStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"visitors", "relay_events"} {
		result, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", cutoff.UTC())
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		n, _ := result.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *EventStore) RecentEvents(ctx context.Context, limit int) ([]RelayEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, outcome, timestamp
		FROM relay_events
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []RelayEvent{}
	for rows.Next() {
		var e RelayEvent
		if err := rows.Scan(&e.ID, &e.HashedIP, &e.Outcome, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *EventStore) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{RelayOutcomes: map[string]int64{}}
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, "SELECT COUNT(*) FROM visitors", nil},
		{&stats.UniqueVisitors, "SELECT COUNT(DISTINCT hashed_ip) FROM visitors", nil},
		{&stats.VisitorsToday, "SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", []any{startOfDay}},
		{&stats.VisitorsThisWeek, "SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", []any{now.AddDate(0, 0, -7)}},
	}
	for _, q := range counts {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM relay_events GROUP BY outcome")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.RelayOutcomes[outcome] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.RecentEvents, err = s.RecentEvents(ctx, 20)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// visitorTracking records visits to content routes, respecting Do Not Track.
func visitorTracking(store *EventStore, pending *sync.WaitGroup, log *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, ua, path := c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.Path
		pending.Add(1)
		go func() {
			defer pending.Done()
			if err := store.RecordVisit(context.Background(), ip, ua, path); err != nil {
				log.Error("recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}

const adminCookie = "admin_token"

// AdminHandler serves the JSON admin API. Its session token is random per
// process, so a restart logs everyone out.
type AdminHandler struct {
	store    *EventStore
	username string
	password string
	token    string
	log      *Logger
}

func NewAdminHandler(cfg *Config, store *EventStore, log *Logger) *AdminHandler {
	return &AdminHandler{
		store:    store,
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		token:    randomToken(),
		log:      log,
	}
}

func (h *AdminHandler) Register(r *gin.Engine) {
	r.POST("/admin/login", h.Login)
	r.POST("/admin/logout", h.Logout)

	admin := r.Group("/admin/api")
	admin.Use(h.requireSession)
	admin.GET("/stats", h.GetStats)
	admin.GET("/events", h.GetEvents)
}

func (h *AdminHandler) requireSession(c *gin.Context) {
	token, err := c.Cookie(adminCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	if h.username == "" || h.password == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login is not configured"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) == 1
	if !userOK || !passOK {
		h.log.Warn("failed admin login attempt from %s", h.store.hashIP(c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	secure := c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(adminCookie, h.token, 3600*24, "/admin", "", secure, true)
	h.log.Info("admin login from %s", h.store.hashIP(c.ClientIP()))
	c.JSON(http.StatusOK, gin.H{"message": "Logged in"})
}

func (h *AdminHandler) Logout(c *gin.Context) {
	c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("loading admin stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	events, err := h.store.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("loading relay events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

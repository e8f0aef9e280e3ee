package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Relay outcomes, as recorded in the event store.
const (
	outcomeSent           = "sent"
	outcomeInvalidPayload = "invalid_payload"
	outcomeMissingFields  = "missing_fields"
	outcomeDispatchFailed = "dispatch_failed"
	outcomeUnauthorized   = "unauthorized"
	outcomeRateLimited    = "rate_limited"
)

// relayError is a terminal failure of one relay request. None are retried.
type relayError struct {
	Outcome string
	Status  int
	Message string
}

func (e *relayError) Error() string { return e.Message }

var (
	errInvalidPayload = &relayError{outcomeInvalidPayload, http.StatusBadRequest, "Invalid or missing JSON"}
	errMissingFields  = &relayError{outcomeMissingFields, http.StatusBadRequest, "Missing fields"}
	errUnauthorized   = &relayError{outcomeUnauthorized, http.StatusUnauthorized, "Unauthorized"}
	errRateLimited    = &relayError{outcomeRateLimited, http.StatusTooManyRequests, "Rate limit exceeded"}
)

func errDispatchFailed(reason string) *relayError {
	if reason == "" {
		reason = "Unknown error"
	}
	return &relayError{outcomeDispatchFailed, http.StatusInternalServerError, reason}
}

// RelayHandler turns contact-form submissions into email to the operator
// mailbox. It keeps no per-request state between invocations.
type RelayHandler struct {
	sender  Sender
	mailbox string
	timeout time.Duration
	apiKey  string
	limits  *rateLimitStore // nil disables rate limiting
	events  eventRecorder   // nil disables event recording
	pending *sync.WaitGroup // in-flight event writes
	log     *Logger
}

func NewRelayHandler(cfg *Config, sender Sender, limits *rateLimitStore, events eventRecorder, pending *sync.WaitGroup, log *Logger) *RelayHandler {
	return &RelayHandler{
		sender:  sender,
		mailbox: cfg.MailUser,
		timeout: cfg.MailTimeout,
		apiKey:  cfg.RelayAPIKey,
		limits:  limits,
		events:  events,
		pending: pending,
		log:     log,
	}
}

// relayMethods are routed through the full relay chain. A bodyless GET ends
// up as InvalidPayload, with CORS headers like every other outcome.
var relayMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodConnect, http.MethodTrace,
}

// Register mounts the relay at path: OPTIONS answers the preflight, every
// other method goes through parse, validate and dispatch.
func (h *RelayHandler) Register(r gin.IRoutes, path string) {
	r.OPTIONS(path, relayPreflight)
	for _, method := range relayMethods {
		r.Handle(method, path, h.RateLimit, h.Authorize, h.Submit)
	}
}

// RateLimit rejects clients that exceed the configured per-IP rate.
func (h *RelayHandler) RateLimit(c *gin.Context) {
	if h.limits == nil {
		c.Next()
		return
	}
	if !h.limits.Allow(c.ClientIP()) {
		h.fail(c, errRateLimited)
		return
	}
	c.Next()
}

// Authorize checks the bearer key when one is configured.
func (h *RelayHandler) Authorize(c *gin.Context) {
	if h.apiKey == "" {
		c.Next()
		return
	}
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.apiKey)) != 1 {
		h.fail(c, errUnauthorized)
		return
	}
	c.Next()
}

// Submit parses, validates and dispatches one ContactMessage.
func (h *RelayHandler) Submit(c *gin.Context) {
	msg, rerr := parseContactMessage(c)
	if rerr != nil {
		h.fail(c, rerr)
		return
	}

	email := composeEmail(msg, h.mailbox)

	// The caller going away does not cancel a dispatch already under way;
	// only the mail timeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.timeout)
	defer cancel()

	start := time.Now()
	result := h.sender.Send(ctx, email)
	if !result.Delivered {
		h.log.Error("request %s: email send failed after %s: %s", c.GetString(requestIDKey), time.Since(start), result.Reason)
		h.fail(c, errDispatchFailed(result.Reason))
		return
	}

	h.log.Info("request %s: relayed message %s in %s", c.GetString(requestIDKey), result.MessageID, time.Since(start))
	h.record(c, outcomeSent)
	setRelayCORS(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// maxRelayBody caps the size of a submission body.
const maxRelayBody = 64 << 10

// parseContactMessage decodes the whole body as a single JSON value and
// checks that every field is present. Email shape is left to the client.
func parseContactMessage(c *gin.Context) (ContactMessage, *relayError) {
	var msg ContactMessage
	if c.Request.Body == nil {
		return msg, errInvalidPayload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRelayBody)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return msg, errInvalidPayload
	}
	// Unlike a streaming decoder, Unmarshal rejects trailing data.
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, errInvalidPayload
	}
	if err := binding.Validator.ValidateStruct(&msg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return msg, errMissingFields
		}
		return msg, errInvalidPayload
	}
	return msg, nil
}

func (h *RelayHandler) fail(c *gin.Context, rerr *relayError) {
	if rerr.Status < http.StatusInternalServerError {
		h.log.Warn("request %s: relay rejected: %s", c.GetString(requestIDKey), rerr.Outcome)
	}
	h.record(c, rerr.Outcome)
	setRelayCORS(c)
	c.AbortWithStatusJSON(rerr.Status, gin.H{"error": rerr.Message})
}

func (h *RelayHandler) record(c *gin.Context, outcome string) {
	if h.events == nil {
		return
	}
	ip := c.ClientIP()
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		if err := h.events.RecordRelay(context.Background(), ip, outcome); err != nil {
			h.log.Error("recording relay event: %v", err)
		}
	}()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const relayPath = "/functions/v1/send-email"

const validBody = `{"name":"Ana","email":"ana@example.com","subject":"Hello","message":"Hi there"}`

type fakeSender struct {
	mu     sync.Mutex
	sent   []Email
	ctxErr []error
	err    error
	block  bool
}

func (f *fakeSender) Send(ctx context.Context, e Email) Dispatch {
	f.mu.Lock()
	f.sent = append(f.sent, e)
	f.ctxErr = append(f.ctxErr, ctx.Err())
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return failed(ctx.Err())
	}
	if f.err != nil {
		return failed(f.err)
	}
	return delivered(e)
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func testConfig() *Config {
	return &Config{
		Port:           "0",
		MailUser:       "owner@example.com",
		MailPassword:   "app-password",
		SMTPHost:       "smtp.example.com",
		SMTPPort:       "587",
		MailDriver:     mailDriverSMTP,
		MailTimeout:    2 * time.Second,
		RelayPath:      relayPath,
		RelayRateBurst: 5,
	}
}

func newTestApp(t *testing.T, cfg *Config, sender Sender) *App {
	t.Helper()
	app, err := newApp(cfg, newDiscardLogger(), sender)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func doRequest(app *App, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	return w
}

func assertRelayCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestRelay_Preflight(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	for _, body := range []string{"", "not-json", validBody} {
		w := doRequest(app, http.MethodOptions, relayPath, body, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	}
	assert.Zero(t, sender.count())
}

func TestRelay_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not-json"},
		{"empty body", ""},
		{"truncated object", `{"name":"Ana"`},
		{"array", `["Ana"]`},
		{"wrong field type", `{"name":1,"email":"ana@example.com","subject":"Hello","message":"Hi"}`},
		{"trailing garbage", validBody + "not-json"},
		{"two objects", validBody + validBody},
		{"oversized body", `{"name":"Ana","email":"ana@example.com","subject":"Hello","message":"` +
			strings.Repeat("a", maxRelayBody) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			app := newTestApp(t, testConfig(), sender)

			w := doRequest(app, http.MethodPost, relayPath, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Invalid or missing JSON"}`, w.Body.String())
			assertRelayCORS(t, w)
			assert.Zero(t, sender.count())
		})
	}
}

func TestRelay_OtherMethodsGoThroughRelay(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			sender := &fakeSender{}
			app := newTestApp(t, testConfig(), sender)

			w := doRequest(app, method, relayPath, "", nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Invalid or missing JSON"}`, w.Body.String())
			assertRelayCORS(t, w)
			assert.Zero(t, sender.count())
		})
	}
}

func TestRelay_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"name":"A","email":"a@b.com","subject":"Hi"}`},
		{"missing name", `{"email":"a@b.com","subject":"Hi","message":"x"}`},
		{"missing email", `{"name":"A","subject":"Hi","message":"x"}`},
		{"missing subject", `{"name":"A","email":"a@b.com","message":"x"}`},
		{"empty name", `{"name":"","email":"a@b.com","subject":"Hi","message":"x"}`},
		{"empty object", `{}`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			app := newTestApp(t, testConfig(), sender)

			w := doRequest(app, http.MethodPost, relayPath, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"error":"Missing fields"}`, w.Body.String())
			assertRelayCORS(t, w)
			assert.Zero(t, sender.count())
		})
	}
}

func TestRelay_EmailShapeNotChecked(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	body := `{"name":"Ana","email":"not-an-email","subject":"Hello","message":"Hi there"}`
	w := doRequest(app, http.MethodPost, relayPath, body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sender.count())
}

func TestRelay_Success(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	w := doRequest(app, http.MethodPost, relayPath, validBody, map[string]string{
		"Authorization": "Bearer anon-key",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assertRelayCORS(t, w)

	require.Equal(t, 1, sender.count())
	e := sender.sent[0]
	assert.Equal(t, "Ana", e.FromName)
	assert.Equal(t, "owner@example.com", e.From)
	assert.Equal(t, "owner@example.com", e.To)
	assert.Equal(t, "ana@example.com", e.ReplyTo)
	assert.Equal(t, "Hello", e.Subject)
	assert.Equal(t, "From: Ana <ana@example.com>\n\nHi there", e.Text)
}

func TestRelay_AlsoMountedAtAPIContact(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	w := doRequest(app, http.MethodPost, "/api/contact", validBody, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, sender.count())
}

func TestRelay_DispatchFailed(t *testing.T) {
	sender := &fakeSender{err: errors.New("535 5.7.8 Username and Password not accepted")}
	app := newTestApp(t, testConfig(), sender)

	w := doRequest(app, http.MethodPost, relayPath, validBody, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"535 5.7.8 Username and Password not accepted"}`, w.Body.String())
	assertRelayCORS(t, w)
	assert.Equal(t, 1, sender.count())
}

func TestRelay_DispatchFailedWithoutMessage(t *testing.T) {
	sender := &fakeSender{err: errors.New("")}
	app := newTestApp(t, testConfig(), sender)

	w := doRequest(app, http.MethodPost, relayPath, validBody, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Unknown error"}`, w.Body.String())
}

func TestRelay_DispatchTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.MailTimeout = 50 * time.Millisecond
	sender := &fakeSender{block: true}
	app := newTestApp(t, cfg, sender)

	start := time.Now()
	w := doRequest(app, http.MethodPost, relayPath, validBody, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), context.DeadlineExceeded.Error())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRelay_ClientCancelDoesNotReachDispatch(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, relayPath, strings.NewReader(validBody)).WithContext(ctx)
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sender.ctxErr, 1)
	assert.NoError(t, sender.ctxErr[0])
}

func TestRelay_NoDeduplication(t *testing.T) {
	sender := &fakeSender{}
	app := newTestApp(t, testConfig(), sender)

	for i := 0; i < 2; i++ {
		w := doRequest(app, http.MethodPost, relayPath, validBody, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.Equal(t, 2, sender.count())
	assert.NotEqual(t, sender.sent[0].MessageID, sender.sent[1].MessageID)
}

func TestRelay_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.RelayAPIKey = "anon-key"

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong key", "Bearer other", http.StatusUnauthorized},
		{"wrong scheme", "Basic anon-key", http.StatusUnauthorized},
		{"matching key", "Bearer anon-key", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			app := newTestApp(t, cfg, sender)

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := doRequest(app, http.MethodPost, relayPath, validBody, headers)

			assert.Equal(t, tt.want, w.Code)
			assertRelayCORS(t, w)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
				assert.Zero(t, sender.count())
			}
		})
	}
}

func TestRelay_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RelayRateLimit = 1
	cfg.RelayRateBurst = 2
	sender := &fakeSender{}
	app := newTestApp(t, cfg, sender)

	codes := []int{}
	for i := 0; i < 3; i++ {
		w := doRequest(app, http.MethodPost, relayPath, validBody, nil)
		codes = append(codes, w.Code)
		assertRelayCORS(t, w)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, sender.count())

	// Preflights are never limited.
	w := doRequest(app, http.MethodOptions, relayPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelay_RecordsOutcomes(t *testing.T) {
	cfg := testConfig()
	cfg.DatabasePath = t.TempDir() + "/events.db"
	sender := &fakeSender{}
	app := newTestApp(t, cfg, sender)

	doRequest(app, http.MethodPost, relayPath, validBody, nil)
	doRequest(app, http.MethodPost, relayPath, "not-json", nil)
	doRequest(app, http.MethodPost, relayPath, `{}`, nil)

	assert.Eventually(t, func() bool {
		stats, err := app.store.Stats(context.Background())
		return err == nil &&
			stats.RelayOutcomes[outcomeSent] == 1 &&
			stats.RelayOutcomes[outcomeInvalidPayload] == 1 &&
			stats.RelayOutcomes[outcomeMissingFields] == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_RequestID(t *testing.T) {
	app := newTestApp(t, testConfig(), &fakeSender{})

	w := doRequest(app, http.MethodPost, relayPath, validBody, map[string]string{"X-Request-ID": "req-123"})
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = doRequest(app, http.MethodPost, relayPath, validBody, nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

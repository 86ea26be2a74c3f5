package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nirajmohabey/habit-tracker/config"
	"github.com/nirajmohabey/habit-tracker/handlers"
	"github.com/nirajmohabey/habit-tracker/mailer"
	"github.com/nirajmohabey/habit-tracker/middleware"
	"github.com/nirajmohabey/habit-tracker/models"
	"github.com/nirajmohabey/habit-tracker/routes"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testClock pins the calendar to 2026-08-25 12:00 UTC.
func testClock() time.Time {
	return time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		SessionTTL:         24 * time.Hour,
		OneTimeCodeTTL:     10 * time.Minute,
		ResetTokenTTL:      time.Hour,
		RateLimitPerMinute: 1000,
		AppURL:             "http://localhost:3000",
	}
}

// recordingMailer captures outgoing mail so tests can read codes and
// reset links back out.
type recordingMailer struct {
	mu     sync.Mutex
	codes  map[string]string // email -> last verification code
	resets map[string]string // email -> last reset URL
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{codes: map[string]string{}, resets: map[string]string{}}
}

func (m *recordingMailer) SendVerificationCode(to, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *recordingMailer) SendPasswordReset(to, username, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = resetURL
	return nil
}

func (m *recordingMailer) SendDailyReminder(to, username string, pending []string) error {
	return nil
}

func (m *recordingMailer) SendWeeklySummary(to, username string, rows []mailer.SummaryRow) error {
	return nil
}

func (m *recordingMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func (m *recordingMailer) lastResetURL(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets[email]
}

type testApp struct {
	Router *gin.Engine
	DB     *gorm.DB
	Mailer *recordingMailer
	Cfg    *config.Config
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{},
		&models.Habit{},
		&models.HabitLog{},
		&models.Session{},
		&models.OneTimeCode{},
		&models.PasswordResetToken{},
	))

	cfg := testConfig()
	rec := newRecordingMailer()
	logger := zap.NewNop()

	h := handlers.New(database, logger, nil, rec, cfg, testClock)
	r := gin.New()
	routes.Register(r, h, nil, cfg, logger)

	return &testApp{Router: r, DB: database, Mailer: rec, Cfg: cfg}
}

// do sends a JSON request through the router, attaching the session
// cookie when given.
func (a *testApp) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// doBearer sends a body-less request authenticated by Authorization
// header instead of the cookie.
func (a *testApp) doBearer(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

// sessionCookie pulls the login cookie out of a response.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// signup registers alice and returns her session cookie.
func (a *testApp) signup(t *testing.T) *http.Cookie {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/signup", gin.H{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         "secret123",
		"confirm_password": "secret123",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

// createHabit adds a habit through the API and returns its id.
func (a *testApp) createHabit(t *testing.T, cookie *http.Cookie, name string) uuid.UUID {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/habits", gin.H{"name": name}, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Habit models.Habit `json:"habit"`
	}
	decodeJSON(t, w, &resp)
	return resp.Habit.ID
}

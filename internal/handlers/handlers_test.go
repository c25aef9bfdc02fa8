package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"financeflow/internal/auth"
	"financeflow/internal/ledger"
	"financeflow/internal/models"
	"financeflow/internal/session"
	"financeflow/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTemplateDir = "../../web/templates"

type testApp struct {
	router   http.Handler
	db       *storage.DB
	sessions *session.Service
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions, err := session.NewService(db, "test-secret", false)
	require.NoError(t, err)

	log := zap.NewNop()
	h := NewHandlers(db, sessions, testTemplateDir, log)
	return &testApp{
		router:   NewRouter(h, "../../web/static", log),
		db:       db,
		sessions: sessions,
	}
}

func (app *testApp) createUser(t *testing.T, username, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user, err := app.db.CreateUser(context.Background(), username, hash)
	require.NoError(t, err)
	return user
}

// login performs the form login and returns the session cookie.
func (app *testApp) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	w := app.postForm(t, "/login", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, http.StatusFound, w.Code, "login should redirect")
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func (app *testApp) postForm(t *testing.T, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func (app *testApp) get(t *testing.T, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func addRecordForm(date, description, amount, category, kind string) url.Values {
	return url.Values{
		"date":        {date},
		"description": {description},
		"amount":      {amount},
		"category":    {category},
		"kind":        {kind},
	}
}

func TestAnonymousRedirectedToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/export.csv"} {
		w := app.get(t, path, nil)
		assert.Equal(t, http.StatusFound, w.Code, "GET %s", path)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	}
}

func TestSignupThenLogin(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/signup", url.Values{
		"username": {"alice"}, "password": {"p1"}, "confirm": {"p1"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Account created! Please sign in.")

	cookie := app.login(t, "alice", "p1")

	w = app.get(t, "/", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestSignupPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	w := app.postForm(t, "/signup", url.Values{
		"username": {"alice"}, "password": {"p1"}, "confirm": {"p2"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match.")

	_, err := app.db.GetUserByUsername(context.Background(), "alice")
	assert.ErrorIs(t, err, models.ErrNotFound, "no user is created on mismatch")
}

func TestSignupDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")

	w := app.postForm(t, "/signup", url.Values{
		"username": {"alice"}, "password": {"other"}, "confirm": {"other"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already taken.")
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")

	w := app.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials.")

	w = app.postForm(t, "/login", url.Values{"username": {"nobody"}, "password": {"p1"}}, nil)
	assert.Contains(t, w.Body.String(), "Invalid credentials.")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")
	cookie := app.login(t, "alice", "p1")

	w := app.postForm(t, "/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must clear the session cookie")

	// Logging out again while anonymous is a no-op, not an error.
	w = app.postForm(t, "/logout", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAddRecordAndDashboard(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")
	cookie := app.login(t, "alice", "p1")

	w := app.postForm(t, "/transactions",
		addRecordForm("2024-01-05", "Paycheck", "2000.00", "Salary", "Income"), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.postForm(t, "/transactions",
		addRecordForm("2024-01-06", "Groceries", "150.50", "Food", "Expense"), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.get(t, "/", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "$2000.00")
	assert.Contains(t, body, "$150.50")
	assert.Contains(t, body, "$1849.50")
	assert.Contains(t, body, "Groceries")
	assert.Contains(t, body, "Paycheck")
}

func TestAddRecordValidation(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "alice", "p1")
	cookie := app.login(t, "alice", "p1")

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"zero amount", addRecordForm("2024-01-05", "Lunch", "0", "Food", "Expense"), "Amount must be a positive number."},
		{"negative amount", addRecordForm("2024-01-05", "Lunch", "-5", "Food", "Expense"), "Amount must be a positive number."},
		{"empty description", addRecordForm("2024-01-05", "", "10.00", "Food", "Expense"), "Description must not be empty."},
		{"missing date", addRecordForm("", "Lunch", "10.00", "Food", "Expense"), "Date is required."},
		{"bad category", addRecordForm("2024-01-05", "Lunch", "10.00", "Gambling", "Expense"), "Unknown category."},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			w := app.postForm(t, "/transactions", tt.form, cookie)
			assert.Equal(t, http.StatusOK, w.Code, "validation failures re-render the dashboard")
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}

	txs, err := app.db.ListTransactions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs, "no record stored by any failed attempt")
}

func TestLedgerIsolationBetweenUsers(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")
	app.createUser(t, "bob", "p2")

	aliceCookie := app.login(t, "alice", "p1")
	bobCookie := app.login(t, "bob", "p2")

	w := app.postForm(t, "/transactions",
		addRecordForm("2024-01-05", "Alice secret purchase", "42.00", "Other", "Expense"), aliceCookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.get(t, "/", bobCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Alice secret purchase")

	w = app.get(t, "/export.csv", bobCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Alice secret purchase")
}

func TestExportCSVRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")
	cookie := app.login(t, "alice", "p1")

	w := app.postForm(t, "/transactions",
		addRecordForm("2024-01-05", "Paycheck", "2000.00", "Salary", "Income"), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = app.postForm(t, "/transactions",
		addRecordForm("2024-01-06", "Groceries", "150.50", "Food", "Expense"), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.get(t, "/export.csv", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "finance_history.csv")

	parsed, err := ledger.ReadCSV(w.Body)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "Paycheck", parsed[0].Description)
	assert.Equal(t, models.Cents(200000), parsed[0].Amount)
	assert.Equal(t, "Groceries", parsed[1].Description)
	assert.Equal(t, models.Cents(15050), parsed[1].Amount)
}

func TestLoginPageSkipsToDashboardWhenAuthenticated(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")
	cookie := app.login(t, "alice", "p1")

	w := app.get(t, "/login", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestStaleTokenFailsSoftToLogin(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "alice", "p1")

	// A cookie minted under a different secret models a stale or
	// corrupted client token.
	foreign, err := session.NewService(app.db, "other-secret", false)
	require.NoError(t, err)
	token, err := foreign.Login(context.Background(), "alice", "p1")
	require.NoError(t, err)

	w := app.get(t, "/", &http.Cookie{Name: session.CookieName, Value: token})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

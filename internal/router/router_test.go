package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-tracker/internal/config"
	"github.com/iliyamo/movie-tracker/internal/database"
	"github.com/iliyamo/movie-tracker/internal/events"
	"github.com/iliyamo/movie-tracker/internal/handler"
	"github.com/iliyamo/movie-tracker/internal/middleware"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/session"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testApp struct {
	e   *echo.Echo
	db  *sql.DB
	pub *recorder
}

type appOptions struct {
	production bool
	limit      config.RateLimitConfig
}

func newApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db, config.DriverSQLite))

	users := repository.NewUserRepo(db)
	hasher := utils.NewPasswordHasher(bcrypt.MinCost)
	sessions := session.NewManager(session.NewDBStore(repository.NewSessionRepo(db)), session.DefaultTTL, false, nil)
	guard := middleware.NewGuard(sessions, users)
	pub := &recorder{}

	e, err := New(nil, nil)
	require.NoError(t, err)
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(users, hasher, sessions, pub, nil), guard, middleware.NewTokenBucket(opts.limit, nil, nil))
	RegisterMovies(e, handler.NewMovieHandler(repository.NewMovieRepo(db), pub, nil), guard)
	RegisterUsers(e, handler.NewUserHandler(users, hasher, pub, nil), guard)
	RegisterSeed(e, handler.NewSeedHandler(users, hasher, opts.production))
	return &testApp{e: e, db: db, pub: pub}
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	t      *testing.T
	app    *testApp
	cookie *http.Cookie
}

func (a *testApp) client(t *testing.T) *client { return &client{t: t, app: a} }

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var rdr *bytes.Reader
	if s, ok := body.(string); ok {
		rdr = bytes.NewReader([]byte(s))
	} else if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = "192.0.2.1:5555"
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.app.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name != session.CookieName {
			continue
		}
		if ck.MaxAge < 0 {
			c.cookie = nil
		} else {
			c.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
		}
	}

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (c *client) register(email, password, name string) {
	c.t.Helper()
	rec, _ := c.do(http.MethodPost, "/api/auth/register", map[string]any{"email": email, "password": password, "name": name})
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (c *client) login(email, password string) {
	c.t.Helper()
	rec, _ := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(c.t, c.cookie)
}

func (c *client) createMovie(fields map[string]any) map[string]any {
	c.t.Helper()
	rec, body := c.do(http.MethodPost, "/api/movies", fields)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["movie"].(map[string]any)
}

func idPath(prefix string, obj map[string]any) string {
	return prefix + "/" + jsonNum(obj["id"])
}

func jsonNum(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestEndToEndFlow(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)

	rec, body := c.do(http.MethodPost, "/api/auth/register", map[string]any{"email": "a@x.com", "password": "abcd", "name": "A"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "A", user["name"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Nil(t, c.cookie, "register does not log in")

	rec, body = c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@x.com", "password": "abcd"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie)
	assert.Equal(t, "a@x.com", body["user"].(map[string]any)["email"])

	movie := c.createMovie(map[string]any{"title": "Inception"})
	assert.Equal(t, true, movie["watched"])
	assert.EqualValues(t, 0, movie["rating"])
	assert.Nil(t, movie["synopsis"])

	rec, body = c.do(http.MethodGet, "/api/movies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := body["movies"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Inception", list[0].(map[string]any)["title"])

	rec, _ = c.do(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.cookie)

	rec, body = c.do(http.MethodGet, "/api/movies", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not authenticated", body["error"])

	assert.Equal(t, []string{events.UserRegistered, events.MovieCreated}, app.pub.types())
}

func TestReplayedCookieAfterLogoutIsRejected(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	stolen := c.cookie

	c.do(http.MethodPost, "/api/auth/logout", nil)
	c.cookie = stolen
	rec, _ := c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgedUserIDCookieIsAnonymous(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.cookie = &http.Cookie{Name: session.CookieName, Value: "1"}

	rec, _ := c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")

	cases := []struct {
		name string
		body any
		msg  string
	}{
		{"missing name", map[string]any{"email": "b@x.com", "password": "abcd"}, "email, password and name are required"},
		{"missing email", map[string]any{"password": "abcd", "name": "B"}, "email, password and name are required"},
		{"short password", map[string]any{"email": "b@x.com", "password": "abc", "name": "B"}, "password must be at least 4 characters"},
		{"password over bcrypt limit", map[string]any{"email": "b@x.com", "password": strings.Repeat("a", 80), "name": "B"}, "password must be at most 72 bytes"},
		{"duplicate", map[string]any{"email": "a@x.com", "password": "abcd", "name": "A2"}, "email is already registered"},
		{"duplicate other case", map[string]any{"email": " A@X.com ", "password": "abcd", "name": "A3"}, "email is already registered"},
		{"malformed json", "{", "invalid request body"},
	}
	for _, tc := range cases {
		rec, body := c.do(http.MethodPost, "/api/auth/register", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
		assert.Equal(t, tc.msg, body["error"], tc.name)
	}
}

func TestLoginDoesNotLeakExistence(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")

	unknown, ub := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "nobody@x.com", "password": "abcd"})
	wrong, wb := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, ub, wb)
	assert.Nil(t, c.cookie)

	rec, _ := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMovieOwnershipIsolation(t *testing.T) {
	app := newApp(t, appOptions{})
	alice, bob := app.client(t), app.client(t)
	alice.register("a@x.com", "abcd", "A")
	bob.register("b@x.com", "abcd", "B")
	alice.login("a@x.com", "abcd")
	bob.login("b@x.com", "abcd")

	movie := alice.createMovie(map[string]any{"title": "Alien"})
	path := idPath("/api/movies", movie)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rec, body := bob.do(method, path, map[string]any{"title": "Mine now"})
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Equal(t, "movie not found", body["error"], method)
	}

	_, body := bob.do(http.MethodGet, "/api/movies", nil)
	assert.Empty(t, body["movies"])

	rec, body := alice.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alien", body["movie"].(map[string]any)["title"])
}

func TestMovieCreateValidation(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"rating": 3}},
		{"blank title", map[string]any{"title": "   "}},
		{"rating too high", map[string]any{"title": "X", "rating": 6}},
		{"negative rating", map[string]any{"title": "X", "rating": -1}},
		{"negative duration", map[string]any{"title": "X", "duration": -5}},
		{"duration beyond column range", map[string]any{"title": "X", "duration": 99999999999}},
		{"rating wrong type", map[string]any{"title": "X", "rating": "five"}},
	}
	for _, tc := range cases {
		rec, _ := c.do(http.MethodPost, "/api/movies", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}

	movie := c.createMovie(map[string]any{
		"title": "  Heat ", "synopsis": "", "coverImage": "https://img/heat.jpg",
		"rating": 5, "duration": 170, "watched": false,
	})
	assert.Equal(t, "Heat", movie["title"])
	assert.Nil(t, movie["synopsis"])
	assert.Equal(t, "https://img/heat.jpg", movie["coverImage"])
	assert.EqualValues(t, 170, movie["duration"])
	assert.Equal(t, false, movie["watched"])
}

func TestMovieListFilter(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	c.createMovie(map[string]any{"title": "Seen"})
	c.createMovie(map[string]any{"title": "Unseen", "watched": false})

	_, body := c.do(http.MethodGet, "/api/movies?watched=false", nil)
	list := body["movies"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Unseen", list[0].(map[string]any)["title"])

	_, body = c.do(http.MethodGet, "/api/movies", nil)
	list = body["movies"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "Unseen", list[0].(map[string]any)["title"], "newest first")

	rec, _ := c.do(http.MethodGet, "/api/movies?watched=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoviePartialUpdate(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	movie := c.createMovie(map[string]any{"title": "Heat", "synopsis": "LA", "comments": "great", "duration": 170})
	path := idPath("/api/movies", movie)

	rec, body := c.do(http.MethodPut, path, map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	got := body["movie"].(map[string]any)
	assert.EqualValues(t, 4, got["rating"])
	assert.Equal(t, "LA", got["synopsis"])
	assert.Equal(t, "Heat", got["title"])

	rec, body = c.do(http.MethodPatch, path, `{"synopsis": null, "duration": null, "comments": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got = body["movie"].(map[string]any)
	assert.Nil(t, got["synopsis"])
	assert.Nil(t, got["duration"])
	assert.Nil(t, got["comments"])
	assert.EqualValues(t, 4, got["rating"])

	for name, raw := range map[string]string{
		"empty title":   `{"title": ""}`,
		"null title":    `{"title": null}`,
		"null rating":   `{"rating": null}`,
		"rating range":  `{"rating": 9}`,
		"null watched":  `{"watched": null}`,
		"negative time": `{"duration": -1}`,
	} {
		rec, _ := c.do(http.MethodPut, path, raw)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}

	rec, _ = c.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = c.do(http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = c.do(http.MethodGet, "/api/movies/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{
		events.UserRegistered, events.MovieCreated, events.MovieUpdated, events.MovieUpdated, events.MovieDeleted,
	}, app.pub.types())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/movies"},
		{http.MethodPost, "/api/movies"},
		{http.MethodGet, "/api/movies/1"},
		{http.MethodPut, "/api/movies/1"},
		{http.MethodDelete, "/api/movies/1"},
		{http.MethodGet, "/api/users"},
		{http.MethodDelete, "/api/users/1"},
		{http.MethodGet, "/api/auth/me"},
	} {
		rec, _ := c.do(r.method, r.path, map[string]any{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.method+" "+r.path)
	}
	rec, _ := c.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "logout without a session")
}

func TestPasswordLengthLimitIsValidation(t *testing.T) {
	app := newApp(t, appOptions{})
	admin := app.client(t)
	admin.do(http.MethodPost, "/api/seed", nil)
	admin.login(handler.AdminEmail, handler.AdminPassword)
	_, body := admin.do(http.MethodGet, "/api/auth/me", nil)
	adminPath := idPath("/api/users", body["user"].(map[string]any))

	long := strings.Repeat("p", 73)
	rec, body := admin.do(http.MethodPost, "/api/users", map[string]any{"email": "n@x.com", "password": long, "name": "N"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at most 72 bytes", body["error"])

	rec, body = admin.do(http.MethodPut, adminPath, map[string]any{"password": long})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at most 72 bytes", body["error"])

	// Exactly 72 bytes is still accepted.
	rec, _ = admin.do(http.MethodPost, "/api/users", map[string]any{"email": "n@x.com", "password": long[:72], "name": "N"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestMovieUpdateRejectsOversizedDuration(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	movie := c.createMovie(map[string]any{"title": "Heat", "duration": 170})
	path := idPath("/api/movies", movie)

	rec, body := c.do(http.MethodPatch, path, map[string]any{"duration": 99999999999})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duration is too large", body["error"])

	_, body = c.do(http.MethodGet, path, nil)
	assert.EqualValues(t, 170, body["movie"].(map[string]any)["duration"])
}

func TestUsersAPI(t *testing.T) {
	app := newApp(t, appOptions{})
	admin, user := app.client(t), app.client(t)

	rec, body := admin.do(http.MethodPost, "/api/seed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin user created", body["message"])
	_, body = admin.do(http.MethodPost, "/api/seed", nil)
	assert.Equal(t, "admin user already exists", body["message"])
	admin.login(handler.AdminEmail, handler.AdminPassword)

	user.register("u@x.com", "abcd", "U")
	user.login("u@x.com", "abcd")
	_, body = user.do(http.MethodGet, "/api/auth/me", nil)
	me := body["user"].(map[string]any)
	mePath := idPath("/api/users", me)
	_, body = admin.do(http.MethodGet, "/api/auth/me", nil)
	adminPath := idPath("/api/users", body["user"].(map[string]any))

	// Non-admins only see themselves.
	_, body = user.do(http.MethodGet, "/api/users", nil)
	require.Len(t, body["users"], 1)
	rec, _ = user.do(http.MethodGet, adminPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = user.do(http.MethodGet, mePath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = user.do(http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = user.do(http.MethodPost, "/api/users", map[string]any{"email": "n@x.com", "password": "abcd", "name": "N"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = user.do(http.MethodPatch, mePath, map[string]any{"isAdmin": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = user.do(http.MethodDelete, adminPath, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Self-deletion is refused for everyone.
	rec, body = user.do(http.MethodDelete, mePath, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you cannot delete your own account", body["error"])
	rec, _ = admin.do(http.MethodDelete, adminPath, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Admin manages everyone.
	_, body = admin.do(http.MethodGet, "/api/users", nil)
	assert.Len(t, body["users"], 2)
	rec, body = admin.do(http.MethodPost, "/api/users", map[string]any{"email": "n@x.com", "password": "abcd", "name": "N", "isAdmin": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := body["user"].(map[string]any)
	assert.Equal(t, true, created["isAdmin"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = admin.do(http.MethodPut, mePath, map[string]any{"email": "n@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate email")
	rec, _ = admin.do(http.MethodPut, mePath, map[string]any{"password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "short password")
	rec, body = admin.do(http.MethodPut, mePath, map[string]any{"name": "Renamed", "password": "wxyz"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", body["user"].(map[string]any)["name"])
	assert.Equal(t, "u@x.com", body["user"].(map[string]any)["email"])

	relogin := app.client(t)
	rec, _ = relogin.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "u@x.com", "password": "abcd"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "old password")
	relogin.login("u@x.com", "wxyz")

	// Deleting a user cascades to their movies and sessions.
	user.createMovie(map[string]any{"title": "Orphan"})
	rec, _ = admin.do(http.MethodDelete, mePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = admin.do(http.MethodDelete, mePath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var movies int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&movies))
	assert.Zero(t, movies)
	rec, _ = user.do(http.MethodGet, "/api/movies", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSeedDisabledInProduction(t *testing.T) {
	app := newApp(t, appOptions{production: true})
	rec, body := app.client(t).do(http.MethodPost, "/api/seed", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "seeding is disabled in production", body["error"])
}

func TestLoginIsRateLimited(t *testing.T) {
	app := newApp(t, appOptions{limit: config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Minute,
		TTL: 10 * time.Minute, KeyStrategy: "ip_route", Prefix: "rl",
	}})
	c := app.client(t)
	for i := 0; i < 2; i++ {
		rec, _ := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@x.com", "password": "abcd"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, body := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "a@x.com", "password": "abcd"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestPagesAndHealth(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)

	rec, _ := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = c.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get(echo.HeaderLocation))

	rec, _ = c.do(http.MethodGet, "/login?redirect=%2Fmovies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Log in")
	assert.Regexp(t, `redirect = "\\?/movies"`, rec.Body.String())

	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	rec, _ = c.do(http.MethodGet, "/movies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Movies</h1>")
	rec, _ = c.do(http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
}

func TestStoreFailureIsGeneric500(t *testing.T) {
	app := newApp(t, appOptions{})
	c := app.client(t)
	c.register("a@x.com", "abcd", "A")
	c.login("a@x.com", "abcd")
	require.NoError(t, app.db.Close())

	rec, body := c.do(http.MethodGet, "/api/movies", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "sql")
}

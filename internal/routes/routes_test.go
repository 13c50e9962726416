package routes

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/haguru/choji/internal/interfaces"
	"github.com/haguru/choji/internal/password"
	"github.com/haguru/choji/internal/recipeservice"
	"github.com/haguru/choji/internal/repository/memory"
	"github.com/haguru/choji/internal/session"
	"github.com/haguru/choji/internal/userservice"
	"github.com/haguru/choji/pkg/metrics"
	"github.com/haguru/choji/pkg/zerolog"
)

const cookieName = "choji_session"

var validInstructions = strings.Repeat("a", 50)

type testAPI struct {
	handler http.Handler
	metrics interfaces.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := zerolog.NewZerologLoggerWithWriter("test", io.Discard)
	validator := structValidator.New()
	appMetrics := metrics.NewMetrics("test")
	RegisterMetrics(appMetrics)

	vault, err := password.NewVault(bcrypt.MinCost, 4)
	require.NoError(t, err)
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	sessions, err := session.NewManager(session.NewMemoryStore(), key, logger)
	require.NoError(t, err)

	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	recipes := memory.NewRecipeRepository(store)

	route := NewRoute(
		appMetrics,
		userservice.NewUserService(users, vault, logger),
		recipeservice.NewRecipeService(recipes, users, validator, logger),
		sessions,
		validator,
		logger,
		CookieSettings{Name: cookieName},
	)

	mux := http.NewServeMux()
	mux.HandleFunc(SignupRouteAPI, route.Respond(SignupHandler, route.Signup))
	mux.HandleFunc(LoginRouteAPI, route.Respond(LoginHandler, route.Login))
	mux.HandleFunc(LogoutRouteAPI, route.Respond(LogoutHandler, route.Logout))
	mux.HandleFunc(CheckSessionRouteAPI, route.Respond(CheckSessionHandler, route.CheckSession))
	mux.HandleFunc(ListRecipesRouteAPI, route.Respond(ListRecipesHandler, route.ListRecipes))
	mux.HandleFunc(CreateRecipeRouteAPI, route.Respond(CreateRecipeHandler, route.CreateRecipe))

	return &testAPI{handler: mux, metrics: appMetrics}
}

func (a *testAPI) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(ContentType, ContentTypeJson)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// signup registers a user and returns its session cookie.
func (a *testAPI) signup(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/signup",
		`{"username":"`+username+`","password":"`+password+`","image_url":"https://img/`+username+`","bio":"hi"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return sessionCookie(t, rr)
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestSignup(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodPost, "/signup",
		`{"username":"ana","password":"secret","image_url":"https://img/ana","bio":"cook"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ContentTypeJson, rr.Header().Get(ContentType))

	body := decodeMap(t, rr)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "ana", body["username"])
	assert.Equal(t, "https://img/ana", body["image_url"])
	assert.Equal(t, "cook", body["bio"])
	assert.Equal(t, []any{}, body["recipes"])
	assert.NotContains(t, rr.Body.String(), "secret")
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	cookie := sessionCookie(t, rr)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)

	// the new session is authenticated as the new user
	rr = api.do(t, http.MethodGet, "/check_session", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ana", decodeMap(t, rr)["username"])
}

func TestSignup_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantError   string
	}{
		{name: "missing password", body: `{"username":"bob"}`, wantError: ErrUnprocessableEntity},
		{name: "missing username", body: `{"password":"x"}`, wantError: ErrUnprocessableEntity},
		{name: "empty fields", body: `{"username":"","password":""}`, wantError: ErrUnprocessableEntity},
		{name: "malformed json", body: `{"username":"bob""password":"x"}`, wantError: ErrUnprocessableEntity},
		{name: "trailing data", body: `{"username":"bob","password":"x"} {}`, wantError: ErrUnprocessableEntity},
		{name: "wrong content type", contentType: "text/plain", body: `{"username":"bob","password":"x"}`, wantError: ErrUnprocessableEntity},
		{name: "duplicate username", body: `{"username":"ana","password":"other"}`, wantError: ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.signup(t, "ana", "secret")

			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(tt.body))
			contentType := ContentTypeJson
			if tt.contentType != "" {
				contentType = tt.contentType
			}
			req.Header.Set(ContentType, contentType)
			rr := httptest.NewRecorder()
			api.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Equal(t, tt.wantError, decodeMap(t, rr)["error"])
			assert.Empty(t, rr.Result().Cookies())
		})
	}
}

func TestSignup_ConcurrentSameUsername(t *testing.T) {
	api := newTestAPI(t)

	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rr := api.do(t, http.MethodPost, "/signup", `{"username":"race","password":"pw"}`, nil)
			codes <- rr.Code
		}()
	}
	wg.Wait()
	close(codes)

	created, rejected := 0, 0
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusUnprocessableEntity:
			rejected++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, rejected)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid credentials", body: `{"username":"ana","password":"secret"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"username":"ana","password":"Secret"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"ghost","password":"secret"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"username":"ana"}`, wantStatus: http.StatusUnauthorized},
		{name: "malformed json", body: `{"username":`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.signup(t, "ana", "secret")

			rr := api.do(t, http.MethodPost, "/login", tt.body, nil)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			body := decodeMap(t, rr)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, body, "error")
				assert.Empty(t, rr.Result().Cookies())
				return
			}
			assert.Equal(t, "ana", body["username"])
			assert.Equal(t, []any{}, body["recipes"])
			assert.NotContains(t, rr.Body.String(), "secret")
			sessionCookie(t, rr)
		})
	}
}

func TestLogin_LongPasswordWithExtraSuffix(t *testing.T) {
	api := newTestAPI(t)
	longest := strings.Repeat("x", password.MaxPasswordBytes)
	api.signup(t, "ana", longest)

	rr := api.do(t, http.MethodPost, "/login", `{"username":"ana","password":"`+longest+`"}`, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(t, http.MethodPost, "/login", `{"username":"ana","password":"`+longest+`-totally-different-suffix"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, rr.Result().Cookies())
}

func TestLogin_RotatesSession(t *testing.T) {
	api := newTestAPI(t)
	first := api.signup(t, "ana", "secret")

	rr := api.do(t, http.MethodPost, "/login", `{"username":"ana","password":"secret"}`, first)
	require.Equal(t, http.StatusOK, rr.Code)
	second := sessionCookie(t, rr)
	assert.NotEqual(t, first.Value, second.Value)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/check_session", "", first).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/check_session", "", second).Code)
}

func TestCheckSession(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/check_session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, ErrUnauthorized, decodeMap(t, rr)["error"])

	forged := &http.Cookie{Name: cookieName, Value: "not-a-token"}
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/check_session", "", forged).Code)

	cookie := api.signup(t, "ana", "secret")
	rr = api.do(t, http.MethodPost, "/recipes",
		`{"title":"Soup","instructions":"`+validInstructions+`","minutes_to_complete":20}`, cookie)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = api.do(t, http.MethodGet, "/check_session", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeMap(t, rr)
	recipes, ok := body["recipes"].([]any)
	require.True(t, ok)
	require.Len(t, recipes, 1)
	nested := recipes[0].(map[string]any)
	assert.Equal(t, "Soup", nested["title"])
	assert.NotContains(t, nested, "user")
}

func TestLogout(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodDelete, "/logout", "", nil).Code)

	cookie := api.signup(t, "ana", "secret")
	rr := api.do(t, http.MethodDelete, "/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	cleared := sessionCookie(t, rr)
	assert.Equal(t, -1, cleared.MaxAge)

	// the old cookie no longer authenticates anyone
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodDelete, "/logout", "", cookie).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/check_session", "", cookie).Code)
}

func TestRecipes_RequireSession(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// authentication is checked before the body is looked at
	rr = api.do(t, http.MethodPost, "/recipes", `{"title":""}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = api.do(t, http.MethodPost, "/recipes", `not json`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateRecipe(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "exactly 50 characters", body: `{"title":"Soup","instructions":"` + validInstructions + `","minutes_to_complete":20}`, wantStatus: http.StatusCreated},
		{name: "zero minutes", body: `{"title":"Soup","instructions":"` + validInstructions + `","minutes_to_complete":0}`, wantStatus: http.StatusCreated},
		{name: "multibyte 50 characters", body: `{"title":"Soup","instructions":"` + strings.Repeat("é", 50) + `","minutes_to_complete":5}`, wantStatus: http.StatusCreated},
		{name: "49 characters", body: `{"title":"Soup","instructions":"` + validInstructions[:49] + `","minutes_to_complete":20}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "missing title", body: `{"instructions":"` + validInstructions + `","minutes_to_complete":20}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "missing minutes", body: `{"title":"Soup","instructions":"` + validInstructions + `"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "negative minutes", body: `{"title":"Soup","instructions":"` + validInstructions + `","minutes_to_complete":-1}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "minutes beyond storage range", body: `{"title":"Soup","instructions":"` + validInstructions + `","minutes_to_complete":3000000000}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "blank title", body: `{"title":"   ","instructions":"` + validInstructions + `","minutes_to_complete":5}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "blank instructions", body: `{"title":"Soup","instructions":"` + strings.Repeat(" ", 60) + `","minutes_to_complete":5}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "minutes as string", body: `{"title":"Soup","instructions":"` + validInstructions + `","minutes_to_complete":"20"}`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			cookie := api.signup(t, "ana", "secret")

			rr := api.do(t, http.MethodPost, "/recipes", tt.body, cookie)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			body := decodeMap(t, rr)
			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, ErrUnprocessableEntity, body["error"])
				return
			}
			assert.Equal(t, float64(1), body["id"])
			assert.Equal(t, "Soup", body["title"])
			user, ok := body["user"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "ana", user["username"])
			assert.NotContains(t, user, "recipes")
			assert.NotContains(t, user, "password")

			// the session still belongs to the same user
			rr = api.do(t, http.MethodGet, "/check_session", "", cookie)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "ana", decodeMap(t, rr)["username"])
		})
	}
}

func TestListRecipes(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signup(t, "ana", "secret")
	bob := api.signup(t, "bob", "secret")

	rr := api.do(t, http.MethodGet, "/recipes", "", ana)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	for _, c := range []struct {
		cookie *http.Cookie
		title  string
	}{{ana, "first"}, {bob, "second"}, {ana, "third"}} {
		rr = api.do(t, http.MethodPost, "/recipes",
			`{"title":"`+c.title+`","instructions":"`+validInstructions+`","minutes_to_complete":1}`, c.cookie)
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr = api.do(t, http.MethodGet, "/recipes", "", bob)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 3)
	wantOwners := []string{"ana", "bob", "ana"}
	for i, title := range []string{"first", "second", "third"} {
		assert.Equal(t, title, list[i]["title"])
		owner := list[i]["user"].(map[string]any)
		assert.Equal(t, wantOwners[i], owner["username"])
		assert.NotContains(t, owner, "recipes")
	}
	assert.NotContains(t, rr.Body.String(), "$2a$")
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodGet, "/signup", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodPost, "/logout", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, api.do(t, http.MethodDelete, "/recipes", "", nil).Code)
}

func TestRespond_RecordsMetrics(t *testing.T) {
	api := newTestAPI(t)
	api.signup(t, "ana", "secret")
	api.do(t, http.MethodPost, "/login", `{"username":"ana","password":"nope"}`, nil)

	expected := `
# HELP test_http_requests_total Total number of API requests by handler and status code
# TYPE test_http_requests_total counter
test_http_requests_total{code="201",handler="signup"} 1
test_http_requests_total{code="401",handler="login"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(api.metrics.GetRegistry(),
		strings.NewReader(expected), "test_http_requests_total"))
	count, err := testutil.GatherAndCount(api.metrics.GetRegistry(), "test_login_failed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClassify(t *testing.T) {
	status, message := classify(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrInternalServerError, message)
}

func TestRespond_EncodeFailure(t *testing.T) {
	api := newTestAPI(t)
	route := &Route{Metrics: api.metrics, Logger: zerolog.NewZerologLoggerWithWriter("test", io.Discard)}

	rr := httptest.NewRecorder()
	route.Respond("broken", func(http.ResponseWriter, *http.Request) (any, int) {
		return map[string]any{"bad": make(chan int)}, http.StatusOK
	})(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

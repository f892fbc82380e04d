package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func identityRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(opts))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	return r
}

func doGet(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity_Precedence(t *testing.T) {
	secret := "s3cret"
	r := identityRouter(AuthOptions{JWTSecret: secret, AllowHeader: true, Fallback: DefaultUserID})

	tok, err := SignToken([]byte(secret), "alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	w := doGet(r, map[string]string{"Authorization": "Bearer " + tok, "X-User-ID": "bob"})
	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Fatalf("bearer should win: %d %q", w.Code, w.Body.String())
	}

	w = doGet(r, map[string]string{"X-User-ID": " bob "})
	if w.Body.String() != "bob" {
		t.Fatalf("header identity: %q", w.Body.String())
	}

	w = doGet(r, nil)
	if w.Body.String() != DefaultUserID {
		t.Fatalf("fallback identity: %q", w.Body.String())
	}
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	r := identityRouter(AuthOptions{JWTSecret: "right", AllowHeader: true, Fallback: DefaultUserID})

	wrong, _ := SignToken([]byte("wrong"), "alice", time.Minute)
	expired, _ := SignToken([]byte("right"), "alice", -time.Minute)
	for name, tok := range map[string]string{"wrong secret": wrong, "expired": expired, "garbage": "abc.def.ghi"} {
		w := doGet(r, map[string]string{"Authorization": "Bearer " + tok})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, w.Code)
		}
		if w.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("%s: missing WWW-Authenticate", name)
		}
	}
}

func TestIdentity_NoSecretIgnoresBearer(t *testing.T) {
	r := identityRouter(AuthOptions{AllowHeader: true, Fallback: "anon"})
	w := doGet(r, map[string]string{"Authorization": "Bearer whatever"})
	if w.Code != http.StatusOK || w.Body.String() != "anon" {
		t.Fatalf("expected fallback when JWT disabled: %d %q", w.Code, w.Body.String())
	}
}

func TestIdentity_StrictMode(t *testing.T) {
	r := identityRouter(AuthOptions{})
	if w := doGet(r, map[string]string{"X-User-ID": "bob"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("header identities disabled, expected 401, got %d", w.Code)
	}

	r = identityRouter(AuthOptions{AllowHeader: true})
	long := make([]byte, maxUserIDLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if w := doGet(r, map[string]string{"X-User-ID": string(long)}); w.Code != http.StatusUnauthorized {
		t.Fatalf("overlong id should be rejected, got %d", w.Code)
	}
}

func TestIdentity_SecretWithoutHeaderOrFallback(t *testing.T) {
	secret := "s3cret"
	r := identityRouter(AuthOptions{JWTSecret: secret})

	if w := doGet(r, map[string]string{"X-User-ID": "victim"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned header identity accepted: %d %q", w.Code, w.Body.String())
	}
	if w := doGet(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous caller accepted: %d %q", w.Code, w.Body.String())
	}

	tok, err := SignToken([]byte(secret), "alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	w := doGet(r, map[string]string{"Authorization": "Bearer " + tok, "X-User-ID": "victim"})
	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Fatalf("bearer identity: %d %q", w.Code, w.Body.String())
	}
}

func TestIdentity_PublicPathsSkipStrictMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity(AuthOptions{PublicPaths: []string{"/health", ""}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	for path, want := range map[string]int{"/health": http.StatusOK, "/me": http.StatusUnauthorized} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Fatalf("%s: got %d want %d", path, w.Code, want)
		}
	}
}

func TestUserID_DefaultsWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := UserID(c); got != DefaultUserID {
		t.Fatalf("got %q", got)
	}
	c.Set(userIDKey, 42)
	if got := UserID(c); got != DefaultUserID {
		t.Fatalf("wrong type should fall back, got %q", got)
	}
	c.Set(userIDKey, "u1")
	if got := UserID(c); got != "u1" {
		t.Fatalf("got %q", got)
	}
}

func TestBearer(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc": true,
		"bearer abc": true,
		"Bearer ":    false,
		"Basic abc":  false,
		"":           false,
	}
	for in, want := range cases {
		if _, ok := bearer(in); ok != want {
			t.Errorf("bearer(%q)=%v want %v", in, ok, want)
		}
	}
}

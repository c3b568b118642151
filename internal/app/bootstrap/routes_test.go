package bootstrap

import (
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/robohub/internal/app/features/errors"
	"github.com/dalemusser/robohub/internal/app/store/memstore"
	"github.com/dalemusser/robohub/internal/app/system/ratelimit"
	"github.com/dalemusser/robohub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	return newTestRouterWith(t, validAppConfig())
}

func newTestRouterWith(t *testing.T, appCfg AppConfig) chi.Router {
	t.Helper()
	counter := ratelimit.NewMemoryCounter(time.Minute)
	t.Cleanup(counter.Close)

	r, err := newRouter(&config.CoreConfig{Env: "dev"}, appCfg, memstore.New().Set(), counter, DBDeps{}, testLogger())
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	return r
}

func TestRouter_SignupLoginMe(t *testing.T) {
	r := newTestRouter(t)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"name":            "Sam Admin",
		"email":           "sam@ridge.test",
		"password":        "Robots4Ever!",
		"confirmPassword": "Robots4Ever!",
		"role":            "school-admin",
		"agreeToTerms":    true,
	}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "sam@ridge.test", "password": "Robots4Ever!"}))
	rec.AssertStatus(t, http.StatusOK)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	me := testutil.NewRequest(http.MethodGet, "/api/me")
	for _, c := range cookies {
		me.AddCookie(c)
	}
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, me)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"isAuthenticated":true`)
	rec.AssertContains(t, `"role":"school-admin"`)

	audit := testutil.NewRequest(http.MethodGet, "/api/admin/audit-log")
	for _, c := range cookies {
		audit.AddCookie(c)
	}
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, audit)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestRouter_PublicAndFallbacks(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"competitions list", http.MethodGet, "/api/competitions", http.StatusOK, ""},
		{"schools list", http.MethodGet, "/api/schools", http.StatusOK, ""},
		{"me anonymous", http.MethodGet, "/api/me", http.StatusOK, ""},
		{"teams need session", http.MethodGet, "/api/teams", http.StatusUnauthorized, ""},
		{"admin users need session", http.MethodGet, "/api/admin/users", http.StatusUnauthorized, ""},
		{"coaches need session", http.MethodGet, "/api/coaches", http.StatusUnauthorized, ""},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound, errorsfeature.CodeRouteNotFound},
		{"wrong method", http.MethodDelete, "/api/competitions", http.StatusMethodNotAllowed, errorsfeature.CodeMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.status)
			if tt.code != "" {
				if code := rec.ErrorCode(t); code != tt.code {
					t.Errorf("code = %q, want %q", code, tt.code)
				}
			}
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/metrics"))
	rec.AssertStatus(t, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestRouter_ClientErrors(t *testing.T) {
	r := newTestRouter(t)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/client-errors", map[string]any{
		"message": "ResizeObserver loop limit exceeded",
		"url":     "https://robohub.test/competitions",
	}))
	rec.AssertStatus(t, http.StatusNoContent)
}

func TestRouter_ForwardedForNeedsTrustProxy(t *testing.T) {
	report := func(r chi.Router, i int) int {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/client-errors", map[string]any{"message": "boom"})
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	untrusted := newTestRouter(t)
	for i := 0; i < clientErrorRateLimit; i++ {
		if code := report(untrusted, i); code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, code)
		}
	}
	if code := report(untrusted, clientErrorRateLimit); code != http.StatusTooManyRequests {
		t.Errorf("rotating X-Forwarded-For without trust_proxy: status %d, want 429", code)
	}

	cfg := validAppConfig()
	cfg.TrustProxy = true
	trusted := newTestRouterWith(t, cfg)
	for i := 0; i <= clientErrorRateLimit; i++ {
		if code := report(trusted, i); code != http.StatusNoContent {
			t.Fatalf("trusted request %d: status %d", i, code)
		}
	}
}

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/robohub/internal/app/system/auth"
	"github.com/dalemusser/robohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSessionKey = "robohub-test-session-key-0123456789abcdef"

// NewSessionManager returns a cookie session manager for handler tests.
func NewSessionManager(t testing.TB) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testSessionKey, "", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return sm
}

// AdminUser returns a session user with the admin role.
func AdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test Admin",
		Email:    "admin@test.com",
		Role:     models.RoleAdmin,
		Verified: true,
	}
}

// SchoolAdminUser returns a school-admin session user bound to schoolID.
func SchoolAdminUser(schoolID primitive.ObjectID) *auth.SessionUser {
	return &auth.SessionUser{
		ID:       primitive.NewObjectID().Hex(),
		Name:     "Test School Admin",
		Email:    "schooladmin@test.com",
		Role:     models.RoleSchoolAdmin,
		SchoolID: schoolID.Hex(),
		Verified: true,
	}
}

// SessionFor converts a stored user into the session view handlers see.
func SessionFor(u models.User) *auth.SessionUser {
	return auth.SessionUserFrom(u)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if v != nil {
		if err := json.NewEncoder(&body).Encode(v); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &body)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewAuthenticatedRequest creates a JSON request with user in context.
// This bypasses the session middleware and injects the user directly.
func NewAuthenticatedRequest(t *testing.T, method, target string, v any, user *auth.SessionUser) *http.Request {
	t.Helper()
	return auth.WithTestUser(NewJSONRequest(t, method, target, v), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q: %s", expected, r.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}

// ErrorCode returns error.code from an error envelope, or "".
func (r *ResponseRecorder) ErrorCode(t testing.TB) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	r.DecodeJSON(t, &body)
	return body.Error.Code
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"learnloop/config"
	"learnloop/internal/model"
	"learnloop/internal/service"
	"learnloop/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── helpers ──

func testJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-key",
		AccessTokenTTL: time.Hour,
	})
}

type fakeChecker struct {
	revoked map[string]bool
	err     error
}

func (f *fakeChecker) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

// echoIdentity answers with whatever JWTAuth put in the context.
func echoIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"userId": c.GetString(CtxUserID),
		"role":   c.GetString(CtxRole),
		"jti":    c.GetString(CtxTokenJTI),
	})
}

func doRequest(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return body
}

// ═══════════════════════════════════════════════════════════
// JWTAuth
// ═══════════════════════════════════════════════════════════

func TestJWTAuth(t *testing.T) {
	mgr := testJWT()
	token, _ := mgr.GenerateAccessToken("507f1f77bcf86cd799439011", model.RoleTeacher)
	badRole, _ := mgr.GenerateAccessToken("507f1f77bcf86cd799439011", "admin")

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil, false, zap.NewNop()), echoIdentity)

	tests := []struct {
		name    string
		auth    string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "No authorization provided"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization"},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, "Invalid authorization"},
		{"unknown role", "Bearer " + badRole, http.StatusUnauthorized, "Invalid authorization"},
		{"legacy disabled", `{"_id":"507f1f77bcf86cd799439011","role":"teacher"}`, http.StatusUnauthorized, "Invalid authorization"},
		{"valid", "Bearer " + token, http.StatusOK, ""},
		{"lower-case scheme", "bearer " + token, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/me", tt.auth)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			body := parseBody(t, w)
			if tt.message != "" && body["error"] != tt.message {
				t.Errorf("expected %q, got %v", tt.message, body["error"])
			}
			if tt.status == http.StatusOK {
				if body["userId"] != "507f1f77bcf86cd799439011" || body["role"] != model.RoleTeacher {
					t.Errorf("identity not set: %v", body)
				}
				if body["jti"] == "" {
					t.Error("jti not set")
				}
			}
		})
	}
}

func TestJWTAuth_Blacklisted(t *testing.T) {
	mgr := testJWT()
	token, _ := mgr.GenerateAccessToken("507f1f77bcf86cd799439011", model.RoleStudent)
	claims, _ := mgr.ParseToken(token)

	checker := &fakeChecker{revoked: map[string]bool{claims.ID: true}}
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, checker, false, zap.NewNop()), echoIdentity)

	if w := doRequest(r, http.MethodGet, "/me", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_BlacklistErrorFailsOpen(t *testing.T) {
	mgr := testJWT()
	token, _ := mgr.GenerateAccessToken("507f1f77bcf86cd799439011", model.RoleStudent)

	checker := &fakeChecker{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/me", JWTAuth(mgr, checker, false, zap.NewNop()), echoIdentity)

	if w := doRequest(r, http.MethodGet, "/me", "Bearer "+token); w.Code != http.StatusOK {
		t.Errorf("expected 200 when the blacklist is unavailable, got %d", w.Code)
	}
}

func TestJWTAuth_LegacyIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(testJWT(), nil, true, zap.NewNop()), echoIdentity)

	tests := []struct {
		name   string
		auth   string
		status int
		userID string
	}{
		{"_id", `{"_id":"abc","role":"student"}`, http.StatusOK, "abc"},
		{"userId fallback", `{"userId":"def","role":"teacher"}`, http.StatusOK, "def"},
		{"missing id", `{"role":"teacher"}`, http.StatusUnauthorized, ""},
		{"bad role", `{"_id":"abc","role":"admin"}`, http.StatusUnauthorized, ""},
		{"broken json", `{"_id":`, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/me", tt.auth)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.userID != "" && parseBody(t, w)["userId"] != tt.userID {
				t.Errorf("expected userId %s", tt.userID)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// RoleAuth
// ═══════════════════════════════════════════════════════════

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role != "" {
			c.Set(CtxUserID, "u1")
			c.Set(CtxRole, role)
		}
		c.Next()
	}
}

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		status  int
		message string
	}{
		{"teacher ok", model.RoleTeacher, []string{model.RoleTeacher}, http.StatusOK, ""},
		{"student on teacher route", model.RoleStudent, []string{model.RoleTeacher}, http.StatusForbidden, "Teacher access required"},
		{"teacher on student route", model.RoleTeacher, []string{model.RoleStudent}, http.StatusForbidden, "Student access required"},
		{"unauthenticated", "", []string{model.RoleTeacher}, http.StatusUnauthorized, "No authorization provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withRole(tt.role), RoleAuth(tt.allowed...), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})
			w := doRequest(r, http.MethodGet, "/x", "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if tt.message != "" && parseBody(t, w)["error"] != tt.message {
				t.Errorf("expected %q, got %s", tt.message, w.Body.String())
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// Course gates
// ═══════════════════════════════════════════════════════════

type fakeAccess struct {
	course *model.Course
	err    error
	got    service.Identity
	gotID  string
}

func (f *fakeAccess) RequireRole(service.Identity, ...string) error { return nil }

func (f *fakeAccess) CourseForOwner(_ context.Context, caller service.Identity, id string) (*model.Course, error) {
	f.got, f.gotID = caller, id
	return f.course, f.err
}

func (f *fakeAccess) CourseForMember(_ context.Context, caller service.Identity, id string) (*model.Course, error) {
	f.got, f.gotID = caller, id
	return f.course, f.err
}

func TestCourseOwner_Allows(t *testing.T) {
	access := &fakeAccess{course: &model.Course{CourseName: "Algorithms"}}
	r := gin.New()
	r.GET("/courses/:courseId", withRole(model.RoleTeacher), CourseOwner(access), func(c *gin.Context) {
		course := c.MustGet(CtxCourse).(*model.Course)
		c.JSON(http.StatusOK, gin.H{"name": course.CourseName})
	})

	w := doRequest(r, http.MethodGet, "/courses/abc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if access.gotID != "abc" || access.got.Role != model.RoleTeacher || access.got.UserID != "u1" {
		t.Errorf("gate called with %+v %q", access.got, access.gotID)
	}
	if parseBody(t, w)["name"] != "Algorithms" {
		t.Error("course not placed in context")
	}
}

func TestCourseGate_MapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"forbidden", service.ErrForbiddenOwnership, http.StatusForbidden},
		{"wrong role", service.ErrForbiddenRole, http.StatusForbidden},
		{"bad id", service.ErrInvalidCourseID, http.StatusBadRequest},
		{"missing", service.ErrCourseNotFound, http.StatusNotFound},
		{"backend", errors.New("mongo down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access := &fakeAccess{err: tt.err}
			r := gin.New()
			called := false
			r.GET("/courses/:courseId", withRole(model.RoleStudent), CourseMember(access), func(c *gin.Context) {
				called = true
			})
			w := doRequest(r, http.MethodGet, "/courses/abc", "")
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if called {
				t.Error("handler must not run")
			}
			if tt.status == http.StatusInternalServerError && strings.Contains(w.Body.String(), "mongo") {
				t.Error("internal error leaked to client")
			}
		})
	}
}

func TestCourseGate_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.GET("/courses/:courseId", CourseOwner(&fakeAccess{}), func(c *gin.Context) {})

	if w := doRequest(r, http.MethodGet, "/courses/abc", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit / BodyLimit / RequestID
// ═══════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	tests := []struct {
		name    string
		limiter Limiter
		status  int
	}{
		{"nil limiter", nil, http.StatusNoContent},
		{"allowed", &fakeLimiter{allowed: true}, http.StatusNoContent},
		{"blocked", &fakeLimiter{allowed: false}, http.StatusTooManyRequests},
		{"limiter error", &fakeLimiter{err: errors.New("down")}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", RateLimit(tt.limiter, 5, time.Minute, zap.NewNop()), ok)
			if w := doRequest(r, http.MethodPost, "/login", ""); w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestRateLimit_KeyIncludesRoute(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	r := gin.New()
	r.POST("/api/auth/login", RateLimit(limiter, 5, time.Minute, zap.NewNop()), func(c *gin.Context) {})

	doRequest(r, http.MethodPost, "/api/auth/login", "")
	if len(limiter.keys) != 1 || !strings.HasSuffix(limiter.keys[0], ":/api/auth/login") {
		t.Errorf("unexpected keys %v", limiter.keys)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		var v map[string]interface{}
		if err := c.ShouldBindJSON(&v); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"0123456789"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("client id should be reused, got %q", w.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", requestIDMaxLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("oversized id should be replaced by a uuid, got %q", got)
	}
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		rid  string
		want bool
	}{
		{"abc-123", true},
		{"4bf92f3577b34da6a3ce929d0e0e4736", true},
		{"edge_1.trace-9", true},
		{"", false},
		{"has space", false},
		{"line\nbreak", false},
		{`{"user":"x"}`, false},
		{"é", false},
		{strings.Repeat("a", requestIDMaxLen), true},
		{strings.Repeat("a", requestIDMaxLen+1), false},
	}
	for _, tt := range tests {
		if got := validRequestID(tt.rid); got != tt.want {
			t.Errorf("validRequestID(%q) = %v, want %v", tt.rid, got, tt.want)
		}
	}
}

func TestRequestID_ReplacesUnsafeID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "<script>")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got == "<script>" || len(got) != 36 {
		t.Errorf("unsafe id should be replaced by a uuid, got %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	want := map[string]string{
		"Cache-Control":           "no-store",
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

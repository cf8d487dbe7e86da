package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c), "role": Role(c)})
	})
	r.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newAuthRouter()

	valid, err := SignToken(testSecret, "u1", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := SignToken(testSecret, "u1", "", -time.Hour)
	wrongKey, _ := SignToken("other-secret", "u1", "", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := doRequest(r, "/me", tt.header); w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := doRequest(r, "/me", "Bearer "+valid)
	if body := w.Body.String(); body != `{"role":"user","user_id":"u1"}` {
		t.Errorf("body = %s", body)
	}
}

func TestAuthenticateSubjectFallback(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "sub-user", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(newAuthRouter(), "/me", "Bearer "+token)
	if w.Code != http.StatusOK || w.Body.String() != `{"role":"user","user_id":"sub-user"}` {
		t.Errorf("got %d %s", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()
	user, _ := SignToken(testSecret, "u1", RoleUser, time.Hour)
	admin, _ := SignToken(testSecret, "a1", RoleAdmin, time.Hour)

	if w := doRequest(r, "/admin", "Bearer "+user); w.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", w.Code)
	}
	if w := doRequest(r, "/admin", "Bearer "+admin); w.Code != http.StatusNoContent {
		t.Errorf("admin status = %d, want 204", w.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	doRequest(r, "/ok", "")
	doRequest(r, "/boom", "")

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	if entries[0].Level != logrus.InfoLevel || entries[0].Data["path"] != "/ok" {
		t.Errorf("first entry = %v %v", entries[0].Level, entries[0].Data)
	}
	if entries[1].Level != logrus.ErrorLevel || entries[1].Data["status"] != http.StatusInternalServerError {
		t.Errorf("second entry = %v %v", entries[1].Level, entries[1].Data)
	}
}

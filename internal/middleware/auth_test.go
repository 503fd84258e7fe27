package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ArthGameti/Travel-Tales/internal/utils"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ACCESS_TOKEN_SECRET", "travel_tales_test_jwt_secret_key_1234567890")
	os.Exit(m.Run())
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(), func(c *gin.Context) {
		userID := c.GetInt(UserIDContextKey)
		c.JSON(http.StatusOK, gin.H{"error": false, "userId": userID})
	})
	return router
}

func doProtected(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()
	newProtectedRouter().ServeHTTP(recorder, req)
	return recorder
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	recorder := doProtected(t, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	for _, header := range []string{"Bearer", "Token abc", "abc"} {
		recorder := doProtected(t, header)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, recorder.Code)
		}
	}
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	recorder := doProtected(t, "Bearer not-a-real-token")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	token, err := utils.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	recorder := doProtected(t, "Bearer "+token)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if body := recorder.Body.String(); !strings.Contains(body, `"userId":42`) {
		t.Fatalf("expected the user id in the response, got %s", body)
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleService = "service"
)

const (
	userIDKey = "user_id"
	roleKey   = "user_role"
)

// Claims carries the identity issued by the auth service. Tokens that omit
// user_id fall back to the registered subject.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for userID. The service only verifies
// tokens; this is used by tests and local tooling.
func SignToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Authenticate verifies the bearer token and stores the user ID and role in
// the gin context.
func Authenticate(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logrus.WithField("path", c.FullPath()).Warn("Authenticate: Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "code": "unauthorized"})
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			logrus.WithField("path", c.FullPath()).Warn("Authenticate: Invalid authorization format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format", "code": "unauthorized"})
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err == nil && !token.Valid {
			err = errors.New("token is not valid")
		}
		if err == nil && claims.UserID == "" {
			claims.UserID = claims.Subject
		}
		if err == nil && claims.UserID == "" {
			err = errors.New("token carries no user id")
		}
		if err != nil {
			logrus.WithError(err).Warn("Authenticate: Invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "unauthorized"})
			return
		}

		role := claims.Role
		if role == "" {
			role = RoleUser
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated role is
// one of roles. It must run after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		logrus.WithFields(logrus.Fields{
			"user_id": UserID(c),
			"role":    role,
			"path":    c.FullPath(),
		}).Warn("RequireRole: Access denied")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied", "code": "forbidden"})
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}

func IsAdmin(c *gin.Context) bool {
	return Role(c) == RoleAdmin
}

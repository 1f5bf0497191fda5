package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const subjectKey = "subject"

// Claims are the bearer token claims accepted by the HTTP surface
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens
type Authenticator struct {
	secret []byte
	logger *zap.Logger
}

// NewAuthenticator creates an authenticator. An empty secret disables auth.
func NewAuthenticator(secret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		logger: logger,
	}
}

// Enabled reports whether a secret is configured
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Middleware rejects requests without a valid bearer token and stores the
// token subject for the rate limiter.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := a.Parse(tokenString)
		if err != nil {
			a.logger.Warn("JWT parse failed", zap.Error(err), zap.String("request_id", GetRequestID(c)))
			Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// Parse validates tokenString and returns its claims
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// GetSubject returns the authenticated subject, if any
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}

package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const claimsKey = "auth_claims"

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	Secret   []byte
	Issuer   string
	Audience string

	// AdminRole guards AdminRoutes, given as "METHOD /full/route/path".
	AdminRole   string
	AdminRoutes []string
}

// Claims are the token claims the API reads.
type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether role was granted.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	errMissingToken = errors.New(errors.ErrCodeUnauthorized, "missing bearer token")
	errInvalidToken = errors.New(errors.ErrCodeUnauthorized, "invalid or expired token")
)

// Auth verifies HS256 bearer tokens and stores their claims on the context.
func Auth(cfg AuthConfig, logger logging.Logger) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	admin := make(map[string]bool, len(cfg.AdminRoutes))
	for _, r := range cfg.AdminRoutes {
		admin[r] = true
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, http.StatusUnauthorized, errMissingToken)
			return
		}

		claims := &Claims{}
		_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return cfg.Secret, nil
		})
		if err != nil {
			fields := []logging.Field{logging.String("path", c.Request.URL.Path), logging.String("request_id", GetRequestID(c))}
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				fields = append(fields, logging.String("reason", "expired"))
			} else {
				fields = append(fields, logging.Err(err))
			}
			logger.Warn("authentication failed", fields...)
			abortAuth(c, http.StatusUnauthorized, errInvalidToken)
			return
		}

		if cfg.AdminRole != "" && admin[c.Request.Method+" "+c.FullPath()] && !claims.HasRole(cfg.AdminRole) {
			logger.Warn("admin role required",
				logging.String("subject", claims.Subject),
				logging.String("path", c.FullPath()))
			abortAuth(c, http.StatusForbidden, errors.New(errors.ErrCodeForbidden, "role "+cfg.AdminRole+" required"))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func abortAuth(c *gin.Context, status int, err *errors.AppError) {
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Message, "code": err.Code.String()})
}

//Personal.AI order the ending

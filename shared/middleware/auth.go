package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/useradmin/userapi/shared/models"
)

const callerKey = "caller"

// Claims is the JWT payload: the account login and its administrator role.
type Claims struct {
	Login string `json:"login"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

var errNoLogin = errors.New("token carries no login")

// ParseToken verifies an HS256 token signed with secret and issued by issuer,
// and returns its claims.
func ParseToken(tokenString string, secret []byte, issuer string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Login == "" {
		return nil, errNoLogin
	}
	return claims, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller identity for GetCaller.
func AuthMiddleware(secret []byte, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1], secret, issuer)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(callerKey, models.Caller{Login: claims.Login, Admin: claims.Admin})
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := GetCaller(c)
		if !caller.Authenticated() {
			RespondWithError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}
		if !caller.Admin {
			RespondWithError(c, http.StatusForbidden, "Administrator role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCaller returns the authenticated caller, or the zero Caller when the
// request carried no valid token.
func GetCaller(c *gin.Context) models.Caller {
	v, exists := c.Get(callerKey)
	if !exists {
		return models.Caller{}
	}
	caller, _ := v.(models.Caller)
	return caller
}

// SetCaller stores caller on the context the way AuthMiddleware does.
func SetCaller(c *gin.Context, caller models.Caller) {
	c.Set(callerKey, caller)
}

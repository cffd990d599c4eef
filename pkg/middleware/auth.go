package middleware

import (
	"context"
	"strings"
	"time"

	"earnplay-backend/pkg/config"
	"earnplay-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// identityKey keeps the context key private so only this package can set it.
type identityKey struct{}

// Auth validates bearer tokens and resolves the acting user. Every service
// call takes the resolved user id explicitly; nothing downstream reads a
// global current-user.
type Auth struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewAuth(cfg *config.Config) *Auth {
	return &Auth{
		secret:   []byte(cfg.Auth.Secret),
		tokenTTL: cfg.Auth.TokenTTL,
	}
}

// Sign mints an HS256 token whose subject is the user id.
func (a *Auth) Sign(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Auth) parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}

	return claims.Subject, nil
}

// RequireAuth aborts with 401 unless the request carries a valid bearer token.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(
				errutil.StatusUnauthorized.HTTPStatus(),
				errutil.BaseError{Code: errutil.StatusUnauthorized, Message: "missing or invalid token"}.JSON(),
			)
			return
		}

		userID, err := a.parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(
				errutil.StatusUnauthorized.HTTPStatus(),
				errutil.BaseError{Code: errutil.StatusUnauthorized, Message: "missing or invalid token"}.JSON(),
			)
			return
		}

		ctx := context.WithValue(c.Request.Context(), identityKey{}, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserFrom returns the authenticated user id, empty when unauthenticated.
func UserFrom(ctx context.Context) string {
	userID, _ := ctx.Value(identityKey{}).(string)
	return userID
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

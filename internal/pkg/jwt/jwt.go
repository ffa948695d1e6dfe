package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgErrors "matterlab/pkg/errors"
)

// AppsClaims Mattermost Apps 调用携带的 JWT Claims
type AppsClaims struct {
	ActingUserID string `json:"acting_user_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAppsToken 签发 Apps Token，ttl<=0 时不设置过期
func GenerateAppsToken(secret, actingUserID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AppsClaims{
		ActingUserID: actingUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  actingUserID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAppsToken 解析并校验 Apps Token
func ParseAppsToken(tokenString, secret string) (*AppsClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppsClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, pkgErrors.ErrTokenExpired
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeUnauthorized, "解析Token失败", err)
	}

	if claims, ok := token.Claims.(*AppsClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, pkgErrors.ErrInvalidToken
}

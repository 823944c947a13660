package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"taskboard/internal/auth"
)

const secret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	issuer := auth.NewIssuer(secret, 24*time.Hour)

	userID := "test-user-id"
	token, err := issuer.GenerateToken(userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedUserID, err := issuer.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	issuer := auth.NewIssuer(secret, time.Hour)

	_, err := issuer.ParseToken("invalid-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.NewIssuer("other-secret", time.Hour).GenerateToken("u")
	assert.NoError(t, err)

	_, err = auth.NewIssuer(secret, time.Hour).ParseToken(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	issuer := auth.NewIssuer(secret, time.Hour)
	claims := jwt.MapClaims{
		"user_id": "test-user-id",
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}
	expiredToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))

	_, err := issuer.ParseToken(expiredToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingExpiry(t *testing.T) {
	issuer := auth.NewIssuer(secret, time.Hour)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u"}).SignedString([]byte(secret))

	_, err := issuer.ParseToken(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingClaims(t *testing.T) {
	issuer := auth.NewIssuer(secret, time.Hour)
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	tokenWithoutUserID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))

	_, err := issuer.ParseToken(tokenWithoutUserID)

	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
}

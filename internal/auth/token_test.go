package auth

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestExtractTokenFromRequest(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/api/events", nil)

	_, err := ExtractTokenFromRequest(r)
	assert.Error(t, err, "missing header should fail")

	r.Header.Set("Authorization", "Basic abc123")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err, "non-bearer scheme should fail")

	r.Header.Set("Authorization", "Bearer my-token")
	token, err := ExtractTokenFromRequest(r)
	assert.NoError(t, err)
	assert.Equal(t, "my-token", token)
}

func TestExtractUserIDFromJWT(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-1", "role": "student"})

	sub, err := ExtractUserIDFromJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	_, err = ExtractUserIDFromJWT("")
	assert.Error(t, err)

	_, err = ExtractUserIDFromJWT("not-a-jwt")
	assert.Error(t, err)

	noSub := signedToken(t, jwt.MapClaims{"role": "student"})
	_, err = ExtractUserIDFromJWT(noSub)
	assert.Error(t, err)
}

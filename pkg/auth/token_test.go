package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/shoppingcart/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndParseUserToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "shoppingcart"}
	now := time.Now().UTC()

	token, err := MintUserToken(cfg, now, "42", time.Hour)
	require.NoError(t, err)

	claims, err := ParseUserToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID())
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestParseUserTokenRejectsWrongSecret(t *testing.T) {
	token, err := MintUserToken(config.JWTConfig{Secret: "a"}, time.Now(), "1", time.Hour)
	require.NoError(t, err)

	_, err = ParseUserToken(config.JWTConfig{Secret: "b"}, token)
	assert.Error(t, err)
}

func TestParseUserTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	token, err := MintUserToken(cfg, time.Now().Add(-2*time.Hour), "1", time.Hour)
	require.NoError(t, err)

	_, err = ParseUserToken(cfg, token)
	assert.Error(t, err)
}

func TestParseUserTokenRejectsIssuerMismatch(t *testing.T) {
	token, err := MintUserToken(config.JWTConfig{Secret: "s", Issuer: "other"}, time.Now(), "1", time.Hour)
	require.NoError(t, err)

	_, err = ParseUserToken(config.JWTConfig{Secret: "s", Issuer: "shoppingcart"}, token)
	assert.Error(t, err)
}

func TestMintUserTokenValidatesInput(t *testing.T) {
	now := time.Now()
	_, err := MintUserToken(config.JWTConfig{}, now, "1", time.Hour)
	assert.Error(t, err)
	_, err = MintUserToken(config.JWTConfig{Secret: "s"}, now, " ", time.Hour)
	assert.Error(t, err)
	_, err = MintUserToken(config.JWTConfig{Secret: "s"}, now, "1", 0)
	assert.Error(t, err)
}

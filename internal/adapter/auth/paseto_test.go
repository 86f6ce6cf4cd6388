package auth_test

import (
	"testing"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/adapter/auth"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasetoToken_RoundTrip(t *testing.T) {
	ts, err := auth.New("")
	require.NoError(t, err)

	token, err := ts.CreateToken(port.TokenPayload{Subject: "ops", Role: port.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	payload, err := ts.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", payload.Subject)
	assert.Equal(t, port.RoleAdmin, payload.Role)
}

func TestPasetoToken_SharedKey(t *testing.T) {
	issuer, err := auth.New("")
	require.NoError(t, err)
	verifier, err := auth.New(issuer.KeyHex())
	require.NoError(t, err)

	token, err := issuer.CreateToken(port.TokenPayload{Subject: "ops", Role: port.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.NoError(t, err)
}

func TestPasetoToken_Rejects(t *testing.T) {
	ts, err := auth.New("")
	require.NoError(t, err)
	other, err := auth.New("")
	require.NoError(t, err)

	foreign, err := other.CreateToken(port.TokenPayload{Subject: "x", Role: port.RoleAdmin}, time.Hour)
	require.NoError(t, err)
	expired, err := ts.CreateToken(port.TokenPayload{Subject: "x", Role: port.RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "v4.local.nope"},
		{name: "other key", token: foreign},
		{name: "expired", token: expired},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ts.VerifyToken(test.token)
			assert.Equal(t, domain.ErrInvalidToken, err)
		})
	}

	_, err = auth.New("zz")
	assert.Error(t, err)
}

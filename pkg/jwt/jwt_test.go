package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/granja-api/pkg/jwt"
)

const (
	testSecret = "secreto-de-pruebas"
	testIssuer = "granja-auth-test"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", testIssuer, 5)
	require.NoError(t, err)

	claims, err := pkgjwt.Parse(testSecret, testIssuer, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", testIssuer, 5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secreto", testIssuer, tok)
	assert.Error(t, err)
}

func TestParse_WrongIssuer(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", "otro-emisor", 5)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, "user-1", "admin", testIssuer, -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, testIssuer, tok)
	assert.Error(t, err)
}

func TestGenerate_EmptySecret(t *testing.T) {
	_, err := pkgjwt.Generate("", "user-1", "admin", testIssuer, 5)
	assert.Error(t, err)
}

package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/nirajmohabey/habit-tracker/models"
)

func TestForgotPasswordNeverRevealsAccounts(t *testing.T) {
	app := newTestApp(t)
	app.signup(t)

	known := app.do(t, http.MethodPost, "/api/password/forgot", gin.H{"email": "alice@example.com"}, nil)
	unknown := app.do(t, http.MethodPost, "/api/password/forgot", gin.H{"email": "nobody@example.com"}, nil)

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, known.Body.String(), unknown.Body.String())

	// Only the real account got a token.
	var tokens int64
	require.NoError(t, app.DB.Model(&models.PasswordResetToken{}).Count(&tokens).Error)
	require.EqualValues(t, 1, tokens)
	require.NotEmpty(t, app.Mailer.lastResetURL("alice@example.com"))
	require.Empty(t, app.Mailer.lastResetURL("nobody@example.com"))
}

func TestResetPasswordFlow(t *testing.T) {
	app := newTestApp(t)
	cookie := app.signup(t)

	w := app.do(t, http.MethodPost, "/api/password/forgot", gin.H{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resetURL := app.Mailer.lastResetURL("alice@example.com")
	_, token, found := strings.Cut(resetURL, "token=")
	require.True(t, found)

	w = app.do(t, http.MethodPost, "/api/password/verify", gin.H{"token": token}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodPost, "/api/password/verify", gin.H{"token": "bogus"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/password/reset", gin.H{
		"token":            token,
		"password":         "newsecret",
		"confirm_password": "newsecret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Every open session is invalidated.
	w = app.do(t, http.MethodGet, "/api/check-auth", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Old password out, new password in.
	w = app.do(t, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "secret123"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = app.do(t, http.MethodPost, "/api/login", gin.H{"username": "alice", "password": "newsecret"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The token is single-use.
	w = app.do(t, http.MethodPost, "/api/password/reset", gin.H{
		"token":            token,
		"password":         "another1",
		"confirm_password": "another1",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

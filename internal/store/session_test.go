package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
	"github.com/noah-isme/classpilot-go/internal/tokenstore"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

func newTestSessionStore(t *testing.T, gw AuthGateway, tokens tokenstore.Store) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(context.Background(), gw, tokens, validation.New(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestSessionCheckStatusWithoutToken(t *testing.T) {
	gw := newStubAuthGateway()
	store := newTestSessionStore(t, gw, tokenstore.NewMemoryStore(""))

	session, err := store.CheckStatus(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
	require.EqualError(t, err, "No token found")
	require.Zero(t, gw.count("me"))
	require.Equal(t, StatusFailed, session.Status)
	require.False(t, session.Authenticated)
}

func TestSessionCheckStatusRestoresUser(t *testing.T) {
	gw := newStubAuthGateway()
	tokens := tokenstore.NewMemoryStore("persisted")
	store := newTestSessionStore(t, gw, tokens)
	require.Equal(t, "persisted", store.Token())
	require.Equal(t, StatusIdle, store.Snapshot().Status)

	session, err := store.CheckStatus(context.Background())
	require.NoError(t, err)
	require.True(t, session.Authenticated)
	require.Equal(t, StatusSucceeded, session.Status)
	require.Equal(t, dto.ID("t1"), session.UserID)
	require.Equal(t, "Ada", session.DisplayName)
	require.Equal(t, "persisted", session.Token)
}

func TestSessionCheckStatusFailureClearsToken(t *testing.T) {
	gw := newStubAuthGateway()
	gw.meErr = &gateway.Error{Kind: gateway.KindAuth, Status: 401, Message: "Unauthorized: Invalid or missing token"}
	tokens := tokenstore.NewMemoryStore("expired")
	store := newTestSessionStore(t, gw, tokens)

	session, err := store.CheckStatus(context.Background())
	require.Error(t, err)
	require.True(t, gateway.IsAuth(err))
	require.Equal(t, StatusFailed, session.Status)
	require.Empty(t, session.Token)
	require.False(t, session.Authenticated)

	persisted, err := tokens.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestSessionLoginPersistsToken(t *testing.T) {
	gw := newStubAuthGateway()
	tokens := tokenstore.NewMemoryStore("")
	store := newTestSessionStore(t, gw, tokens)

	session, err := store.Login(context.Background(), dto.LoginRequest{Email: " ada@example.com ", Password: "secret"})
	require.NoError(t, err)
	require.True(t, session.Authenticated)
	require.Equal(t, "tok-login", session.Token)

	persisted, err := tokens.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "tok-login", persisted)
}

func TestSessionLoginValidatesInput(t *testing.T) {
	gw := newStubAuthGateway()
	store := newTestSessionStore(t, gw, tokenstore.NewMemoryStore(""))

	_, err := store.Login(context.Background(), dto.LoginRequest{Email: "not-an-email"})
	require.Error(t, err)

	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	msg, ok := verr.Field("password")
	require.True(t, ok)
	require.Equal(t, "password is required", msg)
	require.Zero(t, gw.count("login"))
	require.Equal(t, StatusIdle, store.Snapshot().Status)
}

func TestSessionLoginTransportFailureShowsConnectHint(t *testing.T) {
	gw := newStubAuthGateway()
	gw.loginErr = &gateway.Error{Kind: gateway.KindTransport, Message: "dial tcp: connection refused"}
	store := newTestSessionStore(t, gw, tokenstore.NewMemoryStore(""))

	session, err := store.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.EqualError(t, err, ConnectMessage)
	require.Equal(t, gateway.KindTransport, gateway.KindOf(err))
	require.Equal(t, StatusFailed, session.Status)
	require.Equal(t, ConnectMessage, session.Err.Error())
}

func TestSessionLoginRejectedKeepsServerMessage(t *testing.T) {
	gw := newStubAuthGateway()
	gw.loginErr = &gateway.Error{Kind: gateway.KindAuth, Status: 401, Message: "Invalid credentials"}
	store := newTestSessionStore(t, gw, tokenstore.NewMemoryStore(""))

	_, err := store.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.EqualError(t, err, "Invalid credentials")
}

func TestSessionRegister(t *testing.T) {
	gw := newStubAuthGateway()
	store := newTestSessionStore(t, gw, tokenstore.NewMemoryStore(""))

	_, err := store.Register(context.Background(), dto.RegisterRequest{Name: "A", Email: "x@example.com", Password: "123"})
	require.Error(t, err)
	require.Zero(t, gw.count("register"))

	session, err := store.Register(context.Background(), dto.RegisterRequest{Name: "Grace", Email: "grace@example.com", Password: "hopper1"})
	require.NoError(t, err)
	require.Equal(t, dto.ID("t2"), session.UserID)
	require.Equal(t, "tok-register", store.Token())
}

func TestSessionLogoutAlwaysClears(t *testing.T) {
	gw := newStubAuthGateway()
	gw.logoutErr = &gateway.Error{Kind: gateway.KindServer, Status: 500, Message: "down"}
	tokens := tokenstore.NewMemoryStore("persisted")
	store := newTestSessionStore(t, gw, tokens)

	_, err := store.CheckStatus(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.Logout(context.Background()))
	require.Equal(t, 1, gw.count("logout"))

	session := store.Snapshot()
	require.Equal(t, StatusIdle, session.Status)
	require.False(t, session.Authenticated)
	require.Empty(t, session.Token)
	require.Empty(t, session.UserID)

	persisted, err := tokens.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, persisted)
}

func TestSessionCheckStatusUnreachableKeepsToken(t *testing.T) {
	tests := []struct {
		name string
		kind gateway.Kind
	}{
		{name: "transport", kind: gateway.KindTransport},
		{name: "timeout", kind: gateway.KindTimeout},
		{name: "canceled", kind: gateway.KindCanceled},
		{name: "server", kind: gateway.KindServer},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := newStubAuthGateway()
			gw.meErr = &gateway.Error{Kind: tc.kind, Message: "unreachable"}
			tokens := tokenstore.NewMemoryStore("still-valid")
			store := newTestSessionStore(t, gw, tokens)

			session, err := store.CheckStatus(context.Background())
			require.Error(t, err)
			require.Equal(t, StatusFailed, session.Status)
			require.False(t, session.Authenticated)
			require.Equal(t, "still-valid", session.Token)

			persisted, err := tokens.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, "still-valid", persisted)

			gw.meErr = nil
			session, err = store.CheckStatus(context.Background())
			require.NoError(t, err)
			require.True(t, session.Authenticated)
			require.Equal(t, 2, gw.count("me"))
		})
	}
}

func TestSessionFailedLoginKeepsStoredToken(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "wrong password", err: &gateway.Error{Kind: gateway.KindAuth, Status: 401, Message: "Invalid email or password"}},
		{name: "unreachable", err: &gateway.Error{Kind: gateway.KindTransport, Message: "dial tcp: connection refused"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := newStubAuthGateway()
			gw.loginErr = tc.err
			tokens := tokenstore.NewMemoryStore("earlier")
			store := newTestSessionStore(t, gw, tokens)

			_, err := store.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "secret"})
			require.Error(t, err)
			_, err = store.Register(context.Background(), dto.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
			require.Error(t, err)

			persisted, err := tokens.Load(context.Background())
			require.NoError(t, err)
			require.Equal(t, "earlier", persisted)
			require.Equal(t, "earlier", store.Token())
			require.False(t, store.Snapshot().Authenticated)
		})
	}
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/backend/memory"
	"panoproperty_backend/internal/model"
)

// fakeAuth serves fixed sessions by token over a real broker.
type fakeAuth struct {
	*auth.Broker
	sessions map[string]*auth.Session
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{Broker: auth.NewBroker(), sessions: map[string]*auth.Session{}}
}

func (f *fakeAuth) GetSession(ctx context.Context, token string) (*auth.Session, error) {
	if s, ok := f.sessions[token]; ok {
		return s, nil
	}
	return nil, auth.ErrNoSession
}

func (f *fakeAuth) signIn(token, sessionID, userID string) *auth.Session {
	s := &auth.Session{ID: sessionID, UserID: userID, Email: userID + "@example.com", FullName: "Sam Rivera", AccessToken: token}
	f.sessions[token] = s
	f.Publish(auth.Event{Type: auth.SignedIn, Session: s})
	return s
}

func (f *fakeAuth) signOut(token string) {
	s := f.sessions[token]
	delete(f.sessions, token)
	f.Publish(auth.Event{Type: auth.SignedOut, Session: s})
}

func newHolder(a *fakeAuth, store *memory.Store, pending *PendingRoles, token string) *Holder {
	return NewHolder(a, store, pending, zap.NewNop(), token)
}

func TestHolderWithoutSession(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	h := newHolder(a, store, NewPendingRoles(time.Minute), "")

	require.NoError(t, h.Start(context.Background()))
	defer h.Close()

	require.False(t, h.SignedIn())
	require.Equal(t, model.Role(""), h.Role())
	require.Nil(t, h.Profile())
	require.Empty(t, h.SavedIDs())
	require.Equal(t, Capabilities{Browse: true}, h.Capabilities())
	require.Equal(t, []string(nil), store.Calls())
}

func TestHolderCreatesBuyerProfileLazily(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	a.signIn("tok", "s1", "u1")
	require.NoError(t, store.InsertSaved(context.Background(), "u1", "p9"))

	h := newHolder(a, store, NewPendingRoles(time.Minute), "tok")
	require.NoError(t, h.Start(context.Background()))
	defer h.Close()

	require.True(t, h.SignedIn())
	require.Equal(t, model.RoleBuyer, h.Role())
	require.Equal(t, "Sam Rivera", h.Profile().FullName)
	require.Equal(t, []string{"p9"}, h.SavedIDs())
	require.True(t, h.Capabilities().BecomeSeller)
	require.False(t, h.Capabilities().ListProperty)

	row, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "buyer", row.Role)

	again := newHolder(a, store, NewPendingRoles(time.Minute), "tok")
	store.ResetCalls()
	require.NoError(t, again.Start(context.Background()))
	again.Close()
	require.NotContains(t, store.Calls(), memory.OpInsertProfile)
}

func TestPendingRoleAppliedOnce(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	pending := NewPendingRoles(time.Minute)

	pending.Stage("oauth-state", model.RoleSeller)
	a.signIn("tok", "s1", "u1")
	require.True(t, pending.Rekey("oauth-state", "s1"))
	require.False(t, pending.Rekey("oauth-state", "s1"))

	h := newHolder(a, store, pending, "tok")
	require.NoError(t, h.Start(context.Background()))
	defer h.Close()

	require.Equal(t, model.RoleSeller, h.Role())
	require.True(t, h.Capabilities().ListProperty)
	_, ok := pending.Take("s1")
	require.False(t, ok)

	row, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "seller", row.Role)
}

func TestPendingRoleKeptWhenUpdateFails(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	pending := NewPendingRoles(time.Minute)
	pending.Stage("s1", model.RoleSeller)
	a.signIn("tok", "s1", "u1")
	store.Fail(memory.OpUpdateRole, errors.New("row level security"))

	h := newHolder(a, store, pending, "tok")
	require.Error(t, h.Start(context.Background()))

	role, ok := pending.Take("s1")
	require.True(t, ok)
	require.Equal(t, model.RoleSeller, role)
}

func TestSignOutClearsStateAndCloseUnsubscribes(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	a.signIn("tok", "s1", "u1")
	a.signIn("other", "s2", "u2")

	h := newHolder(a, store, NewPendingRoles(time.Minute), "tok")
	require.NoError(t, h.Start(context.Background()))
	require.Equal(t, 1, a.Len())

	a.signOut("other")
	require.True(t, h.SignedIn())

	a.signOut("tok")
	require.False(t, h.SignedIn())
	require.Equal(t, model.Role(""), h.Role())
	require.Empty(t, h.SavedIDs())

	h.Close()
	h.Close()
	require.Equal(t, 0, a.Len())
}

func TestClosedHolderIgnoresUpdates(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	s := a.signIn("tok", "s1", "u1")

	h := newHolder(a, store, NewPendingRoles(time.Minute), "tok")
	require.NoError(t, h.Start(context.Background()))
	h.Close()

	require.NoError(t, h.apply(context.Background(), nil))
	require.True(t, h.SignedIn())
	require.Equal(t, s.ID, h.SessionID())
}

func TestBecomeSeller(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()

	anon := newHolder(a, store, NewPendingRoles(time.Minute), "")
	require.NoError(t, anon.Start(context.Background()))
	require.ErrorIs(t, anon.BecomeSeller(context.Background(), true), ErrSignInRequired)

	a.signIn("tok", "s1", "u1")
	h := newHolder(a, store, NewPendingRoles(time.Minute), "tok")
	require.NoError(t, h.Start(context.Background()))
	defer h.Close()

	require.ErrorIs(t, h.BecomeSeller(context.Background(), false), ErrConfirmationRequired)
	require.Equal(t, model.RoleBuyer, h.Role())

	require.NoError(t, h.BecomeSeller(context.Background(), true))
	require.Equal(t, model.RoleSeller, h.Role())
	require.False(t, h.Capabilities().BecomeSeller)

	row, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "seller", row.Role)

	store.ResetCalls()
	require.NoError(t, h.BecomeSeller(context.Background(), true))
	require.Empty(t, store.Calls())
}

func TestSetSaved(t *testing.T) {
	h := &Holder{}
	h.SetSaved("a", true)
	h.SetSaved("b", true)
	h.SetSaved("a", true)
	require.Equal(t, []string{"b", "a"}, h.SavedIDs())
	require.True(t, h.IsSaved("a"))

	h.SetSaved("b", false)
	require.Equal(t, []string{"a"}, h.SavedIDs())
	require.False(t, h.IsSaved("b"))
}

func TestCapabilitiesFor(t *testing.T) {
	require.Equal(t, Capabilities{Browse: true}, CapabilitiesFor(false, model.RoleSeller))
	require.Equal(t, Capabilities{Browse: true, SaveProperties: true, BecomeSeller: true}, CapabilitiesFor(true, model.RoleBuyer))
	require.Equal(t, Capabilities{Browse: true, SaveProperties: true, ListProperty: true, ManageListings: true}, CapabilitiesFor(true, model.RoleSeller))
}

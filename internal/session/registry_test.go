package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/backend/memory"
	"panoproperty_backend/internal/model"
	"panoproperty_backend/pkg/utils/jwt"
)

func TestRegistryKeepsOneHolderPerToken(t *testing.T) {
	a := newFakeAuth()
	store := memory.NewStore()
	a.signIn("tok", "s1", "u1")

	r := NewRegistry(a, store, NewPendingRoles(time.Minute), zap.NewNop(), time.Minute)
	defer r.Close()

	h1, err := r.Get(context.Background(), "tok")
	require.NoError(t, err)
	h2, err := r.Get(context.Background(), "tok")
	require.NoError(t, err)
	require.Same(t, h1, h2)
	require.Equal(t, 1, r.Len())

	anon, err := r.Get(context.Background(), "unknown")
	require.NoError(t, err)
	require.False(t, anon.SignedIn())
	require.Equal(t, 1, r.Len())
}

func TestRegistryEvictsOnSignOut(t *testing.T) {
	store := memory.NewStore()
	svc := auth.NewService(store, jwt.NewSigner("test-secret", time.Hour), nil, zap.NewNop())
	pending := NewPendingRoles(time.Minute)
	r := NewRegistry(svc, store, pending, zap.NewNop(), time.Minute)
	defer r.Close()

	session, err := svc.SignUp(context.Background(), auth.SignUpInput{Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)
	pending.Stage(session.ID, model.RoleSeller)

	h, err := r.Get(context.Background(), session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, model.RoleSeller, h.Role())
	require.Equal(t, 1, r.Len())

	require.NoError(t, svc.SignOut(context.Background(), session.AccessToken))
	require.Equal(t, 0, r.Len())
	require.True(t, h.isClosed())

	again, err := r.Get(context.Background(), session.AccessToken)
	require.NoError(t, err)
	require.False(t, again.SignedIn())
}

// gatedAuth holds GetSession for one token until release is closed.
type gatedAuth struct {
	*fakeAuth
	gate    string
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedAuth) GetSession(ctx context.Context, token string) (*auth.Session, error) {
	if token == g.gate {
		if g.calls.Add(1) == 1 {
			close(g.entered)
		}
		<-g.release
	}
	return g.fakeAuth.GetSession(ctx, token)
}

func TestRegistrySlowStartDoesNotBlockOtherTokens(t *testing.T) {
	a := &gatedAuth{fakeAuth: newFakeAuth(), gate: "slow", entered: make(chan struct{}), release: make(chan struct{})}
	a.signIn("slow", "s1", "u1")
	a.signIn("fast", "s2", "u2")

	r := NewRegistry(a, memory.NewStore(), NewPendingRoles(time.Minute), zap.NewNop(), time.Minute)
	defer r.Close()
	ctx := context.Background()

	const callers = 4
	results := make(chan *Holder, callers)
	for i := 0; i < callers; i++ {
		go func() {
			h, _ := r.Get(ctx, "slow")
			results <- h
		}()
	}
	<-a.entered

	fastDone := make(chan *Holder, 1)
	go func() {
		h, _ := r.Get(ctx, "fast")
		fastDone <- h
	}()
	select {
	case fast := <-fastDone:
		require.NotNil(t, fast)
		require.True(t, fast.SignedIn())
	case <-time.After(2 * time.Second):
		close(a.release)
		t.Fatal("second token waited on the first token's start")
	}

	close(a.release)
	first := <-results
	require.NotNil(t, first)
	for i := 1; i < callers; i++ {
		require.Same(t, first, <-results)
	}
	require.Equal(t, int32(1), a.calls.Load())
	require.Equal(t, 2, r.Len())
}

package authz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles struct {
	mu      sync.Mutex
	rows    map[string]models.Profile
	inserts int
	getErr  error
	// watchCtx makes Get fail on a cancelled context, like a real driver
	watchCtx bool
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{rows: map[string]models.Profile{}}
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchCtx && ctx.Err() != nil {
		return models.Profile{}, ctx.Err()
	}
	if f.getErr != nil {
		return models.Profile{}, f.getErr
	}
	p, ok := f.rows[id]
	if !ok {
		return models.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

// InsertIfAbsent behaves like INSERT ... ON CONFLICT DO NOTHING.
func (f *fakeProfiles) InsertIfAbsent(_ context.Context, p models.Profile) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[p.ID]; ok {
		return false, nil
	}
	f.rows[p.ID] = p
	f.inserts++
	return true, nil
}

func TestVerifyAdmin_ConcurrentProvisioningCreatesOneRow(t *testing.T) {
	store := newFakeProfiles()
	// two verifiers so the insert race is not hidden by singleflight
	verifiers := []*Verifier{
		NewVerifier(store, Options{ProvisionMissing: true}),
		NewVerifier(store, Options{ProvisionMissing: true}),
	}

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = verifiers[i%2].VerifyAdmin(context.Background(), "fresh-user")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, store.inserts)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, models.RoleAdmin, store.rows["fresh-user"].Role)
}

func TestVerifyAdmin_ProvisionRole(t *testing.T) {
	store := newFakeProfiles()
	v := NewVerifier(store, Options{ProvisionMissing: true, ProvisionRole: models.RoleUser})

	err := v.VerifyAdmin(context.Background(), "fresh-user")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, models.RoleUser, store.rows["fresh-user"].Role)
}

func TestVerifyAdmin_MissingProfileWithoutProvisioning(t *testing.T) {
	store := newFakeProfiles()
	v := NewVerifier(store, Options{})

	err := v.VerifyAdmin(context.Background(), "fresh-user")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, store.rows)
}

func TestVerifyAdmin_Roles(t *testing.T) {
	store := newFakeProfiles()
	store.rows["admin-1"] = models.Profile{ID: "admin-1", Role: models.RoleAdmin}
	store.rows["user-1"] = models.Profile{ID: "user-1", Role: models.RoleUser}
	v := NewVerifier(store, Options{ProvisionMissing: true})

	assert.NoError(t, v.VerifyAdmin(context.Background(), "admin-1"))

	err := v.VerifyAdmin(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Unauthorized access", err.Error())
}

func TestVerifyAdmin_DataAccessError(t *testing.T) {
	store := newFakeProfiles()
	store.getErr = errors.New("connection refused")
	v := NewVerifier(store, Options{})

	err := v.VerifyAdmin(context.Background(), "admin-1")
	assert.ErrorIs(t, err, ErrDataAccess)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestVerifyAdmin_SharedLookupIgnoresCallerCancel(t *testing.T) {
	store := newFakeProfiles()
	store.watchCtx = true
	store.rows["admin-1"] = models.Profile{ID: "admin-1", Role: models.RoleAdmin}
	v := NewVerifier(store, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, v.VerifyAdmin(ctx, "admin-1"))
}

func TestCapability_RequireAdmin(t *testing.T) {
	store := newFakeProfiles()
	store.rows["admin-1"] = models.Profile{ID: "admin-1", Role: models.RoleAdmin}
	c := NewCapability(NewVerifier(store, Options{}))
	ctx := context.Background()

	assert.ErrorIs(t, c.RequireAdmin(ctx, nil), ErrNotAuthenticated)
	assert.NoError(t, c.RequireAdmin(ctx, &session.Identity{ID: "admin-1"}))
	assert.ErrorIs(t, c.RequireAdmin(ctx, &session.Identity{ID: "nobody"}), ErrUnauthorized)
}

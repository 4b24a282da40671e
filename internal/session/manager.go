// Package session owns accounts, session tokens and the sign-in lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"crop-catch/internal/models"
	"crop-catch/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (models.Account, error)
}

type ProfileStore interface {
	UpsertMetadata(ctx context.Context, id, fullName, avatarURL string) error
	Update(ctx context.Context, id string, updates map[string]any) (models.Profile, error)
}

type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	// Revocations defaults to an in-memory store.
	Revocations RevocationStore
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

// Manager is the session provider. Create it with NewManager and release
// it with Close; subscribers are notified of lifecycle events in between.
type Manager struct {
	accounts AccountStore
	profiles ProfileStore

	secret  []byte
	ttl     time.Duration
	cost    int
	now     func() time.Time
	revoked RevocationStore
	// signedOut blocks tokens in this process even when the shared
	// revocation store is unreachable.
	signedOut *MemoryRevocations

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
	closed  bool
	wg      sync.WaitGroup
}

func NewManager(accounts AccountStore, profiles ProfileStore, opts Options) *Manager {
	m := &Manager{
		accounts:  accounts,
		profiles:  profiles,
		secret:    opts.Secret,
		ttl:       opts.TokenTTL,
		cost:      opts.BcryptCost,
		now:       opts.Now,
		revoked:   opts.Revocations,
		signedOut: NewMemoryRevocations(),
		subs:      make(map[int]func(Event)),
	}
	if m.ttl <= 0 {
		m.ttl = 24 * time.Hour
	}
	if m.cost == 0 {
		m.cost = bcrypt.DefaultCost
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.revoked == nil {
		m.revoked = NewMemoryRevocations()
	}
	m.signedOut.now = m.now
	return m
}

func (m *Manager) SignUp(ctx context.Context, email, password string, fields SignUpFields) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address is invalid", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password should be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	_, err := m.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	acc := models.Account{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(strings.TrimSpace(fields.FirstName) + " " + strings.TrimSpace(fields.LastName)),
		Company:      strings.TrimSpace(fields.Company),
	}
	if err := m.accounts.Create(ctx, &acc); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}

	log.Printf("[session] account created for %s", maskEmail(email))
	m.publish(Event{Type: EventSignedUp, UserID: acc.ID})
	return nil
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acc, err := m.accounts.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		log.Printf("[session] failed sign-in for %s", maskEmail(acc.Email))
		return nil, ErrInvalidCredentials
	}

	id := &Identity{
		ID:    acc.ID,
		Email: acc.Email,
		Metadata: Metadata{
			FullName:  acc.FullName,
			Company:   acc.Company,
			AvatarURL: acc.AvatarURL,
		},
	}
	token, err := m.issueToken(id)
	if err != nil {
		return nil, err
	}

	// role is never part of the upsert; a new row gets the column default
	if err := m.profiles.UpsertMetadata(ctx, id.ID, id.Metadata.FullName, id.Metadata.AvatarURL); err != nil {
		log.Printf("[session] profile upsert for %s failed: %v", maskEmail(id.Email), err)
	}

	log.Printf("[session] signed in %s", maskEmail(id.Email))
	m.publish(Event{Type: EventSignedIn, UserID: id.ID})
	return &Session{Token: token, ExpiresAt: id.ExpiresAt, Identity: id}, nil
}

// Resolve returns the identity behind a live token.
func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	id, err := m.parseToken(token)
	if err != nil {
		return nil, err
	}

	if out, _ := m.signedOut.IsRevoked(ctx, id.TokenID); out {
		return nil, ErrInvalidToken
	}
	revoked, err := m.revoked.IsRevoked(ctx, id.TokenID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return id, nil
}

// SignOut clears the local session before revoking the token remotely. A
// revocation failure is returned but does not restore the session.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	id, err := m.parseToken(token)
	if err != nil {
		// nothing live to revoke
		return nil
	}

	_ = m.signedOut.Revoke(ctx, id.TokenID, id.ExpiresAt)
	revokeErr := m.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt)
	m.publish(Event{Type: EventSignedOut, UserID: id.ID})

	if revokeErr != nil {
		return fmt.Errorf("revoke token: %w", revokeErr)
	}
	log.Printf("[session] signed out %s", maskEmail(id.Email))
	return nil
}

// UpdateProfile edits the caller's own profile. A nil identity is a no-op.
func (m *Manager) UpdateProfile(ctx context.Context, id *Identity, upd ProfileUpdate) (*models.Profile, error) {
	if id == nil {
		return nil, nil
	}

	updates := map[string]any{}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: full name cannot be empty", ErrInvalidInput)
		}
		updates["full_name"] = name
	}
	if upd.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*upd.AvatarURL)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	p, err := m.profiles.Update(ctx, id.ID, updates)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	m.publish(Event{Type: EventProfileUpdated, UserID: id.ID})
	return &p, nil
}

// Subscribe registers fn for lifecycle events. Delivery is asynchronous,
// one goroutine per event.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Close stops event delivery and waits for in-flight deliveries.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.subs = map[int]func(Event){}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) publish(ev Event) {
	ev.At = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for _, fn := range m.subs {
		m.wg.Add(1)
		go func(fn func(Event)) {
			defer m.wg.Done()
			fn(ev)
		}(fn)
	}
}

// Package authz decides whether a user holds the admin capability.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log"

	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/session"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotAuthenticated = errors.New("Not authenticated")
	ErrUnauthorized     = errors.New("Unauthorized access")
	ErrDataAccess       = errors.New("Database error")
)

type ProfileStore interface {
	Get(ctx context.Context, id string) (models.Profile, error)
	InsertIfAbsent(ctx context.Context, p models.Profile) (bool, error)
}

type Options struct {
	// ProvisionMissing creates a profile for ids that have none. Only
	// meant for development databases.
	ProvisionMissing bool
	// ProvisionRole is the role given to provisioned profiles, admin by
	// default.
	ProvisionRole models.UserRole
}

type Verifier struct {
	profiles ProfileStore
	opts     Options
	group    singleflight.Group
}

func NewVerifier(profiles ProfileStore, opts Options) *Verifier {
	if opts.ProvisionRole == "" {
		opts.ProvisionRole = models.RoleAdmin
	}
	return &Verifier{profiles: profiles, opts: opts}
}

// VerifyAdmin returns nil when userID has the admin role. Concurrent calls
// for one id share a single lookup, which outlives any one caller's
// cancellation.
func (v *Verifier) VerifyAdmin(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	_, err, _ := v.group.Do(userID, func() (any, error) {
		return nil, v.verify(context.WithoutCancel(ctx), userID)
	})
	return err
}

func (v *Verifier) verify(ctx context.Context, userID string) error {
	p, err := v.profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if !v.opts.ProvisionMissing {
			return ErrUnauthorized
		}
		p, err = v.provision(ctx, userID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDataAccess, err)
	}

	if p.Role != models.RoleAdmin {
		return ErrUnauthorized
	}
	return nil
}

func (v *Verifier) provision(ctx context.Context, userID string) (models.Profile, error) {
	created, err := v.profiles.InsertIfAbsent(ctx, models.Profile{ID: userID, Role: v.opts.ProvisionRole})
	if err != nil {
		return models.Profile{}, fmt.Errorf("provision profile: %w", err)
	}
	if created {
		log.Printf("[authz] provisioned profile %s with role %s", userID, v.opts.ProvisionRole)
	}
	// re-read: a concurrent writer may have won the insert
	return v.profiles.Get(ctx, userID)
}

// Capability is the one admin check every admin-scoped operation goes
// through.
type Capability struct {
	verifier AdminVerifier
}

type AdminVerifier interface {
	VerifyAdmin(ctx context.Context, userID string) error
}

func NewCapability(v AdminVerifier) *Capability {
	return &Capability{verifier: v}
}

func (c *Capability) RequireAdmin(ctx context.Context, id *session.Identity) error {
	if id == nil {
		return ErrNotAuthenticated
	}
	return c.verifier.VerifyAdmin(ctx, id.ID)
}

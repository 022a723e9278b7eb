// Package guard composes identity verification and role lookup into
// authorization predicates that gate operations.
package guard

import (
	"context"
	"fmt"

	"microloan/internal/core/domain"
)

// IdentityVerifier turns a bearer credential into a verified principal email
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// RoleStore resolves the role of a principal; unknown principals are users
type RoleStore interface {
	FindRole(ctx context.Context, email string) (domain.Role, error)
}

// Guard either returns a context enriched with the principal or fails
type Guard func(ctx context.Context, credential string) (context.Context, error)

type principalKey struct{}

// WithPrincipal attaches p to ctx
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal attached by a guard
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok && p.Email != ""
}

// RequireAuthenticated fails with ErrUnauthenticated when the credential is absent
// or rejected by the verifier.
func RequireAuthenticated(verifier IdentityVerifier) Guard {
	return func(ctx context.Context, credential string) (context.Context, error) {
		if _, ok := PrincipalFrom(ctx); ok {
			return ctx, nil
		}
		if credential == "" {
			return ctx, fmt.Errorf("credential required: %w", domain.ErrUnauthenticated)
		}
		email, err := verifier.Verify(ctx, credential)
		if err != nil {
			return ctx, fmt.Errorf("verify credential: %v: %w", err, domain.ErrUnauthenticated)
		}
		return WithPrincipal(ctx, domain.Principal{Email: email}), nil
	}
}

// ResolveRole looks up the role of an authenticated principal without
// restricting it. Must run after RequireAuthenticated.
func ResolveRole(roles RoleStore) Guard {
	return func(ctx context.Context, _ string) (context.Context, error) {
		p, ok := PrincipalFrom(ctx)
		if !ok {
			return ctx, fmt.Errorf("no principal: %w", domain.ErrUnauthenticated)
		}
		if p.Role != "" {
			return ctx, nil
		}
		role, err := roles.FindRole(ctx, p.Email)
		if err != nil {
			return ctx, fmt.Errorf("find role: %v: %w", err, domain.ErrUpstream)
		}
		p.Role = role
		return WithPrincipal(ctx, p), nil
	}
}

// RequireRole authenticates, resolves the role and fails with ErrForbidden
// when it is not one of allowed.
func RequireRole(verifier IdentityVerifier, roles RoleStore, allowed ...domain.Role) Guard {
	resolve := Chain(RequireAuthenticated(verifier), ResolveRole(roles))
	return func(ctx context.Context, credential string) (context.Context, error) {
		ctx, err := resolve(ctx, credential)
		if err != nil {
			return ctx, err
		}
		p, _ := PrincipalFrom(ctx)
		for _, r := range allowed {
			if p.Role == r {
				return ctx, nil
			}
		}
		return ctx, fmt.Errorf("role %q not allowed: %w", p.Role, domain.ErrForbidden)
	}
}

// Chain runs guards left to right and stops at the first failure
func Chain(guards ...Guard) Guard {
	return func(ctx context.Context, credential string) (context.Context, error) {
		var err error
		for _, g := range guards {
			if ctx, err = g(ctx, credential); err != nil {
				return ctx, err
			}
		}
		return ctx, nil
	}
}

// Authenticated requires a credential and resolves the caller's role
func Authenticated(verifier IdentityVerifier, roles RoleStore) Guard {
	return Chain(RequireAuthenticated(verifier), ResolveRole(roles))
}

// StaffOnly allows manager and admin
func StaffOnly(verifier IdentityVerifier, roles RoleStore) Guard {
	return RequireRole(verifier, roles, domain.RoleManager, domain.RoleAdmin)
}

// AdminOnly allows admin
func AdminOnly(verifier IdentityVerifier, roles RoleStore) Guard {
	return RequireRole(verifier, roles, domain.RoleAdmin)
}

package guard

import (
	"context"
	"errors"
	"testing"

	"microloan/internal/core/domain"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(_ context.Context, token string) (string, error) {
	email, ok := s[token]
	if !ok {
		return "", domain.ErrTokenInvalid
	}
	return email, nil
}

type stubRoles struct {
	roles map[string]domain.Role
	calls int
	err   error
}

func (s *stubRoles) FindRole(_ context.Context, email string) (domain.Role, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if r, ok := s.roles[email]; ok {
		return r, nil
	}
	return domain.RoleUser, nil
}

func TestRequireAuthenticated(t *testing.T) {
	t.Parallel()

	verifier := stubVerifier{"good": "a@example.com"}
	g := RequireAuthenticated(verifier)

	tests := []struct {
		name       string
		credential string
		wantErr    error
		wantEmail  string
	}{
		{name: "missing credential", credential: "", wantErr: domain.ErrUnauthenticated},
		{name: "rejected credential", credential: "bad", wantErr: domain.ErrUnauthenticated},
		{name: "verified", credential: "good", wantEmail: "a@example.com"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, err := g(context.Background(), tc.credential)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("guard error = %v, want %v", err, tc.wantErr)
				}
				if _, ok := PrincipalFrom(ctx); ok {
					t.Fatal("principal attached on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("guard error = %v", err)
			}
			p, ok := PrincipalFrom(ctx)
			if !ok || p.Email != tc.wantEmail {
				t.Fatalf("principal = %+v, want email %q", p, tc.wantEmail)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	verifier := stubVerifier{
		"user":    "user@example.com",
		"manager": "manager@example.com",
		"admin":   "admin@example.com",
		"nobody":  "unregistered@example.com",
	}
	roles := &stubRoles{roles: map[string]domain.Role{
		"user@example.com":    domain.RoleUser,
		"manager@example.com": domain.RoleManager,
		"admin@example.com":   domain.RoleAdmin,
	}}
	staff := RequireRole(verifier, roles, domain.RoleManager, domain.RoleAdmin)
	users := RequireRole(verifier, roles, domain.RoleUser)

	tests := []struct {
		name       string
		guard      Guard
		credential string
		wantErr    error
		wantRole   domain.Role
	}{
		{name: "no credential", guard: staff, credential: "", wantErr: domain.ErrUnauthenticated},
		{name: "user on staff route", guard: staff, credential: "user", wantErr: domain.ErrForbidden},
		{name: "manager on staff route", guard: staff, credential: "manager", wantRole: domain.RoleManager},
		{name: "admin on staff route", guard: staff, credential: "admin", wantRole: domain.RoleAdmin},
		{name: "unknown principal defaults to user", guard: users, credential: "nobody", wantRole: domain.RoleUser},
		{name: "unknown principal denied on staff route", guard: staff, credential: "nobody", wantErr: domain.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, err := tc.guard(context.Background(), tc.credential)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("guard error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("guard error = %v", err)
			}
			p, _ := PrincipalFrom(ctx)
			if p.Role != tc.wantRole {
				t.Fatalf("role = %q, want %q", p.Role, tc.wantRole)
			}
		})
	}
}

func TestRequireRoleStoreFailure(t *testing.T) {
	t.Parallel()

	roles := &stubRoles{err: errors.New("db down")}
	g := StaffOnly(stubVerifier{"t": "a@example.com"}, roles)

	if _, err := g(context.Background(), "t"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("guard error = %v, want %v", err, domain.ErrUpstream)
	}
}

func TestChainShortCircuitsAndReusesPrincipal(t *testing.T) {
	t.Parallel()

	roles := &stubRoles{roles: map[string]domain.Role{"admin@example.com": domain.RoleAdmin}}
	verifier := stubVerifier{"t": "admin@example.com"}

	g := Chain(Authenticated(verifier, roles), AdminOnly(verifier, roles))
	ctx, err := g(context.Background(), "t")
	if err != nil {
		t.Fatalf("chain error = %v", err)
	}
	if p, _ := PrincipalFrom(ctx); p.Role != domain.RoleAdmin {
		t.Fatalf("role = %q, want admin", p.Role)
	}
	if roles.calls != 1 {
		t.Fatalf("FindRole calls = %d, want 1", roles.calls)
	}

	var reached bool
	tail := func(ctx context.Context, _ string) (context.Context, error) {
		reached = true
		return ctx, nil
	}
	if _, err := Chain(RequireAuthenticated(verifier), tail)(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("chain error = %v, want %v", err, domain.ErrUnauthenticated)
	}
	if reached {
		t.Fatal("guard after failure was executed")
	}
}

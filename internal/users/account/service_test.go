// Copyright (c) 2026 Atithi. All rights reserved.
// Author: dev@atithi.app

package account_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atithi/atithi/internal/platform/apperr"
	"github.com/atithi/atithi/internal/platform/sec"
	"github.com/atithi/atithi/internal/users/account"
	"github.com/atithi/atithi/internal/users/auth"
)

// # Test Doubles

// fakeAccountRepository is an in-memory [account.AccountRepository].
type fakeAccountRepository struct {
	users map[string]*auth.User
}

func newFakeAccountRepository(users ...*auth.User) *fakeAccountRepository {
	repo := &fakeAccountRepository{users: map[string]*auth.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (repo *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	copied := *user
	return &copied, nil
}

func (repo *fakeAccountRepository) List(_ context.Context, f account.UserFilter, limit, offset int) ([]*auth.User, int, error) {
	var matched []*auth.User
	for _, user := range repo.users {
		if f.Role != "" && user.Role != f.Role {
			continue
		}
		matched = append(matched, user)
	}
	return matched, len(matched), nil
}

func (repo *fakeAccountRepository) Update(_ context.Context, user *auth.User) error {
	repo.users[user.ID] = user
	return nil
}

func (repo *fakeAccountRepository) SetRole(_ context.Context, userID string, role sec.UserRole) error {
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.Role = role
	return nil
}

func (repo *fakeAccountRepository) SetActive(_ context.Context, userID string, active bool) error {
	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("Account")
	}
	user.IsActive = active
	return nil
}

func (repo *fakeAccountRepository) SoftDelete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

// fakeSessionRepository records revocations instead of managing real sessions.
type fakeSessionRepository struct {
	revokedAllFor []string
}

func (repo *fakeSessionRepository) FindActiveByUserID(_ context.Context, _ string) ([]account.SessionInfo, error) {
	return nil, nil
}

func (repo *fakeSessionRepository) Revoke(_ context.Context, _, _ string) error {
	return nil
}

func (repo *fakeSessionRepository) RevokeOthers(_ context.Context, _, _ string) error {
	return nil
}

func (repo *fakeSessionRepository) RevokeAll(_ context.Context, userID string) error {
	repo.revokedAllFor = append(repo.revokedAllFor, userID)
	return nil
}

// auditEntry captures one recorded audit event for assertions.
type auditEntry struct {
	ActorID  string
	Action   string
	EntityID string
}

type fakeAudit struct {
	entries []auditEntry
}

func (audit *fakeAudit) Record(_ context.Context, actorID, action, _, entityID string, _, _ any) error {
	audit.entries = append(audit.entries, auditEntry{ActorID: actorID, Action: action, EntityID: entityID})
	return nil
}

// # Fixtures

func staffClaims(id string, role sec.UserRole) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: id, Email: id + "@atithi.app", Role: string(role)}
}

func userWithRole(id string, role sec.UserRole) *auth.User {
	return &auth.User{
		ID:       id,
		Email:    id + "@atithi.app",
		Role:     role,
		IsActive: true,
	}
}

type fixture struct {
	repo     *fakeAccountRepository
	sessions *fakeSessionRepository
	audit    *fakeAudit
	service  *account.Service
}

func newFixture(users ...*auth.User) *fixture {
	repo := newFakeAccountRepository(users...)
	sessions := &fakeSessionRepository{}
	audit := &fakeAudit{}
	return &fixture{
		repo:     repo,
		sessions: sessions,
		audit:    audit,
		service:  account.NewService(repo, sessions, audit, slog.Default()),
	}
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

// # Profile Management

func TestUpdateProfile_AppliesDelta(t *testing.T) {
	target := userWithRole("u-1", sec.RoleGeneral)
	target.FirstName = "Asha"
	target.LastName = "Rao"
	f := newFixture(target)

	first := "Aisha"
	phone := "+91-98000-00000"
	updated, err := f.service.UpdateProfile(context.Background(), "u-1", account.UpdateProfileInput{
		FirstName: &first,
		Phone:     &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Aisha", updated.FirstName)
	assert.Equal(t, "Rao", updated.LastName)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)
}

func TestDeleteAccount_RevokesAllSessions(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))

	require.NoError(t, f.service.DeleteAccount(context.Background(), "u-1"))
	assert.Contains(t, f.sessions.revokedAllFor, "u-1")
}

// # Directory Access

func TestListUsers_RequiresStaffRank(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))

	_, _, err := f.service.ListUsers(context.Background(), staffClaims("usher", sec.RoleUsher), account.UserFilter{}, 20, 0)
	assertForbidden(t, err)

	users, total, err := f.service.ListUsers(context.Background(), staffClaims("sec", sec.RoleSecretariat), account.UserFilter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, users, 1)
}

// # Role Assignment

func TestChangeRole_AdminAssignsAnyRole(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))
	admin := staffClaims("admin", sec.RoleAdmin)

	updated, err := f.service.ChangeRole(context.Background(), admin, "u-1", sec.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleAdmin, updated.Role)
}

func TestChangeRole_SecretariatAssignsBelowOwnRankOnly(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))
	actor := staffClaims("sec", sec.RoleSecretariat)

	updated, err := f.service.ChangeRole(context.Background(), actor, "u-1", sec.RoleUsher)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUsher, updated.Role)

	// Own rank and above stay out of reach.
	_, err = f.service.ChangeRole(context.Background(), actor, "u-1", sec.RoleSecretariat)
	assertForbidden(t, err)
	_, err = f.service.ChangeRole(context.Background(), actor, "u-1", sec.RoleAdmin)
	assertForbidden(t, err)
}

func TestChangeRole_SecretariatCannotTouchPeersOrSuperiors(t *testing.T) {
	f := newFixture(
		userWithRole("peer", sec.RoleSecretariat),
		userWithRole("boss", sec.RoleAdmin),
	)
	actor := staffClaims("sec", sec.RoleSecretariat)

	_, err := f.service.ChangeRole(context.Background(), actor, "peer", sec.RoleGeneral)
	assertForbidden(t, err)

	_, err = f.service.ChangeRole(context.Background(), actor, "boss", sec.RoleGeneral)
	assertForbidden(t, err)
}

func TestChangeRole_SelfChangeRejected(t *testing.T) {
	f := newFixture(userWithRole("admin", sec.RoleAdmin))
	actor := staffClaims("admin", sec.RoleAdmin)

	_, err := f.service.ChangeRole(context.Background(), actor, "admin", sec.RoleGeneral)
	assertForbidden(t, err)
}

func TestChangeRole_LowerRolesRejected(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))

	_, err := f.service.ChangeRole(context.Background(), staffClaims("usher", sec.RoleUsher), "u-1", sec.RoleGeneral)
	assertForbidden(t, err)
}

func TestChangeRole_UnknownRoleRejected(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))

	_, err := f.service.ChangeRole(context.Background(), staffClaims("admin", sec.RoleAdmin), "u-1", sec.UserRole("superuser"))
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

func TestChangeRole_AuditsAndRevokesSessions(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))
	admin := staffClaims("admin", sec.RoleAdmin)

	_, err := f.service.ChangeRole(context.Background(), admin, "u-1", sec.RoleUsher)
	require.NoError(t, err)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "user_role_changed", f.audit.entries[0].Action)
	assert.Equal(t, "admin", f.audit.entries[0].ActorID)
	assert.Equal(t, "u-1", f.audit.entries[0].EntityID)

	// The target's live tokens carry the old role; sessions must fall.
	assert.Contains(t, f.sessions.revokedAllFor, "u-1")
}

// # Account Activation

func TestSetActive_AdminOnly(t *testing.T) {
	f := newFixture(userWithRole("u-1", sec.RoleGeneral))

	err := f.service.SetActive(context.Background(), staffClaims("sec", sec.RoleSecretariat), "u-1", false)
	assertForbidden(t, err)

	require.NoError(t, f.service.SetActive(context.Background(), staffClaims("admin", sec.RoleAdmin), "u-1", false))
	assert.False(t, f.repo.users["u-1"].IsActive)
	assert.Contains(t, f.sessions.revokedAllFor, "u-1")
}

func TestSetActive_SelfDeactivationRejected(t *testing.T) {
	f := newFixture(userWithRole("admin", sec.RoleAdmin))

	err := f.service.SetActive(context.Background(), staffClaims("admin", sec.RoleAdmin), "admin", false)
	assertForbidden(t, err)
}

func TestSetActive_ReactivationKeepsSessionsUntouched(t *testing.T) {
	target := userWithRole("u-1", sec.RoleGeneral)
	target.IsActive = false
	f := newFixture(target)

	require.NoError(t, f.service.SetActive(context.Background(), staffClaims("admin", sec.RoleAdmin), "u-1", true))
	assert.True(t, f.repo.users["u-1"].IsActive)
	assert.Empty(t, f.sessions.revokedAllFor)
}

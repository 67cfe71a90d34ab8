package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
)

func TestUserServiceAdminOnly(t *testing.T) {
	users := memory.NewUserRepo(adminUser, techA1)
	svc := NewUserService(users, bcrypt.MinCost)
	ctx := context.Background()

	_, err := svc.Create(ctx, callerOf(techA1), UserCreateInput{Username: "x", Password: "secret1", FullName: "X", Role: domain.RoleTechnicianA})
	assertCode(t, err, "FORBIDDEN")
	_, err = svc.List(ctx, callerOf(techA1), UserListFilter{})
	assertCode(t, err, "FORBIDDEN")

	_, err = svc.Create(ctx, callerOf(adminUser), UserCreateInput{Username: "", Password: "123", Role: "root"})
	assertCode(t, err, "VALIDATION_FAILED")

	created, err := svc.Create(ctx, callerOf(adminUser), UserCreateInput{Username: "dewi", Password: "secret1", FullName: "Dewi", Role: domain.RoleTechnicianB})
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.NotEqual(t, "secret1", created.PasswordHash)

	_, err = svc.Create(ctx, callerOf(adminUser), UserCreateInput{Username: "DEWI", Password: "secret1", FullName: "Dewi", Role: domain.RoleTechnicianB})
	assertCode(t, err, "CONFLICT")
}

func TestUserServiceUpdate(t *testing.T) {
	users := memory.NewUserRepo(adminUser, techA1)
	svc := NewUserService(users, bcrypt.MinCost)
	ctx := context.Background()

	inactive := false
	_, err := svc.Update(ctx, callerOf(adminUser), adminUser.ID, UserUpdateInput{IsActive: &inactive})
	assertCode(t, err, "CONFLICT")

	role := domain.RoleTechnicianB
	updated, err := svc.Update(ctx, callerOf(adminUser), techA1.ID, UserUpdateInput{IsActive: &inactive, Role: &role})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, domain.RoleTechnicianB, updated.Role)

	_, err = svc.Update(ctx, callerOf(adminUser), "ghost", UserUpdateInput{})
	assertCode(t, err, "NOT_FOUND")
}

func TestColleaguesExcludeCallerAndInactive(t *testing.T) {
	users := memory.NewUserRepo(adminUser, techA1, techA2, techA3, techB1)
	svc := NewUserService(users, bcrypt.MinCost)

	list, err := svc.Colleagues(context.Background(), callerOf(techA1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, techA2.ID, list[0].ID)

	_, err = svc.Colleagues(context.Background(), callerOf(adminUser))
	assertCode(t, err, "FORBIDDEN")
}

func TestPushSubscription(t *testing.T) {
	users := memory.NewUserRepo(techA1)
	svc := NewUserService(users, bcrypt.MinCost)
	ctx := context.Background()

	err := svc.SetPushSubscription(ctx, callerOf(techA1), json.RawMessage(`{"keys":{}}`))
	assertCode(t, err, "VALIDATION_FAILED")

	sub := json.RawMessage(`{"endpoint":"https://push.example/abc","keys":{"p256dh":"x","auth":"y"}}`)
	require.NoError(t, svc.SetPushSubscription(ctx, callerOf(techA1), sub))
	stored, _ := users.GetByID(ctx, techA1.ID)
	assert.JSONEq(t, string(sub), string(stored.PushSubscription))

	require.NoError(t, svc.ClearPushSubscription(ctx, callerOf(techA1)))
	stored, _ = users.GetByID(ctx, techA1.ID)
	assert.Nil(t, stored.PushSubscription)
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := auth.HashPassword("rahasia", bcrypt.MinCost)
	require.NoError(t, err)
	active := techA1
	active.PasswordHash = hash
	disabled := techA3
	disabled.PasswordHash = hash
	users := memory.NewUserRepo(active, disabled)
	svc := NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost}, users)
	ctx := context.Background()

	user, token, exp, err := svc.Login(ctx, "andi", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, techA1.ID, user.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, techA1.ID, claims.UserID)

	_, _, _, err = svc.Login(ctx, "andi", "salah")
	assertCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(ctx, "nobody", "rahasia")
	assertCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(ctx, "rudi", "rahasia")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestAuthServiceChangePassword(t *testing.T) {
	hash, err := auth.HashPassword("rahasia", bcrypt.MinCost)
	require.NoError(t, err)
	user := techA1
	user.PasswordHash = hash
	users := memory.NewUserRepo(user)
	svc := NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost}, users)
	ctx := context.Background()

	assertCode(t, svc.ChangePassword(ctx, callerOf(techA1), "rahasia", "123"), "VALIDATION_FAILED")
	assertCode(t, svc.ChangePassword(ctx, callerOf(techA1), "wrong", "baru1234"), "VALIDATION_FAILED")
	require.NoError(t, svc.ChangePassword(ctx, callerOf(techA1), "rahasia", "baru1234"))

	_, _, _, err = svc.Login(ctx, "andi", "baru1234")
	require.NoError(t, err)
}

func TestProblemTypeService(t *testing.T) {
	repo := memory.NewProblemTypeRepo()
	svc := NewProblemTypeService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, callerOf(techA1), ProblemTypeInput{Name: "Printer"})
	assertCode(t, err, "FORBIDDEN")

	pt, err := svc.Create(ctx, callerOf(adminUser), ProblemTypeInput{Name: "Jaringan / Internet", DisplayOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "jaringan-internet", pt.Slug)

	_, err = svc.Create(ctx, callerOf(adminUser), ProblemTypeInput{Name: "Other", Slug: "Jaringan Internet"})
	assertCode(t, err, "CONFLICT")

	_, err = svc.Create(ctx, callerOf(adminUser), ProblemTypeInput{Name: "  "})
	assertCode(t, err, "VALIDATION_FAILED")

	updated, err := svc.Update(ctx, callerOf(adminUser), pt.ID, ProblemTypeInput{Name: "Jaringan", DisplayOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, "jaringan", updated.Slug)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, callerOf(adminUser), pt.ID))
	assertCode(t, svc.Delete(ctx, callerOf(adminUser), pt.ID), "NOT_FOUND")
}

func TestActivityService(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo)
	ctx := context.Background()
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, callerOf(adminUser), ActivityInput{ActivityDate: day, Title: "x"})
	assertCode(t, err, "FORBIDDEN")
	_, err = svc.Create(ctx, callerOf(techA1), ActivityInput{})
	assertCode(t, err, "VALIDATION_FAILED")

	activity, err := svc.Create(ctx, callerOf(techA1), ActivityInput{ActivityDate: day, Title: " maintenance ", Location: "Server room"})
	require.NoError(t, err)
	assert.Equal(t, "maintenance", activity.Title)

	list, err := svc.ListOwn(ctx, callerOf(techA1), nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assertCode(t, svc.DeleteOwn(ctx, callerOf(techA2), activity.ID), "NOT_FOUND")
	require.NoError(t, svc.DeleteOwn(ctx, callerOf(techA1), activity.ID))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ac-rusak", Slugify("  AC  Rusak!! "))
	assert.Equal(t, "", Slugify("---"))
}

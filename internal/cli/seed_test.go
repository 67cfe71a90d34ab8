package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
)

const sampleSeed = `
users:
  - username: admin
    password: ${HELPDESK_SEED_ADMIN_PASSWORD}
    full_name: Administrator
    role: admin
  - username: andi
    password: teknisi1
    full_name: Andi
    phone: "0812"
    role: technician_a
problem_types:
  - name: Printer
    display_order: 1
  - name: Jaringan / Internet
    slug: jaringan
    display_order: 2
`

func TestParseSeedExpandsEnv(t *testing.T) {
	t.Setenv("HELPDESK_SEED_ADMIN_PASSWORD", "s3cret!")

	seed, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, "s3cret!", seed.Users[0].Password)
	assert.Equal(t, "technician_a", seed.Users[1].Role)
	assert.Equal(t, "0812", seed.Users[1].Phone)
	require.Len(t, seed.ProblemTypes, 2)
	assert.Equal(t, "jaringan", seed.ProblemTypes[1].Slug)
}

func TestParseSeedRejectsUnknownKeys(t *testing.T) {
	_, err := ParseSeed([]byte("users:\n  - username: x\n    passwd: y\n"))
	assert.Error(t, err)
}

func TestParseSeedEmpty(t *testing.T) {
	seed, err := ParseSeed(nil)
	require.NoError(t, err)
	assert.Empty(t, seed.Users)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("problem_types:\n  - name: AC\n"), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.ProblemTypes, 1)
}

func TestApplySeedIsRepeatable(t *testing.T) {
	t.Setenv("HELPDESK_SEED_ADMIN_PASSWORD", "s3cret!")
	seed, err := ParseSeed([]byte(sampleSeed))
	require.NoError(t, err)

	userRepo := memory.NewUserRepo()
	users := service.NewUserService(userRepo, bcrypt.MinCost)
	problemTypes := service.NewProblemTypeService(memory.NewProblemTypeRepo())
	ctx := context.Background()

	first, err := ApplySeed(ctx, seed, users, problemTypes, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{UsersCreated: 2, ProblemTypesCreated: 2}, first)

	admin, err := userRepo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret!")))

	second, err := ApplySeed(ctx, seed, users, problemTypes, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{UsersSkipped: 2, ProblemTypesSkipped: 2}, second)
}

func TestApplySeedStopsOnInvalidEntry(t *testing.T) {
	seed := &SeedFile{Users: []SeedUser{{Username: "x", Password: "123", FullName: "X", Role: "root"}}}
	users := service.NewUserService(memory.NewUserRepo(), bcrypt.MinCost)
	problemTypes := service.NewProblemTypeService(memory.NewProblemTypeRepo())

	_, err := ApplySeed(context.Background(), seed, users, problemTypes, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `user "x"`)
}

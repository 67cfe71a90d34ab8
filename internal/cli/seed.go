package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SeedFile is the bootstrap data for a fresh installation.
type SeedFile struct {
	Users        []SeedUser        `yaml:"users"`
	ProblemTypes []SeedProblemType `yaml:"problem_types"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Phone    string `yaml:"phone"`
	Role     string `yaml:"role"`
}

type SeedProblemType struct {
	Name         string `yaml:"name"`
	Slug         string `yaml:"slug"`
	DisplayOrder int    `yaml:"display_order"`
}

// SeedResult counts what a seed run created and what already existed.
type SeedResult struct {
	UsersCreated        int
	UsersSkipped        int
	ProblemTypesCreated int
	ProblemTypesSkipped int
}

// seeding runs with admin rights without a real account behind it
var systemCaller = domain.Caller{UserID: "system", Role: domain.RoleAdmin}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create initial accounts and problem types",
	Long: `Load users and problem types from a YAML file. Entries that already
exist (same username or slug) are skipped, so the command can be re-run.

${VAR} references in the file are expanded from the environment, which keeps
passwords out of the file itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := LoadSeed(seedFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("failed to connect postgres: %w", err)
		}
		defer pg.Close()

		pool := pg.PoolHandle()
		users := service.NewUserService(repository.NewUserRepository(pool), cfg.Auth.BcryptCost)
		problemTypes := service.NewProblemTypeService(repository.NewProblemTypeRepository(pool))

		result, err := ApplySeed(ctx, seed, users, problemTypes, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Users: %d created, %d skipped\n", result.UsersCreated, result.UsersSkipped)
		fmt.Fprintf(cmd.OutOrStdout(), "Problem types: %d created, %d skipped\n", result.ProblemTypesCreated, result.ProblemTypesSkipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "seed file path")
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed expands environment references and decodes the YAML. Unknown keys are rejected.
func ParseSeed(data []byte) (*SeedFile, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var seed SeedFile
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed creates every entry through the services so the usual validation
// and password hashing apply. Conflicts count as skipped.
func ApplySeed(ctx context.Context, seed *SeedFile, users *service.UserService, problemTypes *service.ProblemTypeService, logger *zap.Logger) (SeedResult, error) {
	var result SeedResult

	for _, u := range seed.Users {
		_, err := users.Create(ctx, systemCaller, service.UserCreateInput{
			Username: u.Username,
			Password: u.Password,
			FullName: u.FullName,
			Phone:    u.Phone,
			Role:     domain.Role(u.Role),
		})
		switch {
		case err == nil:
			result.UsersCreated++
			logger.Info("user created", zap.String("username", u.Username), zap.String("role", u.Role))
		case apperrors.HasCode(err, "CONFLICT"):
			result.UsersSkipped++
		default:
			return result, fmt.Errorf("user %q: %w", u.Username, err)
		}
	}

	for _, pt := range seed.ProblemTypes {
		_, err := problemTypes.Create(ctx, systemCaller, service.ProblemTypeInput{
			Name:         pt.Name,
			Slug:         pt.Slug,
			DisplayOrder: pt.DisplayOrder,
		})
		switch {
		case err == nil:
			result.ProblemTypesCreated++
		case apperrors.HasCode(err, "CONFLICT"):
			result.ProblemTypesSkipped++
		default:
			return result, fmt.Errorf("problem type %q: %w", pt.Name, err)
		}
	}

	return result, nil
}

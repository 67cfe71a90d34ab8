package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ProblemTypeRepository manages the problem taxonomy.
type ProblemTypeRepository interface {
	Create(ctx context.Context, pt *domain.ProblemType) error
	Update(ctx context.Context, pt *domain.ProblemType) error
	GetByID(ctx context.Context, id string) (*domain.ProblemType, error)
	List(ctx context.Context) ([]domain.ProblemType, error)
	// Delete removes the entry; tickets referencing it keep existing with a NULL reference.
	Delete(ctx context.Context, id string) error
}

type problemTypeRepository struct {
	db DBTX
}

// NewProblemTypeRepository builds the repository.
func NewProblemTypeRepository(db DBTX) ProblemTypeRepository {
	return &problemTypeRepository{db: db}
}

func (r *problemTypeRepository) Create(ctx context.Context, pt *domain.ProblemType) error {
	const query = `
        INSERT INTO problem_types (name, slug, display_order)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, pt.Name, pt.Slug, pt.DisplayOrder).Scan(&pt.ID, &pt.CreatedAt)
}

func (r *problemTypeRepository) Update(ctx context.Context, pt *domain.ProblemType) error {
	const query = `UPDATE problem_types SET name=$1, slug=$2, display_order=$3 WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query, pt.Name, pt.Slug, pt.DisplayOrder, pt.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *problemTypeRepository) GetByID(ctx context.Context, id string) (*domain.ProblemType, error) {
	const query = `SELECT id, name, slug, display_order, created_at FROM problem_types WHERE id=$1`
	var pt domain.ProblemType
	if err := r.db.QueryRow(ctx, query, id).Scan(&pt.ID, &pt.Name, &pt.Slug, &pt.DisplayOrder, &pt.CreatedAt); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *problemTypeRepository) List(ctx context.Context) ([]domain.ProblemType, error) {
	const query = `SELECT id, name, slug, display_order, created_at FROM problem_types ORDER BY display_order ASC, name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProblemType
	for rows.Next() {
		var pt domain.ProblemType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.Slug, &pt.DisplayOrder, &pt.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}

func (r *problemTypeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM problem_types WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

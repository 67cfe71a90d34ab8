package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ActivityRepository stores technician work logs.
type ActivityRepository interface {
	Create(ctx context.Context, a *domain.TechnicianActivity) error
	ListByTechnician(ctx context.Context, technicianID string, from, to *time.Time) ([]domain.TechnicianActivity, error)
	Delete(ctx context.Context, id, technicianID string) (bool, error)
}

type activityRepository struct {
	db DBTX
}

// NewActivityRepository builds repository.
func NewActivityRepository(db DBTX) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a *domain.TechnicianActivity) error {
	const query = `
        INSERT INTO technician_activities (technician_id, activity_date, title, description, location)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, a.TechnicianID, a.ActivityDate, a.Title, a.Description, a.Location).
		Scan(&a.ID, &a.CreatedAt)
}

func (r *activityRepository) ListByTechnician(ctx context.Context, technicianID string, from, to *time.Time) ([]domain.TechnicianActivity, error) {
	const query = `
        SELECT id, technician_id, activity_date, title, description, location, created_at
        FROM technician_activities
        WHERE technician_id=$1
          AND ($2::timestamptz IS NULL OR activity_date >= $2)
          AND ($3::timestamptz IS NULL OR activity_date <= $3)
        ORDER BY activity_date DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, technicianID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TechnicianActivity
	for rows.Next() {
		var a domain.TechnicianActivity
		if err := rows.Scan(&a.ID, &a.TechnicianID, &a.ActivityDate, &a.Title, &a.Description, &a.Location, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Delete only removes activities owned by technicianID.
func (r *activityRepository) Delete(ctx context.Context, id, technicianID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM technician_activities WHERE id=$1 AND technician_id=$2`, id, technicianID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

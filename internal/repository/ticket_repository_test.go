package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTicketRepository_ClaimWinsOnce(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectExec(`UPDATE tickets\s+SET assigned_to=\$1`).
		WithArgs("tech-1", domain.TicketStatusInProgress, "ticket-1", domain.TicketStatusNew).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE tickets\s+SET assigned_to=\$1`).
		WithArgs("tech-2", domain.TicketStatusInProgress, "ticket-1", domain.TicketStatusNew).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.Claim(context.Background(), "ticket-1", "tech-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Claim(context.Background(), "ticket-1", "tech-2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdateStatusGuardsCurrentState(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectExec(`UPDATE tickets\s+SET status=\$1`).
		WithArgs(domain.TicketStatusCancelled, pgxmock.AnyArg(), "ticket-1", domain.TicketStatusInProgress).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.UpdateStatus(context.Background(), "ticket-1", domain.TicketStatusInProgress, domain.TicketStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_UpdatePriorityMissingTicket(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectExec(`UPDATE tickets SET priority=\$1`).
		WithArgs(pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	high := domain.TicketPriorityHigh
	err := repo.UpdatePriority(context.Background(), "missing", &high)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTicketRepository_SoftDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectExec(`UPDATE tickets SET is_active=FALSE`).
		WithArgs("ticket-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.SoftDelete(context.Background(), "ticket-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_CountAppliesFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	category := domain.CategoryB
	search := "  AC  "
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tickets t WHERE t.is_active AND t.category=\$1 AND t.status IN \(\$2,\$3\)`).
		WithArgs(category, domain.TicketStatusNew, domain.TicketStatusInProgress, "%ac%").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.Count(context.Background(), TicketFilter{
		Category:   &category,
		Statuses:   []domain.TicketStatus{domain.TicketStatusNew, domain.TicketStatusInProgress},
		SearchTerm: &search,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildTicketWhere_Participant(t *testing.T) {
	participant := "tech-9"
	where, args := buildTicketWhere(TicketFilter{ParticipantID: &participant})
	assert.Contains(t, where, "t.assigned_to=$1 OR EXISTS")
	assert.Contains(t, where, "ca.technician_id=$1")
	assert.Equal(t, []any{"tech-9"}, args)
}

func TestCoAssignmentRepository_DuplicateIsConflict(t *testing.T) {
	mock := newMock(t)
	repo := NewCoAssignmentRepository(mock)

	mock.ExpectQuery(`INSERT INTO ticket_co_assignments`).
		WithArgs("ticket-1", "tech-2", "tech-1").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Add(context.Background(), &domain.CoAssignment{TicketID: "ticket-1", TechnicianID: "tech-2", AssignedBy: "tech-1"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestNotificationRepository_MarkReadScopedToOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewNotificationRepository(mock)

	mock.ExpectExec(`UPDATE notifications SET is_read=TRUE WHERE id=\$1 AND user_id=\$2`).
		WithArgs("n-1", "someone-else").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.MarkRead(context.Background(), "someone-else", "n-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

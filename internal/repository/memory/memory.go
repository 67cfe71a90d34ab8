// Package memory holds in-memory repository implementations used by tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// checkKey rejects keys Postgres could not cast to uuid, with the same SQLSTATE.
func checkKey(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &pgconn.PgError{Code: "22P02", Message: fmt.Sprintf("invalid input syntax for type uuid: %q", id)}
	}
	return nil
}

// TicketRepo mirrors the Postgres ticket repository's conditional updates.
type TicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
	coAssn  *CoAssignmentRepo
	users   *UserRepo
}

// NewTicketRepo resolves participants through co and assignee names through users.
func NewTicketRepo(co *CoAssignmentRepo, users *UserRepo) *TicketRepo {
	return &TicketRepo{tickets: map[string]*domain.Ticket{}, coAssn: co, users: users}
}

func (r *TicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tickets {
		if existing.TicketNumber == t.TicketNumber {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.seq++
	t.ID = uuid.NewString()
	t.IsActive = true
	t.CreatedAt = time.Date(2025, 1, 1, 8, 0, r.seq, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	stored := *t
	r.tickets[t.ID] = &stored
	return nil
}

func (r *TicketRepo) withNames(t domain.Ticket) *domain.Ticket {
	if t.AssignedTo != nil && r.users != nil {
		if u, ok := r.users.users[*t.AssignedTo]; ok {
			name := u.FullName
			t.AssigneeName = &name
		}
	}
	return &t
}

func (r *TicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	if err := checkKey(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.withNames(*t), nil
}

func (r *TicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketNumber == number {
			return r.withNames(*t), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *TicketRepo) Claim(_ context.Context, id, technicianID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || !t.IsActive || t.AssignedTo != nil || t.Status != domain.TicketStatusNew {
		return false, nil
	}
	now := time.Now()
	tech := technicianID
	t.AssignedTo = &tech
	t.Status = domain.TicketStatusInProgress
	t.PickedUpAt = &now
	t.StatusChangedAt = &now
	return true, nil
}

func (r *TicketRepo) UpdateStatus(_ context.Context, id string, from, to domain.TicketStatus, completedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || !t.IsActive || t.Status != from {
		return false, nil
	}
	now := time.Now()
	t.Status = to
	t.StatusChangedAt = &now
	if completedAt != nil {
		t.CompletedAt = completedAt
	}
	return true, nil
}

func (r *TicketRepo) UpdatePriority(_ context.Context, id string, priority *domain.TicketPriority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || !t.IsActive {
		return pgx.ErrNoRows
	}
	t.Priority = priority
	return nil
}

func (r *TicketRepo) UpdateProof(_ context.Context, id, proofURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || !t.IsActive {
		return pgx.ErrNoRows
	}
	t.ProofPhotoURL = &proofURL
	return nil
}

func (r *TicketRepo) SoftDelete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || !t.IsActive {
		return false, nil
	}
	t.IsActive = false
	return true, nil
}

func (r *TicketRepo) matching(filter repository.TicketFilter) []domain.Ticket {
	var result []domain.Ticket
	for _, t := range r.tickets {
		if !t.IsActive {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.ParticipantID != nil && !t.IsAssignedTo(*filter.ParticipantID) && !r.coAssn.has(t.ID, *filter.ParticipantID) {
			continue
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(*filter.SearchTerm)
			hay := strings.ToLower(t.TicketNumber + " " + t.ReporterName + " " + t.ReporterUnit + " " + t.Description)
			if !strings.Contains(hay, term) {
				continue
			}
		}
		result = append(result, *r.withNames(*t))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (r *TicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(filter)
	if filter.Offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return all[filter.Offset:end], nil
}

func (r *TicketRepo) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(filter)), nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

type CoAssignmentRepo struct {
	mu   sync.Mutex
	rows []domain.CoAssignment
}

func (r *CoAssignmentRepo) has(ticketID, technicianID string) bool {
	for _, ca := range r.rows {
		if ca.TicketID == ticketID && ca.TechnicianID == technicianID {
			return true
		}
	}
	return false
}

func (r *CoAssignmentRepo) Add(_ context.Context, ca *domain.CoAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.has(ca.TicketID, ca.TechnicianID) {
		return apperrors.NewConflict("technician already co-assigned", nil)
	}
	ca.ID = uuid.NewString()
	ca.CreatedAt = time.Now()
	r.rows = append(r.rows, *ca)
	return nil
}

func (r *CoAssignmentRepo) Exists(_ context.Context, ticketID, technicianID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.has(ticketID, technicianID), nil
}

func (r *CoAssignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.CoAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.CoAssignment
	for _, ca := range r.rows {
		if ca.TicketID == ticketID {
			result = append(result, ca)
		}
	}
	return result, nil
}

type ActionRepo struct {
	mu   sync.Mutex
	rows []domain.TicketAction
}

func (r *ActionRepo) Append(_ context.Context, a *domain.TicketAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Date(2025, 1, 1, 9, 0, len(r.rows), 0, time.UTC)
	r.rows = append(r.rows, *a)
	return nil
}

// Rows returns the journal in insertion order.
func (r *ActionRepo) Rows() []domain.TicketAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TicketAction(nil), r.rows...)
}

func (r *ActionRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketAction
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].TicketID == ticketID {
			result = append(result, r.rows[i])
		}
	}
	return result, nil
}

func (r *ActionRepo) LatestByTickets(ctx context.Context, ids []string) (map[string]domain.TicketAction, error) {
	result := map[string]domain.TicketAction{}
	for _, id := range ids {
		list, _ := r.ListByTicket(ctx, id)
		if len(list) > 0 {
			result[id] = list[0]
		}
	}
	return result, nil
}

type UserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUserRepo(users ...domain.User) *UserRepo {
	r := &UserRepo{users: map[string]*domain.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	u.ID = uuid.NewString()
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *UserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if err := checkKey(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *UserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (r *UserRepo) SetPushSubscription(_ context.Context, id string, sub json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PushSubscription = sub
	return nil
}

type ProblemTypeRepo struct {
	items map[string]domain.ProblemType
}

func NewProblemTypeRepo(items ...domain.ProblemType) *ProblemTypeRepo {
	r := &ProblemTypeRepo{items: map[string]domain.ProblemType{}}
	for _, pt := range items {
		r.items[pt.ID] = pt
	}
	return r
}

func (r *ProblemTypeRepo) Create(_ context.Context, pt *domain.ProblemType) error {
	for _, existing := range r.items {
		if existing.Slug == pt.Slug {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	pt.ID = uuid.NewString()
	r.items[pt.ID] = *pt
	return nil
}

func (r *ProblemTypeRepo) Update(_ context.Context, pt *domain.ProblemType) error {
	if _, ok := r.items[pt.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[pt.ID] = *pt
	return nil
}

func (r *ProblemTypeRepo) GetByID(_ context.Context, id string) (*domain.ProblemType, error) {
	if err := checkKey(id); err != nil {
		return nil, err
	}
	pt, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &pt, nil
}

func (r *ProblemTypeRepo) List(_ context.Context) ([]domain.ProblemType, error) {
	var result []domain.ProblemType
	for _, pt := range r.items {
		result = append(result, pt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DisplayOrder < result[j].DisplayOrder })
	return result, nil
}

func (r *ProblemTypeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type NotificationRepo struct {
	mu   sync.Mutex
	rows []domain.Notification
}

func (r *NotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *NotificationRepo) Rows() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.rows...)
}

func (r *NotificationRepo) forUser(userID string) []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func (r *NotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	var result []domain.Notification
	for _, n := range r.forUser(userID) {
		if unreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (r *NotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range r.forUser(userID) {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].UserID == userID && !r.rows[i].IsRead {
			r.rows[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// FileStore records public URLs instead of writing files.
type FileStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

// Removed lists URLs passed to Remove.
func (f *FileStore) Removed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *FileStore) Remove(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, url)
	return nil
}

func (f *FileStore) Saved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.saved...)
}

func (f *FileStore) Save(_ context.Context, folder string, upload storage.Upload) (string, error) {
	url := "/uploads/" + folder + "/" + upload.Filename
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, url)
	return url, nil
}

// Publisher collects published events.
type Publisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *Publisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *Publisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *Publisher) OfType(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var result []events.Event
	for _, e := range p.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}


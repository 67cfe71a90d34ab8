package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanChangeStatus(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusInProgress, TicketStatusDone, true},
		{TicketStatusInProgress, TicketStatusCancelled, true},
		{TicketStatusNew, TicketStatusDone, false},
		{TicketStatusNew, TicketStatusInProgress, false},
		{TicketStatusInProgress, TicketStatusNew, false},
		{TicketStatusInProgress, TicketStatusInProgress, false},
		{TicketStatusDone, TicketStatusCancelled, false},
		{TicketStatusCancelled, TicketStatusDone, false},
		{TicketStatusDone, TicketStatusInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanChangeStatus(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRoleCategory(t *testing.T) {
	cat, ok := RoleTechnicianA.Category()
	assert.True(t, ok)
	assert.Equal(t, CategoryA, cat)

	cat, ok = RoleTechnicianB.Category()
	assert.True(t, ok)
	assert.Equal(t, CategoryB, cat)

	_, ok = RoleAdmin.Category()
	assert.False(t, ok)
	assert.False(t, RoleAdmin.IsTechnician())

	role, ok := TechnicianRoleFor(CategoryB)
	assert.True(t, ok)
	assert.Equal(t, RoleTechnicianB, role)
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, TicketStatusDone.IsValid())
	assert.False(t, TicketStatus("Baru").IsValid())
	assert.True(t, TicketPriorityLow.IsValid())
	assert.False(t, TicketPriority("Urgent").IsValid())
	assert.True(t, ActionWaiting.IsValid())
	assert.False(t, ActionType("done").IsValid())
	assert.False(t, TicketCategory("C").IsValid())
	assert.False(t, Role("superuser").IsValid())
	assert.True(t, TicketStatusCancelled.IsTerminal())
	assert.False(t, TicketStatusInProgress.IsTerminal())
}

package domain

// Role enumerates account roles. Every account has exactly one.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleTechnicianA Role = "technician_a"
	RoleTechnicianB Role = "technician_b"
)

// TicketCategory is one of the two fixed problem domains.
type TicketCategory string

const (
	// CategoryA covers hospital information systems (SIMRS).
	CategoryA TicketCategory = "A"
	// CategoryB covers facilities and equipment (IPSRS).
	CategoryB TicketCategory = "B"
)

var roleCategories = map[Role]TicketCategory{
	RoleTechnicianA: CategoryA,
	RoleTechnicianB: CategoryB,
}

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTechnicianA, RoleTechnicianB}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTechnicianA, RoleTechnicianB:
		return true
	}
	return false
}

// IsTechnician reports whether r is a category-bearing role.
func (r Role) IsTechnician() bool {
	_, ok := roleCategories[r]
	return ok
}

// Category returns the ticket category served by r; ok is false for admins.
func (r Role) Category() (TicketCategory, bool) {
	c, ok := roleCategories[r]
	return c, ok
}

// TechnicianRoleFor returns the technician role that serves category c.
func TechnicianRoleFor(c TicketCategory) (Role, bool) {
	for role, cat := range roleCategories {
		if cat == c {
			return role, true
		}
	}
	return "", false
}

// IsValid reports whether c is one of the two categories.
func (c TicketCategory) IsValid() bool {
	return c == CategoryA || c == CategoryB
}

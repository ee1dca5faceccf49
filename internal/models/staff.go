package models

import (
	"time"

	"github.com/google/uuid"
)

// PermissionAll grants every permission.
const PermissionAll = "*"

const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Permissions []string  `json:"permissions" db:"permissions"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Grants reports whether the role carries the permission or the wildcard.
func (r *Role) Grants(permission string) bool {
	for _, p := range r.Permissions {
		if p == PermissionAll || p == permission {
			return true
		}
	}
	return false
}

type Employee struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	TenantID            uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	RoleID              uuid.UUID  `json:"role_id" db:"role_id"`
	UserID              *uuid.UUID `json:"user_id" db:"user_id"`
	FullName            string     `json:"full_name" db:"full_name"`
	Email               string     `json:"email" db:"email"`
	Position            string     `json:"position" db:"position"`
	WeeklyCapacityHours int        `json:"weekly_capacity_hours" db:"weekly_capacity_hours"`
	HourlyRate          int64      `json:"hourly_rate" db:"hourly_rate"`
	Status              string     `json:"status" db:"status"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// WorkloadAllocation assigns Hours of work to an employee spread over
// StartDate..EndDate inclusive.
type WorkloadAllocation struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	EmployeeID uuid.UUID  `json:"employee_id" db:"employee_id"`
	TenderID   *uuid.UUID `json:"tender_id" db:"tender_id"`
	Title      string     `json:"title" db:"title"`
	StartDate  time.Time  `json:"start_date" db:"start_date"`
	EndDate    time.Time  `json:"end_date" db:"end_date"`
	Hours      int        `json:"hours" db:"hours"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

type WorkloadFilter struct {
	EmployeeID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

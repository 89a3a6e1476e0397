/*
Package leave specializes the lifecycle engine for leave/permission requests.

An employee's employment record is the guarded resource; a leave request is a
time-scoped claim on their calendar. Requests start Pending and need a
reviewer's decision; approved intervals must never overlap for the same
employee (inclusive boundaries), and the employment status
tracks whichever approved request currently governs the calendar. A periodic
sweep reverts the status to Working once the governing interval elapses.
*/
package leave

import "github.com/warp/lifecycle-engine/generic"

// Domain tags employment resources in storage.
const Domain = "leave"

// Employment statuses (closed set).
const (
	StatusWorking         generic.ResourceStatus = "working"
	StatusOnMedicalLeave  generic.ResourceStatus = "on_medical_leave"
	StatusOnPersonalLeave generic.ResourceStatus = "on_personal_leave"
	StatusTerminated      generic.ResourceStatus = "terminated"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is the kind of leave being requested. Each category implies its
// own payload rules and on-leave employment status.
type Category string

const (
	CategoryMedical  Category = "medical"
	CategoryPersonal Category = "personal"
)

func (c Category) Valid() bool {
	return c == CategoryMedical || c == CategoryPersonal
}

// RequiresAttachment reports whether the category demands a supporting
// document reference (medical certificate). The engine never opens the
// attachment; it only enforces presence or absence of the reference.
func (c Category) RequiresAttachment() bool {
	return c == CategoryMedical
}

// Status returns the employment status an approved request of this category
// projects onto the employee.
func (c Category) Status() generic.ResourceStatus {
	switch c {
	case CategoryMedical:
		return StatusOnMedicalLeave
	case CategoryPersonal:
		return StatusOnPersonalLeave
	default:
		return StatusWorking
	}
}

// =============================================================================
// IDENTITY
// =============================================================================

// Role is the acting identity's role as supplied by the identity provider.
// The engine consumes identity, it never authenticates.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

// CanReview reports whether the role may decide requests.
func (r Role) CanReview() bool {
	return r == RoleManager || r == RoleHR
}

// Identity is who is performing an operation.
type Identity struct {
	ID   string
	Role Role
}

// NewEmployee builds a Working employment resource.
func NewEmployee(id generic.ResourceID, name string) generic.Resource {
	return generic.Resource{
		ID:     id,
		Domain: Domain,
		Name:   name,
		Status: StatusWorking,
	}
}

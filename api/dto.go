/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Machines:  MachineDTO, CreateMachineRequest, SaleDTO, CreateSaleRequest
  Employees: EmployeeDTO, CreateEmployeeRequest, LeaveDTO,
             CreateLeaveRequest, DecideLeaveRequest
  Admin:     SweepResultDTO, SweepRunDTO, AuditEntryDTO

VALIDATION:
  Structural validation (JSON decoding, date formats) happens in handlers;
  business validation lives in the domain services.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/store/sqlite"
)

// =============================================================================
// MACHINES & SALES
// =============================================================================

// MachineDTO represents a machine in API responses.
type MachineDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateMachineRequest is the request to register a machine.
type CreateMachineRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SaleDTO represents a sale record in API responses.
type SaleDTO struct {
	ID         string `json:"id"`
	MachineID  string `json:"machine_id"`
	CustomerID string `json:"customer_id"`
	SoldBy     string `json:"sold_by,omitempty"`
	Start      string `json:"start"`
	Price      string `json:"price,omitempty"`
	Tag        string `json:"tag"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateSaleRequest is the request to record a sale.
type CreateSaleRequest struct {
	CustomerID string `json:"customer_id"`
	SoldBy     string `json:"sold_by"`
	Start      string `json:"start"` // YYYY-MM-DD, defaults to today
	Price      string `json:"price"`
	Notes      string `json:"notes"`
}

// =============================================================================
// EMPLOYEES & LEAVE
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeaveDTO represents a leave request in API responses.
type LeaveDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	Category      string `json:"category"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
	Tag           string `json:"tag"`
	Reason        string `json:"reason,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
	RequestedBy   string `json:"requested_by,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`
	DecidedAt     string `json:"decided_at,omitempty"`
	Comment       string `json:"comment,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateLeaveRequest is the request to file a leave request.
type CreateLeaveRequest struct {
	RequesterID   string `json:"requester_id"`
	RequesterRole string `json:"requester_role"`
	Category      string `json:"category"`
	Start         string `json:"start"` // YYYY-MM-DD
	End           string `json:"end"`   // YYYY-MM-DD
	Reason        string `json:"reason"`
	AttachmentRef string `json:"attachment_ref"`
}

// DecideLeaveRequest is the request to approve or reject a leave request.
type DecideLeaveRequest struct {
	ReviewerID   string `json:"reviewer_id"`
	ReviewerRole string `json:"reviewer_role"`
	Decision     string `json:"decision"` // "approved" or "rejected"
	Comment      string `json:"comment"`
}

// =============================================================================
// ADMIN
// =============================================================================

// SweepResultDTO reports the outcome of a manually triggered sweep.
type SweepResultDTO struct {
	AsOf     string `json:"as_of"`
	Reverted int    `json:"reverted"`
}

// SweepRunDTO represents a recorded sweep run.
type SweepRunDTO struct {
	ID          string `json:"id"`
	AsOf        string `json:"as_of"`
	Reverted    int    `json:"reverted"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// AuditEntryDTO represents an audit log entry.
type AuditEntryDTO struct {
	ID         string `json:"id"`
	At         string `json:"at"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	ResourceID string `json:"resource_id"`
	RecordID   string `json:"record_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toMachineDTO(r generic.Resource) MachineDTO {
	return MachineDTO{
		ID:        string(r.ID),
		Name:      r.Name,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toEmployeeDTO(r generic.Resource) EmployeeDTO {
	return EmployeeDTO{
		ID:        string(r.ID),
		Name:      r.Name,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

func toSaleDTO(rec generic.ClaimRecord) SaleDTO {
	dto := SaleDTO{
		ID:         string(rec.ID),
		MachineID:  string(rec.ResourceID),
		CustomerID: string(rec.SubjectID),
		SoldBy:     string(rec.RequesterID),
		Start:      rec.Interval.Start.String(),
		Tag:        string(rec.Tag),
		Notes:      rec.Reason,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Price != nil {
		dto.Price = rec.Price.String()
	}
	return dto
}

func toLeaveDTO(rec generic.ClaimRecord) LeaveDTO {
	dto := LeaveDTO{
		ID:            string(rec.ID),
		EmployeeID:    string(rec.ResourceID),
		Category:      rec.Category,
		Start:         rec.Interval.Start.String(),
		Status:        string(rec.Status),
		Tag:           string(rec.Tag),
		Reason:        rec.Reason,
		AttachmentRef: rec.AttachmentRef,
		RequestedBy:   string(rec.RequesterID),
		DecidedBy:     rec.DecidedBy,
		Comment:       rec.Comment,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Interval.End != nil {
		dto.End = rec.Interval.End.String()
	}
	if rec.DecidedAt != nil {
		dto.DecidedAt = rec.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toSweepRunDTO(run sqlite.SweepRun) SweepRunDTO {
	dto := SweepRunDTO{
		ID:        run.ID,
		AsOf:      run.AsOf.String(),
		Reverted:  run.Reverted,
		Error:     run.Error,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		dto.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:         e.ID,
		At:         e.At.Format(time.RFC3339),
		ActorID:    e.ActorID,
		Action:     string(e.Action),
		ResourceID: string(e.ResourceID),
		RecordID:   string(e.RecordID),
		Detail:     e.Detail,
	}
}

/*
handlers.go - HTTP API handlers for the lifecycle engine

PURPOSE:
  Exposes the sale and leave lifecycles via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Machines & Sales:
    GET    /api/machines                 List machines with status
    POST   /api/machines                 Register machine
    GET    /api/machines/{id}            Get machine details
    GET    /api/machines/{id}/sales      Sale history (includes released)
    POST   /api/machines/{id}/sales      Record a sale
    GET    /api/sales/{id}               Get sale details
    DELETE /api/sales/{id}               Release (soft-delete) a sale
    POST   /api/sales/{id}/restore       Restore a released sale

  Employees & Leave:
    GET    /api/employees                List employees with status
    POST   /api/employees                Register employee
    GET    /api/employees/{id}           Get employee details
    GET    /api/employees/{id}/leaves    Leave request history
    POST   /api/employees/{id}/leaves    File a leave request
    GET    /api/leaves/{id}              Get leave request details
    POST   /api/leaves/{id}/decide       Approve or reject a request

  Admin:
    POST   /api/admin/sweep              Trigger an expiry sweep now
    GET    /api/admin/sweeps             List recorded sweep runs
    GET    /api/audit                    Audit trail (?resource_id= filter)

ERROR HANDLING:
  Domain errors map to HTTP status via their sentinel class:
  - 400: validation errors
  - 403: permission errors (role checks, self-approval)
  - 404: unknown resources and records
  - 409: conflicts (double sale, overlap, double decision)
  - 500: everything else

SECURITY NOTE:
  Actor identity and role come from the request body. There is no
  authentication middleware; put this behind a gateway in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/leave"
	"github.com/warp/lifecycle-engine/sales"
	"github.com/warp/lifecycle-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Sales *sales.Service
	Leave *leave.Service
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Sales: sales.NewService(store),
		Leave: leave.NewService(store, nil),
	}
}

// =============================================================================
// MACHINE HANDLERS
// =============================================================================

// ListMachines returns all machines with their current status.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.Sales.ListMachines(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list machines", err)
		return
	}

	dtos := make([]MachineDTO, len(machines))
	for i, m := range machines {
		dtos[i] = toMachineDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateMachine registers a new machine.
func (h *Handler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var req CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	m, err := h.Sales.RegisterMachine(r.Context(), generic.ResourceID(req.ID), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to register machine", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMachineDTO(*m))
}

// GetMachine returns a single machine.
func (h *Handler) GetMachine(w http.ResponseWriter, r *http.Request) {
	m, err := h.Sales.GetMachine(r.Context(), generic.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get machine", err)
		return
	}
	writeJSON(w, http.StatusOK, toMachineDTO(*m))
}

// MachineSales returns a machine's sale history, most recent first.
func (h *Handler) MachineSales(w http.ResponseWriter, r *http.Request) {
	records, err := h.Sales.MachineSales(r.Context(), generic.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(records))
	for i, rec := range records {
		dtos[i] = toSaleDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale records a sale of the machine in the URL.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start := generic.Today()
	if req.Start != "" {
		var err error
		start, err = generic.ParseDate(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
			return
		}
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid price", err)
		return
	}

	rec, err := h.Sales.CreateSale(r.Context(), sales.SaleInput{
		MachineID:  generic.ResourceID(chi.URLParam(r, "id")),
		CustomerID: generic.SubjectID(req.CustomerID),
		SoldBy:     req.SoldBy,
		Start:      start,
		Price:      price,
		Notes:      req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*rec))
}

// GetSale returns a single sale record.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Sales.GetSale(r.Context(), generic.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*rec))
}

// ReleaseSale soft-deletes a sale and frees the machine.
func (h *Handler) ReleaseSale(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		actor = "api"
	}

	if err := h.Sales.ReleaseSale(r.Context(), generic.RecordID(chi.URLParam(r, "id")), actor); err != nil {
		writeDomainError(w, "Failed to release sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreSale restores a released sale and claims the machine again.
func (h *Handler) RestoreSale(w http.ResponseWriter, r *http.Request) {
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		actor = "api"
	}

	rec, err := h.Sales.RestoreSale(r.Context(), generic.RecordID(chi.URLParam(r, "id")), actor)
	if err != nil {
		writeDomainError(w, "Failed to restore sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*rec))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees with their employment status.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Leave.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	e, err := h.Leave.RegisterEmployee(r.Context(), generic.ResourceID(req.ID), req.Name)
	if err != nil {
		writeDomainError(w, "Failed to register employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*e))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Leave.GetEmployee(r.Context(), generic.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*e))
}

// EmployeeLeaves returns an employee's leave requests, most recent first.
func (h *Handler) EmployeeLeaves(w http.ResponseWriter, r *http.Request) {
	records, err := h.Leave.EmployeeRequests(r.Context(), generic.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveDTO, len(records))
	for i, rec := range records {
		dtos[i] = toLeaveDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// CreateLeave files a leave request for the employee in the URL.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := generic.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date (use YYYY-MM-DD)", err)
		return
	}
	end, err := generic.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Leave.CreateRequest(r.Context(), leave.RequestInput{
		EmployeeID:    generic.ResourceID(chi.URLParam(r, "id")),
		Requester:     leave.Identity{ID: req.RequesterID, Role: leave.Role(req.RequesterRole)},
		Category:      leave.Category(req.Category),
		Start:         start,
		End:           end,
		Reason:        req.Reason,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		writeDomainError(w, "Failed to file leave request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(*rec))
}

// GetLeave returns a single leave request.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Leave.GetRequest(r.Context(), generic.RecordID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*rec))
}

// DecideLeave approves or rejects a pending leave request.
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	var req DecideLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Leave.Decide(r.Context(),
		generic.RecordID(chi.URLParam(r, "id")),
		leave.Identity{ID: req.ReviewerID, Role: leave.Role(req.ReviewerRole)},
		generic.Decision(req.Decision),
		req.Comment,
	)
	if err != nil {
		writeDomainError(w, "Failed to decide leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*rec))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerSweep runs an expiry sweep immediately.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	asOf := generic.Today()
	if q := r.URL.Query().Get("as_of"); q != "" {
		var err error
		asOf, err = generic.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
			return
		}
	}

	reverted, err := h.Leave.SweepExpired(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, SweepResultDTO{AsOf: asOf.String(), Reverted: reverted})
}

// ListSweepRuns returns the most recent recorded sweep runs.
func (h *Handler) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListSweepRuns(r.Context(), 50)
	if err != nil {
		writeDomainError(w, "Failed to list sweep runs", err)
		return
	}

	dtos := make([]SweepRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toSweepRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListAudit returns the audit trail, optionally filtered by resource.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	resourceID := generic.ResourceID(r.URL.Query().Get("resource_id"))

	entries, err := h.Store.AuditEntries(r.Context(), resourceID)
	if err != nil {
		writeDomainError(w, "Failed to list audit entries", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to its HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsPermissionDenied(err):
		return http.StatusForbidden
	case generic.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

/*
service.go - Machinery sale lifecycle

PURPOSE:
  Orchestrates the sale lifecycle around the exclusivity guard:

    CreateSale   machine Available -> Sold, new active sale record
    ReleaseSale  sale soft-deleted, machine Sold -> Available
    RestoreSale  sale re-activated, machine Available -> Sold

  Every operation runs its guarded read-validate-write sequence inside one
  store transaction; a precondition failure aborts with no partial writes.

SEE ALSO:
  - generic/guard.go: the exclusivity and purge-on-claim mechanics
  - leave/service.go: the approval-workflow sibling of this package
*/
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lifecycle-engine/generic"
)

// Service handles the machinery sale lifecycle.
type Service struct {
	Store generic.TxStore

	guard generic.Guard
}

// NewService creates a sale service on the given store.
func NewService(store generic.TxStore) *Service {
	return &Service{Store: store}
}

// SaleInput is the payload for recording a sale.
type SaleInput struct {
	MachineID  generic.ResourceID
	CustomerID generic.SubjectID
	SoldBy     string // actor recording the sale
	Start      generic.Date
	Price      decimal.Decimal
	Notes      string
}

func (in SaleInput) validate() error {
	if in.MachineID == "" {
		return &generic.ValidationFieldError{Field: "machine_id", Message: "machine id is required"}
	}
	if in.CustomerID == "" {
		return &generic.ValidationFieldError{Field: "customer_id", Message: "customer id is required"}
	}
	if in.Start.IsZero() {
		return &generic.ValidationFieldError{Field: "start", Message: "sale date is required"}
	}
	if !in.Price.IsPositive() {
		return &generic.ValidationFieldError{Field: "price", Message: "price must be positive"}
	}
	return nil
}

// CreateSale records a sale for an Available machine. The machine flips to
// Sold and any soft-deleted sale history for it is purged. Fails with
// Conflict if the machine already has an active sale or is not Available.
func (s *Service) CreateSale(ctx context.Context, in SaleInput) (*generic.ClaimRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	price := in.Price
	rec := &generic.ClaimRecord{
		ID:          generic.RecordID(generic.NewID()),
		ResourceID:  in.MachineID,
		SubjectID:   in.CustomerID,
		RequesterID: generic.SubjectID(in.SoldBy),
		Interval:    generic.OpenInterval(in.Start),
		Status:      generic.StatusApproved, // sales are decided at creation
		Category:    CategorySale,
		Price:       &price,
		Reason:      in.Notes,
	}

	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		purged, err := s.guard.Activate(ctx, tx, rec, StatusAvailable, StatusSold)
		if err != nil {
			return err
		}
		if purged > 0 {
			if err := tx.AppendAudit(ctx, generic.NewAuditEntry(in.SoldBy, generic.AuditClaimPurged,
				in.MachineID, "", fmt.Sprintf("purged %d reclaimable sale(s) on fresh claim", purged))); err != nil {
				return err
			}
		}
		return tx.AppendAudit(ctx, generic.NewAuditEntry(in.SoldBy, generic.AuditClaimCreated,
			in.MachineID, rec.ID, "machine sold to "+string(in.CustomerID)))
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ReleaseSale soft-deletes an active sale and returns the machine to
// Available. The sale remains restorable until the machine is sold again.
func (s *Service) ReleaseSale(ctx context.Context, saleID generic.RecordID, actor string) error {
	return s.Store.WithTx(ctx, func(tx generic.Store) error {
		rec, err := s.guard.Deactivate(ctx, tx, saleID, StatusAvailable)
		if err != nil {
			return err
		}
		return tx.AppendAudit(ctx, generic.NewAuditEntry(actor, generic.AuditClaimReleased,
			rec.ResourceID, rec.ID, "sale released, machine available again"))
	})
}

// RestoreSale re-activates a soft-deleted sale, provided the machine is
// still Available and nothing else has claimed it. Returns the restored
// record.
func (s *Service) RestoreSale(ctx context.Context, saleID generic.RecordID, actor string) (*generic.ClaimRecord, error) {
	var rec *generic.ClaimRecord
	err := s.Store.WithTx(ctx, func(tx generic.Store) error {
		restored, err := s.guard.Restore(ctx, tx, saleID, StatusAvailable, StatusSold)
		if err != nil {
			return err
		}
		rec = restored
		return tx.AppendAudit(ctx, generic.NewAuditEntry(actor, generic.AuditClaimRestored,
			rec.ResourceID, rec.ID, "sale restored, machine sold again"))
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// =============================================================================
// MACHINE MANAGEMENT & QUERIES
// =============================================================================

// RegisterMachine adds a new Available machine.
func (s *Service) RegisterMachine(ctx context.Context, id generic.ResourceID, name string) (*generic.Resource, error) {
	if id == "" {
		return nil, &generic.ValidationFieldError{Field: "id", Message: "machine id is required"}
	}
	m := NewMachine(id, name)
	m.CreatedAt = time.Now().UTC()
	if err := s.Store.SaveResource(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMachine returns a machine by id.
func (s *Service) GetMachine(ctx context.Context, id generic.ResourceID) (*generic.Resource, error) {
	m, err := s.Store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Domain != Domain {
		return nil, &generic.NotFoundError{Kind: "machine", ID: string(id)}
	}
	return m, nil
}

// ListMachines returns all machines.
func (s *Service) ListMachines(ctx context.Context) ([]generic.Resource, error) {
	return s.Store.ListResources(ctx, Domain)
}

// MachineSales returns the sale history of a machine, most recent first.
func (s *Service) MachineSales(ctx context.Context, machineID generic.ResourceID) ([]generic.ClaimRecord, error) {
	return s.Store.RecordsByResource(ctx, machineID)
}

// GetSale returns a sale record by id.
func (s *Service) GetSale(ctx context.Context, id generic.RecordID) (*generic.ClaimRecord, error) {
	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Category != CategorySale {
		return nil, &generic.NotFoundError{Kind: "sale", ID: string(id)}
	}
	return rec, nil
}

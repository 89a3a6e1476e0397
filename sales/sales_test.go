package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/generic/store"
	"github.com/warp/lifecycle-engine/sales"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*sales.Service, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	return sales.NewService(mem), mem
}

func registerMachine(t *testing.T, svc *sales.Service, id string) {
	t.Helper()
	_, err := svc.RegisterMachine(context.Background(), generic.ResourceID(id), "Excavator "+id)
	require.NoError(t, err)
}

func saleInput(machineID, customerID string) sales.SaleInput {
	return sales.SaleInput{
		MachineID:  generic.ResourceID(machineID),
		CustomerID: generic.SubjectID(customerID),
		SoldBy:     "rep-1",
		Start:      generic.NewDate(2026, time.March, 10),
		Price:      decimal.NewFromInt(45000),
	}
}

func machineStatus(t *testing.T, mem *store.TxMemory, id string) generic.ResourceStatus {
	t.Helper()
	res, err := mem.GetResource(context.Background(), generic.ResourceID(id))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res.Status
}

// =============================================================================
// SALE LIFECYCLE TESTS
// =============================================================================

func TestCreateSale_MachineBecomesSold(t *testing.T) {
	// GIVEN: An available machine
	// WHEN: Recording a sale
	// THEN: The machine is Sold and the sale record is live and exclusive

	svc, mem := newTestService(t)
	registerMachine(t, svc, "m-1")

	rec, err := svc.CreateSale(context.Background(), saleInput("m-1", "cust-1"))
	require.NoError(t, err)

	assert.Equal(t, sales.StatusSold, machineStatus(t, mem, "m-1"))
	assert.Equal(t, generic.StatusApproved, rec.Status)
	assert.Equal(t, generic.TagActive, rec.Tag)
	assert.True(t, rec.Exclusive)
	require.NotNil(t, rec.Price)
	assert.True(t, rec.Price.Equal(decimal.NewFromInt(45000)))
	assert.Nil(t, rec.Interval.End, "sales are open-ended")
}

func TestCreateSale_SecondSale_Conflict(t *testing.T) {
	// GIVEN: A machine with an active sale
	// WHEN: Recording a second sale
	// THEN: Conflict; the machine stays Sold and keeps exactly one sale

	svc, mem := newTestService(t)
	registerMachine(t, svc, "m-1")

	_, err := svc.CreateSale(context.Background(), saleInput("m-1", "cust-1"))
	require.NoError(t, err)

	_, err = svc.CreateSale(context.Background(), saleInput("m-1", "cust-2"))
	assert.True(t, generic.IsConflict(err))

	assert.Equal(t, sales.StatusSold, machineStatus(t, mem, "m-1"))
	records, err := svc.MachineSales(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReleaseSale_MachineAvailableAgain(t *testing.T) {
	// GIVEN: A sold machine
	// WHEN: Releasing the sale
	// THEN: The machine is Available and the sale is reclaimable

	svc, mem := newTestService(t)
	registerMachine(t, svc, "m-1")
	ctx := context.Background()

	rec, err := svc.CreateSale(ctx, saleInput("m-1", "cust-1"))
	require.NoError(t, err)

	require.NoError(t, svc.ReleaseSale(ctx, rec.ID, "rep-1"))

	assert.Equal(t, sales.StatusAvailable, machineStatus(t, mem, "m-1"))

	released, err := mem.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.TagReclaimable, released.Tag)
}

func TestRestoreSale_RoundTrip(t *testing.T) {
	// GIVEN: A released sale on an available machine
	// WHEN: Restoring it
	// THEN: The machine is Sold again and the same record is live

	svc, mem := newTestService(t)
	registerMachine(t, svc, "m-1")
	ctx := context.Background()

	rec, err := svc.CreateSale(ctx, saleInput("m-1", "cust-1"))
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseSale(ctx, rec.ID, "rep-1"))

	restored, err := svc.RestoreSale(ctx, rec.ID, "rep-1")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, restored.ID)
	assert.Equal(t, generic.TagActive, restored.Tag)
	assert.Equal(t, sales.StatusSold, machineStatus(t, mem, "m-1"))
}

func TestRestoreSale_MachineResold_Conflict(t *testing.T) {
	// GIVEN: The machine was sold again after the release
	// WHEN: Restoring the first sale
	// THEN: It fails; the old record was purged by the new sale

	svc, _ := newTestService(t)
	registerMachine(t, svc, "m-1")
	ctx := context.Background()

	first, err := svc.CreateSale(ctx, saleInput("m-1", "cust-1"))
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseSale(ctx, first.ID, "rep-1"))

	_, err = svc.CreateSale(ctx, saleInput("m-1", "cust-2"))
	require.NoError(t, err)

	_, err = svc.RestoreSale(ctx, first.ID, "rep-1")
	assert.True(t, generic.IsNotFound(err) || generic.IsConflict(err))
}

func TestCreateSale_PurgesReleasedHistory(t *testing.T) {
	// GIVEN: A released sale for the machine
	// WHEN: A fresh sale is recorded
	// THEN: The released record is hard-deleted and the purge is audited

	svc, mem := newTestService(t)
	registerMachine(t, svc, "m-1")
	ctx := context.Background()

	first, err := svc.CreateSale(ctx, saleInput("m-1", "cust-1"))
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseSale(ctx, first.ID, "rep-1"))

	_, err = svc.CreateSale(ctx, saleInput("m-1", "cust-2"))
	require.NoError(t, err)

	gone, err := mem.GetRecord(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	var purgeAudits int
	for _, e := range mem.AuditEntries() {
		if e.Action == generic.AuditClaimPurged {
			purgeAudits++
		}
	}
	assert.Equal(t, 1, purgeAudits)
}

func TestReleaseSale_Unknown_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.ReleaseSale(context.Background(), "ghost", "rep-1")
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestCreateSale_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	registerMachine(t, svc, "m-1")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*sales.SaleInput)
	}{
		{"missing machine", func(in *sales.SaleInput) { in.MachineID = "" }},
		{"missing customer", func(in *sales.SaleInput) { in.CustomerID = "" }},
		{"missing date", func(in *sales.SaleInput) { in.Start = generic.Date{} }},
		{"zero price", func(in *sales.SaleInput) { in.Price = decimal.Zero }},
		{"negative price", func(in *sales.SaleInput) { in.Price = decimal.NewFromInt(-1) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := saleInput("m-1", "cust-1")
			tc.mutate(&in)
			_, err := svc.CreateSale(ctx, in)
			assert.True(t, generic.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestGetSale_WrongCategory_NotFound(t *testing.T) {
	// A leave record must not resolve as a sale.
	svc, mem := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mem.InsertRecord(ctx, generic.ClaimRecord{
		ID:         "rec-1",
		ResourceID: "emp-1",
		SubjectID:  "emp-1",
		Interval:   generic.OpenInterval(generic.NewDate(2026, time.March, 1)),
		Status:     generic.StatusPending,
		Tag:        generic.TagActive,
		Category:   "medical",
	}))

	_, err := svc.GetSale(ctx, "rec-1")
	assert.True(t, generic.IsNotFound(err))
}

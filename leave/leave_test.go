package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/generic/store"
	"github.com/warp/lifecycle-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	manager = leave.Identity{ID: "mgr-1", Role: leave.RoleManager}
	hr      = leave.Identity{ID: "hr-1", Role: leave.RoleHR}
)

func newTestService(t *testing.T) (*leave.Service, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	return leave.NewService(mem, nil), mem
}

func registerEmployee(t *testing.T, svc *leave.Service, id string) {
	t.Helper()
	_, err := svc.RegisterEmployee(context.Background(), generic.ResourceID(id), "Employee "+id)
	require.NoError(t, err)
}

// requestInput builds a valid personal-leave request starting startIn days
// from today and lasting length days.
func requestInput(employeeID string, startIn, length int) leave.RequestInput {
	start := generic.Today().AddDays(startIn)
	return leave.RequestInput{
		EmployeeID: generic.ResourceID(employeeID),
		Requester:  leave.Identity{ID: employeeID, Role: leave.RoleEmployee},
		Category:   leave.CategoryPersonal,
		Start:      start,
		End:        start.AddDays(length),
		Reason:     "travel",
	}
}

func medicalInput(employeeID string, startIn, length int) leave.RequestInput {
	in := requestInput(employeeID, startIn, length)
	in.Category = leave.CategoryMedical
	in.AttachmentRef = "doc://certificate-1"
	in.Reason = "surgery"
	return in
}

func employeeStatus(t *testing.T, mem *store.TxMemory, id string) generic.ResourceStatus {
	t.Helper()
	res, err := mem.GetResource(context.Background(), generic.ResourceID(id))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res.Status
}

// =============================================================================
// REQUEST CREATION TESTS
// =============================================================================

func TestCreateRequest_Pending(t *testing.T) {
	// GIVEN: A working employee
	// WHEN: Filing a leave request
	// THEN: The record is Pending and the employee keeps Working

	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")

	rec, err := svc.CreateRequest(context.Background(), requestInput("emp-1", 5, 3))
	require.NoError(t, err)

	assert.Equal(t, generic.StatusPending, rec.Status)
	assert.Equal(t, generic.TagActive, rec.Tag)
	assert.False(t, rec.Exclusive, "leave requests are not exclusive claims")
	assert.Equal(t, leave.StatusWorking, employeeStatus(t, mem, "emp-1"))
}

func TestCreateRequest_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*leave.RequestInput)
	}{
		{"unknown category", func(in *leave.RequestInput) { in.Category = "sabbatical" }},
		{"missing start", func(in *leave.RequestInput) { in.Start = generic.Date{} }},
		{"missing end", func(in *leave.RequestInput) { in.End = generic.Date{} }},
		{"start in the past", func(in *leave.RequestInput) {
			in.Start = generic.Today().AddDays(-1)
		}},
		{"end not after start", func(in *leave.RequestInput) { in.End = in.Start }},
		{"medical without attachment", func(in *leave.RequestInput) {
			in.Category = leave.CategoryMedical
			in.AttachmentRef = ""
		}},
		{"personal with attachment", func(in *leave.RequestInput) {
			in.AttachmentRef = "doc://x"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := requestInput("emp-1", 5, 3)
			tc.mutate(&in)
			_, err := svc.CreateRequest(ctx, in)
			assert.True(t, generic.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestCreateRequest_UnknownEmployee_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateRequest(context.Background(), requestInput("ghost", 5, 3))
	assert.True(t, generic.IsNotFound(err))
}

func TestCreateRequest_OverlapWithApproved_Conflict(t *testing.T) {
	// GIVEN: An approved leave covering days 5..10
	// WHEN: Filing a request touching day 10 (inclusive boundary)
	// THEN: Conflict at creation time

	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 5))
	require.NoError(t, err)
	_, err = svc.Decide(ctx, first.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)

	// Starts exactly where the approved one ends
	_, err = svc.CreateRequest(ctx, requestInput("emp-1", 10, 3))
	assert.True(t, generic.IsConflict(err))

	var overlap *generic.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, first.ID, overlap.Existing.ID)

	// One day later is fine
	_, err = svc.CreateRequest(ctx, requestInput("emp-1", 11, 3))
	assert.NoError(t, err)
}

func TestCreateRequest_PendingDoesNotBlock(t *testing.T) {
	// Pending requests don't occupy the calendar; only approved ones do.
	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 3))
	require.NoError(t, err)
	_, err = svc.CreateRequest(ctx, requestInput("emp-1", 6, 3))
	assert.NoError(t, err)
}

// =============================================================================
// DECISION TESTS
// =============================================================================

func TestDecide_ApproveMedical_EmployeeOnMedicalLeave(t *testing.T) {
	// GIVEN: A pending medical request
	// WHEN: A manager approves it
	// THEN: The employee's status projects the category

	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, medicalInput("emp-1", 5, 3))
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, rec.ID, manager, generic.DecisionApproved, "get well")
	require.NoError(t, err)

	assert.Equal(t, generic.StatusApproved, decided.Status)
	assert.Equal(t, "mgr-1", decided.DecidedBy)
	assert.Equal(t, leave.StatusOnMedicalLeave, employeeStatus(t, mem, "emp-1"))
}

func TestDecide_ApprovePersonal_EmployeeOnPersonalLeave(t *testing.T) {
	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 3))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, rec.ID, hr, generic.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusOnPersonalLeave, employeeStatus(t, mem, "emp-1"))
}

func TestDecide_Reject_NoStatusChange(t *testing.T) {
	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 3))
	require.NoError(t, err)

	decided, err := svc.Decide(ctx, rec.ID, manager, generic.DecisionRejected, "short-staffed")
	require.NoError(t, err)

	assert.Equal(t, generic.StatusRejected, decided.Status)
	assert.Equal(t, "short-staffed", decided.Comment)
	assert.Equal(t, leave.StatusWorking, employeeStatus(t, mem, "emp-1"))
}

func TestDecide_EmployeeRole_PermissionDenied(t *testing.T) {
	// Only managers and HR may decide.
	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 3))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, rec.ID, leave.Identity{ID: "emp-2", Role: leave.RoleEmployee},
		generic.DecisionApproved, "")
	assert.True(t, generic.IsPermissionDenied(err))
}

func TestDecide_SelfApproval_PermissionDenied(t *testing.T) {
	// GIVEN: A manager filed their own leave request
	// WHEN: They try to approve it themselves
	// THEN: PermissionDenied despite the reviewing role

	svc, _ := newTestService(t)
	registerEmployee(t, svc, "mgr-1")
	ctx := context.Background()

	in := requestInput("mgr-1", 5, 3)
	in.Requester = manager
	rec, err := svc.CreateRequest(ctx, in)
	require.NoError(t, err)

	_, err = svc.Decide(ctx, rec.ID, manager, generic.DecisionApproved, "")
	assert.True(t, generic.IsPermissionDenied(err))
}

func TestDecide_Twice_Conflict(t *testing.T) {
	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 3))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, rec.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, rec.ID, hr, generic.DecisionRejected, "")
	assert.True(t, generic.IsConflict(err))
}

func TestDecide_ConcurrentApprovals_SecondFailsOnOverlap(t *testing.T) {
	// GIVEN: Two pending requests with touching intervals (both created
	//        before either was approved)
	// WHEN: Both are approved
	// THEN: The second approval fails on the re-checked overlap

	svc, _ := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, requestInput("emp-1", 5, 5))
	require.NoError(t, err)
	second, err := svc.CreateRequest(ctx, requestInput("emp-1", 10, 3))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, first.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)

	_, err = svc.Decide(ctx, second.ID, manager, generic.DecisionApproved, "")
	assert.True(t, generic.IsConflict(err))
}

// =============================================================================
// SWEEP TESTS
// =============================================================================

func TestSweepExpired_RevertsToWorking(t *testing.T) {
	// GIVEN: An employee on approved leave that has elapsed
	// WHEN: Sweeping the day after the end
	// THEN: The employee is Working again; a second sweep is a no-op

	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	rec, err := svc.CreateRequest(ctx, requestInput("emp-1", 2, 3))
	require.NoError(t, err)
	_, err = svc.Decide(ctx, rec.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusOnPersonalLeave, employeeStatus(t, mem, "emp-1"))

	dayAfter := rec.Interval.End.AddDays(1)

	count, err := svc.SweepExpired(ctx, dayAfter)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, leave.StatusWorking, employeeStatus(t, mem, "emp-1"))

	count, err = svc.SweepExpired(ctx, dayAfter)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSweepExpired_BackToBackLeaves_NoRevert(t *testing.T) {
	// GIVEN: Two approved leaves where the second starts right after the first
	// WHEN: Sweeping during the second leave
	// THEN: The employee stays on leave; the second record still governs

	svc, mem := newTestService(t)
	registerEmployee(t, svc, "emp-1")
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, requestInput("emp-1", 2, 3))
	require.NoError(t, err)
	second, err := svc.CreateRequest(ctx, requestInput("emp-1", 6, 3))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, first.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)
	_, err = svc.Decide(ctx, second.ID, manager, generic.DecisionApproved, "")
	require.NoError(t, err)

	// First leave has elapsed, but the second covers this date
	during := second.Interval.Start.AddDays(1)
	count, err := svc.SweepExpired(ctx, during)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, leave.StatusOnPersonalLeave, employeeStatus(t, mem, "emp-1"))
}

// =============================================================================
// ROLE & CATEGORY TESTS
// =============================================================================

func TestRole_CanReview(t *testing.T) {
	assert.False(t, leave.RoleEmployee.CanReview())
	assert.True(t, leave.RoleManager.CanReview())
	assert.True(t, leave.RoleHR.CanReview())
}

func TestCategory_StatusProjection(t *testing.T) {
	assert.Equal(t, leave.StatusOnMedicalLeave, leave.CategoryMedical.Status())
	assert.Equal(t, leave.StatusOnPersonalLeave, leave.CategoryPersonal.Status())
	assert.True(t, leave.CategoryMedical.RequiresAttachment())
	assert.False(t, leave.CategoryPersonal.RequiresAttachment())
}

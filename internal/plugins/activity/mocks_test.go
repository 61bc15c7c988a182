package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyxmakerx/bizledger/internal/apperror"
)

// Ids long enough to pass the id-shape heuristic.
const (
	idAyse     = "usr7Hq2LmNpQ4rS1x"
	idMehmet   = "usr9Kd3VbWc5Zt8yA"
	idTask     = "tsk4Fg6HjKl8Mn0pQ"
	idProject  = "prj2Rt5YuIo7Pa9sD"
	idCustomer = "cus3Df6GhJk9Lz1xC"
	idOrder    = "ord8Vb1NmQw4Er7tY"
)

var errLookupFailed = errors.New("permission denied")

// --- Mock Lookup ---

// mockLookup implements EntityLookup for testing. Unset functions report
// the entity as missing.
type mockLookup struct {
	findTaskFn       func(ctx context.Context, id string) (*TaskRef, error)
	findProjectFn    func(ctx context.Context, id string) (*NamedRef, error)
	findCustomerFn   func(ctx context.Context, id string) (*NamedRef, error)
	findOrderFn      func(ctx context.Context, id string) (*NamedRef, error)
	findProductFn    func(ctx context.Context, id string) (*NamedRef, error)
	findDepartmentFn func(ctx context.Context, id string) (*NamedRef, error)
	findWarrantyFn   func(ctx context.Context, id string) (*NamedRef, error)
	listUsersFn      func(ctx context.Context) ([]UserRef, error)
}

func (m *mockLookup) FindTask(ctx context.Context, id string) (*TaskRef, error) {
	if m.findTaskFn != nil {
		return m.findTaskFn(ctx, id)
	}
	return nil, apperror.NewNotFound("task not found")
}

func (m *mockLookup) FindProject(ctx context.Context, id string) (*NamedRef, error) {
	if m.findProjectFn != nil {
		return m.findProjectFn(ctx, id)
	}
	return nil, apperror.NewNotFound("project not found")
}

func (m *mockLookup) FindCustomer(ctx context.Context, id string) (*NamedRef, error) {
	if m.findCustomerFn != nil {
		return m.findCustomerFn(ctx, id)
	}
	return nil, apperror.NewNotFound("customer not found")
}

func (m *mockLookup) FindOrder(ctx context.Context, id string) (*NamedRef, error) {
	if m.findOrderFn != nil {
		return m.findOrderFn(ctx, id)
	}
	return nil, apperror.NewNotFound("order not found")
}

func (m *mockLookup) FindProduct(ctx context.Context, id string) (*NamedRef, error) {
	if m.findProductFn != nil {
		return m.findProductFn(ctx, id)
	}
	return nil, apperror.NewNotFound("product not found")
}

func (m *mockLookup) FindDepartment(ctx context.Context, id string) (*NamedRef, error) {
	if m.findDepartmentFn != nil {
		return m.findDepartmentFn(ctx, id)
	}
	return nil, apperror.NewNotFound("department not found")
}

func (m *mockLookup) FindWarranty(ctx context.Context, id string) (*NamedRef, error) {
	if m.findWarrantyFn != nil {
		return m.findWarrantyFn(ctx, id)
	}
	return nil, apperror.NewNotFound("warranty not found")
}

func (m *mockLookup) ListUsers(ctx context.Context) ([]UserRef, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

// --- Mock Repository ---

// mockActivityRepo implements ActivityRepository for testing.
type mockActivityRepo struct {
	createFn       func(ctx context.Context, rec *ChangeRecord) error
	findByIDFn     func(ctx context.Context, id string) (*ChangeRecord, error)
	listFn         func(ctx context.Context, filter RecordFilter) ([]ChangeRecord, int, error)
	listByRecordFn func(ctx context.Context, collection Collection, recordID string, limit int) ([]ChangeRecord, error)
	purgeBeforeFn  func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockActivityRepo) Create(ctx context.Context, rec *ChangeRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	return nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*ChangeRecord, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("activity record not found")
}

func (m *mockActivityRepo) List(ctx context.Context, filter RecordFilter) ([]ChangeRecord, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (m *mockActivityRepo) ListByRecord(ctx context.Context, collection Collection, recordID string, limit int) ([]ChangeRecord, error) {
	if m.listByRecordFn != nil {
		return m.listByRecordFn(ctx, collection, recordID, limit)
	}
	return nil, nil
}

func (m *mockActivityRepo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.purgeBeforeFn != nil {
		return m.purgeBeforeFn(ctx, cutoff)
	}
	return 0, nil
}

// --- Test Helpers ---

// assertAppError checks that err is an AppError with the expected HTTP code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status code %d, got %d", expectedCode, appErr.Code)
	}
}

// newTestDescriber builds a describer rendering dates in UTC.
func newTestDescriber() *Describer {
	labels := DefaultLabels()
	return NewDescriber(labels, NewFormatter(labels, FormatOptions{Location: time.UTC}))
}

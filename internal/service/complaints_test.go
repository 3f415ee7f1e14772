package service_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/infra/cache"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/infra/resilience"
	"github.com/boddenberg/denuncias-bfa/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockStore struct {
	mu        sync.Mutex
	rows      []domain.Complaint
	listCalls int
	onList    func(call int)
	inserted  *domain.Complaint
	updated   *domain.Complaint
	deleted   string
	count     int
	err       error
}

func (m *mockStore) ListComplaints(_ context.Context) ([]domain.Complaint, error) {
	m.mu.Lock()
	m.listCalls++
	call := m.listCalls
	hook := m.onList
	m.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return m.rows, m.err
}

func (m *mockStore) GetComplaint(_ context.Context, id string) (*domain.Complaint, error) {
	for _, r := range m.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "complaint", ID: id}
}

func (m *mockStore) InsertComplaint(_ context.Context, c *domain.Complaint) (*domain.Complaint, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inserted = c
	out := *c
	out.ID = "7d0e8f0a-5c55-4f4b-9d6b-0e7f8a9b0c1d"
	return &out, nil
}

func (m *mockStore) UpdateComplaint(_ context.Context, id string, c *domain.Complaint) (*domain.Complaint, error) {
	m.updated = c
	out := *c
	out.ID = id
	return &out, nil
}

func (m *mockStore) DeleteComplaint(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockStore) CountComplaints(_ context.Context) (int, error) {
	return m.count, m.err
}

func (m *mockStore) ListDeadlines(_ context.Context) ([]domain.Complaint, error) {
	return m.rows, m.err
}

type mockRoles struct {
	role  string
	calls int
}

func (m *mockRoles) GetRole(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.role, nil
}

// --- Helpers ---

func ptr(s string) *string { return &s }

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

const (
	idA = "11111111-1111-4111-8111-111111111111"
	idB = "22222222-2222-4222-8222-222222222222"
	idC = "33333333-3333-4333-8333-333333333333"
)

func userCtx(userID string) context.Context {
	return domain.WithPrincipal(context.Background(), &domain.Principal{UserID: userID, AccessToken: "token-" + userID})
}

func fixtures() []domain.Complaint {
	return []domain.Complaint{
		{ID: idA, ComplaintDate: ptr("2024-03-01"), CitedParty: "João Silva", Neighborhood: "Centro", EndDate: ptr("2024-03-20")},
		{ID: idB, ComplaintDate: ptr("2024-02-01"), CitedParty: "Maria Souza", Neighborhood: "Jardim", EndDate: ptr("2024-03-01")},
		{ID: idC, ComplaintDate: ptr("2024-01-01"), CitedParty: "Pedro Silva", Neighborhood: "Centro", EndDate: ptr("2024-03-01"), ExtendedUntil: ptr("2024-04-01")},
	}
}

func newService(store *mockStore, roles *mockRoles) *service.ComplaintService {
	if roles == nil {
		roles = &mockRoles{}
	}
	svc := service.NewComplaintService(
		store,
		roles,
		cache.New[*service.Snapshot](5*time.Minute),
		cache.New[string](5*time.Minute),
		resilience.NewBulkhead(2),
		observability.NewMetrics(),
		zap.NewNop(),
	)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc
}

// --- List ---

func TestList_UsesSnapshotUntilRefresh(t *testing.T) {
	store := &mockStore{rows: fixtures()}
	svc := newService(store, nil)
	ctx := userCtx("u1")

	for i := 0; i < 3; i++ {
		if _, err := svc.List(ctx, domain.ListQuery{}, false); err != nil {
			t.Fatalf("List: %v", err)
		}
	}
	if store.listCalls != 1 {
		t.Errorf("expected 1 store call, got %d", store.listCalls)
	}

	if _, err := svc.List(ctx, domain.ListQuery{}, true); err != nil {
		t.Fatalf("List(refresh): %v", err)
	}
	if store.listCalls != 2 {
		t.Errorf("expected refresh to refetch, got %d calls", store.listCalls)
	}

	if _, err := svc.List(userCtx("u2"), domain.ListQuery{}, false); err != nil {
		t.Fatalf("List(u2): %v", err)
	}
	if store.listCalls != 3 {
		t.Errorf("expected a separate snapshot per user, got %d calls", store.listCalls)
	}
}

func TestList_FiltersAndAttachesStatus(t *testing.T) {
	svc := newService(&mockStore{rows: fixtures()}, nil)

	page, err := svc.List(userCtx("u1"), domain.ListQuery{
		Criteria:  domain.FilterCriteria{FreeText: "silva", Neighborhood: "centro"},
		SortField: "autuado",
		SortDir:   domain.SortAsc,
	}, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", page)
	}
	if page.Items[0].ID != idA || page.Items[1].ID != idC {
		t.Errorf("unexpected order: %s, %s", page.Items[0].ID, page.Items[1].ID)
	}
	if page.Items[0].Status.Label != domain.StatusAguardar || page.Items[1].Status.Label != domain.StatusProrrogado {
		t.Errorf("unexpected statuses: %s, %s", page.Items[0].Status.Label, page.Items[1].Status.Label)
	}
}

func TestList_PageResetsWhenCriteriaChange(t *testing.T) {
	rows := make([]domain.Complaint, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, domain.Complaint{ID: idA, Neighborhood: "Centro"})
	}
	svc := newService(&mockStore{rows: rows}, nil)
	ctx := userCtx("u1")

	page, _ := svc.List(ctx, domain.ListQuery{Page: 3}, false)
	if page.Page != 3 || len(page.Items) != 5 {
		t.Fatalf("expected page 3 with 5 items, got page %d with %d", page.Page, len(page.Items))
	}

	centro := domain.FilterCriteria{Neighborhood: "centro"}
	page, _ = svc.List(ctx, domain.ListQuery{Page: 3, Criteria: centro, PrevFilters: page.Filters}, false)
	if page.Page != 1 {
		t.Errorf("expected page reset to 1, got %d", page.Page)
	}

	page, _ = svc.List(ctx, domain.ListQuery{Page: 2, Criteria: centro, PrevFilters: page.Filters}, false)
	if page.Page != 2 {
		t.Errorf("expected page 2 with unchanged criteria, got %d", page.Page)
	}
}

func TestList_FilteredLinkKeepsRequestedPage(t *testing.T) {
	rows := make([]domain.Complaint, 0, 25)
	for i := 0; i < 25; i++ {
		rows = append(rows, domain.Complaint{ID: idA, Neighborhood: "Centro"})
	}
	svc := newService(&mockStore{rows: rows}, nil)

	page, err := svc.List(userCtx("u1"), domain.ListQuery{Page: 2, Criteria: domain.FilterCriteria{Neighborhood: "centro"}}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 2 {
		t.Errorf("expected page 2 on first request, got %d", page.Page)
	}
}

func TestList_TabsOfSameUserDoNotResetEachOther(t *testing.T) {
	rows := make([]domain.Complaint, 0, 40)
	for i := 0; i < 40; i++ {
		hood := "Centro"
		if i%2 == 1 {
			hood = "Jardim"
		}
		rows = append(rows, domain.Complaint{ID: idA, Neighborhood: hood, Description: "obra"})
	}
	svc := newService(&mockStore{rows: rows}, nil)
	ctx := userCtx("u1")

	tabA := domain.ListQuery{Criteria: domain.FilterCriteria{Neighborhood: "centro"}, PageSize: 5}
	tabB := domain.ListQuery{Criteria: domain.FilterCriteria{Neighborhood: "jardim"}, PageSize: 5}

	pageA, _ := svc.List(ctx, tabA, false)
	pageB, _ := svc.List(ctx, tabB, false)

	tabA.Page, tabA.PrevFilters = 2, pageA.Filters
	pageA, _ = svc.List(ctx, tabA, false)

	tabB.Page, tabB.PrevFilters = 3, pageB.Filters
	pageB, _ = svc.List(ctx, tabB, false)

	tabA.Page, tabA.PrevFilters = 3, pageA.Filters
	pageA, _ = svc.List(ctx, tabA, false)

	if pageA.Page != 3 {
		t.Errorf("tab A: expected page 3, got %d", pageA.Page)
	}
	if pageB.Page != 3 {
		t.Errorf("tab B: expected page 3, got %d", pageB.Page)
	}
}

func TestList_DiscardsStaleFetch(t *testing.T) {
	store := &mockStore{rows: fixtures()}
	svc := newService(store, nil)
	ctx := userCtx("u1")

	store.onList = func(call int) {
		if call == 1 {
			// a write lands while the first fetch is in flight
			_, _ = svc.Create(ctx, domain.Complaint{ComplaintDate: ptr("2024-03-10")})
		}
	}

	if _, err := svc.List(ctx, domain.ListQuery{}, false); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(ctx, domain.ListQuery{}, false); err != nil {
		t.Fatalf("List: %v", err)
	}
	if store.listCalls != 2 {
		t.Errorf("stale fetch must not be installed; expected 2 store calls, got %d", store.listCalls)
	}
}

func TestList_Errors(t *testing.T) {
	svc := newService(&mockStore{rows: fixtures()}, nil)

	_, err := svc.List(context.Background(), domain.ListQuery{}, false)
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	_, err = svc.List(userCtx("u1"), domain.ListQuery{SortField: "senha"}, false)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) || verr.Field != "sort" {
		t.Errorf("expected sort validation error, got %v", err)
	}

	backend := &domain.ErrTransientBackend{Service: "rest", Status: 503}
	svc = newService(&mockStore{err: backend}, nil)
	_, err = svc.List(userCtx("u1"), domain.ListQuery{}, false)
	if !errors.Is(err, backend) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

// --- Writes ---

func TestCreate_NormalizesAndInvalidates(t *testing.T) {
	store := &mockStore{rows: fixtures()}
	svc := newService(store, nil)
	ctx := userCtx("u1")

	_, _ = svc.List(ctx, domain.ListQuery{}, false)

	v, err := svc.Create(ctx, domain.Complaint{
		ComplaintDate: ptr("2024-01-10"),
		StartDate:     ptr("2024-01-10"),
		DeadlineDays:  30,
		ExtensionDays: 15,
		FineDate:      ptr("   "),
		TaxID:         "12345678901",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got := store.inserted
	if got.OwnerID != "u1" {
		t.Errorf("OwnerID = %q", got.OwnerID)
	}
	if domain.Deref(got.EndDate) != "2024-02-09" || domain.Deref(got.ExtendedUntil) != "2024-02-24" {
		t.Errorf("derived dates = %v / %v", domain.Deref(got.EndDate), domain.Deref(got.ExtendedUntil))
	}
	if got.FineDate != nil {
		t.Errorf("blank date should be stored as null, got %q", *got.FineDate)
	}
	if got.TaxID != "123.456.789-01" {
		t.Errorf("TaxID = %q", got.TaxID)
	}
	if v.Status.Label != domain.StatusVencido {
		t.Errorf("status = %s", v.Status.Label)
	}

	_, _ = svc.List(ctx, domain.ListQuery{}, false)
	if store.listCalls != 2 {
		t.Errorf("expected write to invalidate the snapshot, got %d calls", store.listCalls)
	}
}

func TestCreate_ValidationAbortsBeforeStore(t *testing.T) {
	store := &mockStore{}
	svc := newService(store, nil)

	_, err := svc.Create(userCtx("u1"), domain.Complaint{Description: "abc", TaxID: "123"})
	var list *domain.ErrValidationList
	if !errors.As(err, &list) {
		t.Fatalf("expected ErrValidationList, got %v", err)
	}
	fields := list.Fields()
	for _, f := range []string{"data_denuncia", "descricao", "cpf_cnpj"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("missing validation error for %s", f)
		}
	}
	if store.inserted != nil {
		t.Error("store must not be called on invalid input")
	}
}

func TestUpdate_RejectsBadID(t *testing.T) {
	svc := newService(&mockStore{}, nil)
	_, err := svc.Update(userCtx("u1"), "not-a-uuid", domain.Complaint{ComplaintDate: ptr("2024-01-01")})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) || verr.Field != "id" {
		t.Errorf("expected id validation error, got %v", err)
	}
}

func TestUpdate_DoesNotReassignOwner(t *testing.T) {
	store := &mockStore{}
	svc := newService(store, nil)
	_, err := svc.Update(userCtx("u1"), idA, domain.Complaint{ComplaintDate: ptr("2024-01-01"), OwnerID: "someone-else"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if store.updated.OwnerID != "" {
		t.Errorf("OwnerID = %q, want empty", store.updated.OwnerID)
	}
}

func TestDelete_RequiresAdminAndConfirmation(t *testing.T) {
	store := &mockStore{}
	roles := &mockRoles{role: "fiscal"}
	svc := newService(store, roles)
	ctx := userCtx("u1")

	var verr *domain.ErrValidation
	if err := svc.Delete(ctx, idA, false); !errors.As(err, &verr) || verr.Field != "confirm" {
		t.Errorf("expected confirm validation error, got %v", err)
	}

	var perm *domain.ErrPermission
	if err := svc.Delete(ctx, idA, true); !errors.As(err, &perm) {
		t.Errorf("expected ErrPermission, got %v", err)
	}
	if store.deleted != "" {
		t.Error("store must not be called without permission")
	}

	admin := &mockRoles{role: domain.RoleAdmin}
	svc = newService(store, admin)
	if err := svc.Delete(ctx, idA, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, idB, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.deleted != idB {
		t.Errorf("deleted = %q", store.deleted)
	}
	if admin.calls != 1 {
		t.Errorf("expected role to be cached, got %d lookups", admin.calls)
	}
}

// --- Derived fields ---

func TestRecompute(t *testing.T) {
	svc := newService(&mockStore{}, nil)

	v, err := svc.Recompute(domain.Complaint{StartDate: ptr("2024-03-01"), DeadlineDays: 10}, "prazo_inicial")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if domain.Deref(v.EndDate) != "2024-03-11" || v.Status.Label != domain.StatusVencido {
		t.Errorf("got end %v status %s", domain.Deref(v.EndDate), v.Status.Label)
	}

	if _, err := svc.Recompute(domain.Complaint{}, "bairro"); err == nil {
		t.Error("expected error for a field that does not drive deadlines")
	}
}

// --- Stats ---

func TestStats(t *testing.T) {
	rows := append(fixtures(), domain.Complaint{ID: "x"})
	svc := newService(&mockStore{rows: rows, count: 4}, nil)

	stats, err := svc.Stats(userCtx("u1"))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.Open != 2 || stats.Expired != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ByStatus[domain.StatusPendente] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
}

func TestStats_PropagatesError(t *testing.T) {
	svc := newService(&mockStore{err: &domain.ErrCircuitOpen{Service: "supabase/rest"}}, nil)
	_, err := svc.Stats(userCtx("u1"))
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

// --- Export ---

func TestExport(t *testing.T) {
	svc := newService(&mockStore{rows: fixtures()}, nil)
	ctx := userCtx("u1")

	doc, err := svc.Export(ctx, domain.ExportRequest{Criteria: domain.FilterCriteria{Neighborhood: "centro"}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Rows != 2 || doc.Filename != "relatorio_completo.xlsx" {
		t.Errorf("unexpected document: rows=%d name=%s", doc.Rows, doc.Filename)
	}

	doc, err = svc.Export(ctx, domain.ExportRequest{Format: domain.ExportPrintable})
	if err != nil {
		t.Fatalf("Export(pdf): %v", err)
	}
	if !bytes.HasPrefix(doc.Body, []byte("%PDF")) {
		t.Error("expected a PDF body")
	}
}

func TestExport_NothingToExport(t *testing.T) {
	svc := newService(&mockStore{rows: fixtures()}, nil)

	_, err := svc.Export(userCtx("u1"), domain.ExportRequest{Criteria: domain.FilterCriteria{FreeText: "ninguém"}})
	var nothing *domain.ErrNothingToExport
	if !errors.As(err, &nothing) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}

	_, err = svc.Export(userCtx("u1"), domain.ExportRequest{Scope: domain.ExportScope{Type: domain.ScopeMonth, Month: "2023-12"}})
	if !errors.As(err, &nothing) {
		t.Errorf("expected ErrNothingToExport for empty scope, got %v", err)
	}
}

func TestExport_RejectsUnknownFormat(t *testing.T) {
	svc := newService(&mockStore{rows: fixtures()}, nil)
	_, err := svc.Export(userCtx("u1"), domain.ExportRequest{Format: "csv"})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) || verr.Field != "format" {
		t.Errorf("expected format validation error, got %v", err)
	}
}

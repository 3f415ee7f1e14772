// Package service provides the business logic layer (use cases).
// ComplaintService runs the complaint list, detail, write, stats and export
// flows over the record store, applying the lifecycle rules in-process.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/infra/observability"
	"github.com/boddenberg/denuncias-bfa/internal/infra/resilience"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
	"github.com/boddenberg/denuncias-bfa/internal/port"
	"github.com/boddenberg/denuncias-bfa/internal/report"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/complaints")

// Snapshot is the full record set of one user as of one fetch.
type Snapshot struct {
	Records    []domain.Complaint
	Generation uint64
}

// ComplaintService orchestrates complaint operations for the signed-in user.
type ComplaintService struct {
	store     port.ComplaintStore
	roles     port.RoleFetcher
	snapshots port.Cache[*Snapshot]
	roleCache port.Cache[string]
	exporter  *report.Exporter
	bulkhead  *resilience.Bulkhead
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.Mutex
	generations map[string]uint64
}

// NewComplaintService creates the complaint service with all dependencies injected.
func NewComplaintService(
	store port.ComplaintStore,
	roles port.RoleFetcher,
	snaps port.Cache[*Snapshot],
	roleCache port.Cache[string],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		store:       store,
		roles:       roles,
		snapshots:   snaps,
		roleCache:   roleCache,
		exporter:    report.NewExporter(time.Now),
		bulkhead:    bulkhead,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

// SetClock replaces the wall clock; tests pin "today" with it.
func (s *ComplaintService) SetClock(now func() time.Time) {
	s.now = now
	s.exporter = report.NewExporter(now)
}

func (s *ComplaintService) today() time.Time {
	return lifecycle.DateOf(s.now())
}

func principal(ctx context.Context) (*domain.Principal, error) {
	p := domain.PrincipalFrom(ctx)
	if p == nil || p.UserID == "" {
		return nil, &domain.ErrUnauthorized{Message: "sessão ausente ou expirada"}
	}
	return p, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &domain.ErrValidation{Field: "id", Message: "id inválido"}
	}
	return nil
}

// ============================================================
// Snapshot — per-user record set with a liveness generation
// ============================================================

func (s *ComplaintService) nextGeneration(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	return s.generations[userID]
}

func (s *ComplaintService) isCurrent(userID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID] == gen
}

// invalidate drops the snapshot and makes any in-flight fetch stale.
func (s *ComplaintService) invalidate(userID string) {
	s.nextGeneration(userID)
	s.snapshots.Delete(userID)
}

// records returns the caller's full record set, newest first. A fetch that
// completes after a newer one started is returned to its caller but never
// installed as the snapshot.
func (s *ComplaintService) records(ctx context.Context, userID string, refresh bool) ([]domain.Complaint, error) {
	if !refresh {
		if snap, ok := s.snapshots.Get(userID); ok {
			s.metrics.IncrCacheHit("snapshot")
			return snap.Records, nil
		}
	}
	s.metrics.IncrCacheMiss("snapshot")

	gen := s.nextGeneration(userID)
	rows, err := s.store.ListComplaints(ctx)
	if err != nil {
		s.logger.Error("failed to fetch complaints",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list complaints: %w", err)
	}

	if s.isCurrent(userID, gen) {
		s.snapshots.Set(userID, &Snapshot{Records: rows, Generation: gen})
	} else {
		s.logger.Debug("discarding stale snapshot",
			zap.String("user_id", userID),
			zap.Uint64("generation", gen),
		)
	}
	return rows, nil
}

// ============================================================
// List — filter → sort → paginate
// ============================================================

// List returns one page of the caller's complaints. When q.PrevFilters is
// set and no longer matches the criteria the requested page is ignored and
// page 1 is served.
func (s *ComplaintService) List(ctx context.Context, q domain.ListQuery, refresh bool) (*domain.Page, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.List")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("list", time.Since(start)) }()

	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateCriteria(q.Criteria); err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateSort(q.SortField, q.SortDir); err != nil {
		return nil, err
	}
	if q.PageSize > domain.MaxPageSize {
		q.PageSize = domain.MaxPageSize
	}

	rows, err := s.records(ctx, p.UserID, refresh)
	if err != nil {
		return nil, err
	}

	page := lifecycle.Paginate(rows, q, s.today())
	span.SetAttributes(
		attribute.Int("complaints.total", page.TotalCount),
		attribute.Int("complaints.page", page.Page),
	)
	return &page, nil
}

// ============================================================
// Detail and writes
// ============================================================

// Get returns one complaint with its status.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.ComplaintView, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	v := lifecycle.View(*c, s.today())
	return &v, nil
}

// prepare normalizes a submitted record and runs the form checks.
func prepare(c domain.Complaint) (domain.Complaint, error) {
	out := lifecycle.NormalizeForStore(c)
	if err := lifecycle.Validate(&out); err != nil {
		return domain.Complaint{}, err
	}
	return out, nil
}

// Create stores a new complaint owned by the caller.
func (s *ComplaintService) Create(ctx context.Context, c domain.Complaint) (*domain.ComplaintView, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.Create")
	defer span.End()

	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := prepare(c)
	if err != nil {
		return nil, err
	}
	rec.OwnerID = p.UserID

	created, err := s.store.InsertComplaint(ctx, &rec)
	if err != nil {
		return nil, err
	}
	s.invalidate(p.UserID)

	s.logger.Info("complaint created",
		zap.String("user_id", p.UserID),
		zap.String("complaint_id", created.ID),
	)
	v := lifecycle.View(*created, s.today())
	return &v, nil
}

// Update replaces a complaint; last write wins.
func (s *ComplaintService) Update(ctx context.Context, id string, c domain.Complaint) (*domain.ComplaintView, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	rec, err := prepare(c)
	if err != nil {
		return nil, err
	}
	rec.OwnerID = ""

	updated, err := s.store.UpdateComplaint(ctx, id, &rec)
	if err != nil {
		return nil, err
	}
	s.invalidate(p.UserID)

	s.logger.Info("complaint updated",
		zap.String("user_id", p.UserID),
		zap.String("complaint_id", id),
	)
	v := lifecycle.View(*updated, s.today())
	return &v, nil
}

// Delete removes a complaint. Only admins may delete, and the caller must
// have confirmed the action.
func (s *ComplaintService) Delete(ctx context.Context, id string, confirmed bool) error {
	ctx, span := tracer.Start(ctx, "ComplaintService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("complaint.id", id))

	p, err := principal(ctx)
	if err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if !confirmed {
		return &domain.ErrValidation{Field: "confirm", Message: "confirme a exclusão com confirm=true"}
	}

	role, err := s.Role(ctx)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin {
		s.logger.Warn("delete denied",
			zap.String("user_id", p.UserID),
			zap.String("role", role),
		)
		return &domain.ErrPermission{Action: "excluir denúncia"}
	}

	if err := s.store.DeleteComplaint(ctx, id); err != nil {
		return err
	}
	s.invalidate(p.UserID)

	s.logger.Info("complaint deleted",
		zap.String("user_id", p.UserID),
		zap.String("complaint_id", id),
	)
	return nil
}

// Role returns the caller's application role, cached per user.
func (s *ComplaintService) Role(ctx context.Context) (string, error) {
	p, err := principal(ctx)
	if err != nil {
		return "", err
	}
	if role, ok := s.roleCache.Get(p.UserID); ok {
		s.metrics.IncrCacheHit("role")
		return role, nil
	}
	s.metrics.IncrCacheMiss("role")

	role, err := s.roles.GetRole(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("role lookup: %w", err)
	}
	s.roleCache.Set(p.UserID, role)
	return role, nil
}

// ============================================================
// Derived fields — recompute and offline status
// ============================================================

var recomputeFields = map[string]bool{
	"":                           true,
	lifecycle.FieldStartDate:     true,
	lifecycle.FieldDeadlineDays:  true,
	lifecycle.FieldEndDate:       true,
	lifecycle.FieldExtensionDays: true,
}

// Recompute cascades derived deadline dates after changedField was edited
// and returns the draft with its status. Nothing is stored.
func (s *ComplaintService) Recompute(c domain.Complaint, changedField string) (*domain.ComplaintView, error) {
	if !recomputeFields[changedField] {
		return nil, &domain.ErrValidation{Field: "field", Message: "campo não afeta prazos: " + changedField}
	}
	v := lifecycle.View(lifecycle.Recompute(c, changedField), s.today())
	return &v, nil
}

// ============================================================
// Stats — exact count and status breakdown, fetched concurrently
// ============================================================

// Stats returns the dashboard counters for the caller.
func (s *ComplaintService) Stats(ctx context.Context) (*domain.ComplaintStats, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.Stats")
	defer span.End()

	if _, err := principal(ctx); err != nil {
		return nil, err
	}

	var (
		total     int
		deadlines []domain.Complaint
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountComplaints(gCtx)
		if err != nil {
			return fmt.Errorf("count complaints: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.ListDeadlines(gCtx)
		if err != nil {
			return fmt.Errorf("list deadlines: %w", err)
		}
		deadlines = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute stats", zap.Error(err))
		return nil, err
	}

	stats := &domain.ComplaintStats{Total: total, ByStatus: make(map[domain.StatusLabel]int, len(domain.AllStatusLabels))}
	for _, l := range domain.AllStatusLabels {
		stats.ByStatus[l] = 0
	}
	today := s.today()
	for i := range deadlines {
		label := lifecycle.ComputeStatus(&deadlines[i], today).Label
		stats.ByStatus[label]++
	}
	stats.Open = stats.ByStatus[domain.StatusAguardar] + stats.ByStatus[domain.StatusProrrogado]
	stats.Expired = stats.ByStatus[domain.StatusVencido]
	return stats, nil
}

// ============================================================
// Export
// ============================================================

// Export renders the caller's filtered, sorted complaints. Rendering holds
// a bulkhead slot; an empty selection fails before any slot is taken.
func (s *ComplaintService) Export(ctx context.Context, req domain.ExportRequest) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "ComplaintService.Export")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("export", time.Since(start)) }()

	p, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateSort(req.SortField, req.SortDir); err != nil {
		return nil, err
	}
	switch req.Format {
	case "":
		req.Format = domain.ExportSpreadsheet
	case domain.ExportSpreadsheet, domain.ExportPrintable:
	default:
		return nil, &domain.ErrValidation{Field: "format", Message: "formato deve ser xlsx ou pdf"}
	}

	rows, err := s.records(ctx, p.UserID, false)
	if err != nil {
		return nil, err
	}
	selected := lifecycle.SortStable(lifecycle.Filter(rows, req.Criteria, s.today()), req.SortField, req.SortDir)

	if len(report.ApplyScope(selected, req.Scope)) == 0 {
		s.metrics.IncrExport(req.Format, observability.ExportEmpty)
		return nil, &domain.ErrNothingToExport{}
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "export"}
	}
	defer s.bulkhead.Release()

	doc, err := s.exporter.Export(selected, req)
	if err != nil {
		var nothing *domain.ErrNothingToExport
		result := observability.ExportFailed
		if errors.As(err, &nothing) {
			result = observability.ExportEmpty
		}
		s.metrics.IncrExport(req.Format, result)
		s.logger.Warn("export failed",
			zap.String("user_id", p.UserID),
			zap.String("format", string(req.Format)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrExport(req.Format, observability.ExportOK)
	span.SetAttributes(attribute.Int("export.rows", doc.Rows))
	s.logger.Info("export rendered",
		zap.String("user_id", p.UserID),
		zap.String("format", string(req.Format)),
		zap.Int("rows", doc.Rows),
		zap.Int("bytes", len(doc.Body)),
	)
	return doc, nil
}

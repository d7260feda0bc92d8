package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/facility-report-api/internal/dto"
	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

type lifecycleStore interface {
	Create(ctx context.Context, report *models.Report, event *models.ReportEvent) error
	Transition(ctx context.Context, t models.ReportTransition) (*models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	ListEvents(ctx context.Context, reportID string) ([]models.ReportEvent, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const (
	transitionCreate  = "create"
	transitionReceive = "receive"
	transitionReject  = "reject"
	transitionAssign  = "assign"
	transitionStart   = "start"
	transitionResolve = "resolve"
)

// LifecycleService drives reports through NEW -> DIPROSES -> DIKERJAKAN -> SELESAI, or
// NEW -> DITOLAK. Every accepted transition is one conditional update plus one audit event
// committed together; a transition that loses a race is reported, never retried.
type LifecycleService struct {
	store     lifecycleStore
	users     userLookup
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// LifecycleOption configures the service.
type LifecycleOption func(*LifecycleService)

// WithLifecycleClock overrides the clock used for lifecycle timestamps.
func WithLifecycleClock(now func() time.Time) LifecycleOption {
	return func(s *LifecycleService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLifecycleMetrics records transition outcomes.
func WithLifecycleMetrics(metrics *MetricsService) LifecycleOption {
	return func(s *LifecycleService) {
		s.metrics = metrics
	}
}

// NewLifecycleService constructs the service.
func NewLifecycleService(store lifecycleStore, users userLookup, validate *validator.Validate, logger *zap.Logger, opts ...LifecycleOption) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &LifecycleService{store: store, users: users, validator: validate, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create files a new report for a resident. Location defaults to the resident's room.
func (s *LifecycleService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateReportRequest) (report *models.Report, err error) {
	defer func() { s.record(transitionCreate, err) }()

	if err := requireRole(actor, models.RoleResident); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}

	location := req.Location
	if location == "" {
		reporter, err := s.users.FindByID(ctx, actor.UserID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reporter")
		}
		if reporter != nil && reporter.RoomNumber != nil {
			location = strings.TrimSpace(*reporter.RoomNumber)
		}
	}
	if location == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location is required")
	}

	now := s.now().UTC()
	status := models.ReportStatusNew
	report = &models.Report{
		ReporterID:  actor.UserID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Priority:    req.Priority,
		Location:    location,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	event := &models.ReportEvent{ActorID: actor.UserID, Kind: models.EventReported, ToStatus: &status}
	if err := s.store.Create(ctx, report, event); err != nil {
		s.logger.Error("create report failed", zap.String("reporter_id", actor.UserID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Receive acknowledges a NEW report.
func (s *LifecycleService) Receive(ctx context.Context, actor *models.JWTClaims, id string) (*models.Report, error) {
	if err := requireRole(actor, models.RoleStaff); err != nil {
		s.record(transitionReceive, err)
		return nil, err
	}
	return s.apply(ctx, actor, transitionReceive, models.ReportTransition{
		ReportID:      id,
		From:          []models.ReportStatus{models.ReportStatusNew},
		To:            statusPtr(models.ReportStatusReceived),
		StampReceived: true,
		Event:         models.ReportEvent{Kind: models.EventStatusChanged},
	})
}

// Reject closes a NEW report without work.
func (s *LifecycleService) Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectReportRequest) (*models.Report, error) {
	if err := s.checkPayload(actor, transitionReject, req); err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, transitionReject, models.ReportTransition{
		ReportID: id,
		From:     []models.ReportStatus{models.ReportStatusNew},
		To:       statusPtr(models.ReportStatusRejected),
		Event:    models.ReportEvent{Kind: models.EventStatusChanged, Note: trimNote(req.Note)},
	})
}

// Assign hands a received report to a technician, optionally starting work at once.
func (s *LifecycleService) Assign(ctx context.Context, actor *models.JWTClaims, id string, req dto.AssignReportRequest) (*models.Report, error) {
	if err := requireRole(actor, models.RoleStaff); err != nil {
		s.record(transitionAssign, err)
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
		s.record(transitionAssign, err)
		return nil, err
	}

	technician, err := s.users.FindByID(ctx, req.TechnicianID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load technician")
		s.record(transitionAssign, err)
		return nil, err
	}
	if technician == nil || technician.Role != models.RoleTechnician {
		err := appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		s.record(transitionAssign, err)
		return nil, err
	}

	note := "assigned to " + technician.FullName
	t := models.ReportTransition{
		ReportID:        id,
		From:            []models.ReportStatus{models.ReportStatusReceived, models.ReportStatusInProgress},
		SetTechnicianID: &technician.ID,
		Event:           models.ReportEvent{Kind: models.EventAssigned, Note: &note},
	}
	if req.Start {
		t.To = statusPtr(models.ReportStatusInProgress)
		t.StampStarted = true
	}
	return s.apply(ctx, actor, transitionAssign, t)
}

// Start moves an assigned report into work. Technicians may only start their own reports.
func (s *LifecycleService) Start(ctx context.Context, actor *models.JWTClaims, id string) (*models.Report, error) {
	if err := requireRole(actor, models.RoleTechnician, models.RoleStaff); err != nil {
		s.record(transitionStart, err)
		return nil, err
	}
	t := models.ReportTransition{
		ReportID:        id,
		From:            []models.ReportStatus{models.ReportStatusReceived},
		To:              statusPtr(models.ReportStatusInProgress),
		RequireAssigned: true,
		StampStarted:    true,
		Event:           models.ReportEvent{Kind: models.EventStatusChanged},
	}
	if actor.Role == models.RoleTechnician {
		t.RequireAssigneeID = &actor.UserID
	}
	return s.apply(ctx, actor, transitionStart, t)
}

// Resolve finishes a report that is being worked on.
func (s *LifecycleService) Resolve(ctx context.Context, actor *models.JWTClaims, id string, req dto.ResolveReportRequest) (*models.Report, error) {
	if err := s.checkPayload(actor, transitionResolve, req, models.RoleTechnician); err != nil {
		return nil, err
	}
	t := models.ReportTransition{
		ReportID:      id,
		From:          []models.ReportStatus{models.ReportStatusInProgress},
		To:            statusPtr(models.ReportStatusDone),
		StampResolved: true,
		Event:         models.ReportEvent{Kind: models.EventStatusChanged, Note: trimNote(req.Note)},
	}
	if actor.Role == models.RoleTechnician {
		t.RequireAssigneeID = &actor.UserID
	}
	return s.apply(ctx, actor, transitionResolve, t)
}

// Events returns the audit trail of a report to its reporter, its assignee or staff.
func (s *LifecycleService) Events(ctx context.Context, actor *models.JWTClaims, id string) ([]models.ReportEvent, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	switch actor.Role {
	case models.RoleStaff:
	case models.RoleResident:
		if report.ReporterID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another resident")
		}
	case models.RoleTechnician:
		if report.AssignedTechnicianID == nil || *report.AssignedTechnicianID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "report is not assigned to you")
		}
	default:
		return nil, appErrors.ErrForbidden
	}
	events, err := s.store.ListEvents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report events")
	}
	return events, nil
}

func (s *LifecycleService) checkPayload(actor *models.JWTClaims, transition string, payload interface{}, extraRoles ...models.UserRole) error {
	roles := append([]models.UserRole{models.RoleStaff}, extraRoles...)
	if err := requireRole(actor, roles...); err != nil {
		s.record(transition, err)
		return err
	}
	if err := s.validator.Struct(payload); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note")
		s.record(transition, err)
		return err
	}
	return nil
}

func (s *LifecycleService) apply(ctx context.Context, actor *models.JWTClaims, transition string, t models.ReportTransition) (*models.Report, error) {
	t.At = s.now().UTC()
	t.Event.ActorID = actor.UserID
	t.Event.ToStatus = t.To
	if len(t.From) == 1 {
		t.Event.FromStatus = statusPtr(t.From[0])
	}

	report, err := s.store.Transition(ctx, t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.classify(ctx, actor, transition, t.ReportID)
		} else {
			s.logger.Error("report transition failed", zap.String("transition", transition), zap.String("report_id", t.ReportID), zap.Error(err))
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
		}
		s.record(transition, err)
		return nil, err
	}

	s.logger.Info("report transitioned",
		zap.String("transition", transition),
		zap.String("report_id", report.ID),
		zap.String("status", string(report.Status)),
		zap.String("actor_id", actor.UserID),
	)
	s.record(transition, nil)
	return report, nil
}

// classify explains why a guarded update matched no row. The re-read happens after the
// failed update, so it reports the state that beat us.
func (s *LifecycleService) classify(ctx context.Context, actor *models.JWTClaims, transition, id string) error {
	report, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		s.logger.Warn("classify transition failure", zap.String("report_id", id), zap.Error(err))
		return appErrors.Clone(appErrors.ErrInvalidTransition, "report cannot be "+pastTense(transition)+" in its current state")
	}

	switch report.Status {
	case models.ReportStatusDone:
		return appErrors.Clone(appErrors.ErrReportDone, "report is already resolved")
	case models.ReportStatusRejected:
		return appErrors.Clone(appErrors.ErrReportRejected, "report is already rejected")
	}
	if transition == transitionReceive && (report.Status == models.ReportStatusReceived || report.Status == models.ReportStatusInProgress) {
		return appErrors.Clone(appErrors.ErrAlreadyReceived, "report is already received")
	}
	if actor.Role == models.RoleTechnician && (transition == transitionStart || transition == transitionResolve) {
		if report.AssignedTechnicianID == nil || *report.AssignedTechnicianID != actor.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "report is not assigned to you")
		}
	}
	if transition == transitionStart && report.Status == models.ReportStatusReceived && report.AssignedTechnicianID == nil {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "report has no assigned technician")
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, "report cannot be "+pastTense(transition)+" while "+string(report.Status))
}

func (s *LifecycleService) record(transition string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.RecordTransition(transition, outcome)
}

func requireRole(actor *models.JWTClaims, roles ...models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role not allowed for this action")
}

func pastTense(transition string) string {
	switch transition {
	case transitionReceive:
		return "received"
	case transitionReject:
		return "rejected"
	case transitionAssign:
		return "assigned"
	case transitionStart:
		return "started"
	case transitionResolve:
		return "resolved"
	}
	return transition
}

func statusPtr(s models.ReportStatus) *models.ReportStatus {
	return &s
}

func trimNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

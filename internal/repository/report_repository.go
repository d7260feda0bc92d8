package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/facility-report-api/internal/models"
)

const reportColumns = `id, reporter_id, category, title, description, photo_url, priority, location, status,
       assigned_technician_id, created_at, updated_at, received_at, started_at, resolved_at`

const eventColumns = `id, seq, report_id, actor_id, kind, from_status, to_status, note, at`

var snapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// ReportRepository persists reports and their audit trail. The same type serves the primary
// and the replica; only the primary receives writes.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report together with its REPORTED event.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, event *models.ReportEvent) (err error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = report.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO reports (id, reporter_id, category, title, description, photo_url, priority, location, status,
       assigned_technician_id, created_at, updated_at, received_at, started_at, resolved_at)
VALUES (:id, :reporter_id, :category, :title, :description, :photo_url, :priority, :location, :status,
       :assigned_technician_id, :created_at, :updated_at, :received_at, :started_at, :resolved_at)`
	if _, err = tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	event.ReportID = report.ID
	event.At = report.UpdatedAt
	if err = insertEvent(ctx, tx, event); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create report: %w", err)
	}
	return nil
}

// Transition applies a guarded status change and appends its event atomically. It returns
// sql.ErrNoRows when the guard matched nothing; the caller decides why.
func (r *ReportRepository) Transition(ctx context.Context, t models.ReportTransition) (report *models.Report, err error) {
	if len(t.From) == 0 {
		return nil, fmt.Errorf("transition requires at least one source status")
	}
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	args := make([]interface{}, 0, 8)
	bind := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	atParam := bind(at)
	sets := []string{"updated_at = " + atParam}
	if t.To != nil {
		sets = append(sets, "status = "+bind(*t.To))
	}
	if t.SetTechnicianID != nil {
		sets = append(sets, "assigned_technician_id = "+bind(*t.SetTechnicianID))
	}
	if t.StampReceived {
		sets = append(sets, "received_at = COALESCE(received_at, "+atParam+")")
	}
	if t.StampStarted {
		sets = append(sets, "started_at = COALESCE(started_at, "+atParam+")")
	}
	if t.StampResolved {
		sets = append(sets, "resolved_at = COALESCE(resolved_at, "+atParam+")")
	}

	conditions := []string{
		"id = " + bind(t.ReportID),
		"status = ANY(" + bind(pq.Array(statusStrings(t.From))) + ")",
	}
	if t.RequireAssigneeID != nil {
		conditions = append(conditions, "assigned_technician_id = "+bind(*t.RequireAssigneeID))
	}
	if t.RequireAssigned {
		conditions = append(conditions, "assigned_technician_id IS NOT NULL")
	}

	query := fmt.Sprintf("UPDATE reports SET %s WHERE %s RETURNING %s",
		strings.Join(sets, ", "),
		strings.Join(conditions, " AND "),
		reportColumns,
	)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin report transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var updated models.Report
	if err = tx.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update report status: %w", err)
	}

	event := t.Event
	event.ReportID = updated.ID
	event.At = updated.UpdatedAt
	if err = insertEvent(ctx, tx, &event); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit report transition: %w", err)
	}
	return &updated, nil
}

func insertEvent(ctx context.Context, tx *sqlx.Tx, event *models.ReportEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	const query = `INSERT INTO report_events (id, report_id, actor_id, kind, from_status, to_status, note, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING seq`
	if err := tx.QueryRowxContext(ctx, query, event.ID, event.ReportID, event.ActorID, event.Kind,
		event.FromStatus, event.ToStatus, event.Note, event.At).Scan(&event.Seq); err != nil {
		return fmt.Errorf("insert report event: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// List returns one page of reports and the total matching count. Both statements run in a
// single read-only snapshot so the page and the total agree.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) (reports []models.Report, total int, err error) {
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	where, args := reportConditions(filter)

	tx, err := r.db.BeginTxx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("begin list reports: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	listQuery := fmt.Sprintf("SELECT %s FROM reports%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		reportColumns, where, limit, models.PageOffset(page, limit))
	reports = make([]models.Report, 0)
	if err = tx.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM reports" + where
	if err = tx.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	return reports, total, nil
}

func reportConditions(filter models.ReportFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 5)
	conditions := make([]string, 0, 5)
	if len(filter.Statuses) == 1 {
		args = append(args, filter.Statuses[0])
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	} else if len(filter.Statuses) > 1 {
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		conditions = append(conditions, fmt.Sprintf("assigned_technician_id = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListEvents returns the audit trail of a report in append order.
func (r *ReportRepository) ListEvents(ctx context.Context, reportID string) ([]models.ReportEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM report_events WHERE report_id = $1 ORDER BY at ASC, seq ASC`
	events := make([]models.ReportEvent, 0)
	if err := r.db.SelectContext(ctx, &events, query, reportID); err != nil {
		return nil, fmt.Errorf("list report events: %w", err)
	}
	return events, nil
}

// Count returns the number of reports.
func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return total, nil
}

// StatusSummary reads the status histogram over all reports and the per-day creation counts
// for [from, until) inside one read-only snapshot, so concurrent writes cannot make the two
// disagree. Total is derived from the histogram.
func (r *ReportRepository) StatusSummary(ctx context.Context, from, until time.Time) (*models.StatusSnapshot, error) {
	tx, err := r.db.BeginTxx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin status summary: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	byStatus, err := countByStatus(ctx, tx)
	if err != nil {
		return nil, err
	}
	daily, err := dailyCounts(ctx, tx, from, until)
	if err != nil {
		return nil, err
	}

	snap := &models.StatusSnapshot{ByStatus: byStatus, Daily: daily}
	for _, row := range byStatus {
		snap.Total += row.Count
	}
	return snap, nil
}

// countByStatus groups all reports by status. Statuses without reports are absent.
func countByStatus(ctx context.Context, q sqlx.QueryerContext) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS count FROM reports GROUP BY status`
	counts := make([]models.StatusCount, 0, len(models.ReportStatuses))
	if err := sqlx.SelectContext(ctx, q, &counts, query); err != nil {
		return nil, fmt.Errorf("count reports by status: %w", err)
	}
	return counts, nil
}

// dailyCounts returns creation counts per UTC day for created_at in [from, until).
func dailyCounts(ctx context.Context, q sqlx.QueryerContext, from, until time.Time) ([]models.DailyCount, error) {
	const query = `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS count
FROM reports WHERE created_at >= $1 AND created_at < $2 GROUP BY day ORDER BY day ASC`
	counts := make([]models.DailyCount, 0)
	if err := sqlx.SelectContext(ctx, q, &counts, query, from, until); err != nil {
		return nil, fmt.Errorf("daily report counts: %w", err)
	}
	return counts, nil
}

// DurationRows returns lifecycle timestamps for reports created in [from, until), newest first.
func (r *ReportRepository) DurationRows(ctx context.Context, from, until time.Time) ([]models.DurationRow, error) {
	const query = `SELECT id, title, status, created_at, received_at, started_at, resolved_at
FROM reports WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, id DESC`
	rows := make([]models.DurationRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, from, until); err != nil {
		return nil, fmt.Errorf("duration rows: %w", err)
	}
	return rows, nil
}

// TechnicianSummary counts a technician's reports by bucket with no other filter applied.
func (r *ReportRepository) TechnicianSummary(ctx context.Context, technicianID string) (*models.TechnicianSummary, error) {
	const query = `SELECT
       COUNT(*) FILTER (WHERE status = ANY($2)) AS active,
       COUNT(*) FILTER (WHERE status = $3) AS done,
       COUNT(*) FILTER (WHERE status = $4) AS rejected
FROM reports WHERE assigned_technician_id = $1`
	active := pq.Array(statusStrings([]models.ReportStatus{models.ReportStatusReceived, models.ReportStatusInProgress}))
	var summary models.TechnicianSummary
	if err := r.db.GetContext(ctx, &summary, query, technicianID, active, models.ReportStatusDone, models.ReportStatusRejected); err != nil {
		return nil, fmt.Errorf("technician summary: %w", err)
	}
	return &summary, nil
}

func statusStrings(statuses []models.ReportStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

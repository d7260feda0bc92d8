package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/facility-report-api/internal/models"
)

// memReportStore mimics the guarded SQL store: Transition checks and writes under one lock
// so concurrent callers observe the same single-winner behaviour as the conditional UPDATE.
type memReportStore struct {
	mu      sync.Mutex
	reports map[string]*models.Report
	events  []models.ReportEvent
	users   map[string]*models.User
	seq     int64
	nextID  int
	reads   int
	failErr error
}

func newMemReportStore() *memReportStore {
	return &memReportStore{
		reports: make(map[string]*models.Report),
		users:   make(map[string]*models.User),
	}
}

func (m *memReportStore) addUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

func (m *memReportStore) seed(report models.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if report.UpdatedAt.IsZero() {
		report.UpdatedAt = report.CreatedAt
	}
	m.reports[report.ID] = &report
}

func (m *memReportStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *user
	return &copy, nil
}

func (m *memReportStore) Create(ctx context.Context, report *models.Report, event *models.ReportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if report.ID == "" {
		m.nextID++
		report.ID = fmt.Sprintf("report-%d", m.nextID)
	}
	copy := *report
	m.reports[report.ID] = &copy
	event.ReportID = report.ID
	event.At = report.UpdatedAt
	m.appendEvent(event)
	return nil
}

func (m *memReportStore) Transition(ctx context.Context, t models.ReportTransition) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	report, ok := m.reports[t.ReportID]
	if !ok || !containsReportStatus(t.From, report.Status) {
		return nil, sql.ErrNoRows
	}
	if t.RequireAssigned && report.AssignedTechnicianID == nil {
		return nil, sql.ErrNoRows
	}
	if t.RequireAssigneeID != nil && (report.AssignedTechnicianID == nil || *report.AssignedTechnicianID != *t.RequireAssigneeID) {
		return nil, sql.ErrNoRows
	}

	at := t.At
	report.UpdatedAt = at
	if t.To != nil {
		report.Status = *t.To
	}
	if t.SetTechnicianID != nil {
		id := *t.SetTechnicianID
		report.AssignedTechnicianID = &id
	}
	if t.StampReceived && report.ReceivedAt == nil {
		report.ReceivedAt = &at
	}
	if t.StampStarted && report.StartedAt == nil {
		report.StartedAt = &at
	}
	if t.StampResolved && report.ResolvedAt == nil {
		report.ResolvedAt = &at
	}

	event := t.Event
	event.ReportID = report.ID
	event.At = at
	m.appendEvent(&event)

	copy := *report
	return &copy, nil
}

func (m *memReportStore) appendEvent(event *models.ReportEvent) {
	m.seq++
	event.Seq = m.seq
	event.ID = fmt.Sprintf("event-%d", m.seq)
	m.events = append(m.events, *event)
}

func (m *memReportStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *report
	return &copy, nil
}

func (m *memReportStore) ListEvents(ctx context.Context, reportID string) ([]models.ReportEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ReportEvent
	for _, e := range m.events {
		if e.ReportID == reportID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

func (m *memReportStore) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var matched []models.Report
	for _, r := range m.reports {
		if len(filter.Statuses) > 0 && !containsReportStatus(filter.Statuses, r.Status) {
			continue
		}
		if filter.Category != nil && r.Category != *filter.Category {
			continue
		}
		if filter.Priority != nil && r.Priority != *filter.Priority {
			continue
		}
		if filter.ReporterID != nil && r.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.TechnicianID != nil && (r.AssignedTechnicianID == nil || *r.AssignedTechnicianID != *filter.TechnicianID) {
			continue
		}
		matched = append(matched, *r)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *memReportStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return len(m.reports), nil
}

func (m *memReportStore) StatusSummary(ctx context.Context, from, until time.Time) (*models.StatusSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	byStatus := make(map[models.ReportStatus]int)
	byDay := make(map[string]int)
	for _, r := range m.reports {
		byStatus[r.Status]++
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(until) {
			continue
		}
		byDay[r.CreatedAt.UTC().Format(dayLayout)]++
	}
	snap := &models.StatusSnapshot{Total: len(m.reports)}
	for status, count := range byStatus {
		snap.ByStatus = append(snap.ByStatus, models.StatusCount{Status: status, Count: count})
	}
	for day, count := range byDay {
		snap.Daily = append(snap.Daily, models.DailyCount{Date: day, Count: count})
	}
	sort.Slice(snap.Daily, func(i, j int) bool { return snap.Daily[i].Date < snap.Daily[j].Date })
	return snap, nil
}

func (m *memReportStore) DurationRows(ctx context.Context, from, until time.Time) ([]models.DurationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var out []models.DurationRow
	for _, r := range m.reports {
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(until) {
			continue
		}
		out = append(out, models.DurationRow{
			ID:         r.ID,
			Title:      r.Title,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
			ReceivedAt: r.ReceivedAt,
			StartedAt:  r.StartedAt,
			ResolvedAt: r.ResolvedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memReportStore) TechnicianSummary(ctx context.Context, technicianID string) (*models.TechnicianSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var summary models.TechnicianSummary
	for _, r := range m.reports {
		if r.AssignedTechnicianID == nil || *r.AssignedTechnicianID != technicianID {
			continue
		}
		switch r.Status {
		case models.ReportStatusReceived, models.ReportStatusInProgress:
			summary.Active++
		case models.ReportStatusDone:
			summary.Done++
		case models.ReportStatusRejected:
			summary.Rejected++
		}
	}
	return &summary, nil
}

func (m *memReportStore) eventCount(reportID string) int {
	events, _ := m.ListEvents(context.Background(), reportID)
	return len(events)
}

func strPtr(s string) *string {
	return &s
}

func claimsFor(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

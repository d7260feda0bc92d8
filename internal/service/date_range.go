package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/facility-report-api/internal/models"
	appErrors "github.com/noah-isme/facility-report-api/pkg/errors"
)

const dayLayout = "2006-01-02"

// DateRangePolicy resolves caller supplied day ranges. The caller's range always wins; the
// default window only applies when a bound is omitted.
type DateRangePolicy struct {
	DefaultWindowDays int
	MaxRangeDays      int
}

func (p DateRangePolicy) withDefaults() DateRangePolicy {
	if p.DefaultWindowDays <= 0 {
		p.DefaultWindowDays = 7
	}
	if p.MaxRangeDays <= 0 {
		p.MaxRangeDays = 366
	}
	return p
}

// Resolve parses from/to (YYYY-MM-DD or RFC3339) into an inclusive UTC day range.
func (p DateRangePolicy) Resolve(fromRaw, toRaw string, now time.Time) (models.DateRange, error) {
	p = p.withDefaults()

	to := truncateDay(now)
	if strings.TrimSpace(toRaw) != "" {
		parsed, err := parseDay(toRaw)
		if err != nil {
			return models.DateRange{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -(p.DefaultWindowDays - 1))
	if strings.TrimSpace(fromRaw) != "" {
		parsed, err := parseDay(fromRaw)
		if err != nil {
			return models.DateRange{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
		}
		from = parsed
	}

	if from.After(to) {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}
	if days := int(to.Sub(from).Hours() / 24); days > p.MaxRangeDays {
		return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range must not exceed %d days", p.MaxRangeDays))
	}
	return models.DateRange{From: from, To: to}, nil
}

// exclusiveEnd is the exclusive upper bound of an inclusive day range.
func exclusiveEnd(r models.DateRange) time.Time {
	return r.To.AddDate(0, 0, 1)
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparsable date %q", raw)
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

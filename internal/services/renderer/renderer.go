// Package renderer produces the subject and HTML body of one reminder email
// from a stored template, a typed data record and the attempt id used for
// tracking correlation.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/config"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/placeholder"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// ErrTemplateNotFound marks a missing template: a configuration error that
// fails the whole offset batch instead of a single candidate.
var ErrTemplateNotFound = errors.New("email template not found")

// TemplateRepository supplies stored templates.
type TemplateRepository interface {
	GetTemplate(ctx context.Context, key string) (*models.EmailTemplate, error)
}

// TemplateCache is the read-through cache in front of the repository.
type TemplateCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// ReminderData is the compiler-checked field list projected into the untyped
// placeholder map. Values are formatted to display form here, at the call
// boundary, so the substitution engine stays generic.
type ReminderData struct {
	Name             string
	Nickname         string
	Plate            string
	RenewalDate      time.Time
	DaysRemaining    int
	CurrentAnnualFee *int
}

// Service renders reminder emails.
type Service struct {
	repo  TemplateRepository
	cache TemplateCache
	cfg   config.Reminders
	log   *slog.Logger
}

// New creates a renderer Service. cache may be nil; templates are then read
// from the repository on every render.
func New(repo TemplateRepository, cache TemplateCache, cfg config.Reminders, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, cfg: cfg, log: log}
}

// TemplateKey returns the template key for one offset.
func TemplateKey(offset int) string {
	return fmt.Sprintf("reminder_%d", offset)
}

// Render substitutes every placeholder of the keyed template with values
// derived from data and attemptID. Unknown placeholders become empty
// strings; outbound links are rewritten through the click redirect.
func (s *Service) Render(ctx context.Context, templateKey string, data ReminderData, attemptID uuid.UUID) (subject, body string, err error) {
	const op = "renderer.Render"

	tmpl, err := s.loadTemplate(ctx, templateKey)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	values := s.projectValues(data, attemptID)
	subject = placeholder.Render(tmpl.Subject, values)
	body = placeholder.Render(tmpl.Body, values)
	body = s.wrapLinks(body, attemptID)
	return subject, body, nil
}

// CheckTemplate verifies the keyed template exists, warming the cache. The
// orchestrator calls it before an offset batch so a missing template fails
// the batch up front instead of once per candidate.
func (s *Service) CheckTemplate(ctx context.Context, templateKey string) error {
	const op = "renderer.CheckTemplate"
	if _, err := s.loadTemplate(ctx, templateKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) loadTemplate(ctx context.Context, key string) (*models.EmailTemplate, error) {
	cacheKey := "template:" + key

	if s.cache != nil {
		var cached models.EmailTemplate
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("template cache read failed", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	tmpl, err := s.repo.GetTemplate(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, tmpl, s.cfg.TemplateCacheTTL); err != nil {
			s.log.Warn("template cache write failed", sl.Err(err))
		}
	}
	return tmpl, nil
}

// projectValues flattens data into the placeholder map. Every key the seeded
// templates reference must be produced here.
func (s *Service) projectValues(data ReminderData, attemptID uuid.UUID) map[string]string {
	values := map[string]string{
		"name":           data.Name,
		"nickname":       data.Nickname,
		"plate":          data.Plate,
		"renewal_date":   data.RenewalDate.Format("2006. 01. 02."),
		"days_remaining": strconv.Itoa(data.DaysRemaining),
		"open_pixel":     s.OpenPixelURL(attemptID),
		"callback_url":   s.ActionURL(attemptID, models.TrackingCallback),
		"offer_url":      s.ActionURL(attemptID, models.TrackingOffer),
	}

	if data.CurrentAnnualFee != nil {
		fee := *data.CurrentAnnualFee
		savings := int(math.Round(float64(fee) * s.cfg.SavingsRate))
		values["current_fee"] = groupDigits(fee)
		values["estimated_savings"] = groupDigits(savings)
	}

	return values
}

// OpenPixelURL builds the 1x1 open-tracking resource URL for one attempt.
func (s *Service) OpenPixelURL(attemptID uuid.UUID) string {
	return fmt.Sprintf("%s/track/open?id=%s", s.cfg.BaseURL, attemptID)
}

// ClickURL wraps a real destination in the click-redirect endpoint.
func (s *Service) ClickURL(attemptID uuid.UUID, destination string) string {
	return fmt.Sprintf("%s/track/click?id=%s&url=%s", s.cfg.BaseURL, attemptID, url.QueryEscape(destination))
}

// ActionURL builds a callback/offer action link for one attempt.
func (s *Service) ActionURL(attemptID uuid.UUID, action string) string {
	return fmt.Sprintf("%s/track/action?id=%s&action=%s", s.cfg.BaseURL, attemptID, action)
}

var hrefRe = regexp.MustCompile(`href="(https?://[^"]+)"`)

// wrapLinks rewrites every outbound href through the click redirect so the
// click can be correlated. Links already pointing at the tracking endpoints
// are left alone.
func (s *Service) wrapLinks(body string, attemptID uuid.UUID) string {
	trackingPrefix := s.cfg.BaseURL + "/track/"
	return hrefRe.ReplaceAllStringFunc(body, func(match string) string {
		dest := hrefRe.FindStringSubmatch(match)[1]
		if strings.HasPrefix(dest, trackingPrefix) {
			return match
		}
		return fmt.Sprintf(`href="%s"`, s.ClickURL(attemptID, dest))
	})
}

// groupDigits formats n with spaces as thousand separators, the Hungarian
// display convention (12 400).
func groupDigits(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.Itoa(n)
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// Package template manages stored email templates and keeps the render
// cache in step with edits.
package template

import (
	"context"
	"log/slog"
	"time"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/placeholder"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Repository defines the storage methods the service needs.
type Repository interface {
	GetTemplate(ctx context.Context, key string) (*models.EmailTemplate, error)
	UpsertTemplate(ctx context.Context, tmpl models.EmailTemplate) error
}

// Cache is the render cache invalidated on template edits.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// Service implements template business logic.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New creates a template Service. cache may be nil.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Get returns one stored template together with the placeholder keys its
// subject and body reference, so editors can see what will be substituted.
func (s *Service) Get(ctx context.Context, key string) (*models.EmailTemplate, []string, error) {
	tmpl, err := s.repo.GetTemplate(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	keys := placeholder.Keys(tmpl.Subject + " " + tmpl.Body)
	return tmpl, keys, nil
}

// Upsert stores a template and evicts it from the render cache so the next
// reminder run picks up the edit immediately.
func (s *Service) Upsert(ctx context.Context, key string, req models.DummyTemplate) error {
	tmpl := models.EmailTemplate{
		TemplateKey: key,
		Subject:     req.Subject,
		Body:        req.Body,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertTemplate(ctx, tmpl); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "template:"+key); err != nil {
			s.log.Warn("template cache invalidation failed", sl.Err(err))
		}
	}
	s.log.Info("template updated", slog.String("template_key", key))
	return nil
}

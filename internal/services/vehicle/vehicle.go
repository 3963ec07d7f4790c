// Package vehicle contains the business logic for managing registered
// vehicles and serving their renewal status.
package vehicle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/renewal"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/lib/sl"
	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Repository defines the storage methods the service needs.
type Repository interface {
	CreateVehicle(ctx context.Context, vehicle models.Vehicle) (int, error)
	ReadVehicle(ctx context.Context, id int) (*models.Vehicle, error)
	ListVehiclesByUser(ctx context.Context, userUID string) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicle models.Vehicle, id int) (int, error)
	RemoveVehicle(ctx context.Context, id int) (int, error)
	ListAttemptsByVehicle(ctx context.Context, vehicleID int) ([]models.ReminderAttempt, error)
}

// Cache holds rendered vehicle records between reads.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// StatusView is a vehicle joined with its computed renewal urgency, the
// shape served by the status endpoint.
type StatusView struct {
	Vehicle       models.Vehicle
	DaysRemaining int
	State         renewal.State
	Label         string
	Progress      float64
	CanSwitch     bool
	NextRenewalIn int
}

// Service implements vehicle business logic with read-through caching.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New creates a vehicle Service. cache may be nil.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Create validates and stores a new vehicle, returning its id.
func (s *Service) Create(ctx context.Context, req models.DummyVehicle) (int, error) {
	renewalDate, err := time.Parse("2006-01-02", req.RenewalDate)
	if err != nil {
		return 0, fmt.Errorf("invalid renewal date: %w", err)
	}

	vehicle := models.Vehicle{
		UserUID:          req.UserUID,
		Plate:            req.Plate,
		Nickname:         req.Nickname,
		RenewalDate:      renewal.Truncate(renewalDate),
		CurrentAnnualFee: req.CurrentAnnualFee,
	}

	id, err := s.repo.CreateVehicle(ctx, vehicle)
	if err != nil {
		return 0, err
	}
	s.log.Info("registered vehicle", slog.Int("id", id), slog.String("plate", vehicle.Plate))
	return id, nil
}

// Read returns one vehicle by id, using the cache when possible.
func (s *Service) Read(ctx context.Context, id int) (*models.Vehicle, error) {
	cacheKey := cacheKey(id)

	if s.cache != nil {
		var cached models.Vehicle
		found, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.log.Warn("vehicle cache read failed", sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	vehicle, err := s.repo.ReadVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, vehicle, time.Hour); err != nil {
			s.log.Warn("vehicle cache write failed", sl.Err(err))
		}
	}
	return vehicle, nil
}

// List returns all vehicles of one user.
func (s *Service) List(ctx context.Context, userUID string) ([]models.Vehicle, error) {
	return s.repo.ListVehiclesByUser(ctx, userUID)
}

// Update replaces the mutable fields of a vehicle and invalidates its cache
// entry. Returns the number of affected rows.
func (s *Service) Update(ctx context.Context, req models.DummyVehicle, id int) (int, error) {
	renewalDate, err := time.Parse("2006-01-02", req.RenewalDate)
	if err != nil {
		return 0, fmt.Errorf("invalid renewal date: %w", err)
	}

	vehicle := models.Vehicle{
		UserUID:          req.UserUID,
		Plate:            req.Plate,
		Nickname:         req.Nickname,
		RenewalDate:      renewal.Truncate(renewalDate),
		CurrentAnnualFee: req.CurrentAnnualFee,
	}

	count, err := s.repo.UpdateVehicle(ctx, vehicle, id)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, id)
	return count, nil
}

// Remove deletes a vehicle. Ledger rows cascade away with it.
func (s *Service) Remove(ctx context.Context, id int) (int, error) {
	s.invalidate(ctx, id)
	return s.repo.RemoveVehicle(ctx, id)
}

// Status classifies the vehicle's renewal date against today.
func (s *Service) Status(ctx context.Context, id int, today time.Time) (*StatusView, error) {
	vehicle, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	status := renewal.Calculate(vehicle.RenewalDate, today)
	return &StatusView{
		Vehicle:       *vehicle,
		DaysRemaining: status.DaysRemaining,
		State:         status.State,
		Label:         status.Label,
		Progress:      status.ProgressPercent,
		CanSwitch:     status.CanSwitch,
		NextRenewalIn: renewal.DaysUntilNext(vehicle.RenewalDate, today),
	}, nil
}

// History returns the reminder delivery log of one vehicle, newest first.
func (s *Service) History(ctx context.Context, id int) ([]models.ReminderAttempt, error) {
	return s.repo.ListAttemptsByVehicle(ctx, id)
}

func (s *Service) invalidate(ctx context.Context, id int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("vehicle cache invalidation failed", sl.Err(err))
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("vehicle:%d", id)
}

package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Statistics summarizes the user population.
type Statistics struct {
	TotalUsers   int
	UsersWithAge int
	AverageAge   *float64
}

// Service holds the business rules above the repository: uniqueness
// of username and email, age-range sanity, aggregate statistics.
type Service struct {
	repo Repository
	id   func() uuid.UUID
	now  func() time.Time
}

// NewService wires the service; id and now default to uuid.New and
// time.Now and exist for test injection.
func NewService(repo Repository, id func() uuid.UUID, now func() time.Time) *Service {
	if id == nil {
		id = uuid.New
	}
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, id: id, now: now}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (User, error) {
	if err := s.checkUsernameFree(ctx, params.Username); err != nil {
		return User{}, err
	}
	if err := s.checkEmailFree(ctx, params.Email); err != nil {
		return User{}, err
	}

	now := s.now()
	u := User{
		ID:        s.id(),
		Username:  params.Username,
		Email:     params.Email,
		FullName:  params.FullName,
		Age:       params.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (User, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	if params.Username != nil && *params.Username != existing.Username {
		if err := s.checkUsernameFree(ctx, *params.Username); err != nil {
			return User{}, err
		}
		existing.Username = *params.Username
	}
	if params.Email != nil && *params.Email != existing.Email {
		if err := s.checkEmailFree(ctx, *params.Email); err != nil {
			return User{}, err
		}
		existing.Email = *params.Email
	}
	if params.FullName != nil {
		existing.FullName = *params.FullName
	}
	if params.Age != nil {
		existing.Age = params.Age
	}
	existing.UpdatedAt = s.now()

	if err := existing.Validate(); err != nil {
		return User{}, err
	}
	return s.repo.Update(ctx, existing)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *Service) FindByAgeRange(ctx context.Context, minAge, maxAge int) ([]User, error) {
	if minAge > maxAge {
		return nil, validationErrorf("age", "minimum age cannot be greater than maximum age")
	}
	return s.repo.FindByAgeRange(ctx, minAge, maxAge)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{TotalUsers: len(users)}
	var sum int
	for _, u := range users {
		if u.Age != nil {
			stats.UsersWithAge++
			sum += *u.Age
		}
	}
	if stats.UsersWithAge > 0 {
		avg := float64(sum) / float64(stats.UsersWithAge)
		stats.AverageAge = &avg
	}
	return stats, nil
}

func (s *Service) checkUsernameFree(ctx context.Context, username string) error {
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return validationErrorf("username", "username %q is already taken", username)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) checkEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return validationErrorf("email", "email %q is already registered", email)
	}
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

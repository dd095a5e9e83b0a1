// Package users provides user account management over the file-backed store.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opsboard/opsboard/internal/auth"
	"github.com/opsboard/opsboard/internal/query"
	"github.com/opsboard/opsboard/internal/store"
)

// Errors returned by user operations.
var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is not active")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidPassword    = errors.New("current password is incorrect")
)

// Service provides account management for users.
type Service struct {
	col    *store.Collection[User, *User]
	logger *slog.Logger
}

// NewService creates a new users service over the given collection.
func NewService(log *slog.Logger, col *store.Collection[User, *User]) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		col:    col,
		logger: log.With(slog.String("service", "users")),
	}
}

// EnsureSeed creates the collection with the initial admin account if no
// collection document exists yet.
func (s *Service) EnsureSeed(admin AdminSeed) error {
	username := strings.TrimSpace(admin.Username)
	password := strings.TrimSpace(admin.Password)
	if username == "" || password == "" {
		return errors.New("admin username/password required")
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.col.Ensure([]User{{
		Username: username,
		Email:    strings.TrimSpace(admin.Email),
		Password: hashed,
		Name:     "Administrator",
		Role:     RoleAdmin,
		Status:   StatusActive,
	}})
}

// Login authenticates by email and password, touches lastLogin, and returns
// the account. Unknown email and wrong password collapse to the same error.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	user, err := s.getByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !auth.CheckPassword(password, user.Password) {
		return User{}, ErrInvalidCredentials
	}
	if user.Status != StatusActive {
		return User{}, ErrInactiveAccount
	}

	now := time.Now().UTC()
	updated, err := s.col.Update(user.ID, func(u *User) {
		u.LastLogin = &now
	})
	if err != nil {
		s.logger.Warn("touch last login failed", slog.Any("error", err))
		return user, nil
	}
	return updated, nil
}

// Register creates a new account. The username defaults to the email local part.
func (s *Service) Register(ctx context.Context, req CreateRequest) (User, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := s.getByEmail(email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, err
	}
	role := req.Role
	if role == "" {
		role = RoleUser
	}
	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}

	return s.col.Create(User{
		Username: username,
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(req.Name),
		Role:     role,
		Status:   StatusActive,
	})
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	user, err := s.col.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// GetByEmail returns the account with the given email; first match wins.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.getByEmail(email)
}

// List applies search, role/status filters, sorting, and pagination, returning
// password-stripped views.
func (s *Service) List(ctx context.Context, q ListQuery) ([]PublicUser, query.Pagination, error) {
	items, err := s.col.All()
	if err != nil {
		return nil, query.Pagination{}, err
	}

	items = query.Filter(items, func(u User) bool {
		if !query.MatchFold(q.Search, u.Name, u.Email, u.Username) {
			return false
		}
		if q.Role != "" && u.Role != q.Role {
			return false
		}
		if q.Status != "" && u.Status != q.Status {
			return false
		}
		return true
	})

	query.SortBy(items, userLess(q.SortBy), strings.ToLower(q.SortOrder) != "asc")

	page, pagination := query.Paginate(items, q.Page, q.Limit)
	public := make([]PublicUser, 0, len(page))
	for _, u := range page {
		public = append(public, u.Public())
	}
	return public, pagination, nil
}

// Update merges the partial request into the account. Role changes are the
// handler's policy concern; email uniqueness is enforced here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (User, error) {
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		existing, err := s.getByEmail(email)
		if err == nil && existing.ID != id {
			return User{}, ErrEmailTaken
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}

	updated, err := s.col.Update(id, func(u *User) {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			u.Email = strings.TrimSpace(*req.Email)
		}
		if req.Status != nil {
			u.Status = *req.Status
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.Avatar != nil {
			u.Avatar = *req.Avatar
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return updated, nil
}

// UpdatePassword changes the account password. When requireCurrent is set the
// stored hash must match currentPassword first (self-service change); admins
// resetting another account skip the check.
func (s *Service) UpdatePassword(ctx context.Context, id int64, currentPassword, newPassword string, requireCurrent bool) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if requireCurrent && !auth.CheckPassword(currentPassword, user.Password) {
		return ErrInvalidPassword
	}
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = s.col.Update(id, func(u *User) {
		u.Password = hashed
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete removes the account and reports whether one was removed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.col.Delete(id)
}

// Stats summarizes the collection in a single pass.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, err := s.col.All()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(items)}
	for _, u := range items {
		if u.Status == StatusActive {
			stats.Active++
		}
		if u.Role == RoleAdmin {
			stats.Admins++
		}
	}
	return stats, nil
}

// ResolvePrincipal implements auth.UserResolver for the authentication gate.
// Deactivated accounts lose access immediately, not at token expiry.
func (s *Service) ResolvePrincipal(ctx context.Context, id int64) (auth.Principal, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Principal{}, auth.ErrUnknownPrincipal
		}
		return auth.Principal{}, err
	}
	if user.Status != StatusActive {
		return auth.Principal{}, auth.ErrInactivePrincipal
	}
	return auth.Principal{ID: user.ID, Role: user.Role}, nil
}

func (s *Service) getByEmail(email string) (User, error) {
	user, err := s.col.Find(func(u User) bool { return u.Email == email })
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("lookup by email: %w", err)
	}
	return user, nil
}

// userLess returns the comparator for the sort key; unknown keys compare equal
// so the stable sort preserves input order.
func userLess(sortBy string) func(a, b User) bool {
	switch sortBy {
	case "name":
		return func(a, b User) bool { return a.Name < b.Name }
	case "email":
		return func(a, b User) bool { return a.Email < b.Email }
	case "username":
		return func(a, b User) bool { return a.Username < b.Username }
	case "role":
		return func(a, b User) bool { return a.Role < b.Role }
	case "status":
		return func(a, b User) bool { return a.Status < b.Status }
	case "lastLogin":
		return func(a, b User) bool {
			switch {
			case a.LastLogin == nil:
				return b.LastLogin != nil
			case b.LastLogin == nil:
				return false
			default:
				return a.LastLogin.Before(*b.LastLogin)
			}
		}
	case "updatedAt":
		return func(a, b User) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "id":
		return func(a, b User) bool { return a.ID < b.ID }
	case "", "createdAt":
		return func(a, b User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return nil
	}
}

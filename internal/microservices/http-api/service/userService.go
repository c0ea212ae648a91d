package service

import (
	"context"
	"errors"
	"log/slog"

	"titlehub/internal/microservices/http-api/dto"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/permission"
	"titlehub/internal/microservices/http-api/repository"
	"titlehub/internal/microservices/http-api/validator"
)

type UserService interface {
	List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.UserResponse], error)
	Create(ctx context.Context, req dto.CreateUserDTO) (*dto.UserResponse, error)
	GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, username string, req dto.UpdateUserDTO) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error

	Me(ctx context.Context, id permission.Identity) (*dto.UserResponse, error)
	// UpdateMe edits the caller's own profile; the role cannot be changed here.
	UpdateMe(ctx context.Context, id permission.Identity, req dto.UpdateUserDTO) (*dto.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
	log  *slog.Logger
}

func NewUserService(repo repository.UserRepository, log *slog.Logger) UserService {
	return &userService{repo: repo, log: log}
}

func (s *userService) List(ctx context.Context, q dto.PageQuery) (*dto.PaginatedResponse[dto.UserResponse], error) {
	p := pageOf(q)
	list, total, err := s.repo.List(ctx, q.Search, p)
	if err != nil {
		return nil, err
	}
	return paginate(list, dto.FromUserModels, p, total), nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserDTO) (*dto.UserResponse, error) {
	u := req.ToModel()
	if err := s.checkUnique(ctx, &u); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return nil, conflictAsValidation(err)
	}
	s.log.InfoContext(ctx, "user_created", "username", u.Username, "role", u.Role)
	resp := dto.FromUserModel(u)
	return &resp, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*dto.UserResponse, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound("user", err)
	}
	resp := dto.FromUserModel(*u)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, username string, req dto.UpdateUserDTO) (*dto.UserResponse, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound("user", err)
	}
	return s.apply(ctx, u, req)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return notFound("user", err)
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return notFound("user", err)
	}
	s.log.InfoContext(ctx, "user_deleted", "username", u.Username)
	return nil
}

func (s *userService) Me(ctx context.Context, id permission.Identity) (*dto.UserResponse, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthenticated
	}
	u, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, notFound("user", err)
	}
	resp := dto.FromUserModel(*u)
	return &resp, nil
}

func (s *userService) UpdateMe(ctx context.Context, id permission.Identity, req dto.UpdateUserDTO) (*dto.UserResponse, error) {
	if !id.Authenticated() {
		return nil, ErrUnauthenticated
	}
	u, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return nil, notFound("user", err)
	}
	req.Role = nil
	return s.apply(ctx, u, req)
}

func (s *userService) apply(ctx context.Context, u *models.User, req dto.UpdateUserDTO) (*dto.UserResponse, error) {
	req.ApplyTo(u)
	if err := s.checkUnique(ctx, u); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, conflictAsValidation(err)
	}
	s.log.InfoContext(ctx, "user_updated", "username", u.Username)
	resp := dto.FromUserModel(*u)
	return &resp, nil
}

// checkUnique rejects a username or email held by a different account.
func (s *userService) checkUnique(ctx context.Context, u *models.User) error {
	verr := &ValidationError{}
	if err := validator.ValidateUsername(u.Username); err != nil {
		verr.Add("username", err.Error())
	}

	other, err := s.repo.FindByUsername(ctx, u.Username)
	switch {
	case err == nil && other.ID != u.ID:
		verr.Add("username", "a user with that username already exists")
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}

	other, err = s.repo.FindByEmail(ctx, u.Email)
	switch {
	case err == nil && other.ID != u.ID:
		verr.Add("email", "a user with that email already exists")
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}
	return verr.OrNil()
}

func conflictAsValidation(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return NewValidationError(NonFieldErrors, "a user with that username or email already exists")
	}
	return err
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint/coaching-admin-api/internal/models"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
)

type parentRepository interface {
	FindByID(ctx context.Context, id string) (*models.ParentDetail, error)
	List(ctx context.Context, page, size int) ([]models.ParentDetail, int, error)
	CreateWithAccount(ctx context.Context, parent *models.Parent, account *models.User) error
	Update(ctx context.Context, parent *models.Parent) error
	StudentsOf(ctx context.Context, parentID string) ([]models.Student, error)
}

// ParentService provides guardian management use cases.
type ParentService struct {
	repo      parentRepository
	accounts  accountChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService constructs a ParentService instance.
func NewParentService(repo parentRepository, accounts accountChecker, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ParentService{repo: repo, accounts: accounts, validator: validate, logger: logger}
}

// List returns guardians with pagination.
func (s *ParentService) List(ctx context.Context, page, size int) ([]models.ParentDetail, int, error) {
	parents, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, total, nil
}

// Get returns a single guardian with contact details.
func (s *ParentService) Get(ctx context.Context, id string) (*models.ParentDetail, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch parent")
	}
	return parent, nil
}

// Create registers a guardian together with a login account.
func (s *ParentService) Create(ctx context.Context, req models.CreateParentRequest) (*models.ParentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	taken, err := s.accounts.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	parent := &models.Parent{
		Occupation:     req.Occupation,
		AlternatePhone: req.AlternatePhone,
		Address:        req.Address,
	}
	account := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         models.RoleParent,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := s.repo.CreateWithAccount(ctx, parent, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}

	s.logger.Info("parent created", zap.String("parent_id", parent.ID))
	return &models.ParentDetail{
		Parent:   *parent,
		FullName: account.FullName,
		Email:    account.Email,
		Phone:    account.Phone,
	}, nil
}

// Update edits a guardian profile.
func (s *ParentService) Update(ctx context.Context, id string, req models.UpdateParentRequest) (*models.ParentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail.Occupation = req.Occupation
	detail.AlternatePhone = req.AlternatePhone
	detail.Address = req.Address

	if err := s.repo.Update(ctx, &detail.Parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return detail, nil
}

// Students lists the students owned by a guardian.
func (s *ParentService) Students(ctx context.Context, parentID string) ([]models.Student, error) {
	if _, err := s.Get(ctx, parentID); err != nil {
		return nil, err
	}
	students, err := s.repo.StudentsOf(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parent students")
	}
	return students, nil
}

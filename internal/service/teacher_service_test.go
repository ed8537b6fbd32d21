package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edupoint/coaching-admin-api/internal/models"
	appErrors "github.com/edupoint/coaching-admin-api/pkg/errors"
)

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	emailIndex map[string]string
	accounts   []*models.User
	deleted    []string
}

func (m *mockTeacherRepo) List(context.Context, models.TeacherFilter) ([]models.Teacher, int, error) {
	return nil, 0, nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.items[id]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByEmail(_ context.Context, email, excludeID string) (bool, error) {
	if owner, ok := m.emailIndex[email]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) CreateWithAccount(_ context.Context, teacher *models.Teacher, account *models.User) error {
	if m.items == nil {
		m.items = make(map[string]*models.Teacher)
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	cp := *teacher
	m.items[teacher.ID] = &cp
	m.accounts = append(m.accounts, account)
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func validTeacherRequest() models.CreateTeacherRequest {
	return models.CreateTeacherRequest{
		FullName:    "Meera Nair",
		Email:       "meera@example.com",
		Phone:       "+919876543210",
		Subject:     "Physics",
		JoiningDate: "2026-06-01",
		Password:    "pass-word-1",
	}
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &mockTeacherRepo{}
	accounts := &mockUserRepo{}
	svc := NewTeacherService(repo, accounts, nil, nil)

	teacher, err := svc.Create(context.Background(), validTeacherRequest())
	require.NoError(t, err)
	assert.Equal(t, "meera@example.com", teacher.Email)
	assert.Equal(t, models.TeacherStatusActive, teacher.Status)
	require.Len(t, repo.accounts, 1)

	account := repo.accounts[0]
	assert.Equal(t, models.RoleTeacher, account.Role)
	assert.True(t, account.Active)
	assert.NotEqual(t, "pass-word-1", account.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("pass-word-1")))
}

func TestTeacherServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockTeacherRepo{emailIndex: map[string]string{"meera@example.com": "other"}}
	svc := NewTeacherService(repo, &mockUserRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), validTeacherRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceCreateDuplicateAccountEmail(t *testing.T) {
	repo := &mockTeacherRepo{}
	accounts := &mockUserRepo{exists: map[string]bool{"meera@example.com": true}}
	svc := NewTeacherService(repo, accounts, nil, nil)

	_, err := svc.Create(context.Background(), validTeacherRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", Email: "meera@example.com", FullName: "Meera Nair", Status: models.TeacherStatusActive},
		},
	}
	svc := NewTeacherService(repo, &mockUserRepo{}, nil, nil)

	inactive := models.TeacherStatusInactive
	updated, err := svc.Update(context.Background(), "t1", models.UpdateTeacherRequest{
		FullName:    "Meera S Nair",
		Email:       "meera@example.com",
		Phone:       "+919876543210",
		Subject:     "Chemistry",
		JoiningDate: "2026-06-01",
		Status:      &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Meera S Nair", updated.FullName)
	assert.Equal(t, "Chemistry", updated.Subject)
	assert.Equal(t, models.TeacherStatusInactive, updated.Status)
}

func TestTeacherServiceUpdateEmailConflict(t *testing.T) {
	repo := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", Email: "meera@example.com", FullName: "Meera Nair"},
		},
		emailIndex: map[string]string{"taken@example.com": "t2"},
	}
	svc := NewTeacherService(repo, &mockUserRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "t1", models.UpdateTeacherRequest{
		FullName:    "Meera Nair",
		Email:       "taken@example.com",
		Phone:       "+919876543210",
		Subject:     "Physics",
		JoiningDate: "2026-06-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := &mockTeacherRepo{
		items: map[string]*models.Teacher{
			"t1": {ID: "t1", Email: "meera@example.com"},
		},
	}
	svc := NewTeacherService(repo, &mockUserRepo{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	assert.Equal(t, []string{"t1"}, repo.deleted)

	err := svc.Delete(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

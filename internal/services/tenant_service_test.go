package services

import (
	"context"
	"errors"
	"testing"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TenantServiceTestSuite struct {
	suite.Suite
	mockRepo *MockTenantRepository
	service  TenantService
}

func (suite *TenantServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockTenantRepository{}
	suite.service = NewTenantService(suite.mockRepo)
	suite.mockRepo.Test(suite.T())
}

func (suite *TenantServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestTenantServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenantServiceTestSuite))
}

func (suite *TenantServiceTestSuite) TestCreate_SeedsPipelineAndOwner() {
	ctx := context.Background()
	ownerID := uuid.New()
	req := &CreateTenantRequest{
		Name:      "Ромашка",
		Slug:      "romashka",
		INN:       "7707083893",
		OwnerName: "Иван Петров",
		OwnerMail: "ivan@example.com",
	}

	suite.mockRepo.On("CreateWithDefaults", ctx,
		mock.AnythingOfType("*models.Tenant"),
		mock.AnythingOfType("[]*models.TenderStage"),
		mock.AnythingOfType("*models.Role"),
		mock.AnythingOfType("*models.Employee"),
	).Return(nil).Run(func(args mock.Arguments) {
		tenant := args.Get(1).(*models.Tenant)
		stages := args.Get(2).([]*models.TenderStage)
		owner := args.Get(3).(*models.Role)
		employee := args.Get(4).(*models.Employee)

		assert.Equal(suite.T(), models.TenantStatusActive, tenant.Status)
		assert.Len(suite.T(), stages, 5)
		for i, st := range stages {
			assert.Equal(suite.T(), i+1, st.Position)
			assert.Equal(suite.T(), tenant.ID, st.TenantID)
		}
		assert.Equal(suite.T(), models.StageKindWon, stages[3].Kind)
		assert.Equal(suite.T(), models.StageKindLost, stages[4].Kind)

		assert.Equal(suite.T(), OwnerRoleName, owner.Name)
		assert.Equal(suite.T(), []string{models.PermissionAll}, owner.Permissions)

		assert.Equal(suite.T(), owner.ID, employee.RoleID)
		assert.Equal(suite.T(), &ownerID, employee.UserID)
		assert.Equal(suite.T(), "Иван Петров", employee.FullName)
	})

	tenant, err := suite.service.Create(ctx, ownerID, req)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "romashka", tenant.Slug)
	assert.NotEqual(suite.T(), uuid.Nil, tenant.ID)
}

func (suite *TenantServiceTestSuite) TestCreate_Validation() {
	cases := []struct {
		name string
		req  CreateTenantRequest
		msg  string
	}{
		{"empty name", CreateTenantRequest{Slug: "acme"}, "name and slug are required"},
		{"empty slug", CreateTenantRequest{Name: "Acme"}, "name and slug are required"},
		{"slug with spaces", CreateTenantRequest{Name: "Acme", Slug: "acme corp"}, "slug cannot have spaces"},
		{"slug with padding", CreateTenantRequest{Name: "Acme", Slug: " acme "}, "slug cannot have spaces"},
		{"uppercase slug", CreateTenantRequest{Name: "Acme", Slug: "Acme"}, "lowercase"},
		{"bad inn", CreateTenantRequest{Name: "Acme", Slug: "acme", INN: "123"}, "10 or 12 digits"},
	}
	for _, tc := range cases {
		suite.Run(tc.name, func() {
			tenant, err := suite.service.Create(context.Background(), uuid.New(), &tc.req)
			assert.Nil(suite.T(), tenant)
			assert.ErrorIs(suite.T(), err, common.ErrValidation)
			assert.Contains(suite.T(), err.Error(), tc.msg)
		})
	}
}

func (suite *TenantServiceTestSuite) TestCreate_RepositoryError() {
	ctx := context.Background()
	suite.mockRepo.On("CreateWithDefaults", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("database connection failed"))

	tenant, err := suite.service.Create(ctx, uuid.New(), &CreateTenantRequest{Name: "Acme", Slug: "acme"})
	assert.Nil(suite.T(), tenant)
	assert.EqualError(suite.T(), err, "database connection failed")
}

func (suite *TenantServiceTestSuite) TestGetByID_NotFound() {
	ctx := context.Background()
	id := uuid.New()
	suite.mockRepo.On("GetByID", ctx, id).Return(nil, common.ErrNotFound)

	tenant, err := suite.service.GetByID(ctx, id)
	assert.Nil(suite.T(), tenant)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantServiceTestSuite) TestUpdate_Success() {
	ctx := context.Background()
	id := uuid.New()
	existing := &models.Tenant{ID: id, Name: "Old", Slug: "old", Status: models.TenantStatusActive}
	suite.mockRepo.On("GetByID", ctx, id).Return(existing, nil)
	suite.mockRepo.On("Update", ctx, existing).Return(nil)

	tenant, err := suite.service.Update(ctx, &UpdateTenantRequest{
		ID: id, Name: " New ", Slug: "new", Status: models.TenantStatusSuspended,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "New", tenant.Name)
	assert.Equal(suite.T(), "new", tenant.Slug)
	assert.Equal(suite.T(), models.TenantStatusSuspended, tenant.Status)
}

func (suite *TenantServiceTestSuite) TestUpdate_NotFound() {
	ctx := context.Background()
	id := uuid.New()
	suite.mockRepo.On("GetByID", ctx, id).Return(nil, common.ErrNotFound)

	_, err := suite.service.Update(ctx, &UpdateTenantRequest{ID: id, Name: "A", Slug: "ab", Status: "active"})
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *TenantServiceTestSuite) TestDelete() {
	ctx := context.Background()
	id := uuid.New()
	suite.mockRepo.On("Delete", ctx, id).Return(nil)

	assert.NoError(suite.T(), suite.service.Delete(ctx, id))
}

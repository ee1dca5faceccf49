package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"bizdesk/internal/common"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type TenderHandlersTestSuite struct {
	suite.Suite
	env     *testEnv
	service *MockTenderService
}

func (s *TenderHandlersTestSuite) SetupTest() {
	s.env = newTestEnv(true)
	s.service = new(MockTenderService)
	NewTenderHandlers(s.service, s.env.rbacMw).Register(s.env.group)
}

func (s *TenderHandlersTestSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *TenderHandlersTestSuite) TestListTendersPassesFilter() {
	s.env.allowAll()
	stageID := uuid.New()
	view := &services.TenderView{Tender: &models.Tender{ID: uuid.New(), Title: "Поставка бумаги"}, StageName: "Новые"}

	s.service.On("List", mock.Anything, s.env.tenantID, models.TenderFilter{
		StageID: &stageID,
		Query:   "бумага",
		Limit:   10,
		Offset:  0,
	}).Return([]*services.TenderView{view}, nil)

	rec := s.env.do(http.MethodGet, "/v1/tenders?stage_id="+stageID.String()+"&q=%D0%B1%D1%83%D0%BC%D0%B0%D0%B3%D0%B0&limit=10", nil)
	s.Equal(http.StatusOK, rec.Code)

	var body struct {
		Data  []map[string]any `json:"data"`
		Limit int              `json:"limit"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Data, 1)
	s.Equal("Новые", body.Data[0]["stage_name"])
	s.Equal(10, body.Limit)
}

func (s *TenderHandlersTestSuite) TestListTendersRejectsBadStageID() {
	s.env.allowAll()
	rec := s.env.do(http.MethodGet, "/v1/tenders?stage_id=nope", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.service.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TenderHandlersTestSuite) TestCreateTenderValidation() {
	s.env.allowAll()
	rec := s.env.do(http.MethodPost, "/v1/tenders", map[string]any{"initial_price": 100})
	s.Equal(http.StatusBadRequest, rec.Code)

	var resp common.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("VALIDATION_ERROR", resp.Error.Code)
	s.Contains(resp.Error.Details, "title")
}

func (s *TenderHandlersTestSuite) TestCreateTender() {
	s.env.allowAll()
	created := &services.TenderView{Tender: &models.Tender{ID: uuid.New(), Title: "Ремонт кровли"}}
	s.service.On("Create", mock.Anything, s.env.tenantID, mock.MatchedBy(func(r *services.TenderRequest) bool {
		return r.Title == "Ремонт кровли" && r.InitialPrice == 150000000
	})).Return(created, nil)

	rec := s.env.do(http.MethodPost, "/v1/tenders", map[string]any{
		"title":         "Ремонт кровли",
		"initial_price": 150000000,
	})
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *TenderHandlersTestSuite) TestChangeStageRecordsCaller() {
	s.env.allowAll()
	tenderID, stageID := uuid.New(), uuid.New()
	s.service.On("ChangeStage", mock.Anything, s.env.tenantID, tenderID, stageID, &s.env.userID).
		Return(&services.TenderView{Tender: &models.Tender{ID: tenderID}}, nil)

	rec := s.env.do(http.MethodPost, "/v1/tenders/"+tenderID.String()+"/stage", map[string]any{"stage_id": stageID})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TenderHandlersTestSuite) TestChangeStageToSameStage() {
	s.env.allowAll()
	tenderID, stageID := uuid.New(), uuid.New()
	s.service.On("ChangeStage", mock.Anything, s.env.tenantID, tenderID, stageID, mock.Anything).
		Return(nil, services.ErrSameStage)

	rec := s.env.do(http.MethodPost, "/v1/tenders/"+tenderID.String()+"/stage", map[string]any{"stage_id": stageID})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", errorCode(rec))
}

func (s *TenderHandlersTestSuite) TestDeleteStageInUse() {
	s.env.allowAll()
	stageID := uuid.New()
	s.service.On("DeleteStage", mock.Anything, s.env.tenantID, stageID).Return(services.ErrStageInUse)

	rec := s.env.do(http.MethodDelete, "/v1/tender-stages/"+stageID.String(), nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *TenderHandlersTestSuite) TestGetTenderNotFound() {
	s.env.allowAll()
	id := uuid.New()
	s.service.On("Get", mock.Anything, s.env.tenantID, id).Return(nil, common.ErrNotFound)

	rec := s.env.do(http.MethodGet, "/v1/tenders/"+id.String(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *TenderHandlersTestSuite) TestWriteRequiresPermission() {
	s.env.rbac.On("UserHasPermission", mock.Anything, s.env.userID, s.env.tenantID, services.PermTendersWrite).Return(false, nil)

	rec := s.env.do(http.MethodPost, "/v1/tenders", map[string]any{"title": "x"})
	s.Equal(http.StatusForbidden, rec.Code)
}

func TestTenderHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(TenderHandlersTestSuite))
}

func TestTenantFromMissingTenant(t *testing.T) {
	env := newTestEnv(false)
	env.group.GET("/whoami", func(c echo.Context) error {
		_, err := tenantFrom(c)
		return err
	})

	rec := env.do(http.MethodGet, "/v1/whoami", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(rec))
}

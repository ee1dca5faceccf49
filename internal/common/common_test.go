package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid", input: "123e4567-e89b-12d3-a456-426614174000"},
		{name: "empty", input: "  ", wantErr: "is required"},
		{name: "short", input: "123e4567", wantErr: "exactly 36 characters"},
		{name: "hyphens misplaced", input: "123e4567e-89b-12d3-a456-426614174000", wantErr: "hyphens"},
		{name: "bad chars", input: "123e4567-e89b-12d3-a456-42661417400z", wantErr: "invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateUUID(tt.input, "id")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateINN(t *testing.T) {
	assert.NoError(t, ValidateINN("", "inn"))
	assert.NoError(t, ValidateINN("7707083893", "inn"))
	assert.NoError(t, ValidateINN("500100732259", "inn"))
	assert.Error(t, ValidateINN("12345", "inn"))
	assert.Error(t, ValidateINN("77070838AB", "inn"))
	assert.ErrorContains(t, ValidateINN("7707083894", "inn"), "checksum")
	assert.ErrorContains(t, ValidateINN("500100732258", "inn"), "checksum")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("", "from")
	assert.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDate("2024-03-15", "from")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *d)

	_, err = ParseDate("15.03.2024", "from")
	assert.Error(t, err)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 33.3, Percent(1, 3))
	assert.Equal(t, 150.0, Percent(3, 2))
	assert.Equal(t, -25.0, Percent(-1, 4))
}

func TestMoneyConversions(t *testing.T) {
	assert.True(t, KopecksToUnits(123456).Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, int64(123456), UnitsToKopecks(decimal.RequireFromString("1234.555")))

	formatted := FormatRubles(123450)
	assert.True(t, strings.HasSuffix(formatted, ",50"), formatted)
	assert.Contains(t, formatted, "234")
}

func TestSanitizeSearchQuery(t *testing.T) {
	assert.Equal(t, "", SanitizeSearchQuery("   "))
	assert.Equal(t, "roads 2024", SanitizeSearchQuery(" roads_ 2024% "))
	assert.Len(t, SanitizeSearchQuery(strings.Repeat("a", 150)), 100)
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zap.NewNop())
	e.GET("/forbidden", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
	})

	req := httptest.NewRequest(http.MethodGet, "/forbidden", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"FORBIDDEN","message":"Insufficient permissions"}}`, rec.Body.String())
}

func TestRequestValidator(t *testing.T) {
	type payload struct {
		Name   string `json:"name" validate:"required"`
		Amount int64  `json:"amount" validate:"gt=0"`
	}

	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := c.Validate(&payload{})
	require.Error(t, err)
	require.NoError(t, SendBindValidationError(c, err))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"This field is required"`)
	assert.Contains(t, rec.Body.String(), `"amount":"Must be greater than 0"`)
}

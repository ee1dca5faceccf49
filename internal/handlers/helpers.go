package handlers

import (
	"net/http"
	"strconv"
	"time"

	"bizdesk/internal/analytics"
	"bizdesk/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// tenantFrom returns the caller's tenant set by the identity middleware.
func tenantFrom(c echo.Context) (uuid.UUID, error) {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "Tenant not found")
	}
	return tenantID, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := common.ValidateUUID(c.Param(name), name)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return id, nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &id, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	d, err := common.ParseDate(c.QueryParam(name), name)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return d, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}

func pagination(c echo.Context) (int, int, error) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return limit, offset, nil
}

// dateRange reads from/to, defaulting to the current month.
func dateRange(c echo.Context, now time.Time) (time.Time, time.Time, error) {
	from, to := analytics.MonthRange(now)
	if d, err := queryDate(c, "from"); err != nil {
		return from, to, err
	} else if d != nil {
		from = *d
	}
	if d, err := queryDate(c, "to"); err != nil {
		return from, to, err
	} else if d != nil {
		to = *d
	}
	if err := common.ValidateDateRange(from, to); err != nil {
		return from, to, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return from, to, nil
}

func listResponse(data any, limit, offset int) map[string]interface{} {
	return map[string]interface{}{
		"data":   data,
		"limit":  limit,
		"offset": offset,
	}
}

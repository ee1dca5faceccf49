package handlers

import (
	"net/http"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/middleware"
	"bizdesk/internal/models"
	"bizdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// StaffHandlers serves roles, employees, workload allocations and utilization.
type StaffHandlers struct {
	staffService    services.StaffService
	workloadService services.WorkloadService
	rbacMiddleware  *middleware.RBACMiddleware
	now             func() time.Time
}

func NewStaffHandlers(staffService services.StaffService, workloadService services.WorkloadService, rbacMiddleware *middleware.RBACMiddleware) *StaffHandlers {
	return &StaffHandlers{
		staffService:    staffService,
		workloadService: workloadService,
		rbacMiddleware:  rbacMiddleware,
		now:             time.Now,
	}
}

func (h *StaffHandlers) Register(g *echo.Group) {
	read := h.rbacMiddleware.RequirePermission(services.PermStaffRead)
	write := h.rbacMiddleware.RequirePermission(services.PermStaffWrite)
	roles := h.rbacMiddleware.RequirePermission(services.PermTenantManage)

	g.GET("/roles", h.ListRoles, read)
	g.POST("/roles", h.CreateRole, roles)
	g.GET("/roles/:id", h.GetRole, read)
	g.PUT("/roles/:id", h.UpdateRole, roles)
	g.DELETE("/roles/:id", h.DeleteRole, roles)

	g.GET("/employees", h.ListEmployees, read)
	g.POST("/employees", h.CreateEmployee, write)
	g.GET("/employees/:id", h.GetEmployee, read)
	g.PUT("/employees/:id", h.UpdateEmployee, write)
	g.DELETE("/employees/:id", h.DeleteEmployee, write)
	g.GET("/employees/:id/utilization", h.EmployeeUtilization, read)

	g.GET("/workload", h.ListAllocations, read)
	g.GET("/workload/utilization", h.TeamUtilization, read)
	g.POST("/workload", h.CreateAllocation, write)
	g.GET("/workload/:id", h.GetAllocation, read)
	g.PUT("/workload/:id", h.UpdateAllocation, write)
	g.DELETE("/workload/:id", h.DeleteAllocation, write)
}

func (h *StaffHandlers) ListRoles(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	roles, err := h.staffService.ListRoles(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.SendServiceError(c, err, "Roles")
	}
	return c.JSON(http.StatusOK, listResponse(roles, limit, offset))
}

func (h *StaffHandlers) GetRole(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	role, err := h.staffService.GetRole(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Role")
	}
	return c.JSON(http.StatusOK, role)
}

func (h *StaffHandlers) CreateRole(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.RoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	role, err := h.staffService.CreateRole(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Role")
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *StaffHandlers) UpdateRole(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.RoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	role, err := h.staffService.UpdateRole(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Role")
	}
	return c.JSON(http.StatusOK, role)
}

func (h *StaffHandlers) DeleteRole(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.staffService.DeleteRole(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Role")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StaffHandlers) ListEmployees(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	status := c.QueryParam("status")
	if status != "" && status != models.EmployeeStatusActive && status != models.EmployeeStatusInactive {
		return common.SendValidationError(c, "status", "Must be one of: active inactive")
	}
	employees, err := h.staffService.ListEmployees(c.Request().Context(), tenantID, status, limit, offset)
	if err != nil {
		return common.SendServiceError(c, err, "Employees")
	}
	return c.JSON(http.StatusOK, listResponse(employees, limit, offset))
}

func (h *StaffHandlers) GetEmployee(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	employee, err := h.staffService.GetEmployee(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Employee")
	}
	return c.JSON(http.StatusOK, employee)
}

func (h *StaffHandlers) CreateEmployee(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.EmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	employee, err := h.staffService.CreateEmployee(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Employee")
	}
	return c.JSON(http.StatusCreated, employee)
}

func (h *StaffHandlers) UpdateEmployee(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.EmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	employee, err := h.staffService.UpdateEmployee(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Employee")
	}
	return c.JSON(http.StatusOK, employee)
}

func (h *StaffHandlers) DeleteEmployee(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.staffService.DeleteEmployee(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Employee")
	}
	return c.NoContent(http.StatusNoContent)
}

// EmployeeUtilization godoc
// @Summary      Utilization of one employee
// @Description  Allocated hours prorated over working days, against weekly capacity. Defaults to the current month.
// @Tags         staff
// @Produce      json
// @Param        id    path      string  true   "Employee ID"
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  services.Utilization
// @Failure      404   {object}  common.ErrorResponse
// @Router       /employees/{id}/utilization [get]
func (h *StaffHandlers) EmployeeUtilization(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	u, err := h.workloadService.Utilization(c.Request().Context(), tenantID, id, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Employee")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *StaffHandlers) TeamUtilization(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c, h.now())
	if err != nil {
		return err
	}
	team, err := h.workloadService.TeamUtilization(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.SendServiceError(c, err, "Utilization")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": team,
		"from": from.Format(common.DateLayout),
		"to":   to.Format(common.DateLayout),
	})
}

func (h *StaffHandlers) ListAllocations(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}
	employeeID, err := queryUUID(c, "employee_id")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return err
	}

	allocations, err := h.workloadService.List(c.Request().Context(), tenantID, models.WorkloadFilter{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return common.SendServiceError(c, err, "Allocations")
	}
	return c.JSON(http.StatusOK, listResponse(allocations, limit, offset))
}

func (h *StaffHandlers) GetAllocation(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.workloadService.Get(c.Request().Context(), tenantID, id)
	if err != nil {
		return common.SendServiceError(c, err, "Allocation")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StaffHandlers) CreateAllocation(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	var req services.AllocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	a, err := h.workloadService.Create(c.Request().Context(), tenantID, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Allocation")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *StaffHandlers) UpdateAllocation(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.AllocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return common.SendBindValidationError(c, err)
	}
	a, err := h.workloadService.Update(c.Request().Context(), tenantID, id, &req)
	if err != nil {
		return common.SendServiceError(c, err, "Allocation")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *StaffHandlers) DeleteAllocation(c echo.Context) error {
	tenantID, err := tenantFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.workloadService.Delete(c.Request().Context(), tenantID, id); err != nil {
		return common.SendServiceError(c, err, "Allocation")
	}
	return c.NoContent(http.StatusNoContent)
}

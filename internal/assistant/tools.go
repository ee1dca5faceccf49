package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Parameter types understood by the model backends.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
}

type ToolDecl struct {
	Name        string
	Description string
	Params      []Param
}

type Handler func(ctx context.Context, scope Scope, args Args) (any, error)

// Tool is a callable the model may invoke. Permission is checked against the
// caller's role before the handler runs; Writes marks tools that change data.
type Tool struct {
	ToolDecl
	Permission string
	Writes     bool
	Handler    Handler
}

// PermissionChecker is satisfied by services.RBACService.
type PermissionChecker interface {
	UserHasPermission(ctx context.Context, userID, tenantID uuid.UUID, permissionName string) (bool, error)
}

type TenantCacheInvalidator interface {
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error
}

type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID uuid.UUID, tableName, recordID, action string, changedBy *uuid.UUID, newValues models.JSONB) error
}

// Guard holds what a tool call goes through besides its handler. A nil
// Permissions denies every call; Cache and Audit are optional.
type Guard struct {
	Permissions PermissionChecker
	Cache       TenantCacheInvalidator
	Audit       ActivityLogger
}

// Registry is the fixed table of tools the model may call by name.
type Registry struct {
	tools    map[string]Tool
	guard    Guard
	validate *validator.Validate
	logger   *zap.Logger
}

func NewRegistry(guard Guard, logger *zap.Logger) *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Register adds a tool. Names are unique and every tool names a permission.
func (r *Registry) Register(t Tool) {
	if _, ok := r.tools[t.Name]; ok {
		panic("assistant: duplicate tool " + t.Name)
	}
	if t.Permission == "" {
		panic("assistant: tool " + t.Name + " has no permission")
	}
	r.tools[t.Name] = t
}

// Declarations returns the tool declarations sorted by name.
func (r *Registry) Declarations() []ToolDecl {
	decls := make([]ToolDecl, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, t.ToolDecl)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls
}

// Validate runs the struct validation tags of a service request.
func (r *Registry) Validate(req any) error {
	if err := r.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err.Error())
	}
	return nil
}

func errorResult(name, message string) ToolResult {
	return ToolResult{Name: name, Content: map[string]any{"error": message}}
}

// Dispatch runs one tool call. Failures, panics included, become an error
// result for the model instead of aborting the chat.
func (r *Registry) Dispatch(ctx context.Context, scope Scope, call ToolCall) (result ToolResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("assistant tool panicked", zap.String("tool", call.Name), zap.Any("panic", p), zap.Stack("stack"))
			result = errorResult(call.Name, "internal error")
		}
	}()

	tool, ok := r.tools[call.Name]
	if !ok {
		return errorResult(call.Name, fmt.Sprintf("unknown tool %q", call.Name))
	}
	if err := r.authorize(ctx, scope, tool); err != nil {
		if errors.Is(err, common.ErrForbidden) {
			return errorResult(call.Name, err.Error())
		}
		r.logger.Error("assistant permission check failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call.Name, "internal error")
	}

	args := Args(call.Args)
	for _, p := range tool.Params {
		if p.Required && !args.Has(p.Name) {
			return errorResult(call.Name, fmt.Sprintf("missing required argument %q", p.Name))
		}
	}

	value, err := tool.Handler(ctx, scope, args)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrNotFound),
			errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrForbidden):
			return errorResult(call.Name, err.Error())
		}
		r.logger.Error("assistant tool failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call.Name, "internal error")
	}
	if tool.Writes {
		r.afterWrite(ctx, scope, tool, call)
	}

	content, err := toContent(value)
	if err != nil {
		r.logger.Error("assistant tool result encoding failed", zap.String("tool", call.Name), zap.Error(err))
		return errorResult(call.Name, "internal error")
	}
	return ToolResult{Name: call.Name, Content: content}
}

func (r *Registry) authorize(ctx context.Context, scope Scope, tool Tool) error {
	if r.guard.Permissions == nil {
		return fmt.Errorf("%w: %s requires %s", common.ErrForbidden, tool.Name, tool.Permission)
	}
	allowed, err := r.guard.Permissions.UserHasPermission(ctx, scope.UserID, scope.TenantID, tool.Permission)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s requires %s", common.ErrForbidden, tool.Name, tool.Permission)
	}
	return nil
}

// afterWrite mirrors what the HTTP write path does: the tenant's cached
// dashboards are dropped and the call lands in the audit log. Both are best
// effort; the write itself already succeeded.
func (r *Registry) afterWrite(ctx context.Context, scope Scope, tool Tool, call ToolCall) {
	if r.guard.Cache != nil {
		if err := r.guard.Cache.InvalidateTenantCache(ctx, scope.TenantID); err != nil {
			r.logger.Warn("dashboard cache invalidation failed", zap.String("tool", call.Name), zap.Error(err))
		}
	}
	if r.guard.Audit != nil {
		area, _, _ := strings.Cut(tool.Permission, ":")
		userID := scope.UserID
		err := r.guard.Audit.LogActivity(ctx, scope.TenantID, area, "assistant/"+call.Name, "TOOL "+call.Name, &userID, models.JSONB(call.Args))
		if err != nil {
			r.logger.Warn("assistant audit failed", zap.String("tool", call.Name), zap.Error(err))
		}
	}
}

// toContent turns a tool value into the JSON object handed to the model.
func toContent(value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return map[string]any{"result": decoded}, nil
}

// Args are the decoded JSON arguments of a tool call.
type Args map[string]any

func argError(name, format string, a ...any) error {
	return fmt.Errorf("%w: argument %q %s", common.ErrValidation, name, fmt.Sprintf(format, a...))
}

func (a Args) Has(name string) bool {
	v, ok := a[name]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func (a Args) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (a Args) number(name string) (float64, bool, error) {
	if !a.Has(name) {
		return 0, false, nil
	}
	switch v := a[name].(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, false, argError(name, "must be a number")
		}
		return f, true, nil
	default:
		return 0, false, argError(name, "must be a number")
	}
}

// Int returns an integer argument or def when absent.
func (a Args) Int(name string, def int) (int, error) {
	f, ok, err := a.number(name)
	if err != nil || !ok {
		return def, err
	}
	if f != math.Trunc(f) {
		return 0, argError(name, "must be a whole number")
	}
	return int(f), nil
}

// Float returns a number argument or def when absent.
func (a Args) Float(name string, def float64) (float64, error) {
	f, ok, err := a.number(name)
	if err != nil || !ok {
		return def, err
	}
	return f, nil
}

// Money reads an amount in rubles and returns kopecks.
func (a Args) Money(name string) (int64, error) {
	if !a.Has(name) {
		return 0, nil
	}
	var d decimal.Decimal
	switch v := a[name].(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		parsed, err := decimal.NewFromString(strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), ",", "."))
		if err != nil {
			return 0, argError(name, "must be an amount in rubles")
		}
		d = parsed
	default:
		return 0, argError(name, "must be an amount in rubles")
	}
	return common.UnitsToKopecks(d), nil
}

// OptMoney is Money for optional amounts; nil when absent.
func (a Args) OptMoney(name string) (*int64, error) {
	if !a.Has(name) {
		return nil, nil
	}
	v, err := a.Money(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a Args) UUID(name string) (uuid.UUID, error) {
	id, err := uuid.Parse(a.String(name))
	if err != nil {
		return uuid.Nil, argError(name, "must be a UUID")
	}
	return id, nil
}

func (a Args) OptUUID(name string) (*uuid.UUID, error) {
	if !a.Has(name) {
		return nil, nil
	}
	id, err := a.UUID(name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// OptDate parses a YYYY-MM-DD argument; nil when absent.
func (a Args) OptDate(name string) (*time.Time, error) {
	d, err := common.ParseDate(a.String(name), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrValidation, err.Error())
	}
	return d, nil
}

// Date is OptDate falling back to def.
func (a Args) Date(name string, def time.Time) (time.Time, error) {
	d, err := a.OptDate(name)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return def, nil
	}
	return *d, nil
}

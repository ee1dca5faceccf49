package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizdesk/internal/caching"
	"bizdesk/internal/common"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxIterations bounds the model calls of one chat.
const MaxIterations = 5

const maxHistory = 50

var (
	ErrToolLoopExhausted = errors.New("assistant: tool loop exhausted")
	ErrRateLimited       = fmt.Errorf("assistant: %w", common.ErrRateLimited)
)

type EngineConfig struct {
	RequestsPerSec float64
	Burst          int
	Timeout        time.Duration
	TenantLimit    int
	TenantWindow   time.Duration
}

// Engine runs the bounded tool loop between the model and the tool registry.
type Engine struct {
	model   Model
	tools   *Registry
	limiter *rate.Limiter
	cache   caching.CacheService
	cfg     EngineConfig
	logger  *zap.Logger
}

// NewEngine builds an engine. cache may be nil to disable the per-tenant limit.
func NewEngine(model Model, tools *Registry, cache caching.CacheService, cfg EngineConfig, logger *zap.Logger) *Engine {
	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Engine{
		model:   model,
		tools:   tools,
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

func validateHistory(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: messages are required", common.ErrValidation)
	}
	if len(messages) > maxHistory {
		return fmt.Errorf("%w: at most %d messages", common.ErrValidation, maxHistory)
	}
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleModel {
			return fmt.Errorf("%w: message %d has role %q", common.ErrValidation, i, m.Role)
		}
		if strings.TrimSpace(m.Text) == "" {
			return fmt.Errorf("%w: message %d is empty", common.ErrValidation, i)
		}
		if len(m.ToolCalls) > 0 || len(m.ToolResults) > 0 {
			return fmt.Errorf("%w: message %d carries tool data", common.ErrValidation, i)
		}
	}
	if messages[len(messages)-1].Role != RoleUser {
		return fmt.Errorf("%w: last message must come from the user", common.ErrValidation)
	}
	return nil
}

func (e *Engine) checkTenantLimit(ctx context.Context, scope Scope) error {
	if e.cache == nil || e.cfg.TenantLimit <= 0 {
		return nil
	}
	limited, err := e.cache.IsRateLimited(ctx, "assistant:"+scope.TenantID.String(), e.cfg.TenantLimit, e.cfg.TenantWindow)
	if err != nil {
		e.logger.Warn("assistant tenant limit check failed", zap.Error(err))
		return nil
	}
	if limited {
		return ErrRateLimited
	}
	return nil
}

// Chat answers the conversation. Each model call gets the history so far;
// tool calls are dispatched and their results appended until the model
// answers with text only. emit may be nil.
func (e *Engine) Chat(ctx context.Context, scope Scope, messages []Message, emit func(Event)) (*Reply, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	if err := validateHistory(messages); err != nil {
		return nil, err
	}
	if err := e.checkTenantLimit(ctx, scope); err != nil {
		return nil, err
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	history := make([]Message, len(messages), len(messages)+2*MaxIterations)
	copy(history, messages)
	reply := &Reply{ToolsUsed: []string{}}

	for i := 0; i < MaxIterations; i++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		reply.Iterations = i + 1

		turn, err := e.model.Generate(ctx, history, func(delta string) {
			emit(Event{Type: EventDelta, Text: delta})
		})
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}

		if len(turn.ToolCalls) == 0 {
			reply.Text = turn.Text
			emit(Event{Type: EventDone, Text: turn.Text})
			return reply, nil
		}

		history = append(history, Message{Role: RoleModel, Text: turn.Text, ToolCalls: turn.ToolCalls})
		results := make([]ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			emit(Event{Type: EventTool, Tool: call.Name})
			reply.ToolsUsed = append(reply.ToolsUsed, call.Name)
			results = append(results, e.tools.Dispatch(ctx, scope, call))
		}
		history = append(history, Message{Role: RoleTool, ToolResults: results})
	}

	e.logger.Warn("assistant tool loop exhausted",
		zap.String("tenant_id", scope.TenantID.String()),
		zap.Strings("tools", reply.ToolsUsed),
	)
	return nil, ErrToolLoopExhausted
}

package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scalisek3/CareCompanionAIWebsite/internal/util"
	"github.com/scalisek3/CareCompanionAIWebsite/logging"
)

// Dispatcher validates and routes model-issued function calls to the
// registered tool. It holds no request-scoped state and is safe to reuse
// across concurrent requests.
type Dispatcher struct {
	registry *Registry
	logger   logging.Logger
}

// DispatcherOptions configure a Dispatcher.
type DispatcherOptions struct {
	Logger logging.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{registry: registry, logger: opts.Logger}
}

// Dispatch resolves the call's name in the registry, validates the arguments
// against the tool's schema, and invokes the tool. Validation happens before
// any network I/O, so rejected calls have no side effects. Every failure is a
// *Error; a raw transport error never escapes this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (any, error) {
	t, ok := d.registry.Lookup(call.Name)
	if !ok {
		d.logger.Warn("dispatch.unknown_tool", "tool", call.Name, "call_id", call.ID)
		return nil, NewUnknownTool(call.Name)
	}

	if err := util.ValidateParameters(call.Arguments, t.Parameters()); err != nil {
		d.logger.Warn("dispatch.validation_failed", "tool", call.Name, "error", err.Error())
		return nil, NewInvalidArguments(call.Name, fmt.Sprintf("argument validation failed: %v", err))
	}

	start := time.Now()
	d.logger.Debug("dispatch.start", "tool", call.Name, "call_id", call.ID)

	result, err := t.Call(ctx, call.Arguments)
	if err != nil {
		var terr *Error
		if errors.As(err, &terr) {
			d.logger.Error("dispatch.failed", "tool", call.Name, "kind", terr.Kind.String(), "error", terr.Message)
			return nil, terr
		}
		d.logger.Error("dispatch.failed", "tool", call.Name, "error", err.Error())
		return nil, NewUpstreamError(call.Name, err.Error())
	}

	d.logger.Info("dispatch.success", "tool", call.Name, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

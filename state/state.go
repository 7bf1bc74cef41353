package state

import (
	"context"
	"log/slog"
)

// Env can be read from any Goroutine
type Env struct {
	NodeCfg
	Context context.Context
	Cancel  context.CancelCauseFunc
	Log     *slog.Logger
}

// NewEnv derives a cancellable environment from parent. A nil logger is replaced with slog.Default().
func NewEnv(parent context.Context, cfg NodeCfg, log *slog.Logger) *Env {
	ctx, cancel := context.WithCancelCause(parent)
	if log == nil {
		log = slog.Default()
	}
	return &Env{
		NodeCfg: cfg,
		Context: ctx,
		Cancel:  cancel,
		Log:     log,
	}
}

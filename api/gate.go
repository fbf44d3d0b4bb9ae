package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aouyang1/pptmaker/workflow"
)

type Generator interface {
	GenerateOutline(ctx context.Context) error
	GeneratePresentation(ctx context.Context) error
}

// Gate puts the usage limits in front of a Generator. Usage is recorded
// only for generations the backend completed.
type Gate struct {
	gen   Generator
	usage *UsageManager
}

func NewGate(gen Generator, usage *UsageManager) *Gate {
	return &Gate{gen: gen, usage: usage}
}

func (g *Gate) GenerateOutline(ctx context.Context) error {
	reached, err := g.usage.OutlineLimitReached(ctx)
	if err != nil {
		return err
	}
	if reached {
		slog.Info("outline limit reached")
		return ErrLimitReached
	}

	if err := g.gen.GenerateOutline(ctx); err != nil {
		return err
	}
	if err := g.usage.RecordOutline(); err != nil {
		slog.Warn("unable to record outline usage", "error", err)
	}
	return nil
}

// GeneratePresentation counts a presentation even when saving it locally
// failed, since the backend already produced it.
func (g *Gate) GeneratePresentation(ctx context.Context) error {
	reached, err := g.usage.PresentationLimitReached(ctx)
	if err != nil {
		return err
	}
	if reached {
		slog.Info("presentation limit reached")
		return ErrLimitReached
	}

	err = g.gen.GeneratePresentation(ctx)
	if err == nil || errors.Is(err, workflow.ErrSave) {
		if recErr := g.usage.RecordPresentation(); recErr != nil {
			slog.Warn("unable to record presentation usage", "error", recErr)
		}
	}
	return err
}

package verification

import (
	"context"
	"fmt"

	"github.com/brizzai/codetrack/internal/platform"
)

// Confirmer gates destructive operations on an explicit user decision.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Confirmed agrees to everything. It stands for a confirmation already
// given elsewhere, e.g. a --yes flag.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// DisconnectPrompt is the question asked before disconnecting p.
func DisconnectPrompt(p platform.Platform) string {
	return fmt.Sprintf("Are you sure you want to disconnect %s?", p.DisplayName())
}

func confirm(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil {
		return ErrNotConfirmed
	}
	ok, err := c.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfirmed, err)
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}

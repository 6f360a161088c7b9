package model

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no text-completion provider produced a reply.
var ErrUnavailable = errors.New("text completion unavailable")

// TextCompleter is a best-effort oracle. Callers must keep working when it
// returns ErrUnavailable.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

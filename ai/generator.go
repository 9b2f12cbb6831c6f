//go:generate go run go.uber.org/mock/mockgen -source=generator.go -destination=../mocks/mock_generator.go -package=mocks
package ai

import (
	"code-lab/errors"
	"context"
	"fmt"
)

// Generator is the external generative collaborator, one call per prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Unavailable stands in when no API key is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: %s", errors.ErrCollaboratorUnavailable, u.Reason)
}

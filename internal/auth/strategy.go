package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cvflow/cvflow-cli/internal/session"

	"go.uber.org/zap"
)

// ErrUnavailable signals that a sign-in method cannot run in the current
// environment (missing token file, no terminal, blocked popup equivalent).
// SignIn moves on to the next strategy instead of failing.
var ErrUnavailable = errors.New("sign-in method unavailable")

// Strategy is one way to establish a session. Strategies are tried in
// order; the first success wins.
type Strategy interface {
	Name() string
	SignIn(ctx context.Context) (*session.Session, error)
}

// SignIn runs the strategies in order, skipping unavailable ones. A
// strategy failing for any other reason aborts the whole sign-in: the
// fallback exists for environment mismatches, not for auth errors.
func SignIn(ctx context.Context, logger *zap.Logger, strategies ...Strategy) (*session.Session, error) {
	for _, s := range strategies {
		sess, err := s.SignIn(ctx)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				logger.Debug("sign-in method unavailable, trying next",
					zap.String("method", s.Name()),
					zap.Error(err),
				)
				continue
			}

			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}

		logger.Debug("signed in", zap.String("method", s.Name()))

		return sess, nil
	}

	return nil, errors.New("no sign-in method available")
}

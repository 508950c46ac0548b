package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cvflow/cvflow-cli/internal/session"
)

// TokenFileStrategy establishes a session from a token file on disk. It is
// the primary, non-interactive method; when the file is not configured or
// missing it reports ErrUnavailable so a fallback can take over.
type TokenFileStrategy struct {
	Path string
	// Profile fills session identity fields; the token itself carries the
	// authority, these are display-only.
	UID   string
	Email string
	Plan  string
}

func (s *TokenFileStrategy) Name() string { return "token-file" }

func (s *TokenFileStrategy) SignIn(_ context.Context) (*session.Session, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return nil, fmt.Errorf("token file is not configured: %w", ErrUnavailable)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("token file %q: %v: %w", path, err, ErrUnavailable)
	}

	return session.New(s.UID, s.Email, s.Plan), nil
}

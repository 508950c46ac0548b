package session

import (
	"context"

	"github.com/cvflow/cvflow-cli/internal/secrets"

	"github.com/google/uuid"
)

// Session identifies the signed-in user for one CLI invocation. It is
// passed explicitly to everything that needs it; there is no process-wide
// singleton.
type Session struct {
	// ID is a local identifier for this session, not a backend value.
	ID    string
	UID   string
	Email string
	Plan  string
}

func New(uid, email, plan string) *Session {
	return &Session{
		ID:    uuid.NewString(),
		UID:   uid,
		Email: email,
		Plan:  plan,
	}
}

// FileTokenSource reads the API bearer token from a file on every request.
// Tokens are short-lived, so the file is the refresh point: an external
// helper can rewrite it without restarting the CLI.
type FileTokenSource struct {
	Path string
}

func (s *FileTokenSource) Token(_ context.Context) (string, error) {
	return secrets.Load(secrets.Source{
		Name: "cvflow api token",
		File: s.Path,
	})
}

// StaticTokenSource returns the same token forever. Intended for tests.
type StaticTokenSource string

func (s StaticTokenSource) Token(_ context.Context) (string, error) {
	return string(s), nil
}

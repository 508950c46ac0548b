package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cvflow/cvflow-cli/internal/session"

	"github.com/manifoldco/promptui"
)

// PromptStrategy asks the user to paste a token interactively and writes it
// to the configured file for the rest of the invocation to pick up. It is
// the fallback when the token file is absent, mirroring the product's
// popup-then-redirect chain: try the silent path first, fall back to the
// one that needs the user.
type PromptStrategy struct {
	Path  string
	Stdin *os.File
}

func (s *PromptStrategy) Name() string { return "prompt" }

func (s *PromptStrategy) SignIn(_ context.Context) (*session.Session, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return nil, fmt.Errorf("token file destination is not configured: %w", ErrUnavailable)
	}

	stdin := s.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	info, err := stdin.Stat()
	if err != nil || (info.Mode()&os.ModeCharDevice) == 0 {
		return nil, fmt.Errorf("no interactive terminal: %w", ErrUnavailable)
	}

	prompt := promptui.Prompt{
		Label: "Paste your CVFlow API token",
		Mask:  '*',
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("token must not be empty")
			}
			return nil
		},
	}

	token, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}

	if err := os.WriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("writing token file %q: %w", path, err)
	}

	return session.New("", "", ""), nil
}

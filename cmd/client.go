package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/cvflow/cvflow-cli/internal/auth"
	"github.com/cvflow/cvflow-cli/internal/cvflow"
	"github.com/cvflow/cvflow-cli/internal/session"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newClient wires config, sign-in and the API client for a command.
func newClient(ctx context.Context, logger *zap.Logger) (*cvflow.Client, *session.Session, *Config, error) {
	config, err := getConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	tokenFile := resolveTokenFile(config)
	if tokenFile == "" {
		return nil, nil, nil, errors.New("token file is not configured: set CVFLOW_TOKEN_FILE or the 'token-file' key in the configuration file")
	}

	sess, err := auth.SignIn(ctx, logger,
		&auth.TokenFileStrategy{Path: tokenFile},
		&auth.PromptStrategy{Path: tokenFile},
	)
	if err != nil {
		return nil, nil, nil, err
	}

	client := cvflow.New(logger, &session.FileTokenSource{Path: tokenFile})

	if config.APIURL != "" {
		client.APIURL = strings.TrimRight(config.APIURL, "/")
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	return client, sess, config, nil
}

func resolveTokenFile(config *Config) string {
	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	return tokenFile
}

package cvflow

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.cvflow.app/api/v1"
	userAgent = "cvflow/cvflow-cli"

	// NewCVID is the sentinel identifier for a document that does not exist
	// yet. Opening an editor session with it allocates a fresh CV first.
	NewCVID = "new"
)

// TokenSource supplies the bearer token for API requests. Tokens are
// short-lived (Firebase ID tokens), so the source is consulted per request
// rather than once at client construction.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	tokens     TokenSource
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, tokens TokenSource) *Client {
	return &Client{
		tokens: tokens,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

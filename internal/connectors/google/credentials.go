package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/searchconsole/v1"
)

// ErrNoCredentials indicates neither a key file nor inline key was given.
var ErrNoCredentials = errors.New("google: no service account credentials configured")

// Credentials locates a service-account JSON key.
// JSON takes precedence over File.
type Credentials struct {
	File string
	JSON string
}

// NewTokenSource returns a token source for the read-only Search Console scope.
func NewTokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	data, err := creds.load()
	if err != nil {
		return nil, err
	}

	cfg, err := googleoauth.JWTConfigFromJSON(data, searchconsole.WebmastersReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse service account key: %w", ErrUnauthorized, err)
	}
	return cfg.TokenSource(ctx), nil
}

func (c Credentials) load() ([]byte, error) {
	if c.JSON != "" {
		return []byte(c.JSON), nil
	}
	if c.File == "" {
		return nil, ErrNoCredentials
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	return data, nil
}

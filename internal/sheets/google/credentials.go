package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Environment variables holding Sheets credentials.
const (
	EnvOAuthClientJSON    = "GOOGLE_OAUTH_CLIENT_JSON"
	EnvOAuthClientFile    = "GOOGLE_OAUTH_CLIENT_FILE"
	EnvOAuthTokenJSON     = "GOOGLE_OAUTH_TOKEN_JSON"
	EnvOAuthTokenFile     = "GOOGLE_OAUTH_TOKEN_FILE"
	EnvServiceAccountJSON = "GOOGLE_SERVICE_ACCOUNT_JSON"
	EnvServiceAccountFile = "GOOGLE_SERVICE_ACCOUNT_FILE"
)

var errNotSet = errors.New("not set")

func clientOptions(ctx context.Context) ([]goption.ClientOption, error) {
	client, err := readEnvOrFile(EnvOAuthClientJSON, EnvOAuthClientFile)
	switch {
	case err == nil:
		ts, err := oauthTokenSource(ctx, client)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth user credentials")
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	case !errors.Is(err, errNotSet):
		return nil, fmt.Errorf("read oauth client: %w", err)
	}

	creds, err := serviceAccountJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// OAuthConfig parses an OAuth client JSON for the spreadsheets scope.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// OAuthClientFromEnv reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or
// GOOGLE_OAUTH_CLIENT_FILE.
func OAuthClientFromEnv() (*oauth2.Config, error) {
	b, err := readEnvOrFile(EnvOAuthClientJSON, EnvOAuthClientFile)
	if errors.Is(err, errNotSet) {
		return nil, fmt.Errorf("missing oauth client (set %s or %s)", EnvOAuthClientJSON, EnvOAuthClientFile)
	}
	if err != nil {
		return nil, err
	}
	return OAuthConfig(b)
}

func oauthTokenSource(ctx context.Context, clientJSON []byte) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	raw, err := readEnvOrFile(EnvOAuthTokenJSON, EnvOAuthTokenFile)
	if errors.Is(err, errNotSet) {
		return nil, fmt.Errorf("missing oauth token (set %s or %s)", EnvOAuthTokenJSON, EnvOAuthTokenFile)
	}
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

func serviceAccountJSON(ctx context.Context) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(EnvServiceAccountJSON)); inline != "" {
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv(EnvServiceAccountFile))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	slog.InfoContext(ctx, "Read credentials file", "path", path, "size", len(data))
	return data, nil
}

// readEnvOrFile returns the inline value of jsonVar, else the contents of the
// file named by fileVar. errNotSet means neither is set.
func readEnvOrFile(jsonVar, fileVar string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(jsonVar)); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv(fileVar))
	if path == "" {
		return nil, errNotSet
	}
	return os.ReadFile(path)
}

package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvOAuthClientJSON, EnvOAuthClientFile,
		EnvOAuthTokenJSON, EnvOAuthTokenFile,
		EnvServiceAccountJSON, EnvServiceAccountFile,
		"GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(k, "")
	}
}

func TestOAuthConfigRejectsInvalidJSON(t *testing.T) {
	_, err := OAuthConfig([]byte("invalid-json"))
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestOAuthClientFromEnv(t *testing.T) {
	clearCredentialEnv(t)
	if _, err := OAuthClientFromEnv(); err == nil || !strings.Contains(err.Error(), "missing oauth client") {
		t.Fatalf("expected missing client error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "client.json")
	if err := os.WriteFile(path, []byte(testOAuthClient), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOAuthClientFile, path)
	cfg, err := OAuthClientFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ClientID != "test" {
		t.Errorf("expected client id test, got %q", cfg.ClientID)
	}
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		wantN   int
	}{
		{
			name:    "nothing configured",
			wantErr: "missing service account credentials",
		},
		{
			name:    "oauth client without token",
			env:     map[string]string{EnvOAuthClientJSON: testOAuthClient},
			wantErr: "missing oauth token",
		},
		{
			name:    "oauth token is not json",
			env:     map[string]string{EnvOAuthClientJSON: testOAuthClient, EnvOAuthTokenJSON: "nope"},
			wantErr: "parse oauth token",
		},
		{
			name:  "oauth user credentials",
			env:   map[string]string{EnvOAuthClientJSON: testOAuthClient, EnvOAuthTokenJSON: `{"access_token":"test","token_type":"Bearer"}`},
			wantN: 1,
		},
		{
			name:  "inline service account",
			env:   map[string]string{EnvServiceAccountJSON: `{"type":"service_account"}`},
			wantN: 2,
		},
		{
			name:    "service account file missing",
			env:     map[string]string{EnvServiceAccountFile: "/does/not/exist.json"},
			wantErr: "read service account file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCredentialEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts, err := clientOptions(context.Background())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(opts) != tt.wantN {
				t.Errorf("expected %d options, got %d", tt.wantN, len(opts))
			}
		})
	}
}

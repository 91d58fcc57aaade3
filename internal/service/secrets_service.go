package service

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/Iyke200/doculuna/internal/config"
)

// LoadJWTSecret resolves the JWT signing secret. Development uses the env
// value directly; production reads the latest version of the named secret
// from Secret Manager.
func LoadJWTSecret(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.JWTSecretName == "" {
		if cfg.JWTSecret == "" {
			return "", fmt.Errorf("neither JWT_SECRET nor JWT_SECRET_NAME is set")
		}
		return cfg.JWTSecret, nil
	}
	if cfg.GCPProjectID == "" {
		return "", fmt.Errorf("GCP_PROJECT_ID is required to read secrets")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	defer client.Close()

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", cfg.GCPProjectID, cfg.JWTSecretName)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}
	return string(result.Payload.Data), nil
}

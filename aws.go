package typesearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerClient defines the interface for AWS Secrets Manager
// operations.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretPayload is the JSON shape expected inside the secret.
type secretPayload struct {
	APIKey string `json:"api_key"`
}

// SecretsManagerAPIKey returns an APIKeyProvider that retrieves the engine
// API key from AWS Secrets Manager. The secret is expected to contain JSON
// with an api_key field.
func SecretsManagerAPIKey(ctx context.Context, client SecretsManagerClient, secretID string) APIKeyProvider {
	return func() (string, error) {
		input := &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		}

		result, err := client.GetSecretValue(ctx, input)
		if err != nil {
			return "", fmt.Errorf("failed to get secret %s from AWS Secrets Manager: %w", secretID, err)
		}

		if result.SecretString == nil {
			return "", fmt.Errorf("secret %s has no string value", secretID)
		}

		var payload secretPayload
		if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &payload); err != nil {
			return "", fmt.Errorf("failed to unmarshal secret JSON from %s: %w", secretID, err)
		}

		if payload.APIKey == "" {
			return "", fmt.Errorf("secret %s does not contain an api_key field", secretID)
		}

		return payload.APIKey, nil
	}
}

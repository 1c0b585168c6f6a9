// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Credential keys that may be overridden by a secrets backend
const (
	SecretDatabasePassword = "DB_PASSWORD"
	SecretRedisPassword    = "REDIS_PASSWORD"
	SecretAWSSecretKey     = "AWS_SECRET_ACCESS_KEY"
)

// SecretsManager resolves credentials that should not live in plain env vars
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
	RefreshSecrets(ctx context.Context) error
}

var (
	_ SecretsManager = (*AWSSecretsManager)(nil)
	_ SecretsManager = (*EnvSecretsManager)(nil)
)

// secretValueGetter is the part of the Secrets Manager client we call
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads one JSON secret holding every credential and keeps
// it for ttl.
type AWSSecretsManager struct {
	client     secretValueGetter
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	mu        sync.RWMutex
	values    map[string]string
	fetchedAt time.Time
}

// NewAWSSecretsManager creates a new AWS Secrets Manager client
func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretsManager{
		client:     secretsmanager.NewFromConfig(cfg),
		secretName: secretName,
		ttl:        5 * time.Minute,
		logger:     logger.With(slog.String("component", "secrets"), slog.String("secret_name", secretName)),
	}, nil
}

// GetSecret retrieves a single secret
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	values, err := sm.snapshot(ctx)
	if err != nil {
		return "", err
	}
	val, ok := values[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found in %s", key, sm.secretName)
	}
	return val, nil
}

// GetSecrets returns the requested keys that the secret defines. Absent keys
// are skipped so callers keep their env values.
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	values, err := sm.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	found := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := values[key]; ok {
			found[key] = val
			continue
		}
		sm.logger.Debug("secret key not defined", slog.String("key", key))
	}
	return found, nil
}

// RefreshSecrets drops the cached values and fetches them again
func (sm *AWSSecretsManager) RefreshSecrets(ctx context.Context) error {
	sm.mu.Lock()
	sm.fetchedAt = time.Time{}
	sm.mu.Unlock()

	_, err := sm.snapshot(ctx)
	return err
}

func (sm *AWSSecretsManager) snapshot(ctx context.Context) (map[string]string, error) {
	sm.mu.RLock()
	if sm.values != nil && time.Since(sm.fetchedAt) < sm.ttl {
		values := sm.values
		sm.mu.RUnlock()
		return values, nil
	}
	sm.mu.RUnlock()

	sm.logger.Info("fetching secrets from AWS Secrets Manager")

	out, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get secret value: %w", err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return nil, fmt.Errorf("failed to parse secret %s: %w", sm.secretName, err)
	}

	sm.mu.Lock()
	sm.values = values
	sm.fetchedAt = time.Now()
	sm.mu.Unlock()

	return values, nil
}

// EnvSecretsManager reads secrets from the process environment
type EnvSecretsManager struct{}

// NewEnvSecretsManager creates a new environment-based secrets manager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

// GetSecret retrieves a secret from environment variables
func (em *EnvSecretsManager) GetSecret(_ context.Context, key string) (string, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}

// GetSecrets retrieves the set variables among keys
func (em *EnvSecretsManager) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	secrets := make(map[string]string, len(keys))
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			secrets[key] = val
		}
	}
	return secrets, nil
}

// RefreshSecrets is a no-op for environment variables
func (em *EnvSecretsManager) RefreshSecrets(context.Context) error {
	return nil
}

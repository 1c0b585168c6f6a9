// internal/adapters/storage/s3.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// S3Config points the ledger archive at a bucket. Endpoint and UsePathStyle
// target S3-compatible stores such as MinIO or LocalStack.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	LedgerPrefix    string
}

const defaultLedgerPrefix = "sales"

// S3Storage archives committed sales as JSON objects. The bucket is expected
// to be provisioned; a missing bucket fails construction.
type S3Storage struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

var _ ports.LedgerArchive = (*S3Storage)(nil)

// NewS3Storage connects to the archive bucket and verifies it is reachable
func NewS3Storage(ctx context.Context, cfg *S3Config, logger *slog.Logger) (*S3Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, awsOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("ledger bucket %s is not reachable: %w", cfg.Bucket, err)
	}

	prefix := strings.Trim(cfg.LedgerPrefix, "/")
	if prefix == "" {
		prefix = defaultLedgerPrefix
	}

	logger = logger.With(slog.String("storage", "s3"), slog.String("bucket", cfg.Bucket))
	logger.Info("ledger archive ready", slog.String("prefix", prefix))

	return &S3Storage{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   prefix,
		logger:   logger,
	}, nil
}

func awsOptions(cfg *S3Config) []func(*config.LoadOptions) error {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	return opts
}

// LedgerKey is the object key of a sale snapshot:
// <prefix>/<yyyy>/<mm>/<dd>/<ticket>-<sale id>.json, dated in UTC.
func LedgerKey(prefix string, sale *domain.Sale) string {
	day := sale.CreatedAt.UTC().Format("2006/01/02")
	name := fmt.Sprintf("%010d-%s.json", sale.TicketNumber, sale.ID)
	return path.Join(prefix, day, name)
}

// ArchiveSale uploads the committed sale with its line items and returns the
// object location.
func (s *S3Storage) ArchiveSale(ctx context.Context, sale *domain.Sale) (string, error) {
	if sale == nil {
		return "", errors.New("nil sale")
	}

	body, err := json.Marshal(sale)
	if err != nil {
		return "", fmt.Errorf("failed to encode sale: %w", err)
	}

	key := LedgerKey(s.prefix, sale)
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"sale-id":       sale.ID.String(),
			"ticket-number": strconv.FormatInt(sale.TicketNumber, 10),
			"seller-id":     sale.SellerID,
			"archived-at":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive sale %s: %w", sale.ID, err)
	}

	s.logger.InfoContext(ctx, "sale archived",
		slog.String("sale_id", sale.ID.String()),
		slog.Int64("ticket_number", sale.TicketNumber),
		slog.String("key", key),
		slog.String("location", result.Location))

	return result.Location, nil
}

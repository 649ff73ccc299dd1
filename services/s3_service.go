package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoService turns candidate photo keys into presigned S3 read URLs
type PhotoService struct {
	Bucket    string
	TTL       time.Duration
	Presigner *s3.PresignClient
}

// NewPhotoService loads the default AWS credential chain for region
func NewPhotoService(ctx context.Context, region, bucket string, ttl time.Duration) (*PhotoService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewPhotoServiceFromConfig(cfg, bucket, ttl), nil
}

// NewPhotoServiceFromConfig builds a PhotoService from an existing AWS config
func NewPhotoServiceFromConfig(cfg aws.Config, bucket string, ttl time.Duration) *PhotoService {
	return &PhotoService{
		Bucket:    bucket,
		TTL:       ttl,
		Presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
	}
}

// GenerateReadURL returns a presigned GET URL for ref. References that are
// already http(s) URLs are returned unchanged.
func (ps *PhotoService) GenerateReadURL(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty photo reference")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}

	params := &s3.GetObjectInput{
		Bucket: aws.String(ps.Bucket),
		Key:    aws.String(strings.TrimPrefix(ref, "/")),
	}
	presigned, err := ps.Presigner.PresignGetObject(ctx, params, s3.WithPresignExpires(ps.TTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign photo %q: %w", ref, err)
	}
	return presigned.URL, nil
}

// ResolveAll presigns every reference, keeping order
func (ps *PhotoService) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		u, err := ps.GenerateReadURL(ctx, ref)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/driveease/service-rental/internal/application"
)

// S3Store keeps images in an S3 bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store loads the default AWS credential chain for region. When publicURL
// is empty the bucket's virtual-hosted URL is used.
func NewS3Store(ctx context.Context, region, bucket, publicURL string) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// Put uploads the image and returns its public URL.
func (s *S3Store) Put(ctx context.Context, folder string, upload application.ImageUpload) (string, error) {
	key := objectKey(folder, upload.Filename, upload.ContentType)
	input := &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         upload.Reader,
		ContentType:  aws.String(upload.ContentType),
		CacheControl: aws.String("public, max-age=86400"),
	}
	if upload.Size > 0 {
		input.ContentLength = aws.Int64(upload.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return publicURL(s.publicURL, key), nil
}

// Remove deletes an object previously returned by Put.
func (s *S3Store) Remove(ctx context.Context, ref string) error {
	key, ok := keyFromURL(s.publicURL, ref)
	if !ok {
		return nil
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// Package storage handles media uploads to S3. Posts and profiles store
// only the opaque object key; URL building happens at the edge via the CDN
// base.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MediaUploader handles media uploads (images, PDFs) to S3
type MediaUploader struct {
	client     *s3.Client
	bucket     string
	region     string
	cdnBaseURL string
}

// UploadResult contains the result of an upload
type UploadResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// NewMediaUploader creates an uploader using the default credential chain
func NewMediaUploader(region, bucket, cdnBaseURL string) (*MediaUploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &MediaUploader{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		region:     region,
		cdnBaseURL: cdnBaseURL,
	}, nil
}

// UploadMedia uploads a media attachment under
// media/{year}/{month}/{userID}/{fileID}{ext}
func (u *MediaUploader) UploadMedia(ctx context.Context, data []byte, userID, originalFilename string) (*UploadResult, error) {
	fileID := uuid.New().String()
	extension := strings.ToLower(filepath.Ext(originalFilename))
	if extension == "" {
		extension = ".jpg"
	}

	now := time.Now()
	key := fmt.Sprintf("media/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, fileID, extension)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentTypeFor(extension)),
		CacheControl: aws.String("max-age=31536000"),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  u.ResolveURL(key),
		Size: int64(len(data)),
	}, nil
}

// DeleteFile deletes an object from S3
func (u *MediaUploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies the bucket is reachable at startup
func (u *MediaUploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

// ResolveURL builds the public CDN URL for a stored key. Empty keys resolve
// to an empty URL.
func (u *MediaUploader) ResolveURL(key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(u.cdnBaseURL, "/") + "/" + key
}

func contentTypeFor(extension string) string {
	switch extension {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/snapdish/snapdish-backend/config"
	"github.com/snapdish/snapdish-backend/internal/imaging"
)

const preloadConcurrency = 4

// PhotoService stores processed dish photos in S3 and warms remote
// recipe images into the HTTP cache
type PhotoService struct {
	s3Config *config.S3Config
	client   *http.Client
}

// NewPhotoService creates a new PhotoService instance
func NewPhotoService(s3Config *config.S3Config) *PhotoService {
	return &PhotoService{
		s3Config: s3Config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UploadDishPhoto stores a processed photo under the owning user and
// returns its public URL
func (s *PhotoService) UploadDishPhoto(ctx context.Context, userID string, img *imaging.ProcessedImage) (string, error) {
	key := fmt.Sprintf("dish-photos/%s/%s.jpg", userID, uuid.New().String())

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Payload),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[PhotoService] Uploaded dish photo to S3: %s", publicURL)

	return publicURL, nil
}

// PhotoURL generates a presigned URL for a stored photo
func (s *PhotoService) PhotoURL(ctx context.Context, objectKey string, expiration time.Duration) (string, error) {
	return s.s3Config.GeneratePresignedURL(ctx, objectKey, expiration)
}

// PreloadImages fetches each URL so downstream caches are warm. Each
// fetch is best effort; failures are logged and never surfaced.
func (s *PhotoService) PreloadImages(ctx context.Context, urls []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)

	for _, url := range urls {
		url := url
		g.Go(func() error {
			if err := s.fetchImage(ctx, url); err != nil {
				log.Printf("[PhotoService] Image preload failed for %s: %v", url, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *PhotoService) fetchImage(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

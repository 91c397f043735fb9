package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/stories-client/internal/config"
	"github.com/princekumarofficial/stories-client/internal/types"
	mediaTypes "github.com/princekumarofficial/stories-client/internal/types/media"
)

// ErrContentTypeNotAllowed is returned for uploads outside the allow-list.
var ErrContentTypeNotAllowed = errors.New("content type is not allowed")

// Service hands out presigned upload URLs for story media. The UI uploads
// the file directly and then creates the story with the returned media URL.
type Service struct {
	client     *minio.Client
	bucketName string
	config     config.Media
	useSSL     bool
	now        func() time.Time
}

// NewService connects to MinIO and makes sure the media bucket exists.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := New(client, cfg.MinIO.BucketName, cfg.Media, cfg.MinIO.UseSSL)
	if err := service.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// New wraps an existing client without touching the bucket.
func New(client *minio.Client, bucketName string, cfg config.Media, useSSL bool) *Service {
	return &Service{
		client:     client,
		bucketName: bucketName,
		config:     cfg,
		useSSL:     useSSL,
		now:        time.Now,
	}
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ValidateContentType checks the content type against the allow-list and
// that it maps to a story type.
func (s *Service) ValidateContentType(contentType string) bool {
	if _, ok := StoryTypeFor(contentType); !ok {
		return false
	}
	for _, allowed := range s.config.AllowedMimeTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// StoryTypeFor maps a MIME type to the story type that displays it.
func StoryTypeFor(contentType string) (types.StoryType, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return types.StoryTypeImage, true
	case strings.HasPrefix(contentType, "video/"):
		return types.StoryTypeVideo, true
	default:
		return "", false
	}
}

var fallbackExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/mpeg":      ".mpeg",
	"video/quicktime": ".mov",
}

// GenerateObjectKey creates a unique object key under the user's folder.
func GenerateObjectKey(userID, contentType string) string {
	ext := fallbackExtensions[contentType]
	if ext == "" {
		if extensions, err := mime.ExtensionsByType(contentType); err == nil && len(extensions) > 0 {
			ext = extensions[0]
		}
	}

	return fmt.Sprintf("users/%s/media/%s%s", userID, uuid.New().String(), ext)
}

// GeneratePresignedUploadURL creates a presigned PUT URL for one upload.
func (s *Service) GeneratePresignedUploadURL(ctx context.Context, userID, contentType string) (*mediaTypes.UploadInfo, error) {
	if !s.ValidateContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}
	storyType, _ := StoryTypeFor(contentType)

	objectKey := GenerateObjectKey(userID, contentType)
	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	presignedURL, err := s.client.PresignedPutObject(ctx, s.bucketName, objectKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &mediaTypes.UploadInfo{
		ObjectKey:   objectKey,
		UploadURL:   presignedURL.String(),
		MediaURL:    s.MediaURL(objectKey),
		StoryType:   string(storyType),
		ExpiresAt:   s.now().Add(expiry).Unix(),
		MaxFileSize: s.config.MaxFileSize,
		ContentType: contentType,
	}, nil
}

// MediaURL returns the public URL the story's media field should carry.
func (s *Service) MediaURL(objectKey string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}

	endpoint := s.client.EndpointURL().Host
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, s.bucketName, objectKey)
}

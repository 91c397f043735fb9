package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/stories-client/internal/config"
	"github.com/princekumarofficial/stories-client/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	// With a region set the client signs locally and never dials the endpoint.
	client, err := minio.New("media.local:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("minio.New: %v", err)
	}

	s := New(client, "stories-media", config.Media{
		MaxFileSize:      1024,
		PresignedURLTTL:  900,
		AllowedMimeTypes: []string{"image/jpeg", "video/mp4", "application/pdf"},
	}, false)
	s.now = func() time.Time { return time.Unix(1000, 0) }
	return s
}

func TestStoryTypeFor(t *testing.T) {
	cases := map[string]types.StoryType{
		"image/png":       types.StoryTypeImage,
		"video/quicktime": types.StoryTypeVideo,
	}
	for contentType, want := range cases {
		got, ok := StoryTypeFor(contentType)
		if !ok || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", contentType, want, got, ok)
		}
	}

	if _, ok := StoryTypeFor("application/pdf"); ok {
		t.Fatal("expected pdf to have no story type")
	}
}

func TestGenerateObjectKey(t *testing.T) {
	key := GenerateObjectKey("u1", "image/jpeg")
	if !strings.HasPrefix(key, "users/u1/media/") || !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("unexpected key %q", key)
	}
	if other := GenerateObjectKey("u1", "image/jpeg"); other == key {
		t.Fatal("expected unique keys")
	}
}

func TestValidateContentType(t *testing.T) {
	s := newTestService(t)

	if !s.ValidateContentType("image/jpeg") {
		t.Fatal("expected image/jpeg to be allowed")
	}
	if s.ValidateContentType("image/png") {
		t.Fatal("expected image/png to be rejected by the allow-list")
	}
	if s.ValidateContentType("application/pdf") {
		t.Fatal("expected a non media type to be rejected")
	}
}

func TestGeneratePresignedUploadURL(t *testing.T) {
	s := newTestService(t)

	info, err := s.GeneratePresignedUploadURL(context.Background(), "u1", "video/mp4")
	if err != nil {
		t.Fatalf("GeneratePresignedUploadURL: %v", err)
	}
	if info.StoryType != "video" || info.ContentType != "video/mp4" {
		t.Fatalf("unexpected info %+v", info)
	}
	if !strings.Contains(info.UploadURL, info.ObjectKey) || !strings.Contains(info.UploadURL, "X-Amz-Signature") {
		t.Fatalf("unexpected upload url %q", info.UploadURL)
	}
	if info.MediaURL != "http://media.local:9000/stories-media/"+info.ObjectKey {
		t.Fatalf("unexpected media url %q", info.MediaURL)
	}
	if info.ExpiresAt != 1900 || info.MaxFileSize != 1024 {
		t.Fatalf("unexpected limits %+v", info)
	}

	if _, err := s.GeneratePresignedUploadURL(context.Background(), "u1", "image/png"); !errors.Is(err, ErrContentTypeNotAllowed) {
		t.Fatalf("expected ErrContentTypeNotAllowed, got %v", err)
	}
}

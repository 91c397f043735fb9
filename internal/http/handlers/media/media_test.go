package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/princekumarofficial/stories-client/internal/http/middleware"
	mediaService "github.com/princekumarofficial/stories-client/internal/services/media"
	mediaTypes "github.com/princekumarofficial/stories-client/internal/types/media"
)

type fakePresigner struct {
	err    error
	userID string
}

func (f *fakePresigner) GeneratePresignedUploadURL(ctx context.Context, userID, contentType string) (*mediaTypes.UploadInfo, error) {
	f.userID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &mediaTypes.UploadInfo{ObjectKey: "users/" + userID + "/media/x.jpg", ContentType: contentType}, nil
}

func serve(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/media/upload-url", strings.NewReader(body)))
	return rec
}

func TestGenerateUploadURL(t *testing.T) {
	p := &fakePresigner{}
	h := middleware.StaticViewer("u1")(GenerateUploadURL(p))

	rec := serve(h, `{"content_type":"image/jpeg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if p.userID != "u1" {
		t.Fatalf("expected viewer u1, got %q", p.userID)
	}
	if !strings.Contains(rec.Body.String(), "users/u1/media/x.jpg") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestGenerateUploadURL_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"empty body", nil, ``, http.StatusBadRequest},
		{"missing content type", nil, `{}`, http.StatusBadRequest},
		{"not allowed", fmt.Errorf("%w: text/plain", mediaService.ErrContentTypeNotAllowed), `{"content_type":"text/plain"}`, http.StatusBadRequest},
		{"storage down", errors.New("dial tcp: refused"), `{"content_type":"image/jpeg"}`, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.StaticViewer("u1")(GenerateUploadURL(&fakePresigner{err: tc.err}))
			if rec := serve(h, tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestGenerateUploadURL_Unauthenticated(t *testing.T) {
	if rec := serve(GenerateUploadURL(&fakePresigner{}), `{"content_type":"image/jpeg"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

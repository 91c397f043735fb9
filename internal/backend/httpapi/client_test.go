package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/types"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", "token-123", 5*time.Second)
}

func TestClient_FetchStories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		w.Write([]byte(`{"u1":[{"id":"s1","userId":"u1","media":"m.jpg","type":"image","timestamp":"2024-05-01T12:00:00.000Z","views":0}]}`))
	})
	c := newTestClient(t, mux)

	stories, err := c.FetchStories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stories["u1"]) != 1 {
		t.Fatalf("expected one story, got %v", stories)
	}
	got := stories["u1"][0]
	if got.ID != "s1" || got.Type != types.StoryTypeImage || got.Timestamp != "2024-05-01T12:00:00.000Z" {
		t.Fatalf("unexpected story %+v", got)
	}
}

func TestClient_FetchStories_ErrorEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(errors.New("Network down")))
	})
	c := newTestClient(t, mux)

	_, err := c.FetchStories(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := backend.Message(err); msg != "Network down" {
		t.Fatalf("expected envelope message, got %q", msg)
	}
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus in chain, got %v", err)
	}
}

func TestClient_FetchStories_StatusTextFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>proxy error</html>"))
	})
	c := newTestClient(t, mux)

	_, err := c.FetchStories(context.Background())
	if msg := backend.Message(err); msg != "Bad Gateway" {
		t.Fatalf("expected status text, got %q", msg)
	}
}

func TestClient_FetchStories_StoresContentAsReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"u1":[{"userId":"u1","type":"image"},{"id":"s1","userId":"u1","type":"gif","views":-3}]}`))
	})
	c := newTestClient(t, mux)

	stories, err := c.FetchStories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stories["u1"]
	if len(got) != 2 || got[0].ID != "" || got[1].Type != "gif" || got[1].Views != -3 {
		t.Fatalf("expected the feed unchanged, got %+v", got)
	}
}

func TestClient_FetchStories_InvalidPayload(t *testing.T) {
	tests := map[string]string{
		"not json":    `nope`,
		"wrong shape": `[{"id":"s1"}]`,
		"truncated":   `{"u1":[{"id":"s1"`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/stories", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			c := newTestClient(t, mux)

			_, err := c.FetchStories(context.Background())
			var rf *backend.RequestFailure
			if !errors.As(err, &rf) {
				t.Fatalf("expected RequestFailure, got %v", err)
			}
		})
	}
}

func TestClient_CreateStory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stories", func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateStoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Media != "clip.mp4" || req.Type != types.StoryTypeVideo {
			t.Errorf("unexpected request %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(types.Story{
			ID: "new", UserID: "u2", Media: req.Media, Type: req.Type,
			Timestamp: "2024-05-01T12:00:00.000Z",
		})
	})
	c := newTestClient(t, mux)

	story, err := c.CreateStory(context.Background(), types.CreateStoryRequest{Media: "clip.mp4", Type: types.StoryTypeVideo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if story.ID != "new" || story.UserID != "u2" {
		t.Fatalf("unexpected story %+v", story)
	}
}

func TestClient_CreateStory_StoresContentAsReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new","userId":"u2","type":"gif"}`))
	})
	c := newTestClient(t, mux)

	story, err := c.CreateStory(context.Background(), types.CreateStoryRequest{Media: "a.gif", Type: "gif"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if story.Type != "gif" {
		t.Fatalf("unexpected story %+v", story)
	}
}

func TestClient_ViewStory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stories/{id}/view", func(w http.ResponseWriter, r *http.Request) {
		var req types.ViewStoryRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.UserID != "viewer" {
			t.Errorf("expected viewer in body, got %+v", req)
		}
		json.NewEncoder(w).Encode(types.ViewStoryResponse{StoryID: r.PathValue("id")})
	})
	c := newTestClient(t, mux)

	resp, err := c.ViewStory(context.Background(), "s 1", types.ViewStoryRequest{UserID: "viewer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StoryID != "s 1" {
		t.Fatalf("expected confirmation for %q, got %q", "s 1", resp.StoryID)
	}
}

func TestClient_ViewStory_MissingConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stories/{id}/view", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	c := newTestClient(t, mux)

	if _, err := c.ViewStory(context.Background(), "s1", types.ViewStoryRequest{}); err == nil {
		t.Fatal("expected error for empty confirmation")
	}
}

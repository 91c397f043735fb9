package stories

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/stories-client/internal/backend"
	"github.com/princekumarofficial/stories-client/internal/http/middleware"
	"github.com/princekumarofficial/stories-client/internal/store"
	"github.com/princekumarofficial/stories-client/internal/types"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
)

var validate = validator.New()

// CreateStoryBody is the payload of POST /stories
type CreateStoryBody struct {
	Media string          `json:"media"`
	Type  types.StoryType `json:"type"`
}

// decode reads a JSON body into v. It writes the error response itself and
// reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
		return false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	return true
}

// requireKeys checks only the fields the store indexes by; story content is
// stored as given.
func requireKeys(w http.ResponseWriter, story types.Story) bool {
	if err := validate.StructPartial(story, "ID", "UserID"); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	return true
}

// State returns the current state snapshot
// @Summary Get state
// @Description Get a snapshot of the story collection, viewed set and fetch status
// @Tags state
// @Produce json
// @Success 200 {object} response.Response{data=store.State} "State retrieved"
// @Security BearerAuth
// @Router /state [get]
func State(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("State retrieved", s.State()))
	}
}

// Fetch reloads every story from the backend, replacing the local collection
// @Summary Fetch stories
// @Description Load all stories from the stories API. The local collection is replaced.
// @Tags stories
// @Produce json
// @Success 200 {object} response.Response{data=store.State} "Stories fetched successfully"
// @Failure 502 {object} response.Response{data=store.State} "Backend request failed"
// @Security BearerAuth
// @Router /stories/fetch [post]
func Fetch(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.FetchStories(r.Context()); err != nil {
			msg := backend.Message(err)
			if msg == "" {
				msg = store.DefaultFetchError
			}
			response.WriteJSON(w, http.StatusBadGateway, response.ErrorWithData(errors.New(msg), s.State()))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Stories fetched successfully", s.State()))
	}
}

// Create posts a new story through the backend
// @Summary Create a story
// @Description Create a story through the stories API and append it locally
// @Tags stories
// @Accept json
// @Produce json
// @Param story body CreateStoryBody true "Story media and type"
// @Success 201 {object} response.Response{data=types.Story} "Story created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 502 {object} response.Response "Backend request failed"
// @Security BearerAuth
// @Router /stories [post]
func Create(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body CreateStoryBody
		if !decode(w, r, &body) {
			return
		}

		story, err := s.CreateStory(r.Context(), body.Media, body.Type)
		if err != nil {
			response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New(failureMessage(err))))
			return
		}
		slog.Info("Story created", slog.String("story_id", story.ID))

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Story created successfully", story))
	}
}

// View reports a view of the story by the authenticated viewer
// @Summary View a story
// @Description Record a view with the stories API and mark the confirmed id as viewed
// @Tags stories
// @Produce json
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response{data=types.ViewStoryResponse} "View recorded successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 502 {object} response.Response "Backend request failed"
// @Security BearerAuth
// @Router /stories/{id}/view [post]
func View(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		storyID := r.PathValue("id")
		if storyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("story ID is required")))
			return
		}

		confirmed, err := s.ViewStory(r.Context(), storyID, userID)
		if err != nil {
			response.WriteJSON(w, http.StatusBadGateway, response.GeneralError(errors.New(failureMessage(err))))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("View recorded successfully", types.ViewStoryResponse{StoryID: confirmed}))
	}
}

// MarkViewed marks a story as seen locally without telling the backend
// @Summary Mark a story as viewed
// @Tags state
// @Produce json
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response{data=store.State} "Story marked as viewed"
// @Security BearerAuth
// @Router /stories/{id}/viewed [post]
func MarkViewed(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storyID := r.PathValue("id")
		if storyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("story ID is required")))
			return
		}

		s.MarkStoryAsViewed(storyID)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Story marked as viewed", s.State()))
	}
}

// AddLocal inserts a story into the local collection
// @Summary Add a local story
// @Description Append a story to its owner's sequence. Only id and userId are required.
// @Tags state
// @Accept json
// @Produce json
// @Param story body types.Story true "Story"
// @Success 201 {object} response.Response{data=store.State} "Story added"
// @Failure 400 {object} response.Response "Bad request"
// @Security BearerAuth
// @Router /stories/local [post]
func AddLocal(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var story types.Story
		if !decode(w, r, &story) || !requireKeys(w, story) {
			return
		}

		s.AddStory(story)

		response.WriteJSON(w, http.StatusCreated, response.RequestOK("Story added", s.State()))
	}
}

// Remove deletes a story from the local collection
// @Summary Remove a local story
// @Tags state
// @Produce json
// @Param userId path string true "Owner ID"
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response{data=store.State} "Story removed"
// @Security BearerAuth
// @Router /users/{userId}/stories/{id} [delete]
func Remove(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.RemoveStory(r.PathValue("userId"), r.PathValue("id"))
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Story removed", s.State()))
	}
}

// Expire drops stories older than the expiry window. now defaults to
// time.Now and may be overridden with an RFC 3339 "now" query parameter.
// @Summary Clear expired stories
// @Tags state
// @Produce json
// @Param now query string false "Reference time (RFC 3339)"
// @Success 200 {object} response.Response "Expired stories cleared"
// @Failure 400 {object} response.Response "Bad request"
// @Security BearerAuth
// @Router /stories/expire [post]
func Expire(s *store.Store, clock func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := clock()
		if raw := r.URL.Query().Get("now"); raw != "" {
			parsed, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("now must be an RFC 3339 timestamp")))
				return
			}
			now = parsed
		}

		removed := s.ClearExpiredStories(now)
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Expired stories cleared", map[string]interface{}{
			"removed": removed,
			"state":   s.State(),
		}))
	}
}

func failureMessage(err error) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}
	return "request failed"
}

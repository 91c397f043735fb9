package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/stories-client/internal/http/middleware"
	mediaService "github.com/princekumarofficial/stories-client/internal/services/media"
	mediaTypes "github.com/princekumarofficial/stories-client/internal/types/media"
	"github.com/princekumarofficial/stories-client/internal/utils/response"
)

// Presigner issues upload URLs. *mediaService.Service implements it.
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, userID, contentType string) (*mediaTypes.UploadInfo, error)
}

var validate = validator.New()

// GenerateUploadURL returns a presigned URL the UI uploads story media to
// before calling POST /stories with the returned media URL.
// @Summary Generate presigned upload URL
// @Description Generate a presigned URL for uploading story media
// @Tags media
// @Accept json
// @Produce json
// @Param request body mediaTypes.UploadURLRequest true "Upload URL request"
// @Success 200 {object} response.Response{data=mediaTypes.UploadInfo} "Upload URL generated successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /media/upload-url [post]
func GenerateUploadURL(p Presigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req mediaTypes.UploadURLRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid request body")))
			return
		}

		if err := validate.Struct(req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
			return
		}

		info, err := p.GeneratePresignedUploadURL(r.Context(), userID, req.ContentType)
		if errors.Is(err, mediaService.ErrContentTypeNotAllowed) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		} else if err != nil {
			slog.Error("Failed to generate upload URL", slog.String("user_id", userID), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate upload URL")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Upload URL generated successfully", info))
	}
}

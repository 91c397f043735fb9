package backend

import (
	"context"
	"errors"

	"github.com/princekumarofficial/stories-client/internal/types"
)

// Backend is the remote stories API the store talks to.
type Backend interface {
	FetchStories(ctx context.Context) (types.Collection, error)
	CreateStory(ctx context.Context, req types.CreateStoryRequest) (types.Story, error)
	ViewStory(ctx context.Context, storyID string, req types.ViewStoryRequest) (types.ViewStoryResponse, error)
}

// RequestFailure is the only error kind a Backend returns. Message is the
// human readable part and may be empty.
type RequestFailure struct {
	Message string
	Err     error
}

func (e *RequestFailure) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "request failed"
	}
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// Fail wraps err into a RequestFailure carrying message.
func Fail(err error, message string) error {
	return &RequestFailure{Message: message, Err: err}
}

// Message extracts the human readable message of err. It returns "" when
// there is none.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rf *RequestFailure
	if errors.As(err, &rf) {
		if rf.Message != "" {
			return rf.Message
		}
		if rf.Err != nil {
			return rf.Err.Error()
		}
		return ""
	}
	return err.Error()
}

package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the envelope shared by the stories API and the inspector.
type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ErrorWithData reports an error together with a payload, e.g. the state
// left behind by a failed action.
func ErrorWithData(err error, data interface{}) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
		Data:   data,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var b strings.Builder
	for _, err := range errs {
		b.WriteString(err.Field() + ": " + err.Tag() + "; ")
	}

	return Response{
		Status: StatusError,
		Error:  b.String(),
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// ErrorMessage extracts the human readable message from an error envelope.
// It reports false when body is not an envelope or carries no message.
func ErrorMessage(body []byte) (string, bool) {
	var env Response
	if err := json.Unmarshal(body, &env); err != nil {
		return "", false
	}
	if env.Error != "" {
		return env.Error, true
	}
	if env.Message != "" {
		return env.Message, true
	}
	return "", false
}

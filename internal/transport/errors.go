package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrStaleSession is returned when a response arrives after the session it
// was issued under has been replaced or torn down. Callers drop the result.
var ErrStaleSession = errors.New("response belongs to a previous session")

// Error is every failure the adapter reports. Message is what the server
// said, empty when it said nothing usable.
type Error struct {
	Code       codes.Code
	HTTPStatus int
	Message    string
	Body       *structpb.Struct
	Method     string
	Path       string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Code.String()
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.HTTPStatus, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// GRPCStatus lets status.Code and status.FromError classify adapter errors.
// The decoded response body rides along as a detail.
func (e *Error) GRPCStatus() *status.Status {
	msg := e.Message
	if msg == "" {
		msg = e.Error()
	}
	st := status.New(e.Code, msg)
	if e.Body != nil {
		if withBody, err := st.WithDetails(e.Body); err == nil {
			return withBody
		}
	}
	return st
}

// Message picks the text shown to the user: the server's message when it
// sent one, otherwise fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

func IsUnauthorized(err error) bool {
	return status.Code(err) == codes.Unauthenticated
}

func codeForHTTP(s int) codes.Code {
	switch {
	case s == http.StatusBadRequest:
		return codes.InvalidArgument
	case s == http.StatusUnauthorized:
		return codes.Unauthenticated
	case s == http.StatusForbidden:
		return codes.PermissionDenied
	case s == http.StatusNotFound:
		return codes.NotFound
	case s == http.StatusConflict:
		return codes.AlreadyExists
	case s == http.StatusUnprocessableEntity:
		return codes.FailedPrecondition
	case s == http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case s == http.StatusServiceUnavailable:
		return codes.Unavailable
	case s >= 500:
		return codes.Internal
	}
	return codes.Unknown
}

// responseError builds the Error for a non-2xx answer. Only a JSON object
// body can carry a message.
func responseError(method, path string, httpStatus int, body []byte) *Error {
	e := &Error{
		Code:       codeForHTTP(httpStatus),
		HTTPStatus: httpStatus,
		Method:     method,
		Path:       path,
	}
	var obj map[string]any
	if len(body) == 0 || json.Unmarshal(body, &obj) != nil {
		return e
	}
	if s, err := structpb.NewStruct(obj); err == nil {
		e.Body = s
		e.Message = s.GetFields()["message"].GetStringValue()
	}
	return e
}

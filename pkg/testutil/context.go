package testutil

import (
	"net/http"

	"shipform/pkg/requestcontext"
)

// WithBearer puts a bearer token on the request context the way the
// credential middleware would.
func WithBearer(req *http.Request, token string) *http.Request {
	return req.WithContext(requestcontext.WithBearerToken(req.Context(), token))
}

// WithRequestID tags the request context with a request id.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

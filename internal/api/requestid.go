package api

import (
	"net/http"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

func requestID(r *http.Request) error {
	if r.Header.Get(headerRequestID) == "" {
		r.Header.Set(headerRequestID, uuid.NewString())
	}
	return nil
}

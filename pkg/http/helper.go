package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "slotboard/pkg/errors"
)

// DecodeJSON decodes the request body into dst. Unknown fields are
// tolerated; malformed or empty bodies are rejected with an input error.
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperrors.InvalidInput("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("request body is empty")
		}
		return apperrors.InvalidInput("invalid JSON payload")
	}

	return nil
}

package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

// upstreamError covers the error bodies returned by OAuth2 providers:
// the token endpoint's {"error":"invalid_grant","error_description":"..."}
// and the API form {"error":{"code":401,"message":"...","status":"..."}}.
type upstreamError struct {
	Error json.RawMessage `json:"error"`
	// OAuth2 token endpoint
	Description string `json:"error_description"`
	// Envelope of this service
	Message string `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ParseResponseError reads and closes a non-2xx response and turns it into an
// AppError. 400 and 401 from an identity provider mean the credential was
// rejected, so they map to Unauthorized. 5xx maps to Unavailable.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	message := upstreamMessage(body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case resp.StatusCode == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(upstream + " resource")
	case resp.StatusCode >= 500:
		return apperrors.Unavailable(qualified)
	default:
		return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, message)
	}
}

func upstreamMessage(body []byte) string {
	var e upstreamError
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Description != "" {
		return e.Description
	}
	if e.Message != "" {
		return e.Message
	}
	if len(e.Error) == 0 {
		return ""
	}
	var code string
	if json.Unmarshal(e.Error, &code) == nil {
		return code
	}
	var api apiError
	if json.Unmarshal(e.Error, &api) == nil {
		return api.Message
	}
	return ""
}

// DecodeJSON decodes a 2xx response into dst, or returns ParseResponseError
// for anything else. The body is always closed.
func DecodeJSON(resp *http.Response, upstream string, dst any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseResponseError(resp, upstream)
	}
	defer drain(resp)
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", upstream, err)
	}
	return nil
}

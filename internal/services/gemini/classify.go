package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"google.golang.org/genai"

	"reelcast/internal/services"
)

var unavailableStatus = map[int]struct{}{
	http.StatusNotFound:            {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// StatusCode extracts the HTTP status from a genai API error.
func StatusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// Unavailable reports whether err belongs to the backend-unavailable set.
func Unavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	if code, ok := StatusCode(err); ok {
		_, hit := unavailableStatus[code]
		return hit
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Classify wraps err with the taxonomy marker it belongs to. Errors already
// produced by services.Wrap pass through.
func Classify(err error, stage, operation string) error {
	if err == nil {
		return nil
	}
	var se *services.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrCanceled, stage, operation, "", err)
	}
	code, _ := StatusCode(err)
	codeText := ""
	if code != 0 {
		codeText = fmt.Sprintf("http_%d", code)
	}
	if Unavailable(err) {
		wrapped := services.WrapCode(services.ErrBackendUnavailable, stage, operation, codeText, "", err)
		if code == http.StatusNotFound {
			return services.WithHint(wrapped, "model is not available for this API key; check the configured model name")
		}
		return wrapped
	}
	return services.WrapCode(services.ErrJobFailed, stage, operation, codeText, "", err)
}

// OperationError formats the error map attached to a finished long-running
// operation.
func OperationError(payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}
	message, _ := payload["message"].(string)
	if message == "" {
		message = "operation reported an error"
	}
	if code, ok := payload["code"]; ok {
		return fmt.Errorf("%s (code %v)", message, code)
	}
	return errors.New(message)
}

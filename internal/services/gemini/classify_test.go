package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"google.golang.org/genai"

	"reelcast/internal/services"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"503", genai.APIError{Code: 503, Message: "overloaded"}, services.KindBackendUnavailable},
		{"429 pointer", &genai.APIError{Code: 429, Message: "quota"}, services.KindBackendUnavailable},
		{"404 model", genai.APIError{Code: 404, Message: "model not found"}, services.KindBackendUnavailable},
		{"400", genai.APIError{Code: 400, Message: "bad prompt"}, services.KindJobFailed},
		{"403", genai.APIError{Code: 403, Message: "permission"}, services.KindJobFailed},
		{"refused", fmt.Errorf("post: %w", syscall.ECONNREFUSED), services.KindBackendUnavailable},
		{"dns", &net.DNSError{Err: "no such host", Name: "generativelanguage.googleapis.com"}, services.KindBackendUnavailable},
		{"timeout", timeoutErr{}, services.KindBackendUnavailable},
		{"missing key", ErrMissingAPIKey, services.KindBackendUnavailable},
		{"canceled", context.Canceled, services.KindCanceled},
		{"other", errors.New("unexpected"), services.KindJobFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.KindOf(Classify(tt.err, "GenerateVideos", "submit"))
			if got != tt.want {
				t.Fatalf("Classify(%v) kind = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyKeepsStructuredErrors(t *testing.T) {
	original := services.Wrap(services.ErrProtocolMismatch, "GenerateVideos", "poll", "no videos", nil)
	if got := Classify(original, "x", "y"); got != original {
		t.Fatalf("expected structured error to pass through, got %v", got)
	}
}

func TestClassifyRecordsStatusCode(t *testing.T) {
	err := Classify(genai.APIError{Code: 404}, "GenerateVideos", "submit")
	details := services.Details(err)
	if details.Code != "http_404" || !strings.Contains(details.Hint, "model") {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestOperationError(t *testing.T) {
	if OperationError(nil) != nil {
		t.Fatal("empty payload should be nil")
	}
	err := OperationError(map[string]any{"code": float64(3), "message": "unsafe prompt"})
	if err == nil || !strings.Contains(err.Error(), "unsafe prompt") || !strings.Contains(err.Error(), "code 3") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientMissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "GenerateStory", ClientOptions{})
	if services.KindOf(err) != services.KindBackendUnavailable {
		t.Fatalf("expected backend_unavailable, got %v", err)
	}
}

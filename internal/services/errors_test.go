package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"reelcast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrJobTimeout, "GenerateVideos", "poll", "gave up", base)
	if !errors.Is(err, services.ErrJobTimeout) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"GenerateVideos", "poll", "gave up", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"wrapped", services.Wrap(services.ErrAssemblyFailed, "", "concat", "", nil), services.KindAssemblyFailed},
		{"rewrapped", fmt.Errorf("outer: %w", services.Wrap(services.ErrPublishFailed, "Publish", "upload", "", nil)), services.KindPublishFailed},
		{"bare marker", fmt.Errorf("x: %w", services.ErrStoreWriteFailed), services.KindStoreWriteFailed},
		{"canceled", context.Canceled, services.KindCanceled},
		{"plain", errors.New("plain"), services.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetailsCarriesCodeAndHint(t *testing.T) {
	err := services.WrapCode(services.ErrPublishFailed, "Publish", "upload", "quota", "daily quota exhausted", nil)
	err = services.WithHint(err, "retry tomorrow")
	details := services.Details(fmt.Errorf("wrapped: %w", err))
	if details.Kind != services.KindPublishFailed {
		t.Fatalf("kind = %q", details.Kind)
	}
	if details.Code != "quota" || details.Hint != "retry tomorrow" {
		t.Fatalf("unexpected details %+v", details)
	}
	if details.Stage != "Publish" || details.Operation != "upload" {
		t.Fatalf("unexpected stage/operation %+v", details)
	}
}

func TestDetailsFallsBackToCauseMessage(t *testing.T) {
	err := services.Wrap(services.ErrJobFailed, "GenerateVideos", "poll", "", errors.New("safety filter"))
	if got := services.Details(err).Message; got != "safety filter" {
		t.Fatalf("message = %q", got)
	}
}

func TestMarkerForKindRoundTrip(t *testing.T) {
	for _, marker := range []error{services.ErrJobTimeout, services.ErrBackendUnavailable, services.ErrCanceled} {
		kind := services.KindOf(marker)
		if got := services.MarkerForKind(kind); got != marker {
			t.Fatalf("MarkerForKind(%q) = %v, want %v", kind, got, marker)
		}
	}
	if services.MarkerForKind("nope") != nil {
		t.Fatal("expected nil marker for unknown kind")
	}
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := NewAppError("something broke", CodeAppError, 500, nil)
	if err.Error() != "something broke" {
		t.Errorf("message = %q", err.Error())
	}

	cause := fmt.Errorf("root cause")
	withCause := err.WithCause(cause)
	if withCause.Error() != "something broke: root cause" {
		t.Errorf("message = %q", withCause.Error())
	}
	if !stderrors.Is(withCause, cause) {
		t.Error("expected Is to find the cause")
	}
}

func TestResolutionErrorFields(t *testing.T) {
	err := NewResolutionError("channel not found", "kick", "ghost", nil)
	if err.Code != CodeResolution {
		t.Errorf("code = %q", err.Code)
	}
	if err.StatusCode != 404 {
		t.Errorf("status = %d", err.StatusCode)
	}
	if err.Platform != "kick" || err.Channel != "ghost" {
		t.Errorf("platform/channel = %q/%q", err.Platform, err.Channel)
	}
}

func TestConnectionErrorCarriesAttempts(t *testing.T) {
	err := NewConnectionError("gave up", "twitch", 5, nil)
	if err.Attempts != 5 {
		t.Errorf("attempts = %d", err.Attempts)
	}
	if err.Context["attempts"] != 5 {
		t.Errorf("context attempts = %v", err.Context["attempts"])
	}
}

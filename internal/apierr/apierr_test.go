package apierr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{404, KindNotFound},
		{409, KindConflict},
		{429, KindRateLimited},
		{502, KindUnavailable},
		{408, KindUnavailable},
		{400, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := New("openprovider", "register", KindConflict, "Duplicate domain: a.com")
	wrapped := fmt.Errorf("register: %w", base)

	if !IsConflict(wrapped) {
		t.Error("expected wrapped conflict to be detected")
	}
	if IsAuth(wrapped) {
		t.Error("conflict must not be reported as auth")
	}
	if !errors.Is(wrapped, &Error{Kind: KindConflict}) {
		t.Error("errors.Is should match on kind")
	}
	if errors.Is(wrapped, &Error{Kind: KindConflict, Service: "cloudflare"}) {
		t.Error("errors.Is should not match a different service")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors are unknown")
	}
}

func TestFromTransport(t *testing.T) {
	if e := FromTransport("blockbee", "create", context.DeadlineExceeded); e.Kind != KindUnavailable {
		t.Errorf("timeout should be unavailable, got %s", e.Kind)
	}
	if e := FromTransport("blockbee", "create", context.Canceled); e.Kind != KindUnknown {
		t.Errorf("cancel should be unknown, got %s", e.Kind)
	}
	if !IsTimeout(fmt.Errorf("x: %w", context.DeadlineExceeded)) {
		t.Error("deadline exceeded is a timeout")
	}
}

func TestPolicy_Decide(t *testing.T) {
	p := Policy{MaxAttempts: 3, ReauthOnce: true}
	auth := New("openprovider", "ns", KindAuth, "")
	down := New("openprovider", "ns", KindUnavailable, "")
	bad := New("openprovider", "ns", KindUnknown, "")

	tests := []struct {
		name     string
		err      error
		attempt  int
		reauthed bool
		want     Decision
	}{
		{"auth first time", auth, 1, false, Reauth},
		{"auth again", auth, 2, true, Stop},
		{"unavailable retries", down, 1, false, Retry},
		{"unavailable exhausted", down, 3, false, Stop},
		{"unknown stops", bad, 1, false, Stop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.err, tt.attempt, tt.reauthed); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// Package notify keeps a capacity-bounded outstanding notification
// queue in sync with the desired reminder set, and delivers due
// notifications through a pluggable sender.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payload is what a delivered notification shows.
type Payload struct {
	Title   string
	Body    string
	AlarmID string
}

// API is the external one-shot notification queue. Identifiers are
// opaque strings generated deterministically from (alarm, trigger).
type API interface {
	Submit(ctx context.Context, identifier string, trigger time.Time, payload Payload) error
	Cancel(ctx context.Context, identifiers []string) error
	ListOutstanding(ctx context.Context) ([]string, error)
	CancelAll(ctx context.Context) error
}

// AuthStatus is the notification permission state.
type AuthStatus string

const (
	AuthGranted      AuthStatus = "granted"
	AuthDenied       AuthStatus = "denied"
	AuthUndetermined AuthStatus = "undetermined"
)

// Gate is the authorization gate in front of the notification API.
// A denied gate suppresses submissions without failing reconciliation.
type Gate interface {
	RequestPermission(ctx context.Context) (bool, error)
	Status() AuthStatus
}

// SettingsGate derives permission from a settings lookup, standing in
// for a platform permission prompt.
type SettingsGate struct {
	Enabled func() bool
}

func (g SettingsGate) RequestPermission(ctx context.Context) (bool, error) {
	return g.Enabled(), nil
}

func (g SettingsGate) Status() AuthStatus {
	if g.Enabled == nil {
		return AuthUndetermined
	}
	if g.Enabled() {
		return AuthGranted
	}
	return AuthDenied
}

// ParseIdentifier splits a notification identifier back into the alarm
// id and trigger time. The alarm id itself contains dashes (UUID), so
// the trigger is taken from the last dash-separated field.
func ParseIdentifier(identifier string) (alarmID string, trigger time.Time, err error) {
	idx := strings.LastIndex(identifier, "-")
	if idx <= 0 || idx == len(identifier)-1 {
		return "", time.Time{}, fmt.Errorf("malformed identifier %q", identifier)
	}
	unix, err := strconv.ParseInt(identifier[idx+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed identifier %q: %w", identifier, err)
	}
	return identifier[:idx], time.Unix(unix, 0), nil
}

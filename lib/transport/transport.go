// Package transport delivers push payloads to subscription endpoints.
package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oliverisaac/pushdispatch/types"
)

// Transport sends one payload to one endpoint. A nil error means the push
// service accepted the message. Failures should be *DeliveryError so the
// caller can tell a dead endpoint from a hiccup.
type Transport interface {
	Send(ctx context.Context, sub types.PushSubscription, payload []byte) error
}

type FailureKind int

const (
	Transient FailureKind = iota
	Permanent
)

func (k FailureKind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

type DeliveryError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery failure (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery failure: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// KindForStatus classifies a push service response. Only 410 Gone means the
// subscription will never work again.
func KindForStatus(code int) FailureKind {
	if code == http.StatusGone {
		return Permanent
	}
	return Transient
}

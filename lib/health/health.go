// Package health classifies delivery failures and prunes endpoints the push
// service reports as gone.
package health

import (
	"context"

	"github.com/oliverisaac/pushdispatch/lib/transport"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Deleter removes a subscription by id.
type Deleter interface {
	DeleteByID(ctx context.Context, id string) error
}

type Manager struct {
	subs Deleter
}

func New(subs Deleter) *Manager {
	return &Manager{subs: subs}
}

// Classify reports Permanent only for a *transport.DeliveryError that says
// so. Anything else, including untyped errors, is Transient.
func (m *Manager) Classify(err error) transport.FailureKind {
	var de *transport.DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	return transport.Transient
}

// OnPermanentFailure deletes the subscription so later dispatches skip it.
func (m *Manager) OnPermanentFailure(ctx context.Context, subscriptionID string) error {
	if err := m.subs.DeleteByID(ctx, subscriptionID); err != nil {
		return errors.Wrapf(err, "pruning subscription %s", subscriptionID)
	}
	logrus.WithField("subscription", subscriptionID).Info("Subscriber no longer active, removed subscription")
	return nil
}

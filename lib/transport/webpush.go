package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VAPID is the application server identity used to sign every push. It is
// built once at startup and never mutated.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type WebPush struct {
	vapid   VAPID
	ttl     int
	urgency webpush.Urgency
	client  webpush.HTTPClient
}

type WebPushOption func(*WebPush)

func WithHTTPClient(c webpush.HTTPClient) WebPushOption {
	return func(w *WebPush) {
		w.client = c
	}
}

func WithUrgency(u webpush.Urgency) WebPushOption {
	return func(w *WebPush) {
		w.urgency = u
	}
}

func NewWebPush(vapid VAPID, ttl int, opts ...WebPushOption) *WebPush {
	w := &WebPush{
		vapid:   vapid,
		ttl:     ttl,
		urgency: webpush.UrgencyNormal,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewWebPushFromConfig returns nil when the VAPID pair is not configured.
func NewWebPushFromConfig(cfg types.Config) *WebPush {
	if !cfg.VapidConfigured() {
		return nil
	}
	return NewWebPush(VAPID{
		PublicKey:  cfg.VapidPublicKey,
		PrivateKey: cfg.VapidPrivateKey,
		Subscriber: cfg.VapidSubscriber,
	}, cfg.PushTTL)
}

func (w *WebPush) Send(ctx context.Context, sub types.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.vapid.Subscriber,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             w.ttl,
		Urgency:         w.urgency,
	})
	if err != nil {
		return &DeliveryError{Kind: Transient, Err: errors.Wrap(err, "sending push notification")}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		logrus.Debug(errors.Wrap(err, "Reading response body from push service"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			Kind:       KindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("push service answered %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	logrus.WithField("subscription", sub.ID).Debugf("Got resp body (%d): %s", resp.StatusCode, string(respBody))
	return nil
}

// Package dispatch fans one notification out to every device a user has
// registered and records the aggregate outcome.
package dispatch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/oliverisaac/pushdispatch/lib/health"
	"github.com/oliverisaac/pushdispatch/lib/tracker"
	"github.com/oliverisaac/pushdispatch/lib/transport"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type SubscriptionLister interface {
	ListForUser(ctx context.Context, userID string) ([]types.PushSubscription, error)
}

type Recorder interface {
	Record(ctx context.Context, e tracker.Entry) (types.NotificationRecord, error)
}

type Options struct {
	DefaultURL  string
	SendTimeout time.Duration
	// MaxParallel caps concurrent sends within one dispatch, 0 means no cap.
	MaxParallel int
}

type Dispatcher struct {
	subs      SubscriptionLister
	transport transport.Transport
	health    *health.Manager
	records   Recorder
	opts      Options
}

func New(subs SubscriptionLister, t transport.Transport, h *health.Manager, records Recorder, opts Options) *Dispatcher {
	if opts.DefaultURL == "" {
		opts.DefaultURL = "/"
	}
	return &Dispatcher{
		subs:      subs,
		transport: t,
		health:    h,
		records:   records,
		opts:      opts,
	}
}

type Request struct {
	UserID    string
	Title     string
	Body      string
	ContentID *string
	Category  *string
	URL       string
}

type Result struct {
	NotificationID string
	Status         types.NotificationStatus
	Sent           int
	Failed         int
}

// Dispatch sends req to all of the user's subscriptions and waits for every
// send to settle. Individual delivery failures never fail the call; only
// validation, loading subscriptions, or saving the record do.
//
// Sends ignore ctx cancellation; each one is bounded by SendTimeout instead.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	var missing []string
	if strings.TrimSpace(req.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(req.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(req.Body) == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return Result{}, types.ValidationErrorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	ctx = context.WithoutCancel(ctx)
	logrus := logrus.WithField("user", req.UserID)

	subs, err := d.subs.ListForUser(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}

	url := req.URL
	if url == "" {
		url = d.opts.DefaultURL
	}
	payload, err := json.Marshal(types.PushPayload{Title: req.Title, Body: req.Body, URL: url})
	if err != nil {
		return Result{}, errors.Wrap(err, "marshalling push payload")
	}

	logrus.Debugf("sending push notification to %d subscription(s): %s", len(subs), string(payload))
	outcomes := d.fanOut(ctx, subs, payload)

	res := Result{}
	for i, sendErr := range outcomes {
		sub := subs[i]
		if sendErr == nil {
			res.Sent++
			continue
		}
		res.Failed++

		logrus := logrus.WithField("subscription", sub.ID)
		switch d.health.Classify(sendErr) {
		case transport.Permanent:
			if err := d.health.OnPermanentFailure(ctx, sub.ID); err != nil {
				logrus.Error(err)
			}
		default:
			logrus.Warn(errors.Wrap(sendErr, "sending push notification"))
		}
	}

	// no recipients counts as sent, see DESIGN.md
	res.Status = types.StatusSent
	if res.Failed > 0 && res.Sent == 0 {
		res.Status = types.StatusFailed
	}

	rec, err := d.records.Record(ctx, tracker.Entry{
		UserID:    req.UserID,
		Title:     req.Title,
		Body:      req.Body,
		ContentID: req.ContentID,
		Category:  req.Category,
		Status:    res.Status,
	})
	if err != nil {
		return Result{}, err
	}
	res.NotificationID = rec.ID

	logrus.WithFields(map[string]any{
		"notification": rec.ID,
		"sent":         res.Sent,
		"failed":       res.Failed,
	}).Info("Dispatched push notification")
	return res, nil
}

// fanOut sends payload to every subscription concurrently. The returned slice
// is index aligned with subs.
func (d *Dispatcher) fanOut(ctx context.Context, subs []types.PushSubscription, payload []byte) []error {
	outcomes := make([]error, len(subs))

	var g errgroup.Group
	if d.opts.MaxParallel > 0 {
		g.SetLimit(d.opts.MaxParallel)
	}
	for i, sub := range subs {
		g.Go(func() error {
			outcomes[i] = d.send(ctx, sub, payload)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, sub types.PushSubscription, payload []byte) (err error) {
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("push transport panicked: %v", r)
		}
	}()

	return d.transport.Send(ctx, sub, payload)
}

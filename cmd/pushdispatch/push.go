package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/pushdispatch/lib/dispatch"
	"github.com/oliverisaac/pushdispatch/lib/registry"
	"github.com/oliverisaac/pushdispatch/lib/tracker"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// subscriptionRequest accepts both a flat body and the shape produced by the
// browser's PushSubscription.toJSON().
type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	P256DH   string `json:"p256dh"`
	Auth     string `json:"auth"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (r subscriptionRequest) keys() (string, string) {
	p256dh, auth := r.P256DH, r.Auth
	if p256dh == "" {
		p256dh = r.Keys.P256DH
	}
	if auth == "" {
		auth = r.Keys.Auth
	}
	return p256dh, auth
}

func bindJSON(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return types.ValidationErrorf("malformed request body")
	}
	return nil
}

func saveSubscription(subs *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := GetRequestUser(c)
		if !ok {
			return types.AuthError("unauthorized", nil)
		}

		var req subscriptionRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		p256dh, auth := req.keys()
		if req.Endpoint == "" || p256dh == "" || auth == "" {
			return types.ValidationErrorf("endpoint, p256dh and auth are required")
		}
		if subs == nil {
			return types.ConfigErrorf("subscription store is not configured")
		}

		if _, err := subs.Register(c.Request().Context(), user.ID, req.Endpoint, p256dh, auth); err != nil {
			return errors.Wrap(err, "saving subscription")
		}

		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}
}

func removeSubscription(subs *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := GetRequestUser(c)
		if !ok {
			return types.AuthError("unauthorized", nil)
		}

		var req subscriptionRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.Endpoint == "" {
			return types.ValidationErrorf("endpoint is required")
		}
		if subs == nil {
			return types.ConfigErrorf("subscription store is not configured")
		}

		if err := subs.Unregister(c.Request().Context(), user.ID, req.Endpoint); err != nil {
			return errors.Wrap(err, "removing subscription")
		}

		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}
}

type dispatchRequest struct {
	UserID    string  `json:"user_id"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	ContentID *string `json:"content_id"`
	Category  *string `json:"category"`
	URL       string  `json:"url"`
}

type dispatchResponse struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notification_id"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
}

func dispatchNotification(d *dispatch.Dispatcher) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req dispatchRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if req.UserID == "" || req.Title == "" || req.Body == "" {
			return types.ValidationErrorf("user_id, title and body are required")
		}
		if d == nil {
			return types.ConfigErrorf("push dispatch is not configured")
		}

		res, err := d.Dispatch(c.Request().Context(), dispatch.Request{
			UserID:    req.UserID,
			Title:     req.Title,
			Body:      req.Body,
			ContentID: req.ContentID,
			Category:  req.Category,
			URL:       req.URL,
		})
		if err != nil {
			return errors.Wrap(err, "dispatching notification")
		}

		return c.JSON(http.StatusOK, dispatchResponse{
			Success:        true,
			NotificationID: res.NotificationID,
			Sent:           res.Sent,
			Failed:         res.Failed,
		})
	}
}

func publicKey(cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !cfg.VapidConfigured() {
			return types.ConfigErrorf("push is not configured")
		}
		return c.JSON(http.StatusOK, echo.Map{"public_key": cfg.VapidPublicKey})
	}
}

func listNotifications(records *tracker.Tracker) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := GetRequestUser(c)
		if !ok {
			return types.AuthError("unauthorized", nil)
		}
		if records == nil {
			return types.ConfigErrorf("notification store is not configured")
		}

		notifications, err := records.ListForUser(c.Request().Context(), user.ID, 50)
		if err != nil {
			return errors.Wrap(err, "listing notifications")
		}
		logrus.WithField("user", user.ID).Debugf("Found %d notifications", len(notifications))

		return c.JSON(http.StatusOK, notifications)
	}
}

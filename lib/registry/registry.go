// Package registry stores push subscriptions keyed by endpoint.
package registry

import (
	"context"
	"strings"

	"github.com/oliverisaac/pushdispatch/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Registry struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Register upserts the subscription for endpoint. An endpoint already known
// under any user is overwritten with the new owner and keys.
func (r *Registry) Register(ctx context.Context, userID, endpoint, p256dh, auth string) (types.PushSubscription, error) {
	endpoint = strings.TrimSpace(endpoint)
	p256dh = strings.TrimSpace(p256dh)
	auth = strings.TrimSpace(auth)
	var missing []string
	if endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if p256dh == "" {
		missing = append(missing, "p256dh")
	}
	if auth == "" {
		missing = append(missing, "auth")
	}
	if len(missing) > 0 {
		return types.PushSubscription{}, types.ValidationErrorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	sub := types.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   p256dh,
		Auth:     auth,
	}

	var stored types.PushSubscription
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
		}).Create(&sub).Error
		if err != nil {
			return err
		}
		// on conflict the generated id was discarded. Read into a fresh value,
		// gorm would otherwise add the discarded id to the WHERE clause.
		return tx.Where("endpoint = ?", endpoint).Take(&stored).Error
	})
	if err != nil {
		return types.PushSubscription{}, types.StoreError(err, "saving subscription")
	}
	sub = stored

	logrus.WithFields(logrus.Fields{
		"user":         userID,
		"subscription": sub.ID,
	}).Info("Registered push subscription")
	return sub, nil
}

// Unregister deletes the subscription matching both userID and endpoint.
// Nothing matching is not an error.
func (r *Registry) Unregister(ctx context.Context, userID, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return types.ValidationErrorf("missing required fields: endpoint")
	}

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&types.PushSubscription{})
	if result.Error != nil {
		return types.StoreError(result.Error, "removing subscription")
	}

	logrus.WithField("user", userID).Debugf("Unregistered %d push subscription(s)", result.RowsAffected)
	return nil
}

// ListForUser returns a snapshot of the user's subscriptions, oldest first.
func (r *Registry) ListForUser(ctx context.Context, userID string) ([]types.PushSubscription, error) {
	ret := []types.PushSubscription{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&ret).Error
	if err != nil {
		return nil, types.StoreError(err, "listing subscriptions")
	}
	return ret, nil
}

// DeleteByID removes a subscription without user scoping. Only the health
// manager calls this, with ids it loaded for a known user.
func (r *Registry) DeleteByID(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Delete(&types.PushSubscription{}, "id = ?", id).Error
	return types.StoreError(err, "deleting subscription")
}

// Package tracker persists one audit record per dispatch.
package tracker

import (
	"context"

	"github.com/oliverisaac/pushdispatch/types"
	"gorm.io/gorm"
)

type Tracker struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Tracker {
	return &Tracker{db: db}
}

// Entry is what a dispatch knows once its fan-out has settled.
type Entry struct {
	UserID    string
	Title     string
	Body      string
	ContentID *string
	Category  *string
	Status    types.NotificationStatus
}

// Record inserts the audit record with its final status.
func (t *Tracker) Record(ctx context.Context, e Entry) (types.NotificationRecord, error) {
	rec := types.NotificationRecord{
		UserID:    e.UserID,
		Title:     e.Title,
		Body:      e.Body,
		ContentID: e.ContentID,
		Category:  e.Category,
		Status:    e.Status,
	}
	if rec.Status == "" {
		rec.Status = types.StatusSent
	}

	if err := t.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return types.NotificationRecord{}, types.StoreError(err, "saving notification record")
	}
	return rec, nil
}

// UpdateStatus overwrites the status of an existing record.
func (t *Tracker) UpdateStatus(ctx context.Context, id string, status types.NotificationStatus) error {
	result := t.db.WithContext(ctx).
		Model(&types.NotificationRecord{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return types.StoreError(result.Error, "updating notification status")
	}
	if result.RowsAffected == 0 {
		return types.StoreError(gorm.ErrRecordNotFound, "updating notification status")
	}
	return nil
}

// ListForUser returns the user's most recent records, newest first.
func (t *Tracker) ListForUser(ctx context.Context, userID string, limit int) ([]types.NotificationRecord, error) {
	ret := []types.NotificationRecord{}
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&ret).Error
	if err != nil {
		return nil, types.StoreError(err, "listing notifications")
	}
	return ret, nil
}

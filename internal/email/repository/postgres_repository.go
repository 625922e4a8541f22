package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	emaildomain "mailsift-backend/internal/email/domain"
)

// UserScopeRow is the relational form of a UserScope
type UserScopeRow struct {
	Email      string    `gorm:"primaryKey"`
	LastSynced time.Time `gorm:"column:last_synced"`
	CreatedAt  time.Time
}

func (UserScopeRow) TableName() string {
	return "user_scopes"
}

// MessageRow is the relational form of a MessageRecord, keyed by (user_id, id)
type MessageRow struct {
	UserID    string `gorm:"primaryKey"`
	ID        string `gorm:"primaryKey"`
	ThreadID  string
	Sender    string
	Subject   string
	Snippet   string
	Body      string
	Timestamp int64  `gorm:"index"`
	Processed bool   `gorm:"not null;default:false"`
	Category  string `gorm:"index"`
	Summary   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MessageRow) TableName() string {
	return "message_records"
}

func toMessageRow(scope emaildomain.UserScope, r *emaildomain.MessageRecord) MessageRow {
	flat := flatten(r)
	return MessageRow{
		UserID:    string(scope),
		ID:        r.ID,
		ThreadID:  r.ThreadID,
		Sender:    r.Sender,
		Subject:   r.Subject,
		Snippet:   r.Snippet,
		Body:      r.Body,
		Timestamp: r.Timestamp,
		Processed: flat.Processed,
		Category:  flat.Category,
		Summary:   flat.Summary,
	}
}

func (row MessageRow) toRecord() *emaildomain.MessageRecord {
	r := emaildomain.NewUnenrichedRecord(row.ID, row.ThreadID, row.Sender, row.Subject, row.Snippet, row.Body, row.Timestamp)
	r.Enrichment = emaildomain.RestoreEnrichment(row.Processed, row.Category, row.Summary)
	return r
}

// postgresMessageStore implements MessageStore with gorm
type postgresMessageStore struct {
	db *gorm.DB
}

// NewPostgresMessageStore creates a new instance of postgresMessageStore
func NewPostgresMessageStore(db *gorm.DB) MessageStore {
	return &postgresMessageStore{
		db: db,
	}
}

func (s *postgresMessageStore) ExistingIDs(ctx context.Context, scope emaildomain.UserScope, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	var found []string
	err := s.db.WithContext(ctx).Model(&MessageRow{}).
		Where("user_id = ? AND id IN ?", string(scope), ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// InsertMissing relies on ON CONFLICT DO NOTHING so existing rows keep their enrichment
func (s *postgresMessageStore) InsertMissing(ctx context.Context, scope emaildomain.UserScope, records []*emaildomain.MessageRecord) (int, error) {
	records = uniqueByID(records)
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]MessageRow, len(records))
	for i, r := range records {
		rows[i] = toMessageRow(scope, r)
	}

	var created int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		if result.Error != nil {
			return result.Error
		}
		created = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(created), nil
}

func (s *postgresMessageStore) UpdateEnrichment(ctx context.Context, scope emaildomain.UserScope, id string, enrichment emaildomain.Enrichment) error {
	result := s.db.WithContext(ctx).Model(&MessageRow{}).
		Where("user_id = ? AND id = ?", string(scope), id).
		Updates(map[string]interface{}{
			"category":  string(enrichment.Category),
			"summary":   enrichment.Summary,
			"processed": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

func (s *postgresMessageStore) List(ctx context.Context, scope emaildomain.UserScope, category emaildomain.Category) ([]*emaildomain.MessageRecord, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", string(scope))
	if category != "" {
		query = query.Where("category = ?", string(category))
	}

	var rows []MessageRow
	if err := query.Order("timestamp desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]*emaildomain.MessageRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

func (s *postgresMessageStore) Delete(ctx context.Context, scope emaildomain.UserScope, id string) error {
	return s.db.WithContext(ctx).Where("user_id = ? AND id = ?", string(scope), id).Delete(&MessageRow{}).Error
}

func (s *postgresMessageStore) EnsureUserScope(ctx context.Context, scope emaildomain.UserScope, syncedAt time.Time) error {
	row := UserScopeRow{
		Email:      string(scope),
		LastSynced: syncedAt,
		CreatedAt:  syncedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_synced"}),
	}).Create(&row).Error
}

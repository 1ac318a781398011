// Package storage provides storage implementations for run history.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdziat/simple-job-queues/pkg/core"
	"github.com/jdziat/simple-job-queues/pkg/security"
)

// GormStorage implements core.Recorder using GORM.
type GormStorage struct {
	db    *gorm.DB
	retry RetryConfig
}

var _ core.Recorder = (*GormStorage)(nil)

// NewGormStorage creates a new GORM-backed run history.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db, retry: DefaultRetryConfig()}
}

// SetRetryConfig sets the retry policy used by SaveRun.
func (s *GormStorage) SetRetryConfig(cfg RetryConfig) {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	s.retry = cfg
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.RunRecord{}, &core.JobRecord{})
}

// SaveRun persists a finished run and its per-job results, retrying
// transient failures.
func (s *GormStorage) SaveRun(ctx context.Context, run *core.RunResults) error {
	if run == nil {
		return nil
	}
	rec := toRecord(run)
	err := retryWithBackoff(ctx, s.retry, func() error {
		return s.db.WithContext(ctx).Create(rec).Error
	})
	if err != nil {
		return fmt.Errorf("queues: save run %s: %w", rec.ID, err)
	}
	return nil
}

// GetRun returns a run with its job records ordered by position.
func (s *GormStorage) GetRun(ctx context.Context, id string) (*core.RunRecord, error) {
	var rec core.RunRecord
	err := s.db.WithContext(ctx).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrRunNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListRuns returns the most recent runs, newest first. An empty queue name
// lists runs of every queue; limit <= 0 means no limit.
func (s *GormStorage) ListRuns(ctx context.Context, queue string, limit int) ([]core.RunRecord, error) {
	query := s.db.WithContext(ctx).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("started_at DESC")
	if queue != "" {
		query = query.Where("queue = ?", queue)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []core.RunRecord
	if err := query.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteRunsBefore removes runs started before t and returns how many were
// deleted.
func (s *GormStorage) DeleteRunsBefore(ctx context.Context, t time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&core.RunRecord{}).Select("id").Where("started_at < ?", t)
		if err := tx.Where("run_id IN (?)", old).Delete(&core.JobRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("started_at < ?", t).Delete(&core.RunRecord{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

func toRecord(run *core.RunResults) *core.RunRecord {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	rec := &core.RunRecord{
		ID:         id,
		Queue:      run.Queue,
		Status:     run.Status,
		Early:      run.Early,
		Input:      encodePayload(run.Input),
		Data:       encodePayload(run.Data),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Jobs:       make([]core.JobRecord, 0, len(run.Jobs)),
	}
	for i, jr := range run.Jobs {
		rec.Jobs = append(rec.Jobs, core.JobRecord{
			ID:       uuid.New().String(),
			RunID:    id,
			Position: i,
			Name:     jr.Name,
			Status:   jr.Result.Status,
			Msg:      security.SanitizeErrorMessage(jr.Result.Msg),
			Data:     encodePayload(jr.Result.Data),
		})
	}
	return rec
}

// encodePayload marshals v to JSON. Values JSON cannot represent are stored
// as their %v text.
func encodePayload(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(fmt.Sprintf("%v", v))
	}
	return b
}

package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pingmon/internal/probe"
)

const defaultBatchSize = 50

// PingResult is the persisted shape of one probe result.
type PingResult struct {
	ID             uint      `gorm:"primaryKey"`
	IPAddress      string    `gorm:"index;not null"`
	Timestamp      time.Time `gorm:"index;not null"`
	Success        bool      `gorm:"index;not null"`
	ResponseTimeMs *float64
	Reason         string
	Label          string
	JobName        string `gorm:"index"`
	TimeoutSeconds int
	PingCount      int
	CreatedAt      time.Time
}

func (PingResult) TableName() string {
	return "ping_results"
}

// ResultStore persists probe batches. It is best-effort by contract: callers
// log a SaveBatch error and carry on, files remain the system of record.
type ResultStore interface {
	SaveBatch(ctx context.Context, batch probe.Batch, params probe.Params) error
}

type resultStore struct {
	db        *gorm.DB
	batchSize int
}

// NewResultStore migrates the ping_results table and returns a store that
// inserts results in chunks of batchSize to bound transaction size.
func NewResultStore(db *gorm.DB, batchSize int) (ResultStore, error) {
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	if err := db.AutoMigrate(&PingResult{}); err != nil {
		return nil, fmt.Errorf("NewResultStore: %w", err)
	}
	return &resultStore{
		db:        db,
		batchSize: batchSize,
	}, nil
}

func (s *resultStore) SaveBatch(ctx context.Context, batch probe.Batch, params probe.Params) error {
	if len(batch.Results) == 0 {
		return nil
	}
	records := make([]PingResult, 0, len(batch.Results))
	for _, r := range batch.Results {
		record := PingResult{
			IPAddress:      r.Target.Identifier,
			Timestamp:      batch.Timestamp,
			Success:        r.Success,
			Reason:         string(r.Reason),
			Label:          r.Target.Label,
			JobName:        batch.Job,
			TimeoutSeconds: int(params.Timeout / time.Second),
			PingCount:      params.Count,
		}
		if r.Success && r.HasLatency {
			ms := float64(r.Latency) / float64(time.Millisecond)
			record.ResponseTimeMs = &ms
		}
		records = append(records, record)
	}
	result := s.db.WithContext(ctx).CreateInBatches(records, s.batchSize)
	if result.Error != nil {
		return fmt.Errorf("ResultStore.SaveBatch: %w", result.Error)
	}
	return nil
}

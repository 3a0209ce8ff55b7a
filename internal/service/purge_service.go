package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/subs_go_server/internal/model"
	"github.com/qs3c/subs_go_server/internal/model/dto"
)

const defaultPurgeBatch = 500

// PurgeStore 清理任务所需的存储操作
type PurgeStore interface {
	CountInactiveExpiredBefore(t time.Time) (int64, error)
	FindInactiveExpiredBefore(t time.Time, limit int) ([]model.Subscription, error)
	DeleteByIDs(ids []int64) (int64, error)
}

// Archiver 删除前归档；UploadFile 返回归档文件 URL，批次删除失败时用 DeleteFile 撤回
type Archiver interface {
	UploadFile(objectKey string, data []byte, contentType string) (string, error)
	DeleteFile(objectKey string) error
}

type PurgeResult struct {
	Matched  int64
	Deleted  int64
	Archives []string
}

// PurgeService 清理早已失效的 CANCELED/EXPIRED 订阅
type PurgeService struct {
	store     PurgeStore
	archiver  Archiver
	prefix    string
	batchSize int
	logger    *zap.Logger
}

// NewPurgeService archiver 可为 nil，此时直接删除不归档
func NewPurgeService(store PurgeStore, archiver Archiver, prefix string, batchSize int, logger *zap.Logger) *PurgeService {
	if batchSize <= 0 {
		batchSize = defaultPurgeBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeService{
		store:     store,
		archiver:  archiver,
		prefix:    prefix,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Purge 删除过期时间早于 cutoff 的失效订阅，dryRun 时只统计
func (s *PurgeService) Purge(ctx context.Context, cutoff time.Time, dryRun bool) (*PurgeResult, error) {
	matched, err := s.store.CountInactiveExpiredBefore(cutoff)
	if err != nil {
		return nil, fmt.Errorf("count purgeable subscriptions: %w", err)
	}

	result := &PurgeResult{Matched: matched}
	if dryRun || matched == 0 {
		return result, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := s.store.FindInactiveExpiredBefore(cutoff, s.batchSize)
		if err != nil {
			return result, fmt.Errorf("find purgeable subscriptions: %w", err)
		}
		if len(batch) == 0 {
			return result, nil
		}

		var key, url string
		if s.archiver != nil {
			key, url, err = s.archive(cutoff, batch)
			if err != nil {
				return result, err
			}
		}

		ids := make([]int64, 0, len(batch))
		for _, sub := range batch {
			ids = append(ids, sub.ID)
		}
		deleted, err := s.store.DeleteByIDs(ids)
		if err != nil {
			if key != "" {
				s.discardArchive(key)
			}
			return result, fmt.Errorf("delete subscriptions: %w", err)
		}
		result.Deleted += deleted
		if url != "" {
			result.Archives = append(result.Archives, url)
		}

		s.logger.Info("purged subscription batch",
			zap.Int64("first_id", ids[0]),
			zap.Int("batch", len(ids)),
			zap.Int64("deleted", deleted),
		)
	}
}

func (s *PurgeService) archive(cutoff time.Time, batch []model.Subscription) (key, url string, err error) {
	data, err := json.Marshal(dto.NewSubscriptionInfoList(batch))
	if err != nil {
		return "", "", fmt.Errorf("encode archive: %w", err)
	}

	key = fmt.Sprintf("%s/%s/%d.json", s.prefix, cutoff.UTC().Format("20060102"), batch[0].ID)
	url, err = s.archiver.UploadFile(key, data, "application/json")
	if err != nil {
		return "", "", fmt.Errorf("archive batch %d: %w", batch[0].ID, err)
	}
	return key, url, nil
}

// discardArchive 行未删除时撤回归档，失败只记录日志
func (s *PurgeService) discardArchive(key string) {
	if err := s.archiver.DeleteFile(key); err != nil {
		s.logger.Warn("failed to discard archive",
			zap.String("object_key", key),
			zap.Error(err),
		)
	}
}

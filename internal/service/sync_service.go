package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/repository"
	"exam_sync_backend/internal/util"
	"exam_sync_backend/pkg/logger"
	"exam_sync_backend/pkg/monitoring"
	"exam_sync_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	syncLockTTL     = 15 * time.Minute
	syncProgressTTL = 30 * time.Minute
)

// ReportSource 抽取适配层边界：浏览器自动化在外部，这里只接收数据
type ReportSource interface {
	FetchReports(ctx context.Context, creds model.SyncCredentials, filters model.SyncFilters) ([]model.RawExamReport, []string, error)
}

// ProgressFunc 进度回调。纯展示用途：回调失败绝不中断同步
type ProgressFunc func(model.SyncProgress)

type catalogMerger interface {
	UpsertExam(report *model.RawExamReport) (*model.Exam, *QuestionMaps, []string, error)
	QuestionMapsForExam(examID uint) (*QuestionMaps, error)
}

type attemptUpserter interface {
	UpsertAttempt(userID, examID uint, maps *QuestionMaps, answers []model.ScrapedAnswer) (*model.ExamAttempt, []string, error)
}

type reportArchiver interface {
	ArchiveReport(ctx context.Context, userID uint, report *model.RawExamReport) error
}

// SyncService 串联 抽取 → 规范化 → 目录合并 → 作答构建，并汇报进度。
// 同一账号同时只允许一次同步（拒绝而非排队）；单份报告失败记入 warnings 后继续。
type SyncService struct {
	Source   ReportSource
	Catalog  catalogMerger
	Attempts attemptUpserter
	Archive  reportArchiver
	UserRepo *repository.UserRepository
	Redis    *redis.Client
}

func NewSyncService(source ReportSource, catalog *CatalogService, attempts *AttemptService, archive *ArchiveService, userRepo *repository.UserRepository, rdb *redis.Client) *SyncService {
	return &SyncService{
		Source:   source,
		Catalog:  catalog,
		Attempts: attempts,
		Archive:  archive,
		UserRepo: userRepo,
		Redis:    rdb,
	}
}

func syncLockKey(userID uint) string     { return fmt.Sprintf("sync:lock:%d", userID) }
func syncProgressKey(userID uint) string { return fmt.Sprintf("sync:progress:%d", userID) }

// acquireLock 账号级单飞锁。拿不到锁是独立的冲突结果，调用方应轮询而非重试
func (s *SyncService) acquireLock(ctx context.Context, userID uint) (bool, error) {
	if s.Redis == nil {
		return true, nil
	}
	return s.Redis.SetNX(ctx, syncLockKey(userID), "1", syncLockTTL).Result()
}

func (s *SyncService) releaseLock(ctx context.Context, userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, syncLockKey(userID)).Err(); err != nil {
		logger.Log.Warn("sync lock release failed", zap.Uint("userId", userID), zap.Error(err))
	}
}

// report 进度：回调 + redis 键都尽力而为
func (s *SyncService) report(ctx context.Context, userID uint, progress ProgressFunc, p model.SyncProgress) {
	if progress != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Log.Warn("sync progress callback panicked", zap.Any("panic", r))
				}
			}()
			progress(p)
		}()
	}
	if s.Redis != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.Redis.Set(ctx, syncProgressKey(userID), data, syncProgressTTL).Err()
		}
	}
}

// Progress 查询最近一次上报的同步进度
func (s *SyncService) Progress(ctx context.Context, userID uint) (*model.SyncProgress, error) {
	if s.Redis == nil {
		return nil, nil
	}
	data, err := s.Redis.Get(ctx, syncProgressKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.SyncProgress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SyncExternalAccount 同步一个门户账号的全部考试结果。
// 硬错误（不支持的门户、凭据失败、缺失考试 ID）整体中止；
// 其余问题降级为 warnings 随部分结果一起返回，绝不静默吞掉。
func (s *SyncService) SyncExternalAccount(ctx context.Context, userID uint, creds model.SyncCredentials, filters model.SyncFilters, progress ProgressFunc) (*model.SyncResult, error) {
	if creds.Provider != util.ProviderTestPortal {
		return nil, util.ErrUnsupportedProvider
	}

	ok, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSyncInProgress
	}
	defer s.releaseLock(ctx, userID)

	ctx, span := tracing.Tracer.Start(ctx, "sync.account")
	defer span.End()

	started := time.Now()
	result := &model.SyncResult{Attempts: []uint{}, Warnings: []string{}}

	s.report(ctx, userID, progress, model.SyncProgress{Stage: "fetching"})

	reports, fetchWarnings, err := s.Source.FetchReports(ctx, creds, filters)
	if err != nil {
		monitoring.SyncRuns.WithLabelValues("failed").Inc()
		return nil, err
	}
	result.Warnings = append(result.Warnings, fetchWarnings...)

	for i, report := range reports {
		s.report(ctx, userID, progress, model.SyncProgress{
			Stage:     "merging",
			ExamTitle: report.Title,
			Done:      i,
			Total:     len(reports),
		})

		if s.Archive != nil && len(report.RawPayload) > 0 {
			if err := s.Archive.ArchiveReport(ctx, userID, &report); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("exam %s: raw payload archive failed: %v", report.ExternalExamID, err))
			}
		}

		attemptID, warnings, err := s.syncReport(userID, &report, filters)
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			// 单份报告失败只跳过这一场，批次继续
			monitoring.ReportsSkipped.Inc()
			result.Warnings = append(result.Warnings, fmt.Sprintf("exam %s: %v", report.ExternalExamID, err))
			continue
		}

		result.Count++
		result.Attempts = append(result.Attempts, attemptID)
		monitoring.ExamsSynced.Inc()
	}

	s.report(ctx, userID, progress, model.SyncProgress{
		Stage: "done",
		Done:  len(reports),
		Total: len(reports),
	})

	if s.UserRepo != nil {
		if err := s.UserRepo.TouchLastSync(userID); err != nil {
			logger.Log.Warn("failed to record last sync time", zap.Uint("userId", userID), zap.Error(err))
		}
	}

	monitoring.SyncRuns.WithLabelValues("ok").Inc()
	logger.Log.Info("account sync finished",
		zap.Uint("userId", userID),
		zap.Int("examCount", result.Count),
		zap.Int("warningCount", len(result.Warnings)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// syncReport 单份报告的 合并目录 → 构建作答
func (s *SyncService) syncReport(userID uint, report *model.RawExamReport, filters model.SyncFilters) (uint, []string, error) {
	var warnings []string

	exam, maps, mergeWarnings, err := s.Catalog.UpsertExam(report)
	warnings = append(warnings, mergeWarnings...)
	if err != nil {
		return 0, warnings, err
	}

	// attempts-only 模式或报告本身缺题目时，从持久目录补全索引
	if filters.AttemptsOnly || len(maps.ByQuestionNumber) == 0 {
		persisted, err := s.Catalog.QuestionMapsForExam(exam.ID)
		if err != nil {
			return 0, warnings, err
		}
		if len(maps.BySourceNumber) == 0 {
			maps.BySourceNumber = persisted.BySourceNumber
		}
		maps.ByQuestionNumber = persisted.ByQuestionNumber
	}

	attempt, attemptWarnings, err := s.Attempts.UpsertAttempt(userID, exam.ID, maps, report.Answers)
	warnings = append(warnings, attemptWarnings...)
	if err != nil {
		return 0, warnings, err
	}
	return attempt.ID, warnings, nil
}

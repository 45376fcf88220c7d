package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/repository"
	"exam_sync_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const peerTimingTTL = time.Minute

// PeerService 只读统计：同一考试下其他用户的平均每题用时
type PeerService struct {
	AttemptRepo *repository.AttemptRepository
	Redis       *redis.Client
}

func NewPeerService(attemptRepo *repository.AttemptRepository, rdb *redis.Client) *PeerService {
	return &PeerService{AttemptRepo: attemptRepo, Redis: rdb}
}

// AveragePeerTimings 对一组作答求每题平均用时。
// 缺失/非法的计时按 0 计入分子，且每份作答都计入分母。
func AveragePeerTimings(attempts []model.ExamAttempt) map[uint]float64 {
	if len(attempts) == 0 {
		return map[uint]float64{}
	}

	sums := make(map[uint]float64)
	for _, a := range attempts {
		for qid := range a.Answers {
			if _, seen := sums[qid]; !seen {
				sums[qid] = 0
			}
		}
		for qid, t := range a.Timings {
			if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
				t = 0
			}
			sums[qid] += t
		}
	}

	n := float64(len(attempts))
	avgs := make(map[uint]float64, len(sums))
	for qid, sum := range sums {
		avgs[qid] = sum / n
	}
	return avgs
}

// FetchPeerTimings 带短 TTL 缓存的读路径，无任何副作用
func (s *PeerService) FetchPeerTimings(ctx context.Context, examID, excludeUserID uint) (map[uint]float64, error) {
	cacheKey := fmt.Sprintf("peer:timings:%d:%d", examID, excludeUserID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var out map[uint]float64
			if json.Unmarshal([]byte(cached), &out) == nil {
				return out, nil
			}
		}
	}

	attempts, err := s.AttemptRepo.FindPeers(examID, excludeUserID)
	if err != nil {
		return nil, err
	}
	avgs := AveragePeerTimings(attempts)

	if s.Redis != nil {
		if data, err := json.Marshal(avgs); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, data, peerTimingTTL).Err(); err != nil {
				logger.Log.Warn("peer timing cache write failed", zap.Error(err))
			}
		}
	}
	return avgs, nil
}

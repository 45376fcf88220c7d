package service

import (
	"fmt"
	"math"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
	"exam_sync_backend/internal/repository"
)

// AttemptService 按目录题目索引刷新单个用户的作答记录
type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
}

func NewAttemptService(attemptRepo *repository.AttemptRepository) *AttemptService {
	return &AttemptService{AttemptRepo: attemptRepo}
}

// buildAttempt 纯构建：先把每道已知题目初始化为未作答，再叠加抓取到的作答。
// 作答按 sourceNumber 先查本次索引，未命中回落到持久目录索引
// （attempts-only 重同步不带题目数据时走的就是这条路径）。
// 答案用持久题目的题型解析，畸形数值只会退化为未作答，不会污染判分。
func buildAttempt(userID, examID uint, maps *QuestionMaps, answers []model.ScrapedAnswer) (*model.ExamAttempt, []string) {
	var warnings []string

	attempt := &model.ExamAttempt{
		UserID:    userID,
		ExamID:    examID,
		Answers:   make(model.AnswerMap, len(maps.ByQuestionNumber)),
		Timings:   make(model.TimingMap, len(maps.ByQuestionNumber)),
		Bookmarks: make(model.BookmarkMap),
	}

	for _, ref := range maps.ByQuestionNumber {
		attempt.Answers[ref.ID] = model.NoAnswer()
		attempt.Timings[ref.ID] = 0
	}

	for _, sa := range answers {
		ref, ok := maps.BySourceNumber[sa.SourceNumber]
		if !ok {
			ref, ok = maps.ByQuestionNumber[sa.SourceNumber]
		}
		if !ok {
			warnings = append(warnings, fmt.Sprintf("answer for source question %d has no catalog slot, skipped", sa.SourceNumber))
			continue
		}

		attempt.Answers[ref.ID] = normalize.ParseAnswerValue(sa.SelectedRaw, ref.QType)

		t := sa.TimeSeconds
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			t = 0
		}
		attempt.Timings[ref.ID] = t
		if sa.Bookmarked {
			attempt.Bookmarks[ref.ID] = true
		}
	}

	return attempt, warnings
}

// UpsertAttempt 构建作答记录并整体落库
func (s *AttemptService) UpsertAttempt(userID, examID uint, maps *QuestionMaps, answers []model.ScrapedAnswer) (*model.ExamAttempt, []string, error) {
	attempt, warnings := buildAttempt(userID, examID, maps, answers)

	// 冲突时整体覆盖：最新抓取是权威数据
	if err := s.AttemptRepo.Upsert(attempt); err != nil {
		return nil, warnings, err
	}

	// MySQL 的 upsert 不回填已存在行的主键，重查一次
	persisted, err := s.AttemptRepo.FindByUserAndExam(userID, examID)
	if err != nil {
		return nil, warnings, err
	}
	return persisted, warnings, nil
}

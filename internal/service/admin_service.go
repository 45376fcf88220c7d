package service

import (
	"errors"
	"strings"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
	"exam_sync_backend/internal/repository"
	"exam_sync_backend/pkg/logger"

	"go.uber.org/zap"
)

// AdminService 管理员对生效键的修订：改键、送分、还原。
// 只动 keyUpdate，原始键 correctAnswer 永远不变。
type AdminService struct {
	QuestionRepo *repository.QuestionRepository
}

func NewAdminService(questionRepo *repository.QuestionRepository) *AdminService {
	return &AdminService{QuestionRepo: questionRepo}
}

var ErrUnparseableKey = errors.New("key text cannot be parsed for this question type")

// parseAdminKey 解析管理员提交的键文本。非送分的修订必须解析出一个具体答案：
// 空文本或解析失败都拒绝，绝不把“未作答”写进生效键。
func parseAdminKey(rawKey string, bonus bool, qtype model.QuestionType) (model.AnswerValue, error) {
	if bonus {
		return model.BonusAnswer(), nil
	}
	if strings.TrimSpace(rawKey) == "" {
		return model.AnswerValue{}, ErrUnparseableKey
	}
	value := normalize.ParseAnswerValue(rawKey, qtype)
	if value.Kind == model.AnswerNone {
		return model.AnswerValue{}, ErrUnparseableKey
	}
	return value, nil
}

// UpdateQuestionKey 设置新的生效键。bonus 为 true 时写入送分标记，
// 任何作答（包括未作答）都按满分处理。
func (s *AdminService) UpdateQuestionKey(questionID uint, rawKey string, bonus bool) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, err
	}

	value, err := parseAdminKey(rawKey, bonus, q.QType)
	if err != nil {
		return nil, err
	}

	if err := s.QuestionRepo.UpdateKey(questionID, model.EncodeAnswerValue(value)); err != nil {
		return nil, err
	}

	logger.Log.Info("question key updated",
		zap.Uint("questionId", questionID),
		zap.Bool("bonus", bonus),
	)
	return s.QuestionRepo.FindByID(questionID)
}

// ResetQuestionKey 把生效键还原为原始抓取键
func (s *AdminService) ResetQuestionKey(questionID uint) (*model.Question, error) {
	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.UpdateKey(questionID, q.CorrectAnswer); err != nil {
		return nil, err
	}
	return s.QuestionRepo.FindByID(questionID)
}

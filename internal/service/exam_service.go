package service

import (
	"exam_sync_backend/internal/grading"
	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/repository"
)

// ExamService 读侧：考试目录浏览与单份作答的判分视图
type ExamService struct {
	ExamRepo     *repository.ExamRepository
	QuestionRepo *repository.QuestionRepository
	AttemptRepo  *repository.AttemptRepository
}

func NewExamService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, attemptRepo *repository.AttemptRepository) *ExamService {
	return &ExamService{
		ExamRepo:     examRepo,
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
	}
}

func (s *ExamService) ListExams(page, limit int) ([]model.Exam, int64, error) {
	return s.ExamRepo.List(page, limit)
}

func (s *ExamService) ListUserExams(userID uint) ([]model.Exam, error) {
	return s.ExamRepo.ListForUser(userID)
}

type ExamDetail struct {
	Exam      *model.Exam      `json:"exam"`
	Questions []model.Question `json:"questions"`
}

func (s *ExamService) GetExamDetail(examID uint) (*ExamDetail, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.QuestionRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	return &ExamDetail{Exam: exam, Questions: questions}, nil
}

// GetAttemptAnalysis 取出作答与题目，交给纯判分层做单遍统计
func (s *ExamService) GetAttemptAnalysis(userID, examID uint) (*model.AttemptAnalysis, error) {
	attempt, err := s.AttemptRepo.FindByUserAndExam(userID, examID)
	if err != nil {
		return nil, err
	}
	questions, err := s.QuestionRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	return grading.BuildAnalysis(attempt, questions), nil
}

// GetAttempt 原始作答记录（答案、计时、书签）
func (s *ExamService) GetAttempt(userID, examID uint) (*model.ExamAttempt, error) {
	return s.AttemptRepo.FindByUserAndExam(userID, examID)
}

package repository

import (
	"time"

	"exam_sync_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) FindByExam(examID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("exam_id = ?", examID).
		Order("question_number ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) FindByExamAndNumber(examID uint, questionNumber int) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("exam_id = ? AND question_number = ?", examID, questionNumber).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateKey 管理员修订生效键；原始键不动
func (r *QuestionRepository) UpdateKey(questionID uint, encodedKey string) error {
	now := time.Now()
	return r.DB.Model(&model.Question{}).
		Where("id = ?", questionID).
		Updates(map[string]interface{}{
			"key_update":           encodedKey,
			"last_key_update_time": now,
		}).Error
}

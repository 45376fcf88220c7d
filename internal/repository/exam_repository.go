package repository

import (
	"exam_sync_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.First(&exam, id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) FindByExternalID(externalID string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("external_exam_id = ?", externalID).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) List(page, limit int) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64
	if err := r.DB.Model(&model.Exam{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("exam_date DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&exams).Error
	return exams, total, err
}

// ListForUser 仅返回该用户有作答记录的考试
func (r *ExamRepository) ListForUser(userID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.
		Joins("JOIN exam_attempts ON exam_attempts.exam_id = exams.id AND exam_attempts.user_id = ? AND exam_attempts.deleted_at IS NULL", userID).
		Order("exams.exam_date DESC, exams.id DESC").
		Find(&exams).Error
	return exams, err
}

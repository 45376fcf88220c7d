package repository

import (
	"exam_sync_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindByUserAndExam(userID, examID uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.Where("user_id = ? AND exam_id = ?", userID, examID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert 冲突时整体覆盖 answers/timings/bookmarks：最新一次抓取是权威数据，不做新旧合并
func (r *AttemptRepository) Upsert(attempt *model.ExamAttempt) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "exam_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "timings", "bookmarks", "updated_at"}),
	}).Create(attempt).Error
}

// FindPeers 同一考试下其他用户的全部作答，只读
func (r *AttemptRepository) FindPeers(examID, excludeUserID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("exam_id = ? AND user_id <> ?", examID, excludeUserID).Find(&attempts).Error
	return attempts, err
}

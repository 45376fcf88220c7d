package model

// ExamAttempt 单个用户对一场考试的作答记录，(UserID, ExamID) 唯一。
// 三个 map 均以 questionID 为键整体存成 JSON 列；重同步时整体覆盖，不做合并。
// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	UserID uint `gorm:"index;uniqueIndex:idx_user_exam,priority:1;type:bigint unsigned" json:"userId"`
	ExamID uint `gorm:"index;uniqueIndex:idx_user_exam,priority:2;type:bigint unsigned" json:"examId"`

	Answers   AnswerMap   `gorm:"type:json" json:"answers"`
	Timings   TimingMap   `gorm:"type:json" json:"timings"`
	Bookmarks BookmarkMap `gorm:"type:json" json:"bookmarks"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

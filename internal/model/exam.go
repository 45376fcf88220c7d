package model

import "time"

type Subject string

const (
	SubjectPhysics     Subject = "PHYSICS"
	SubjectChemistry   Subject = "CHEMISTRY"
	SubjectMathematics Subject = "MATHEMATICS"
	SubjectUnknown     Subject = "UNKNOWN"
)

type QuestionType string

const (
	QTypeMCQ  QuestionType = "MCQ"  // 单选
	QTypeMAQ  QuestionType = "MAQ"  // 多选，可部分给分
	QTypeVMAQ QuestionType = "VMAQ" // 变体多选（单个正确选项，+3/-1）
	QTypeNAT  QuestionType = "NAT"  // 数值作答
)

// Exam 全局共享的试卷目录项，所有同步到同一外部试卷的用户共用一行
// swagger:model Exam
type Exam struct {
	BaseModel

	ExternalExamID string `gorm:"uniqueIndex;size:128" json:"externalExamId"`
	Title          string `gorm:"size:255" json:"title"`
	ExamDate       string `gorm:"size:64" json:"examDate"`
}

func (Exam) TableName() string {
	return "exams"
}

// Question 归属单场考试，以 QuestionNumber（1 起始序号）稳定寻址。
// CorrectAnswer 为首次抓取到的原始键，非空后不再覆盖；
// KeyUpdate 为当前生效键，管理员修订后与 CorrectAnswer 分叉，重同步不得回写。
// swagger:model Question
type Question struct {
	BaseModel

	ExamID         uint         `gorm:"index;uniqueIndex:idx_exam_qn,priority:1;type:bigint unsigned" json:"examId"`
	QuestionNumber int          `gorm:"uniqueIndex:idx_exam_qn,priority:2" json:"questionNumber"`
	Subject        Subject      `gorm:"size:20" json:"subject"`
	QType          QuestionType `gorm:"size:10" json:"qtype"`
	Content        string       `gorm:"type:text" json:"questionContent"`
	OptionA        string       `gorm:"type:text" json:"optionA,omitempty"`
	OptionB        string       `gorm:"type:text" json:"optionB,omitempty"`
	OptionC        string       `gorm:"type:text" json:"optionC,omitempty"`
	OptionD        string       `gorm:"type:text" json:"optionD,omitempty"`
	HasPartial     bool         `gorm:"default:false" json:"hasPartial"`

	CorrectMarking     int `json:"correctMarking"`
	IncorrectMarking   int `json:"incorrectMarking"`
	UnattemptedMarking int `json:"unattemptedMarking"`

	CorrectAnswer     string     `gorm:"type:json" json:"correctAnswer"`
	KeyUpdate         string     `gorm:"type:json" json:"keyUpdate"`
	LastKeyUpdateTime *time.Time `json:"lastKeyUpdateTime,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswerValue 解码后的原始键
func (q *Question) CorrectAnswerValue() AnswerValue {
	return DecodeAnswerValue(q.CorrectAnswer)
}

// KeyUpdateValue 解码后的当前生效键
func (q *Question) KeyUpdateValue() AnswerValue {
	return DecodeAnswerValue(q.KeyUpdate)
}

// KeyDiverged 生效键是否已偏离原始键
func (q *Question) KeyDiverged() bool {
	return !q.KeyUpdateValue().Equal(q.CorrectAnswerValue())
}

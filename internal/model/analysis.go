package model

import "time"

// QuestionStatus 单题判定结果
type QuestionStatus string

const (
	StatusCorrect     QuestionStatus = "correct"
	StatusPartial     QuestionStatus = "partial"
	StatusIncorrect   QuestionStatus = "incorrect"
	StatusUnattempted QuestionStatus = "unattempted"
)

// GroupStats 按科目/题型聚合的小计
type GroupStats struct {
	Total       int     `json:"total"`
	Attempted   int     `json:"attempted"`
	Correct     int     `json:"correct"`
	Partial     int     `json:"partial"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Score       int     `json:"score"`
	Accuracy    float64 `json:"accuracy"`
}

// TimeBucket 固定用时直方图的一格
type TimeBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TimeStats 用时统计（仅统计有计时数据的题目）
type TimeStats struct {
	MedianSeconds float64      `json:"medianSeconds"`
	P75Seconds    float64      `json:"p75Seconds"`
	MinSeconds    float64      `json:"minSeconds"`
	MaxSeconds    float64      `json:"maxSeconds"`
	Histogram     []TimeBucket `json:"histogram"`
}

// KeyChange 生效键与原始键不一致的题目
type KeyChange struct {
	QuestionID     uint       `json:"questionId"`
	QuestionNumber int        `json:"questionNumber"`
	CorrectAnswer  string     `json:"correctAnswer"`
	KeyUpdate      string     `json:"keyUpdate"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// AttemptAnalysis buildAnalysis 的单遍扫描产物
type AttemptAnalysis struct {
	Total       int     `json:"total"`
	Attempted   int     `json:"attempted"`
	Correct     int     `json:"correct"`
	Partial     int     `json:"partial"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	Score       int     `json:"score"`
	MaxScore    int     `json:"maxScore"`
	Accuracy    float64 `json:"accuracy"` // correct / attempted，百分比

	// 按当前生效键与原始键各算一遍分数，差值即“答案修订带来的分差”
	ScoreWithOriginalKey int `json:"scoreWithOriginalKey"`
	ScoreDelta           int `json:"scoreDelta"`

	BySubject map[Subject]*GroupStats      `json:"bySubject"`
	ByType    map[QuestionType]*GroupStats `json:"byType"`

	Time TimeStats `json:"time"`

	LongestHitStreak  int `json:"longestHitStreak"`  // 连续 correct/partial
	LongestMissStreak int `json:"longestMissStreak"` // 连续 incorrect

	FastWrong int `json:"fastWrong"` // 错题且用时 < 0.75x 平均作答用时
	SlowWrong int `json:"slowWrong"` // 错题且用时 > 1.35x 平均作答用时

	KeyChanges        []KeyChange `json:"keyChanges"`
	LatestKeyUpdateAt *time.Time  `json:"latestKeyUpdateAt,omitempty"`

	PerQuestion []QuestionResult `json:"perQuestion"`
}

// QuestionResult 单题明细
type QuestionResult struct {
	QuestionID     uint           `json:"questionId"`
	QuestionNumber int            `json:"questionNumber"`
	Subject        Subject        `json:"subject"`
	QType          QuestionType   `json:"qtype"`
	Status         QuestionStatus `json:"status"`
	Mark           int            `json:"mark"`
	TimeSeconds    float64        `json:"timeSeconds"`
	Bookmarked     bool           `json:"bookmarked"`
}

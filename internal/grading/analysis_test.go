package grading

import (
	"testing"
	"time"

	"exam_sync_backend/internal/model"
)

func question(id uint, number int, subject model.Subject, qtype model.QuestionType, key string) model.Question {
	correct, incorrect, unattempted := 4, -1, 0
	if qtype == model.QTypeMAQ {
		incorrect = -2
	}
	return model.Question{
		BaseModel:          model.BaseModel{ID: id},
		QuestionNumber:     number,
		Subject:            subject,
		QType:              qtype,
		CorrectMarking:     correct,
		IncorrectMarking:   incorrect,
		UnattemptedMarking: unattempted,
		CorrectAnswer:      key,
		KeyUpdate:          key,
	}
}

func TestBuildAnalysis(t *testing.T) {
	questions := []model.Question{
		// 乱序传入，分析应按题号排序
		question(3, 3, model.SubjectMathematics, model.QTypeNAT, `4`),
		question(1, 1, model.SubjectPhysics, model.QTypeMCQ, `"A"`),
		question(2, 2, model.SubjectChemistry, model.QTypeMAQ, `["A","B","C"]`),
	}

	attempt := &model.ExamAttempt{
		Answers: model.AnswerMap{
			1: model.OptionAnswer("A"),
			2: model.OptionSetAnswer([]string{"A", "B"}),
			3: model.NoAnswer(),
		},
		Timings: model.TimingMap{1: 30, 2: 60, 3: 0},
	}

	a := BuildAnalysis(attempt, questions)

	if a.Total != 3 || a.Attempted != 2 || a.Correct != 1 || a.Partial != 1 || a.Incorrect != 0 || a.Unattempted != 1 {
		t.Errorf("counts = %+v", a)
	}
	if a.Score != 6 || a.MaxScore != 12 {
		t.Errorf("score = %d / %d, want 6 / 12", a.Score, a.MaxScore)
	}
	if a.Accuracy != 50 {
		t.Errorf("accuracy = %v, want 50", a.Accuracy)
	}
	if a.ScoreWithOriginalKey != 6 || a.ScoreDelta != 0 {
		t.Errorf("original-key score = %d, delta = %d", a.ScoreWithOriginalKey, a.ScoreDelta)
	}
	if a.LongestHitStreak != 2 || a.LongestMissStreak != 0 {
		t.Errorf("streaks = %d / %d", a.LongestHitStreak, a.LongestMissStreak)
	}

	if a.Time.MinSeconds != 30 || a.Time.MaxSeconds != 60 || a.Time.MedianSeconds != 45 || a.Time.P75Seconds != 52.5 {
		t.Errorf("time stats = %+v", a.Time)
	}
	wantBuckets := map[string]int{"0-30s": 0, "30-60s": 1, "1-2m": 1, "2-4m": 0, "4m+": 0}
	for _, b := range a.Time.Histogram {
		if b.Count != wantBuckets[b.Label] {
			t.Errorf("bucket %s = %d, want %d", b.Label, b.Count, wantBuckets[b.Label])
		}
	}

	if len(a.BySubject) != 3 || a.BySubject[model.SubjectPhysics].Correct != 1 || a.BySubject[model.SubjectChemistry].Partial != 1 {
		t.Errorf("by subject = %+v", a.BySubject)
	}
	if a.ByType[model.QTypeNAT].Unattempted != 1 {
		t.Errorf("by type = %+v", a.ByType)
	}

	if a.KeyChanges == nil || len(a.KeyChanges) != 0 {
		t.Errorf("keyChanges = %+v, want empty slice", a.KeyChanges)
	}

	if len(a.PerQuestion) != 3 {
		t.Fatalf("perQuestion = %d entries", len(a.PerQuestion))
	}
	for i, r := range a.PerQuestion {
		if r.QuestionNumber != i+1 {
			t.Errorf("perQuestion[%d].QuestionNumber = %d, 未按题号排序", i, r.QuestionNumber)
		}
	}
}

func TestBuildAnalysisKeyRevision(t *testing.T) {
	q := question(1, 1, model.SubjectPhysics, model.QTypeMCQ, `"A"`)
	q.KeyUpdate = `"B"`
	updated := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	q.LastKeyUpdateTime = &updated

	attempt := &model.ExamAttempt{
		Answers: model.AnswerMap{1: model.OptionAnswer("A")},
		Timings: model.TimingMap{1: 20},
	}

	a := BuildAnalysis(attempt, []model.Question{q})

	if a.Score != -1 || a.ScoreWithOriginalKey != 4 || a.ScoreDelta != -5 {
		t.Errorf("score = %d, original = %d, delta = %d", a.Score, a.ScoreWithOriginalKey, a.ScoreDelta)
	}
	if len(a.KeyChanges) != 1 || a.KeyChanges[0].QuestionNumber != 1 {
		t.Fatalf("keyChanges = %+v", a.KeyChanges)
	}
	if a.LatestKeyUpdateAt == nil || !a.LatestKeyUpdateAt.Equal(updated) {
		t.Errorf("latestKeyUpdateAt = %v", a.LatestKeyUpdateAt)
	}
}

func TestBuildAnalysisFastSlowWrong(t *testing.T) {
	questions := []model.Question{
		question(1, 1, model.SubjectPhysics, model.QTypeMCQ, `"A"`),
		question(2, 2, model.SubjectPhysics, model.QTypeMCQ, `"A"`),
		question(3, 3, model.SubjectPhysics, model.QTypeMCQ, `"A"`),
		question(4, 4, model.SubjectPhysics, model.QTypeMCQ, `"A"`),
	}

	attempt := &model.ExamAttempt{
		Answers: model.AnswerMap{
			1: model.OptionAnswer("A"),
			2: model.OptionAnswer("B"),
			3: model.OptionAnswer("B"),
			4: model.OptionAnswer("B"),
		},
		// 平均作答用时 100s：10s 为仓促错题，200s 为拖沓错题，90s 两者皆非
		Timings: model.TimingMap{1: 100, 2: 10, 3: 200, 4: 90},
	}

	a := BuildAnalysis(attempt, questions)

	if a.FastWrong != 1 || a.SlowWrong != 1 {
		t.Errorf("fastWrong = %d, slowWrong = %d, want 1 / 1", a.FastWrong, a.SlowWrong)
	}
	if a.LongestMissStreak != 3 {
		t.Errorf("missStreak = %d, want 3", a.LongestMissStreak)
	}
}

func TestBuildAnalysisEmpty(t *testing.T) {
	a := BuildAnalysis(nil, nil)
	if a.Total != 0 || a.Accuracy != 0 {
		t.Errorf("empty analysis = %+v", a)
	}
	if len(a.Time.Histogram) != 5 {
		t.Errorf("histogram = %+v", a.Time.Histogram)
	}
	if a.KeyChanges == nil {
		t.Error("keyChanges 应为空切片而非 nil")
	}
}

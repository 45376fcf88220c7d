package service

import (
	"math"
	"testing"

	"exam_sync_backend/internal/model"
)

func TestAveragePeerTimings(t *testing.T) {
	attempts := []model.ExamAttempt{
		{
			Answers: model.AnswerMap{1: model.OptionAnswer("A"), 2: model.NoAnswer()},
			Timings: model.TimingMap{1: 30, 2: 90},
		},
		{
			Answers: model.AnswerMap{1: model.OptionAnswer("B"), 2: model.NoAnswer()},
			Timings: model.TimingMap{1: 60},
		},
	}

	avgs := AveragePeerTimings(attempts)

	if got := avgs[1]; got != 45 {
		t.Errorf("avgs[1] = %v, want 45", got)
	}
	// 第二份作答没有第 2 题的计时，按 0 计入，分母仍为全部作答数
	if got := avgs[2]; got != 45 {
		t.Errorf("avgs[2] = %v, want 45", got)
	}
}

func TestAveragePeerTimingsInvalidValues(t *testing.T) {
	attempts := []model.ExamAttempt{
		{
			Answers: model.AnswerMap{1: model.NoAnswer()},
			Timings: model.TimingMap{1: math.NaN()},
		},
		{
			Answers: model.AnswerMap{1: model.NoAnswer()},
			Timings: model.TimingMap{1: -5},
		},
		{
			Answers: model.AnswerMap{1: model.NoAnswer()},
			Timings: model.TimingMap{1: 30},
		},
	}

	avgs := AveragePeerTimings(attempts)
	if got := avgs[1]; got != 10 {
		t.Errorf("avgs[1] = %v, want 10 (非法计时按 0 计)", got)
	}
}

func TestAveragePeerTimingsEmpty(t *testing.T) {
	avgs := AveragePeerTimings(nil)
	if avgs == nil || len(avgs) != 0 {
		t.Errorf("avgs = %v, want 空 map", avgs)
	}
}

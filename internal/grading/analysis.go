package grading

import (
	"math"
	"sort"

	"exam_sync_backend/internal/model"
)

const (
	fastWrongRatio = 0.75
	slowWrongRatio = 1.35
)

// 固定用时直方图分桶（秒）
var timeBucketEdges = []struct {
	label string
	lo    float64
	hi    float64
}{
	{"0-30s", 0, 30},
	{"30-60s", 30, 60},
	{"1-2m", 60, 120},
	{"2-4m", 120, 240},
	{"4m+", 240, math.Inf(1)},
}

// BuildAnalysis 对一份作答做单遍扫描，产出全部统计。
// 纯函数：相同输入恒返回相同结果。
func BuildAnalysis(attempt *model.ExamAttempt, questions []model.Question) *model.AttemptAnalysis {
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].QuestionNumber < ordered[j].QuestionNumber
	})

	a := &model.AttemptAnalysis{
		BySubject: make(map[model.Subject]*model.GroupStats),
		ByType:    make(map[model.QuestionType]*model.GroupStats),
	}

	var (
		timings       []float64
		attemptedTime float64
		attemptedN    int
		hitStreak     int
		missStreak    int
	)

	type wrongEntry struct {
		seconds float64
	}
	var wrongs []wrongEntry

	for i := range ordered {
		q := &ordered[i]
		status := QuestionStatus(attempt, q)
		mark := QuestionMark(attempt, q, false)
		origMark := QuestionMark(attempt, q, true)

		var seconds float64
		if attempt != nil && attempt.Timings != nil {
			t := attempt.Timings[q.ID]
			if !math.IsNaN(t) && !math.IsInf(t, 0) && t > 0 {
				seconds = t
				timings = append(timings, t)
			}
		}
		var bookmarked bool
		if attempt != nil && attempt.Bookmarks != nil {
			bookmarked = attempt.Bookmarks[q.ID]
		}

		a.Total++
		a.Score += mark
		a.ScoreWithOriginalKey += origMark
		a.MaxScore += q.CorrectMarking

		subj := groupStats(a.BySubject, q.Subject)
		typ := groupStats(a.ByType, q.QType)
		subj.Total++
		typ.Total++
		subj.Score += mark
		typ.Score += mark

		switch status {
		case model.StatusCorrect:
			a.Correct++
			subj.Correct++
			typ.Correct++
		case model.StatusPartial:
			a.Partial++
			subj.Partial++
			typ.Partial++
		case model.StatusIncorrect:
			a.Incorrect++
			subj.Incorrect++
			typ.Incorrect++
		case model.StatusUnattempted:
			a.Unattempted++
			subj.Unattempted++
			typ.Unattempted++
		}

		if status != model.StatusUnattempted {
			a.Attempted++
			subj.Attempted++
			typ.Attempted++
			attemptedN++
			attemptedTime += seconds
		}

		// 连对（含部分分）与连错
		if status == model.StatusCorrect || status == model.StatusPartial {
			hitStreak++
			missStreak = 0
		} else if status == model.StatusIncorrect {
			missStreak++
			hitStreak = 0
		} else {
			hitStreak = 0
			missStreak = 0
		}
		if hitStreak > a.LongestHitStreak {
			a.LongestHitStreak = hitStreak
		}
		if missStreak > a.LongestMissStreak {
			a.LongestMissStreak = missStreak
		}

		if status == model.StatusIncorrect && seconds > 0 {
			wrongs = append(wrongs, wrongEntry{seconds: seconds})
		}

		if q.KeyDiverged() {
			a.KeyChanges = append(a.KeyChanges, model.KeyChange{
				QuestionID:     q.ID,
				QuestionNumber: q.QuestionNumber,
				CorrectAnswer:  q.CorrectAnswer,
				KeyUpdate:      q.KeyUpdate,
				UpdatedAt:      q.LastKeyUpdateTime,
			})
			if q.LastKeyUpdateTime != nil && (a.LatestKeyUpdateAt == nil || q.LastKeyUpdateTime.After(*a.LatestKeyUpdateAt)) {
				t := *q.LastKeyUpdateTime
				a.LatestKeyUpdateAt = &t
			}
		}

		a.PerQuestion = append(a.PerQuestion, model.QuestionResult{
			QuestionID:     q.ID,
			QuestionNumber: q.QuestionNumber,
			Subject:        q.Subject,
			QType:          q.QType,
			Status:         status,
			Mark:           mark,
			TimeSeconds:    seconds,
			Bookmarked:     bookmarked,
		})
	}

	a.ScoreDelta = a.Score - a.ScoreWithOriginalKey
	a.Accuracy = accuracy(a.Correct, a.Attempted)
	for _, g := range a.BySubject {
		g.Accuracy = accuracy(g.Correct, g.Attempted)
	}
	for _, g := range a.ByType {
		g.Accuracy = accuracy(g.Correct, g.Attempted)
	}

	a.Time = buildTimeStats(timings)

	if attemptedN > 0 {
		avg := attemptedTime / float64(attemptedN)
		for _, w := range wrongs {
			if w.seconds < fastWrongRatio*avg {
				a.FastWrong++
			} else if w.seconds > slowWrongRatio*avg {
				a.SlowWrong++
			}
		}
	}

	if a.KeyChanges == nil {
		a.KeyChanges = []model.KeyChange{}
	}
	return a
}

func groupStats[K comparable](m map[K]*model.GroupStats, key K) *model.GroupStats {
	g, ok := m[key]
	if !ok {
		g = &model.GroupStats{}
		m[key] = g
	}
	return g
}

func accuracy(correct, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(attempted)*10000) / 100
}

func buildTimeStats(timings []float64) model.TimeStats {
	stats := model.TimeStats{Histogram: make([]model.TimeBucket, len(timeBucketEdges))}
	for i, edge := range timeBucketEdges {
		stats.Histogram[i].Label = edge.label
	}
	if len(timings) == 0 {
		return stats
	}

	sorted := make([]float64, len(timings))
	copy(sorted, timings)
	sort.Float64s(sorted)

	stats.MinSeconds = sorted[0]
	stats.MaxSeconds = sorted[len(sorted)-1]
	stats.MedianSeconds = percentile(sorted, 0.5)
	stats.P75Seconds = percentile(sorted, 0.75)

	for _, t := range timings {
		for i, edge := range timeBucketEdges {
			if t >= edge.lo && t < edge.hi {
				stats.Histogram[i].Count++
				break
			}
		}
	}
	return stats
}

// percentile 线性插值分位数，输入须已排序
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Package grading 纯函数判分引擎：无 I/O，无内部状态，
// API 层、分析层和同步层共用同一套判定逻辑。
package grading

import (
	"exam_sync_backend/internal/model"
)

// selectedAnswer 从作答记录中取出该题答案，缺项视为未作答
func selectedAnswer(attempt *model.ExamAttempt, q *model.Question) model.AnswerValue {
	if attempt == nil || attempt.Answers == nil {
		return model.NoAnswer()
	}
	v, ok := attempt.Answers[q.ID]
	if !ok {
		return model.NoAnswer()
	}
	return v
}

// MatchesKey 选答是否完全命中键的任一备选组
func MatchesKey(selected model.AnswerValue, key model.AnswerValue, qtype model.QuestionType) bool {
	for _, alt := range ParseKeyAlternatives(key, qtype) {
		if matchesAlternative(selected, alt, qtype) {
			return true
		}
	}
	return false
}

func matchesAlternative(selected model.AnswerValue, alt KeyAlternative, qtype model.QuestionType) bool {
	switch qtype {
	case model.QTypeNAT:
		if alt.Numeric == nil {
			return false
		}
		switch selected.Kind {
		case model.AnswerNumber:
			return alt.Numeric.Contains(selected.Number)
		case model.AnswerRange:
			// 选答即便是区间也按精确值处理，只有退化区间才可能命中
			return selected.Min == selected.Max && alt.Numeric.Contains(selected.Min)
		}
		return false

	case model.QTypeMAQ:
		// 部分给分在这一层不考虑：必须与某个备选组完全一致
		if selected.Kind != model.AnswerOptionSet {
			return false
		}
		return alt.equalsOptionSet(selected.Options)

	default: // MCQ / VMAQ：单选项落在组内即可，组内可合法包含多个可接受字母
		if selected.Kind != model.AnswerOption {
			return false
		}
		return alt.containsOption(selected.Option)
	}
}

// ComputePartialScore 多选题部分给分：
// 对每个备选组，选答含组外选项则记 IncorrectMarking；
// 否则得分为选中正确项的个数，选满整组时记 CorrectMarking；
// 取各组最高分，无可解析组时记 IncorrectMarking。
func ComputePartialScore(q *model.Question, selected model.AnswerValue, key model.AnswerValue) int {
	best := q.IncorrectMarking
	if selected.Kind != model.AnswerOptionSet {
		return best
	}

	for _, alt := range ParseKeyAlternatives(key, model.QTypeMAQ) {
		if len(alt.Options) == 0 {
			continue
		}
		score := q.IncorrectMarking
		clean := true
		for _, o := range selected.Options {
			if !alt.containsOption(o) {
				clean = false
				break
			}
		}
		if clean {
			if alt.equalsOptionSet(selected.Options) {
				score = q.CorrectMarking
			} else {
				score = len(selected.Options)
			}
		}
		if score > best {
			best = score
		}
	}
	return best
}

// statusForKey 单题判定的核心状态机
func statusForKey(q *model.Question, selected model.AnswerValue, key model.AnswerValue) model.QuestionStatus {
	if key.IsBonus() {
		return model.StatusCorrect
	}
	if selected.IsUnattempted() {
		return model.StatusUnattempted
	}
	if MatchesKey(selected, key, q.QType) {
		return model.StatusCorrect
	}
	if q.QType == model.QTypeMAQ {
		mark := ComputePartialScore(q, selected, key)
		if mark > q.UnattemptedMarking && mark < q.CorrectMarking {
			return model.StatusPartial
		}
	}
	return model.StatusIncorrect
}

func markForKey(q *model.Question, selected model.AnswerValue, key model.AnswerValue) int {
	if key.IsBonus() {
		return q.CorrectMarking
	}
	if selected.IsUnattempted() {
		return q.UnattemptedMarking
	}
	if MatchesKey(selected, key, q.QType) {
		return q.CorrectMarking
	}
	if q.QType == model.QTypeMAQ {
		return ComputePartialScore(q, selected, key)
	}
	return q.IncorrectMarking
}

// QuestionStatus 按当前生效键判定单题状态
func QuestionStatus(attempt *model.ExamAttempt, q *model.Question) model.QuestionStatus {
	return statusForKey(q, selectedAnswer(attempt, q), q.KeyUpdateValue())
}

// QuestionMark 计算单题得分。useOriginalKey 为 true 时按不可变的原始键评分，
// 与生效键的差值用于“答案修订分差”统计。
func QuestionMark(attempt *model.ExamAttempt, q *model.Question, useOriginalKey bool) int {
	key := q.KeyUpdateValue()
	if useOriginalKey {
		key = q.CorrectAnswerValue()
	}
	return markForKey(q, selectedAnswer(attempt, q), key)
}

package grading

import (
	"regexp"
	"strings"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
)

// 一个答案键可能内嵌多个可接受的备选（"A,B OR A,C"、"9-11 OR 21"）。
// 这里一次性拆成备选匹配器列表，判分时逐个尝试，而不是在每个调用点重复解析文本。

// NumericRange 闭区间；Min==Max 表示精确值
type NumericRange struct {
	Min float64
	Max float64
}

func (r NumericRange) Contains(n float64) bool {
	return n >= r.Min && n <= r.Max
}

// KeyAlternative 一组可接受的答案。Options 与 Numeric 至多一个非空。
type KeyAlternative struct {
	Options []string
	Numeric *NumericRange
}

var orSplitRe = regexp.MustCompile(`(?i)\s+or\s+`)

// ParseKeyAlternatives 把存储形态的键拆成备选组列表。
// 不可解析的键返回空列表，判分时按无有效键处理。
func ParseKeyAlternatives(key model.AnswerValue, qtype model.QuestionType) []KeyAlternative {
	switch key.Kind {
	case model.AnswerNone, model.AnswerBonus:
		return nil
	case model.AnswerOption:
		return []KeyAlternative{{Options: []string{key.Option}}}
	case model.AnswerOptionSet:
		if len(key.Options) == 0 {
			return nil
		}
		return []KeyAlternative{{Options: key.Options}}
	case model.AnswerNumber:
		return []KeyAlternative{{Numeric: &NumericRange{Min: key.Number, Max: key.Number}}}
	case model.AnswerRange:
		return []KeyAlternative{{Numeric: &NumericRange{Min: key.Min, Max: key.Max}}}
	case model.AnswerText:
		var alts []KeyAlternative
		for _, part := range orSplitRe.Split(key.Text, -1) {
			if alt, ok := parseKeyGroup(part, qtype); ok {
				alts = append(alts, alt)
			}
		}
		return alts
	}
	return nil
}

var keyLetterRe = regexp.MustCompile(`^[A-D]$`)

// parseKeyGroup 解析单个备选组。选择题组可含多个可接受字母（"A,B"）。
func parseKeyGroup(part string, qtype model.QuestionType) (KeyAlternative, bool) {
	text, ok := normalize.NormalizeAnswer(part)
	if !ok {
		return KeyAlternative{}, false
	}

	if qtype == model.QTypeNAT {
		switch v := normalize.ParseAnswerValue(text, model.QTypeNAT); v.Kind {
		case model.AnswerNumber:
			return KeyAlternative{Numeric: &NumericRange{Min: v.Number, Max: v.Number}}, true
		case model.AnswerRange:
			return KeyAlternative{Numeric: &NumericRange{Min: v.Min, Max: v.Max}}, true
		}
		return KeyAlternative{}, false
	}

	var letters []string
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if keyLetterRe.MatchString(tok) {
			letters = append(letters, tok)
		}
	}
	if len(letters) == 0 {
		return KeyAlternative{}, false
	}
	set := model.OptionSetAnswer(letters)
	return KeyAlternative{Options: set.Options}, true
}

// containsOption 组内是否包含该选项
func (a KeyAlternative) containsOption(opt string) bool {
	for _, o := range a.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// equalsOptionSet 选项集合是否与组完全一致（按集合比较）
func (a KeyAlternative) equalsOptionSet(opts []string) bool {
	if len(a.Options) != len(opts) {
		return false
	}
	for _, o := range opts {
		if !a.containsOption(o) {
			return false
		}
	}
	return true
}

package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"exam_sync_backend/internal/model"
)

// 抓取文本中常见的答案前缀标签，按序剥离
var answerLabels = []string{
	"CORRECT ANSWER",
	"YOUR ANSWER",
	"ANSWER",
	"ANS",
}

// 这些文本一律视为未作答
var emptyMarkers = map[string]bool{
	"":              true,
	"-":             true,
	"--":            true,
	"NA":            true,
	"N/A":           true,
	"NOT ATTEMPTED": true,
	"NULL":          true,
}

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	letterRunRe   = regexp.MustCompile(`^[A-D]+$`)
	numericLikeRe = regexp.MustCompile(`^[+-]?\d+(?:\.\d+)?$`)
	// 形如 "9-11" / "-1.5 - 2" 的闭区间
	dashRangeRe = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?)\s*-\s*([+-]?\d+(?:\.\d+)?)$`)
)

// NormalizeAnswer 把原始抓取文本规约成规范答案文本。
// 返回 ok=false 表示未作答。纯选项字母串（如 "BAB"）去重排序成 "A,B"。
func NormalizeAnswer(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.ToUpper(s)

	for _, label := range answerLabels {
		if strings.HasPrefix(s, label) {
			rest := strings.TrimPrefix(s, label)
			rest = strings.TrimSpace(rest)
			rest = strings.TrimPrefix(rest, ":")
			s = strings.TrimSpace(rest)
			break
		}
	}

	if emptyMarkers[s] {
		return "", false
	}

	// 纯 A-D 字母串（允许夹杂逗号/空格）归一为去重排序集合
	compact := strings.NewReplacer(",", "", " ", "").Replace(s)
	if letterRunRe.MatchString(compact) {
		letters := dedupeSortLetters(compact)
		return strings.Join(letters, ","), true
	}

	return s, true
}

func dedupeSortLetters(run string) []string {
	seen := [4]bool{}
	for _, r := range run {
		if r >= 'A' && r <= 'D' {
			seen[r-'A'] = true
		}
	}
	out := make([]string, 0, 4)
	for i, ok := range seen {
		if ok {
			out = append(out, string(rune('A'+i)))
		}
	}
	return out
}

// 题型元信息里的标记词，按优先级匹配
var typeTokens = []struct {
	tokens []string
	qtype  model.QuestionType
}{
	{[]string{"VMAQ"}, model.QTypeVMAQ},
	{[]string{"MAQ", "MSQ", "MULT"}, model.QTypeMAQ},
	{[]string{"NAT", "NUM", "INT"}, model.QTypeNAT},
	{[]string{"MCQ", "SCQ", "SINGLE"}, model.QTypeMCQ},
}

// InferQuestionType 推断题型：显式元信息优先，其次按有无选项与答案形态兜底
func InferQuestionType(metaText string, hasOptions bool, correctAnswerRaw string) model.QuestionType {
	meta := strings.ToUpper(metaText)
	for _, entry := range typeTokens {
		for _, tok := range entry.tokens {
			if strings.Contains(meta, tok) {
				return entry.qtype
			}
		}
	}

	if !hasOptions {
		return model.QTypeNAT
	}

	key, ok := NormalizeAnswer(correctAnswerRaw)
	if ok {
		if strings.Contains(key, ",") {
			return model.QTypeMAQ
		}
		if numericLikeRe.MatchString(normalizeMinus(key)) {
			return model.QTypeNAT
		}
	}

	return model.QTypeMCQ
}

// MarkingForType 固定的记分表
func MarkingForType(qtype model.QuestionType) (correct, incorrect, unattempted int) {
	switch qtype {
	case model.QTypeVMAQ:
		return 3, -1, 0
	case model.QTypeMAQ:
		return 4, -2, 0
	case model.QTypeNAT:
		return 4, -1, 0
	default:
		return 4, -1, 0
	}
}

// normalizeMinus 统一各种 unicode 负号/连字符变体
func normalizeMinus(s string) string {
	return strings.NewReplacer(
		"−", "-", // minus sign
		"–", "-", // en dash
		"—", "-", // em dash
	).Replace(s)
}

// ParseAnswerValue 按题型把规范文本解析为 AnswerValue。
// 解析失败一律返回未作答，绝不报错。
func ParseAnswerValue(raw string, qtype model.QuestionType) model.AnswerValue {
	text, ok := NormalizeAnswer(raw)
	if !ok {
		return model.NoAnswer()
	}

	// 含 OR 备选的键保持原文，交由判分层拆解
	if strings.Contains(" "+text+" ", " OR ") {
		return model.TextAnswer(text)
	}

	switch qtype {
	case model.QTypeNAT:
		return parseNumeric(text)
	case model.QTypeMAQ:
		return parseOptionSet(text)
	default:
		token := firstToken(text)
		if letterRunRe.MatchString(token) && len(token) == 1 {
			return model.OptionAnswer(token)
		}
		if token == "" {
			return model.NoAnswer()
		}
		return model.TextAnswer(token)
	}
}

func parseNumeric(text string) model.AnswerValue {
	s := normalizeMinus(text)

	if idx := strings.Index(s, " TO "); idx >= 0 {
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(s[:idx]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(s[idx+4:]), 64)
		if err1 == nil && err2 == nil {
			return makeRange(lo, hi)
		}
		return model.NoAnswer()
	}

	if m := dashRangeRe.FindStringSubmatch(s); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return makeRange(lo, hi)
		}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return model.NumberAnswer(n)
	}

	return model.NoAnswer()
}

func makeRange(lo, hi float64) model.AnswerValue {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return model.NumberAnswer(lo)
	}
	return model.RangeAnswer(lo, hi)
}

func parseOptionSet(text string) model.AnswerValue {
	var letters []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		compact := strings.ReplaceAll(part, " ", "")
		if letterRunRe.MatchString(compact) {
			letters = append(letters, strings.Split(compact, "")...)
		}
	}
	if len(letters) == 0 {
		return model.NoAnswer()
	}
	return model.OptionSetAnswer(letters)
}

func firstToken(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// EnsureAnswerValue 为缺失的键补上与题型匹配的默认值：
// MAQ 空集合、NAT 数值 0、其余空文本
func EnsureAnswerValue(parsed model.AnswerValue, qtype model.QuestionType) model.AnswerValue {
	if parsed.Kind != model.AnswerNone {
		return parsed
	}
	switch qtype {
	case model.QTypeMAQ:
		return model.OptionSetAnswer(nil)
	case model.QTypeNAT:
		return model.NumberAnswer(0)
	default:
		return model.TextAnswer("")
	}
}

// 科目标签变体
var subjectTokens = []struct {
	tokens  []string
	subject model.Subject
}{
	{[]string{"PHYSICS", "PHY"}, model.SubjectPhysics},
	{[]string{"CHEMISTRY", "CHEM"}, model.SubjectChemistry},
	{[]string{"MATHEMATICS", "MATHS", "MATH"}, model.SubjectMathematics},
}

// ResolveSubject 解析科目标签；无法识别时归入 UNKNOWN 而非丢弃
func ResolveSubject(hint string) (model.Subject, bool) {
	h := strings.ToUpper(hint)
	for _, entry := range subjectTokens {
		for _, tok := range entry.tokens {
			if strings.Contains(h, tok) {
				return entry.subject, true
			}
		}
	}
	return model.SubjectUnknown, false
}

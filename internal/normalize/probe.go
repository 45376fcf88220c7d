package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"exam_sync_backend/internal/model"
)

// ErrMissingExamID 缺少外部考试 ID 属于硬错误，整份报告不得入库
var ErrMissingExamID = errors.New("report is missing external exam id")

// 门户返回的 JSON 字段名极不稳定，同一字段在不同接口/版本里键名各异。
// 这里不做嵌套的 optional-chaining，而是给每个概念配一条有序探针链，
// 逐个尝试、首个命中即停，并带回命中的探针名，便于单测和排查。

// Payload 松散结构的门户 JSON 对象
type Payload map[string]interface{}

// StringResult 字符串探针的带标签结果
type StringResult struct {
	Probe string
	Value string
	OK    bool
}

// NumberResult 数值探针的带标签结果
type NumberResult struct {
	Probe string
	Value float64
	OK    bool
}

// stringAt 取单个键的字符串值，数字/布尔也转成文本
func stringAt(p Payload, key string) (string, bool) {
	v, exists := p[key]
	if !exists || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func numberAt(p Payload, key string) (float64, bool) {
	v, exists := p[key]
	if !exists || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ProbeString 按序尝试键名，首个命中即返回
func ProbeString(p Payload, keys ...string) StringResult {
	for _, key := range keys {
		if v, ok := stringAt(p, key); ok {
			return StringResult{Probe: key, Value: v, OK: true}
		}
	}
	return StringResult{}
}

// ProbeNumber 数值版探针链
func ProbeNumber(p Payload, keys ...string) NumberResult {
	for _, key := range keys {
		if v, ok := numberAt(p, key); ok {
			return NumberResult{Probe: key, Value: v, OK: true}
		}
	}
	return NumberResult{}
}

// ProbeList 取首个命中的对象数组
func ProbeList(p Payload, keys ...string) []Payload {
	for _, key := range keys {
		v, exists := p[key]
		if !exists {
			continue
		}
		arr, ok := v.([]interface{})
		if !ok {
			continue
		}
		out := make([]Payload, 0, len(arr))
		for _, item := range arr {
			if obj, ok := item.(Payload); ok {
				out = append(out, obj)
				continue
			}
			if obj, ok := item.(map[string]interface{}); ok {
				out = append(out, Payload(obj))
			}
		}
		return out
	}
	return nil
}

// 各概念的探针链（键名来自历次抓取观察到的变体）
var (
	examIDKeys   = []string{"testId", "test_id", "examId", "exam_id", "testID", "id"}
	examTitleKeys = []string{"testName", "test_name", "title", "examName", "name"}
	examDateKeys  = []string{"testDate", "test_date", "examDate", "date", "conductedOn"}

	questionListKeys = []string{"questions", "questionList", "question_data", "data"}
	answerListKeys   = []string{"answers", "responses", "attemptData", "attempts"}

	sourceNumberKeys = []string{"questionNumber", "question_number", "qNo", "q_no", "sno", "number", "order"}
	subjectKeys      = []string{"subject", "subjectName", "subject_name", "section", "sectionName"}
	typeHintKeys     = []string{"questionType", "question_type", "qType", "type", "pattern"}
	contentKeys      = []string{"question", "questionText", "question_text", "content", "stem"}
	correctKeys      = []string{"correctAnswer", "correct_answer", "answerKey", "answer_key", "key", "solution"}
	selectedKeys     = []string{"yourAnswer", "your_answer", "selected", "selectedAnswer", "response", "markedAnswer"}
	timeKeys         = []string{"timeTaken", "time_taken", "timeSpent", "time_spent", "elapsedSeconds", "duration"}
	bookmarkKeys     = []string{"bookmarked", "marked", "markedForReview", "review"}
	optionKeys       = [4][]string{
		{"optionA", "option_a", "option1", "a"},
		{"optionB", "option_b", "option2", "b"},
		{"optionC", "option_c", "option3", "c"},
		{"optionD", "option_d", "option4", "d"},
	}
	optionListKeys = []string{"options", "optionList", "choices"}
)

// DecodeReport 把门户原始 JSON 解码为 RawExamReport。
// externalExamId 缺失属于硬错误，整份报告作废；其余字段缺失逐项降级。
func DecodeReport(raw []byte) (*model.RawExamReport, []string, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("undecodable report payload: %w", err)
	}

	var warnings []string

	examID := ProbeString(p, examIDKeys...)
	if !examID.OK {
		return nil, nil, ErrMissingExamID
	}

	report := &model.RawExamReport{
		ExternalExamID: strings.TrimSpace(examID.Value),
		Title:          ProbeString(p, examTitleKeys...).Value,
		ExamDate:       ProbeString(p, examDateKeys...).Value,
		RawPayload:     raw,
	}

	for i, qp := range ProbeList(p, questionListKeys...) {
		q := decodeQuestion(qp)
		if q.SourceNumber <= 0 {
			warnings = append(warnings, fmt.Sprintf("question %d of exam %s has no usable question number", i+1, report.ExternalExamID))
		}
		report.Questions = append(report.Questions, q)
	}

	for _, ap := range ProbeList(p, answerListKeys...) {
		report.Answers = append(report.Answers, decodeAnswer(ap))
	}

	return report, warnings, nil
}

func decodeQuestion(p Payload) model.ScrapedQuestion {
	q := model.ScrapedQuestion{
		SubjectHint: ProbeString(p, subjectKeys...).Value,
		TypeHint:    ProbeString(p, typeHintKeys...).Value,
		Content:     ProbeString(p, contentKeys...).Value,
		CorrectRaw:  ProbeString(p, correctKeys...).Value,
	}
	if n := ProbeNumber(p, sourceNumberKeys...); n.OK {
		q.SourceNumber = int(n.Value)
	}

	opts := [4]string{}
	if list := ProbeList(p, optionListKeys...); len(list) > 0 {
		for i := 0; i < len(list) && i < 4; i++ {
			opts[i] = ProbeString(list[i], "content", "text", "value").Value
		}
	} else if arr, ok := probeStringList(p, optionListKeys...); ok {
		copy(opts[:], arr)
	} else {
		for i := range optionKeys {
			opts[i] = ProbeString(p, optionKeys[i]...).Value
		}
	}
	q.OptionA, q.OptionB, q.OptionC, q.OptionD = opts[0], opts[1], opts[2], opts[3]
	return q
}

// probeStringList 选项有时是裸字符串数组
func probeStringList(p Payload, keys ...string) ([]string, bool) {
	for _, key := range keys {
		arr, ok := p[key].([]interface{})
		if !ok {
			continue
		}
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func decodeAnswer(p Payload) model.ScrapedAnswer {
	a := model.ScrapedAnswer{
		SelectedRaw: ProbeString(p, selectedKeys...).Value,
		CorrectRaw:  ProbeString(p, correctKeys...).Value,
	}
	if n := ProbeNumber(p, sourceNumberKeys...); n.OK {
		a.SourceNumber = int(n.Value)
	}
	if n := ProbeNumber(p, timeKeys...); n.OK {
		a.TimeSeconds = n.Value
	}
	if b := ProbeString(p, bookmarkKeys...); b.OK {
		a.Bookmarked = b.Value == "true" || b.Value == "1"
	}
	return a
}

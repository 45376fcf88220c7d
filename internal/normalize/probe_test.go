package normalize

import (
	"errors"
	"testing"
)

func TestProbeStringOrder(t *testing.T) {
	p := Payload{
		"id":     "fallback",
		"testId": "T-100",
	}

	got := ProbeString(p, "testId", "test_id", "id")
	if !got.OK || got.Value != "T-100" || got.Probe != "testId" {
		t.Errorf("ProbeString = %+v, want first hit testId=T-100", got)
	}
}

func TestProbeStringCoercion(t *testing.T) {
	p := Payload{"sno": float64(12), "empty": "   "}

	if got := ProbeString(p, "sno"); !got.OK || got.Value != "12" {
		t.Errorf("数字未转成文本: %+v", got)
	}
	// 空白字符串视为未命中，继续探针链
	if got := ProbeString(p, "empty", "sno"); !got.OK || got.Probe != "sno" {
		t.Errorf("空白值未被跳过: %+v", got)
	}
}

func TestProbeNumber(t *testing.T) {
	p := Payload{"timeTaken": "48.5", "duration": float64(60)}

	if got := ProbeNumber(p, "timeTaken", "duration"); !got.OK || got.Value != 48.5 {
		t.Errorf("字符串数值未解析: %+v", got)
	}
	if got := ProbeNumber(p, "missing"); got.OK {
		t.Errorf("不存在的键不应命中: %+v", got)
	}
}

func TestDecodeReport(t *testing.T) {
	raw := []byte(`{
		"test_id": "EX-2026-01",
		"testName": "Mock Test 14",
		"testDate": "2026-08-20",
		"questions": [
			{
				"qNo": 2,
				"subject": "Physics",
				"type": "MCQ",
				"question": "What is g?",
				"options": ["9.8", "9.6", "10.2", "8.9"],
				"correctAnswer": "A"
			},
			{
				"subject": "Chemistry",
				"questionText": "Select all acids",
				"optionA": "HCl", "optionB": "NaOH", "optionC": "H2SO4", "optionD": "KOH",
				"question_type": "MSQ",
				"answerKey": "A,C"
			}
		],
		"answers": [
			{"sno": 2, "yourAnswer": "B", "timeTaken": 45, "bookmarked": "1"}
		]
	}`)

	report, warnings, err := DecodeReport(raw)
	if err != nil {
		t.Fatalf("DecodeReport failed: %v", err)
	}

	if report.ExternalExamID != "EX-2026-01" {
		t.Errorf("ExternalExamID = %q", report.ExternalExamID)
	}
	if report.Title != "Mock Test 14" || report.ExamDate != "2026-08-20" {
		t.Errorf("title/date = %q / %q", report.Title, report.ExamDate)
	}
	if len(report.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(report.Questions))
	}

	q1 := report.Questions[0]
	if q1.SourceNumber != 2 || q1.OptionA != "9.8" || q1.CorrectRaw != "A" {
		t.Errorf("q1 = %+v", q1)
	}

	q2 := report.Questions[1]
	if q2.SourceNumber != 0 || q2.OptionB != "NaOH" || q2.TypeHint != "MSQ" || q2.CorrectRaw != "A,C" {
		t.Errorf("q2 = %+v", q2)
	}
	// 第二题缺题号，应带出警告但不中止
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want 1 entry", warnings)
	}

	if len(report.Answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(report.Answers))
	}
	a := report.Answers[0]
	if a.SourceNumber != 2 || a.SelectedRaw != "B" || a.TimeSeconds != 45 || !a.Bookmarked {
		t.Errorf("answer = %+v", a)
	}

	if len(report.RawPayload) == 0 {
		t.Error("RawPayload 未保留")
	}
}

func TestDecodeReportMissingExamID(t *testing.T) {
	_, _, err := DecodeReport([]byte(`{"testName": "orphan", "questions": []}`))
	if !errors.Is(err, ErrMissingExamID) {
		t.Errorf("err = %v, want ErrMissingExamID", err)
	}
}

func TestDecodeReportInvalidJSON(t *testing.T) {
	if _, _, err := DecodeReport([]byte("not json")); err == nil {
		t.Error("畸形 JSON 未报错")
	}
}

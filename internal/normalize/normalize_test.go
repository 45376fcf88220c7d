package normalize

import (
	"testing"

	"exam_sync_backend/internal/model"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"字母串去重排序", "BAB", "A,B", true},
		{"夹杂逗号空格", "b , a", "A,B", true},
		{"剥离标签", "ans: c", "C", true},
		{"剥离完整标签", "Correct Answer : A, C", "A,C", true},
		{"标签后为占位符", "Your Answer: -", "", false},
		{"空串", "", "", false},
		{"NA 占位", "n/a", "", false},
		{"未作答文本", "Not Attempted", "", false},
		{"数值区间文本保持原样", "2.5 to 3.5", "2.5 TO 3.5", true},
		{"多余空白折叠", "  a   ,  b ", "A,B", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAnswer(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeAnswer(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInferQuestionType(t *testing.T) {
	tests := []struct {
		name       string
		meta       string
		hasOptions bool
		correctRaw string
		want       model.QuestionType
	}{
		{"显式 VMAQ", "vmaq", true, "", model.QTypeVMAQ},
		{"MSQ 归为多选", "MSQ", true, "", model.QTypeMAQ},
		{"Multiple Choice 归为多选", "Multiple Choice", true, "", model.QTypeMAQ},
		{"Numerical 归为数值", "Numerical (NAT)", true, "", model.QTypeNAT},
		{"无选项兜底为数值", "", false, "", model.QTypeNAT},
		{"键含逗号兜底为多选", "", true, "A,C", model.QTypeMAQ},
		{"键为数字兜底为数值", "", true, "42", model.QTypeNAT},
		{"默认单选", "", true, "B", model.QTypeMCQ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferQuestionType(tt.meta, tt.hasOptions, tt.correctRaw)
			if got != tt.want {
				t.Errorf("InferQuestionType(%q, %v, %q) = %v, want %v", tt.meta, tt.hasOptions, tt.correctRaw, got, tt.want)
			}
		})
	}
}

func TestMarkingForType(t *testing.T) {
	tests := []struct {
		qtype                           model.QuestionType
		correct, incorrect, unattempted int
	}{
		{model.QTypeVMAQ, 3, -1, 0},
		{model.QTypeMAQ, 4, -2, 0},
		{model.QTypeNAT, 4, -1, 0},
		{model.QTypeMCQ, 4, -1, 0},
	}

	for _, tt := range tests {
		c, i, u := MarkingForType(tt.qtype)
		if c != tt.correct || i != tt.incorrect || u != tt.unattempted {
			t.Errorf("MarkingForType(%v) = (%d, %d, %d), want (%d, %d, %d)", tt.qtype, c, i, u, tt.correct, tt.incorrect, tt.unattempted)
		}
	}
}

func TestParseAnswerValue(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		qtype model.QuestionType
		want  model.AnswerValue
	}{
		{"单选字母", "B", model.QTypeMCQ, model.OptionAnswer("B")},
		{"单选带标签", "Your Answer: c", model.QTypeMCQ, model.OptionAnswer("C")},
		{"多选集合", "A, C", model.QTypeMAQ, model.OptionSetAnswer([]string{"A", "C"})},
		{"多选重复去重", "BAB", model.QTypeMAQ, model.OptionSetAnswer([]string{"A", "B"})},
		{"数值", "42", model.QTypeNAT, model.NumberAnswer(42)},
		{"负数", "-1.5", model.QTypeNAT, model.NumberAnswer(-1.5)},
		{"TO 区间", "2.5 to 3.5", model.QTypeNAT, model.RangeAnswer(2.5, 3.5)},
		{"连字符区间", "9-11", model.QTypeNAT, model.RangeAnswer(9, 11)},
		{"退化区间收敛为精确值", "5 to 5", model.QTypeNAT, model.NumberAnswer(5)},
		{"unicode 负号", "−2", model.QTypeNAT, model.NumberAnswer(-2)},
		{"数值题里的垃圾文本", "abc", model.QTypeNAT, model.NoAnswer()},
		{"OR 备选键保持文本", "A,B OR A,C", model.QTypeMAQ, model.TextAnswer("A,B OR A,C")},
		{"占位符未作答", "-", model.QTypeMCQ, model.NoAnswer()},
		{"空串未作答", "", model.QTypeMAQ, model.NoAnswer()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswerValue(tt.raw, tt.qtype)
			if !got.Equal(tt.want) {
				t.Errorf("ParseAnswerValue(%q, %v) = %+v, want %+v", tt.raw, tt.qtype, got, tt.want)
			}
		})
	}
}

func TestEnsureAnswerValue(t *testing.T) {
	if got := EnsureAnswerValue(model.NoAnswer(), model.QTypeMAQ); !got.Equal(model.OptionSetAnswer(nil)) {
		t.Errorf("MAQ 默认值 = %+v, want 空集合", got)
	}
	if got := EnsureAnswerValue(model.NoAnswer(), model.QTypeNAT); !got.Equal(model.NumberAnswer(0)) {
		t.Errorf("NAT 默认值 = %+v, want 0", got)
	}
	if got := EnsureAnswerValue(model.NoAnswer(), model.QTypeMCQ); !got.Equal(model.TextAnswer("")) {
		t.Errorf("MCQ 默认值 = %+v, want 空文本", got)
	}
	// 已有值不被覆盖
	if got := EnsureAnswerValue(model.OptionAnswer("A"), model.QTypeNAT); !got.Equal(model.OptionAnswer("A")) {
		t.Errorf("已有值被覆盖: %+v", got)
	}
}

func TestResolveSubject(t *testing.T) {
	tests := []struct {
		hint string
		want model.Subject
		ok   bool
	}{
		{"Physics Section 1", model.SubjectPhysics, true},
		{"phy", model.SubjectPhysics, true},
		{"CHEMISTRY", model.SubjectChemistry, true},
		{"maths", model.SubjectMathematics, true},
		{"Biology", model.SubjectUnknown, false},
		{"", model.SubjectUnknown, false},
	}

	for _, tt := range tests {
		got, ok := ResolveSubject(tt.hint)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ResolveSubject(%q) = (%v, %v), want (%v, %v)", tt.hint, got, ok, tt.want, tt.ok)
		}
	}
}

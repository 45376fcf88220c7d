package service

import (
	"errors"
	"testing"

	"exam_sync_backend/internal/model"
)

func TestParseAdminKey(t *testing.T) {
	tests := []struct {
		name    string
		rawKey  string
		bonus   bool
		qtype   model.QuestionType
		want    model.AnswerValue
		wantErr bool
	}{
		{name: "单选改键", rawKey: "B", qtype: model.QTypeMCQ, want: model.OptionAnswer("B")},
		{name: "多选改键", rawKey: "A,C", qtype: model.QTypeMAQ, want: model.OptionSetAnswer([]string{"A", "C"})},
		{name: "数值区间改键", rawKey: "9-11", qtype: model.QTypeNAT, want: model.RangeAnswer(9, 11)},
		{name: "送分忽略键文本", rawKey: "", bonus: true, qtype: model.QTypeMCQ, want: model.BonusAnswer()},
		{name: "空键拒绝", rawKey: "", qtype: model.QTypeMCQ, wantErr: true},
		{name: "纯空白键拒绝", rawKey: "   ", qtype: model.QTypeNAT, wantErr: true},
		{name: "数值题给乱码拒绝", rawKey: "abc", qtype: model.QTypeNAT, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAdminKey(tt.rawKey, tt.bonus, tt.qtype)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseableKey) {
					t.Fatalf("err = %v, want ErrUnparseableKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("value = %+v, want %+v", got, tt.want)
			}
		})
	}
}

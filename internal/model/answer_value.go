package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// AnswerKind 区分 AnswerValue 的具体形态
type AnswerKind string

const (
	AnswerNone      AnswerKind = "none"      // 未作答
	AnswerOption    AnswerKind = "option"    // 单选项 "A"
	AnswerOptionSet AnswerKind = "optionSet" // 多选项集合 ["A","C"]
	AnswerNumber    AnswerKind = "number"    // 数值
	AnswerRange     AnswerKind = "range"     // 闭区间 {min,max}
	AnswerText      AnswerKind = "text"      // 原样文本（含 OR 备选键）
	AnswerBonus     AnswerKind = "bonus"     // 管理员送分标记 {bonus:true}
)

// AnswerValue 规范化后的答案表示，既用于作答也用于答案键。
// JSON 形式: null | "A" | ["A","C"] | 4 | {"min":2.5,"max":3.5} | "free text" | {"bonus":true}
type AnswerValue struct {
	Kind    AnswerKind
	Option  string
	Options []string
	Number  float64
	Min     float64
	Max     float64
	Text    string
}

func NoAnswer() AnswerValue             { return AnswerValue{Kind: AnswerNone} }
func OptionAnswer(o string) AnswerValue { return AnswerValue{Kind: AnswerOption, Option: o} }
func NumberAnswer(n float64) AnswerValue {
	return AnswerValue{Kind: AnswerNumber, Number: n}
}
func RangeAnswer(min, max float64) AnswerValue {
	return AnswerValue{Kind: AnswerRange, Min: min, Max: max}
}
func TextAnswer(t string) AnswerValue { return AnswerValue{Kind: AnswerText, Text: t} }
func BonusAnswer() AnswerValue        { return AnswerValue{Kind: AnswerBonus} }

// OptionSetAnswer 去重并排序后返回集合答案
func OptionSetAnswer(opts []string) AnswerValue {
	seen := make(map[string]bool, len(opts))
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		o = strings.ToUpper(strings.TrimSpace(o))
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Strings(out)
	return AnswerValue{Kind: AnswerOptionSet, Options: out}
}

// IsUnattempted null 或空集合均视为未作答
func (v AnswerValue) IsUnattempted() bool {
	switch v.Kind {
	case AnswerNone:
		return true
	case AnswerOptionSet:
		return len(v.Options) == 0
	case AnswerText:
		return strings.TrimSpace(v.Text) == ""
	}
	return false
}

func (v AnswerValue) IsBonus() bool { return v.Kind == AnswerBonus }

// Equal 结构相等（集合按排序后比较）
func (v AnswerValue) Equal(o AnswerValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case AnswerOption:
		return v.Option == o.Option
	case AnswerOptionSet:
		if len(v.Options) != len(o.Options) {
			return false
		}
		for i := range v.Options {
			if v.Options[i] != o.Options[i] {
				return false
			}
		}
		return true
	case AnswerNumber:
		return v.Number == o.Number
	case AnswerRange:
		return v.Min == o.Min && v.Max == o.Max
	case AnswerText:
		return v.Text == o.Text
	}
	return true
}

type bonusPayload struct {
	Bonus bool `json:"bonus"`
}

type rangePayload struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerNone:
		return []byte("null"), nil
	case AnswerOption:
		return json.Marshal(v.Option)
	case AnswerOptionSet:
		if v.Options == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Options)
	case AnswerNumber:
		return json.Marshal(v.Number)
	case AnswerRange:
		return json.Marshal(rangePayload{Min: v.Min, Max: v.Max})
	case AnswerText:
		return json.Marshal(v.Text)
	case AnswerBonus:
		return json.Marshal(bonusPayload{Bonus: true})
	}
	return nil, fmt.Errorf("unknown answer kind %q", v.Kind)
}

var (
	singleOptionRe = regexp.MustCompile(`^[A-D]$`)
	optionListRe   = regexp.MustCompile(`^[A-D](,[A-D])+$`)
)

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = NoAnswer()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		up := strings.ToUpper(strings.TrimSpace(s))
		switch {
		case up == "":
			*v = NoAnswer()
		case singleOptionRe.MatchString(up):
			*v = OptionAnswer(up)
		case optionListRe.MatchString(up):
			*v = OptionSetAnswer(strings.Split(up, ","))
		default:
			*v = TextAnswer(s)
		}
		return nil
	case '[':
		var opts []string
		if err := json.Unmarshal(data, &opts); err != nil {
			return err
		}
		*v = OptionSetAnswer(opts)
		return nil
	case '{':
		var b bonusPayload
		if err := json.Unmarshal(data, &b); err == nil && b.Bonus {
			*v = BonusAnswer()
			return nil
		}
		var r rangePayload
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		*v = RangeAnswer(r.Min, r.Max)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberAnswer(n)
		return nil
	}
}

// EncodeAnswerValue 序列化为 JSON 字符串，用于 type:json 列
func EncodeAnswerValue(v AnswerValue) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// DecodeAnswerValue 解析 JSON 字符串列；无法解析时退化为 null，绝不报错
func DecodeAnswerValue(s string) AnswerValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoAnswer()
	}
	var v AnswerValue
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return NoAnswer()
	}
	return v
}

// AnswerMap questionID -> AnswerValue，整体作为 JSON 列存储
type AnswerMap map[uint]AnswerValue

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *AnswerMap) Scan(value interface{}) error {
	return scanJSONColumn(value, m)
}

// TimingMap questionID -> 用时（秒）
type TimingMap map[uint]float64

func (m TimingMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *TimingMap) Scan(value interface{}) error {
	return scanJSONColumn(value, m)
}

// BookmarkMap questionID -> 是否标记
type BookmarkMap map[uint]bool

func (m BookmarkMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *BookmarkMap) Scan(value interface{}) error {
	return scanJSONColumn(value, m)
}

func scanJSONColumn(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported json column type")
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

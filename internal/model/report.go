package model

// RawExamReport 抽取适配层（外部浏览器自动化）交给本服务的单场考试原始数据
type RawExamReport struct {
	ExternalExamID string            `json:"externalExamId"`
	Title          string            `json:"title"`
	ExamDate       string            `json:"examDate"`
	Questions      []ScrapedQuestion `json:"questions"`
	Answers        []ScrapedAnswer   `json:"answers"`

	// RawPayload 门户返回的原始 JSON，仅用于归档
	RawPayload []byte `json:"-"`
}

// ScrapedQuestion 一道题的原始抓取字段，字段名/格式不保证稳定
type ScrapedQuestion struct {
	SourceNumber int    `json:"sourceNumber"` // 门户侧题号，可能缺失或损坏（<=0 视为无效）
	SubjectHint  string `json:"subjectHint"`
	TypeHint     string `json:"typeHint"`
	Content      string `json:"content"`
	OptionA      string `json:"optionA"`
	OptionB      string `json:"optionB"`
	OptionC      string `json:"optionC"`
	OptionD      string `json:"optionD"`
	CorrectRaw   string `json:"correctRaw"` // 原始正确答案文本
}

// ScrapedAnswer 用户对一道题的原始作答记录
type ScrapedAnswer struct {
	SourceNumber int     `json:"sourceNumber"`
	SelectedRaw  string  `json:"selectedRaw"`
	CorrectRaw   string  `json:"correctRaw"`
	TimeSeconds  float64 `json:"timeSeconds"`
	Bookmarked   bool    `json:"bookmarked"`
}

// QuestionRef 目录合并后交给作答构建器的题目定位信息
type QuestionRef struct {
	ID        uint
	QType     QuestionType
	KeyUpdate string
}

// SyncCredentials 门户账号凭据，按次传入，不落库
type SyncCredentials struct {
	Provider string `json:"provider" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SyncFilters 同步过滤条件
type SyncFilters struct {
	From         string `json:"from,omitempty"`         // 仅同步该日期之后的考试
	To           string `json:"to,omitempty"`           // 仅同步该日期之前的考试
	AttemptsOnly bool   `json:"attemptsOnly,omitempty"` // 仅刷新作答，跳过题目重解析
}

// SyncResult 一次同步的汇总结果；Warnings 永远返回，不会以异常形式抛出
type SyncResult struct {
	Count    int      `json:"count"`
	Attempts []uint   `json:"attempts"`
	Warnings []string `json:"warnings"`
}

// SyncProgress 上报给进度回调的状态，仅供展示
type SyncProgress struct {
	Stage     string `json:"stage"`
	ExamTitle string `json:"examTitle,omitempty"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
}

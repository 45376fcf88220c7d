package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/normalize"
	"exam_sync_backend/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService 把解析后的题目幂等合并进跨用户共享的考试目录。
// 合并纪律（见 Question 模型注释）：内容/记分字段最新写入生效，
// correctAnswer 先到先得，已被管理员修订过的 keyUpdate 绝不回写。
type CatalogService struct {
	ExamRepo     *repository.ExamRepository
	QuestionRepo *repository.QuestionRepository
	DB           *gorm.DB
}

func NewCatalogService(examRepo *repository.ExamRepository, questionRepo *repository.QuestionRepository, db *gorm.DB) *CatalogService {
	return &CatalogService{
		ExamRepo:     examRepo,
		QuestionRepo: questionRepo,
		DB:           db,
	}
}

// QuestionMaps 合并结果的两份索引：本次抓取的 sourceNumber 与库中持久的 questionNumber
type QuestionMaps struct {
	BySourceNumber   map[int]model.QuestionRef
	ByQuestionNumber map[int]model.QuestionRef
}

// NumberedQuestion 分配完稳定题号的抓取题目
type NumberedQuestion struct {
	QuestionNumber int
	Source         model.ScrapedQuestion
}

// AssignQuestionNumbers 按 sourceNumber 升序排定稳定题号；
// 缺失/非法的 sourceNumber 顺延补号，保证即使源数据损坏也有全序。
func AssignQuestionNumbers(questions []model.ScrapedQuestion) []NumberedQuestion {
	valid := make([]model.ScrapedQuestion, 0, len(questions))
	var invalid []model.ScrapedQuestion
	for _, q := range questions {
		if q.SourceNumber > 0 {
			valid = append(valid, q)
		} else {
			invalid = append(invalid, q)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].SourceNumber < valid[j].SourceNumber
	})

	ordered := append(valid, invalid...)
	out := make([]NumberedQuestion, len(ordered))
	for i, q := range ordered {
		out[i] = NumberedQuestion{QuestionNumber: i + 1, Source: q}
	}
	return out
}

// 这些 JSON 形态视为“键尚未知晓”，允许被后来的抓取填充。
// "0" 是 NAT 的 ensure 默认值，一并算作未设，见 DESIGN.md。
var unsetKeyValues = []string{"", "null", `""`, "[]", "0"}

func isUnsetKey(encoded string) bool {
	s := strings.TrimSpace(encoded)
	for _, u := range unsetKeyValues {
		if s == u {
			return true
		}
	}
	return false
}

// UpsertExam 把一份报告整体合并进目录；任一步失败则整份回滚，不留半写状态。
// 返回交给作答构建器的两份题目索引。
func (s *CatalogService) UpsertExam(report *model.RawExamReport) (*model.Exam, *QuestionMaps, []string, error) {
	if report == nil || strings.TrimSpace(report.ExternalExamID) == "" {
		return nil, nil, nil, normalize.ErrMissingExamID
	}

	var (
		exam     model.Exam
		warnings []string
		maps     = &QuestionMaps{
			BySourceNumber:   make(map[int]model.QuestionRef),
			ByQuestionNumber: make(map[int]model.QuestionRef),
		}
	)

	numbered := AssignQuestionNumbers(report.Questions)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// 行级锁定考试行，合并范围限定在这一场考试内，互不相关的同步不会互相阻塞
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_exam_id = ?", report.ExternalExamID).
			First(&exam).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			exam = model.Exam{
				ExternalExamID: report.ExternalExamID,
				Title:          report.Title,
				ExamDate:       report.ExamDate,
			}
			err := tx.Create(&exam).Error
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 两个账号并发首同步同一场新考试：落败方重新加锁读取，改走更新路径
				exam = model.Exam{}
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("external_exam_id = ?", report.ExternalExamID).
					First(&exam).Error; err != nil {
					return err
				}
				if err := tx.Model(&exam).Updates(map[string]interface{}{
					"title":     report.Title,
					"exam_date": report.ExamDate,
				}).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// 标题与日期永远刷新为最新报告的值
			if err := tx.Model(&exam).Updates(map[string]interface{}{
				"title":     report.Title,
				"exam_date": report.ExamDate,
			}).Error; err != nil {
				return err
			}
		}

		for _, nq := range numbered {
			ws, err := s.mergeQuestion(tx, exam.ID, nq)
			if err != nil {
				return err
			}
			warnings = append(warnings, ws...)
		}

		// 重新读取持久态构建索引，keyUpdate 以库中为准
		var persisted []model.Question
		if err := tx.Where("exam_id = ?", exam.ID).Order("question_number ASC").Find(&persisted).Error; err != nil {
			return err
		}
		byNumber := make(map[int]model.QuestionRef, len(persisted))
		for _, q := range persisted {
			byNumber[q.QuestionNumber] = model.QuestionRef{
				ID:        q.ID,
				QType:     q.QType,
				KeyUpdate: q.KeyUpdate,
			}
		}
		maps.ByQuestionNumber = byNumber
		for _, nq := range numbered {
			if nq.Source.SourceNumber <= 0 {
				continue
			}
			if ref, ok := byNumber[nq.QuestionNumber]; ok {
				maps.BySourceNumber[nq.Source.SourceNumber] = ref
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, warnings, err
	}
	return &exam, maps, warnings, nil
}

// mergeQuestion 单题合并：槽位为空则新建，否则刷新内容并按条件更新两把键
func (s *CatalogService) mergeQuestion(tx *gorm.DB, examID uint, nq NumberedQuestion) ([]string, error) {
	var warnings []string
	src := nq.Source

	subject, ok := normalize.ResolveSubject(src.SubjectHint)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("question %d: unresolvable subject %q, kept as UNKNOWN", nq.QuestionNumber, src.SubjectHint))
	}

	hasOptions := src.OptionA != "" || src.OptionB != "" || src.OptionC != "" || src.OptionD != ""
	qtype := normalize.InferQuestionType(src.TypeHint, hasOptions, src.CorrectRaw)
	correct, incorrect, unattempted := normalize.MarkingForType(qtype)

	parsedKey := normalize.ParseAnswerValue(src.CorrectRaw, qtype)
	encodedKey := model.EncodeAnswerValue(normalize.EnsureAnswerValue(parsedKey, qtype))

	var existing model.Question
	err := tx.Where("exam_id = ? AND question_number = ?", examID, nq.QuestionNumber).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		q := model.Question{
			ExamID:             examID,
			QuestionNumber:     nq.QuestionNumber,
			Subject:            subject,
			QType:              qtype,
			Content:            src.Content,
			OptionA:            src.OptionA,
			OptionB:            src.OptionB,
			OptionC:            src.OptionC,
			OptionD:            src.OptionD,
			HasPartial:         qtype == model.QTypeMAQ,
			CorrectMarking:     correct,
			IncorrectMarking:   incorrect,
			UnattemptedMarking: unattempted,
			CorrectAnswer:      encodedKey,
			KeyUpdate:          encodedKey,
		}
		return warnings, tx.Create(&q).Error
	}
	if err != nil {
		return warnings, err
	}

	// 内容、选项与记分字段：最新写入生效
	if err := tx.Model(&model.Question{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"subject":             subject,
		"q_type":              qtype,
		"content":             src.Content,
		"option_a":            src.OptionA,
		"option_b":            src.OptionB,
		"option_c":            src.OptionC,
		"option_d":            src.OptionD,
		"has_partial":         qtype == model.QTypeMAQ,
		"correct_marking":     correct,
		"incorrect_marking":   incorrect,
		"unattempted_marking": unattempted,
	}).Error; err != nil {
		return warnings, err
	}

	// 原始键先到先得：仅在仍未设值时写入
	if err := tx.Model(&model.Question{}).
		Where("id = ? AND correct_answer IN ?", existing.ID, unsetKeyValues).
		Update("correct_answer", encodedKey).Error; err != nil {
		return warnings, err
	}

	// 生效键仅在从未设值时跟进新键；管理员修订过的键绝不被重同步悄悄还原
	if err := tx.Model(&model.Question{}).
		Where("id = ? AND key_update IN ?", existing.ID, unsetKeyValues).
		Update("key_update", encodedKey).Error; err != nil {
		return warnings, err
	}

	return warnings, nil
}

// QuestionMapsForExam 仅从持久目录构建索引，供跳过题目重解析的 attempts-only 同步使用
func (s *CatalogService) QuestionMapsForExam(examID uint) (*QuestionMaps, error) {
	questions, err := s.QuestionRepo.FindByExam(examID)
	if err != nil {
		return nil, err
	}
	maps := &QuestionMaps{
		BySourceNumber:   make(map[int]model.QuestionRef, len(questions)),
		ByQuestionNumber: make(map[int]model.QuestionRef, len(questions)),
	}
	for _, q := range questions {
		ref := model.QuestionRef{ID: q.ID, QType: q.QType, KeyUpdate: q.KeyUpdate}
		maps.ByQuestionNumber[q.QuestionNumber] = ref
		maps.BySourceNumber[q.QuestionNumber] = ref
	}
	return maps, nil
}

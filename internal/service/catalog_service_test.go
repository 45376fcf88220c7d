package service

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestAssignQuestionNumbers(t *testing.T) {
	questions := []model.ScrapedQuestion{
		{SourceNumber: 5, Content: "five"},
		{SourceNumber: 0, Content: "broken-a"},
		{SourceNumber: 3, Content: "three"},
		{SourceNumber: -1, Content: "broken-b"},
		{SourceNumber: 7, Content: "seven"},
	}

	numbered := AssignQuestionNumbers(questions)
	if len(numbered) != 5 {
		t.Fatalf("len = %d", len(numbered))
	}

	// 有效题号升序在前，损坏题号按原序顺延补号
	wantOrder := []string{"three", "five", "seven", "broken-a", "broken-b"}
	for i, nq := range numbered {
		if nq.QuestionNumber != i+1 {
			t.Errorf("numbered[%d].QuestionNumber = %d, want %d", i, nq.QuestionNumber, i+1)
		}
		if nq.Source.Content != wantOrder[i] {
			t.Errorf("numbered[%d] = %q, want %q", i, nq.Source.Content, wantOrder[i])
		}
	}
}

func TestAssignQuestionNumbersStable(t *testing.T) {
	// 相同 sourceNumber 保持输入顺序
	questions := []model.ScrapedQuestion{
		{SourceNumber: 2, Content: "first"},
		{SourceNumber: 2, Content: "second"},
	}
	numbered := AssignQuestionNumbers(questions)
	if numbered[0].Source.Content != "first" || numbered[1].Source.Content != "second" {
		t.Errorf("numbered = %+v", numbered)
	}
}

func TestIsUnsetKey(t *testing.T) {
	for _, s := range []string{"", "null", `""`, "[]", "0", " null "} {
		if !isUnsetKey(s) {
			t.Errorf("isUnsetKey(%q) = false, want true", s)
		}
	}
	for _, s := range []string{`"A"`, "4", `["A","B"]`, `{"min":9,"max":11}`, `{"bonus":true}`} {
		if isUnsetKey(s) {
			t.Errorf("isUnsetKey(%q) = true, want false", s)
		}
	}
}

// 集成测试：需要真实 MySQL，默认跳过。
//
//	EXAM_SYNC_INTEGRATION=1 EXAM_SYNC_TEST_DSN='user:pass@tcp(127.0.0.1:3306)/exam_sync_test?charset=utf8mb4&parseTime=true' go test ./internal/service/
func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("EXAM_SYNC_INTEGRATION") != "1" {
		t.Skip("set EXAM_SYNC_INTEGRATION=1 to run integration tests")
	}
	dsn := os.Getenv("EXAM_SYNC_TEST_DSN")
	if dsn == "" {
		t.Fatal("EXAM_SYNC_TEST_DSN is required for integration tests")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&model.Exam{}, &model.Question{}, &model.ExamAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestCatalog(db *gorm.DB) *CatalogService {
	return NewCatalogService(repository.NewExamRepository(db), repository.NewQuestionRepository(db), db)
}

func sampleReport(examID string) *model.RawExamReport {
	return &model.RawExamReport{
		ExternalExamID: examID,
		Title:          "Mock Test 14",
		ExamDate:       "2026-08-20",
		Questions: []model.ScrapedQuestion{
			{SourceNumber: 1, SubjectHint: "Physics", TypeHint: "MCQ", Content: "q1", CorrectRaw: "A"},
			{SourceNumber: 2, SubjectHint: "Chemistry", TypeHint: "MSQ", Content: "q2", CorrectRaw: "A,C"},
			{SourceNumber: 3, SubjectHint: "Maths", TypeHint: "NAT", Content: "q3", CorrectRaw: "9-11"},
		},
	}
}

func TestUpsertExamIdempotent(t *testing.T) {
	db := integrationDB(t)
	catalog := newTestCatalog(db)

	examID := fmt.Sprintf("it-idem-%d", os.Getpid())
	t.Cleanup(func() {
		db.Unscoped().Where("exam_id IN (?)", db.Model(&model.Exam{}).Select("id").Where("external_exam_id = ?", examID)).Delete(&model.Question{})
		db.Unscoped().Where("external_exam_id = ?", examID).Delete(&model.Exam{})
	})

	exam1, maps1, _, err := catalog.UpsertExam(sampleReport(examID))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	exam2, maps2, _, err := catalog.UpsertExam(sampleReport(examID))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if exam1.ID != exam2.ID {
		t.Errorf("exam duplicated: %d vs %d", exam1.ID, exam2.ID)
	}
	if len(maps1.ByQuestionNumber) != 3 || len(maps2.ByQuestionNumber) != 3 {
		t.Errorf("question maps = %d / %d, want 3", len(maps1.ByQuestionNumber), len(maps2.ByQuestionNumber))
	}

	var count int64
	db.Model(&model.Question{}).Where("exam_id = ?", exam1.ID).Count(&count)
	if count != 3 {
		t.Errorf("question rows = %d, want 3", count)
	}
}

func TestUpsertExamConcurrentFirstSync(t *testing.T) {
	db := integrationDB(t)

	examID := fmt.Sprintf("it-race-%d", os.Getpid())
	t.Cleanup(func() {
		db.Unscoped().Where("exam_id IN (?)", db.Model(&model.Exam{}).Select("id").Where("external_exam_id = ?", examID)).Delete(&model.Question{})
		db.Unscoped().Where("external_exam_id = ?", examID).Delete(&model.Exam{})
	})

	// 两个账号并发首同步同一场新考试：双方都必须成功，落败方走更新路径而不是丢掉整份报告
	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _, errs[i] = newTestCatalog(db).UpsertExam(sampleReport(examID))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("writer %d: %v", i, err)
		}
	}

	var examCount int64
	db.Model(&model.Exam{}).Where("external_exam_id = ?", examID).Count(&examCount)
	if examCount != 1 {
		t.Errorf("exam rows = %d, want 1", examCount)
	}

	var exam model.Exam
	if err := db.Where("external_exam_id = ?", examID).First(&exam).Error; err != nil {
		t.Fatalf("reload exam: %v", err)
	}
	var questionCount int64
	db.Model(&model.Question{}).Where("exam_id = ?", exam.ID).Count(&questionCount)
	if questionCount != 3 {
		t.Errorf("question rows = %d, want 3", questionCount)
	}
}

func TestUpsertExamPreservesAdminKey(t *testing.T) {
	db := integrationDB(t)
	catalog := newTestCatalog(db)

	examID := fmt.Sprintf("it-key-%d", os.Getpid())
	t.Cleanup(func() {
		db.Unscoped().Where("exam_id IN (?)", db.Model(&model.Exam{}).Select("id").Where("external_exam_id = ?", examID)).Delete(&model.Question{})
		db.Unscoped().Where("external_exam_id = ?", examID).Delete(&model.Exam{})
	})

	_, maps, _, err := catalog.UpsertExam(sampleReport(examID))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// 管理员修订第 1 题生效键
	ref := maps.ByQuestionNumber[1]
	admin := NewAdminService(repository.NewQuestionRepository(db))
	if _, err := admin.UpdateQuestionKey(ref.ID, "B", false); err != nil {
		t.Fatalf("admin key update: %v", err)
	}

	// 重同步不得还原修订，也不得覆盖原始键
	if _, _, _, err := catalog.UpsertExam(sampleReport(examID)); err != nil {
		t.Fatalf("resync: %v", err)
	}

	var q model.Question
	if err := db.First(&q, ref.ID).Error; err != nil {
		t.Fatalf("reload question: %v", err)
	}
	if !q.KeyUpdateValue().Equal(model.OptionAnswer("B")) {
		t.Errorf("keyUpdate = %s, 管理员修订被重同步还原", q.KeyUpdate)
	}
	if !q.CorrectAnswerValue().Equal(model.OptionAnswer("A")) {
		t.Errorf("correctAnswer = %s, 原始键被覆盖", q.CorrectAnswer)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"exam_sync_backend/internal/model"
	"exam_sync_backend/internal/util"
)

type fakeSource struct {
	reports  []model.RawExamReport
	warnings []string
	err      error
}

func (f *fakeSource) FetchReports(ctx context.Context, creds model.SyncCredentials, filters model.SyncFilters) ([]model.RawExamReport, []string, error) {
	return f.reports, f.warnings, f.err
}

type fakeCatalog struct {
	failExamID    string
	persistedMaps *QuestionMaps
	mapsForExamN  int
	nextExamID    uint
}

func (f *fakeCatalog) UpsertExam(report *model.RawExamReport) (*model.Exam, *QuestionMaps, []string, error) {
	if report.ExternalExamID == f.failExamID {
		return nil, nil, []string{"merge warning"}, errors.New("merge exploded")
	}
	f.nextExamID++
	maps := &QuestionMaps{
		BySourceNumber:   map[int]model.QuestionRef{1: {ID: 100, QType: model.QTypeMCQ}},
		ByQuestionNumber: map[int]model.QuestionRef{1: {ID: 100, QType: model.QTypeMCQ}},
	}
	if len(report.Questions) == 0 {
		maps = &QuestionMaps{
			BySourceNumber:   map[int]model.QuestionRef{},
			ByQuestionNumber: map[int]model.QuestionRef{},
		}
	}
	return &model.Exam{BaseModel: model.BaseModel{ID: f.nextExamID}, ExternalExamID: report.ExternalExamID}, maps, nil, nil
}

func (f *fakeCatalog) QuestionMapsForExam(examID uint) (*QuestionMaps, error) {
	f.mapsForExamN++
	if f.persistedMaps != nil {
		return f.persistedMaps, nil
	}
	return &QuestionMaps{
		BySourceNumber:   map[int]model.QuestionRef{},
		ByQuestionNumber: map[int]model.QuestionRef{},
	}, nil
}

type fakeAttempts struct {
	nextID uint
	calls  int
}

func (f *fakeAttempts) UpsertAttempt(userID, examID uint, maps *QuestionMaps, answers []model.ScrapedAnswer) (*model.ExamAttempt, []string, error) {
	f.calls++
	f.nextID++
	return &model.ExamAttempt{BaseModel: model.BaseModel{ID: f.nextID + 10}, UserID: userID, ExamID: examID}, nil, nil
}

func newTestSyncService(source ReportSource, catalog catalogMerger, attempts attemptUpserter) *SyncService {
	return &SyncService{Source: source, Catalog: catalog, Attempts: attempts}
}

func testCreds() model.SyncCredentials {
	return model.SyncCredentials{Provider: util.ProviderTestPortal, Username: "u", Password: "p"}
}

func report(examID string, withQuestions bool) model.RawExamReport {
	r := model.RawExamReport{ExternalExamID: examID, Title: "T " + examID}
	if withQuestions {
		r.Questions = []model.ScrapedQuestion{{SourceNumber: 1, CorrectRaw: "A"}}
	}
	r.Answers = []model.ScrapedAnswer{{SourceNumber: 1, SelectedRaw: "B", TimeSeconds: 30}}
	return r
}

func TestSyncUnsupportedProvider(t *testing.T) {
	s := newTestSyncService(&fakeSource{}, &fakeCatalog{}, &fakeAttempts{})

	creds := testCreds()
	creds.Provider = "other-portal"
	_, err := s.SyncExternalAccount(context.Background(), 1, creds, model.SyncFilters{}, nil)
	if !errors.Is(err, util.ErrUnsupportedProvider) {
		t.Errorf("err = %v, want ErrUnsupportedProvider", err)
	}
}

func TestSyncFetchErrorAborts(t *testing.T) {
	s := newTestSyncService(&fakeSource{err: util.ErrCredentialFailure}, &fakeCatalog{}, &fakeAttempts{})

	_, err := s.SyncExternalAccount(context.Background(), 1, testCreds(), model.SyncFilters{}, nil)
	if !errors.Is(err, util.ErrCredentialFailure) {
		t.Errorf("err = %v, want ErrCredentialFailure", err)
	}
}

func TestSyncHappyPath(t *testing.T) {
	source := &fakeSource{
		reports:  []model.RawExamReport{report("ex-1", true), report("ex-2", true)},
		warnings: []string{"fetch warning"},
	}
	attempts := &fakeAttempts{}
	s := newTestSyncService(source, &fakeCatalog{}, attempts)

	var stages []string
	result, err := s.SyncExternalAccount(context.Background(), 1, testCreds(), model.SyncFilters{}, func(p model.SyncProgress) {
		stages = append(stages, p.Stage)
	})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if result.Count != 2 || len(result.Attempts) != 2 {
		t.Errorf("result = %+v", result)
	}
	if attempts.calls != 2 {
		t.Errorf("attempt upserts = %d, want 2", attempts.calls)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "fetch warning" {
		t.Errorf("warnings = %v", result.Warnings)
	}

	if len(stages) == 0 || stages[0] != "fetching" || stages[len(stages)-1] != "done" {
		t.Errorf("stages = %v", stages)
	}
}

func TestSyncSkipsFailedReport(t *testing.T) {
	source := &fakeSource{reports: []model.RawExamReport{report("bad", true), report("good", true)}}
	s := newTestSyncService(source, &fakeCatalog{failExamID: "bad"}, &fakeAttempts{})

	result, err := s.SyncExternalAccount(context.Background(), 1, testCreds(), model.SyncFilters{}, nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if result.Count != 1 {
		t.Errorf("count = %d, want 1", result.Count)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "bad") && strings.Contains(w, "merge exploded") {
			found = true
		}
	}
	if !found {
		t.Errorf("失败报告未记入 warnings: %v", result.Warnings)
	}
}

func TestSyncAttemptsOnlyUsesPersistedCatalog(t *testing.T) {
	catalog := &fakeCatalog{
		persistedMaps: &QuestionMaps{
			BySourceNumber:   map[int]model.QuestionRef{1: {ID: 200, QType: model.QTypeMCQ}},
			ByQuestionNumber: map[int]model.QuestionRef{1: {ID: 200, QType: model.QTypeMCQ}},
		},
	}
	source := &fakeSource{reports: []model.RawExamReport{report("ex-1", false)}}
	s := newTestSyncService(source, catalog, &fakeAttempts{})

	result, err := s.SyncExternalAccount(context.Background(), 1, testCreds(), model.SyncFilters{AttemptsOnly: true}, nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if catalog.mapsForExamN != 1 {
		t.Errorf("QuestionMapsForExam calls = %d, want 1", catalog.mapsForExamN)
	}
	if result.Count != 1 {
		t.Errorf("count = %d", result.Count)
	}
}

func TestSyncProgressPanicTolerated(t *testing.T) {
	source := &fakeSource{reports: []model.RawExamReport{report("ex-1", true)}}
	s := newTestSyncService(source, &fakeCatalog{}, &fakeAttempts{})

	result, err := s.SyncExternalAccount(context.Background(), 1, testCreds(), model.SyncFilters{}, func(p model.SyncProgress) {
		panic(fmt.Sprintf("broken callback at %s", p.Stage))
	})
	if err != nil {
		t.Fatalf("进度回调 panic 中断了同步: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("count = %d", result.Count)
	}
}

package service

import (
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"testing"
)

func option(id uint, text string, correct bool) model.QuestionOption {
	return model.QuestionOption{
		BaseModel:  model.BaseModel{ID: id},
		OptionText: text,
		IsCorrect:  correct,
	}
}

func question(id uint, text string, options ...model.QuestionOption) model.Question {
	return model.Question{
		BaseModel: model.BaseModel{ID: id},
		Question:  text,
		Options:   options,
	}
}

func TestGradeAnswers(t *testing.T) {
	questions := []model.Question{
		question(1, "Capital of France?",
			option(11, "Paris", true),
			option(12, "Berlin", false),
		),
		question(2, "2+2?",
			option(21, "3", false),
			option(22, "4", true),
		),
		question(3, "Largest planet?",
			option(31, "Jupiter", true),
			option(32, "Mars", false),
		),
	}

	answers := []AnswerSubmission{
		{QuestionID: 1, StudentAnswer: "11", TimeSpent: 30},
		{QuestionID: 2, StudentAnswer: "21", TimeSpent: 45},
		{QuestionID: 3, StudentAnswer: "", TimeSpent: 5},
	}

	res := gradeAnswers(answers, questions)

	if res.correct != 1 || res.incorrect != 1 || res.unanswered != 1 {
		t.Fatalf("got correct=%d incorrect=%d unanswered=%d, want 1/1/1",
			res.correct, res.incorrect, res.unanswered)
	}
	if len(res.answers) != 3 {
		t.Fatalf("got %d graded answers, want 3", len(res.answers))
	}

	first := res.answers[0]
	if !first.IsCorrect || first.StudentAnswer != "Paris" || first.CorrectAnswer != "Paris" {
		t.Errorf("first answer = %+v, want correct Paris/Paris", first)
	}
	second := res.answers[1]
	if second.IsCorrect || second.StudentAnswer != "3" || second.CorrectAnswer != "4" {
		t.Errorf("second answer = %+v, want incorrect 3/4", second)
	}
	third := res.answers[2]
	if third.IsCorrect || third.StudentAnswer != "" || third.CorrectAnswer != "Jupiter" {
		t.Errorf("third answer = %+v, want unanswered with correct Jupiter", third)
	}
	if first.TimeSpent != 30 || second.TimeSpent != 45 || third.TimeSpent != 5 {
		t.Errorf("time spent not carried over: %d/%d/%d",
			first.TimeSpent, second.TimeSpent, third.TimeSpent)
	}
}

func TestGradeAnswersSkipsUnknownQuestion(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true), option(12, "B", false)),
	}
	answers := []AnswerSubmission{
		{QuestionID: 1, StudentAnswer: "11"},
		{QuestionID: 99, StudentAnswer: "11"},
	}

	res := gradeAnswers(answers, questions)
	if len(res.answers) != 1 {
		t.Fatalf("got %d graded answers, want 1 (unknown question skipped)", len(res.answers))
	}
	if res.correct != 1 || res.incorrect != 0 || res.unanswered != 0 {
		t.Errorf("got correct=%d incorrect=%d unanswered=%d, want 1/0/0",
			res.correct, res.incorrect, res.unanswered)
	}
}

func TestGradeAnswersUnknownOptionIsIncorrect(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true), option(12, "B", false)),
	}
	answers := []AnswerSubmission{
		{QuestionID: 1, StudentAnswer: "999"},
	}

	res := gradeAnswers(answers, questions)
	if res.incorrect != 1 || res.correct != 0 || res.unanswered != 0 {
		t.Fatalf("got correct=%d incorrect=%d unanswered=%d, want 0/1/0",
			res.correct, res.incorrect, res.unanswered)
	}
	if res.answers[0].StudentAnswer != "" {
		t.Errorf("unknown option stored as %q, want empty text", res.answers[0].StudentAnswer)
	}
}

// 每条被判分的作答恰好归入三类之一
func TestGradeAnswersPartition(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true), option(12, "B", false)),
		question(2, "Q2", option(21, "A", false), option(22, "B", true)),
		question(3, "Q3", option(31, "A", true), option(32, "B", false)),
		question(4, "Q4", option(41, "A", false), option(42, "B", true)),
	}
	answers := []AnswerSubmission{
		{QuestionID: 1, StudentAnswer: "11"},
		{QuestionID: 2, StudentAnswer: "21"},
		{QuestionID: 3, StudentAnswer: ""},
		{QuestionID: 4, StudentAnswer: "42"},
	}

	res := gradeAnswers(answers, questions)
	if got := res.correct + res.incorrect + res.unanswered; got != len(res.answers) {
		t.Errorf("categories sum to %d, want %d", got, len(res.answers))
	}
}

type fakeSubmissionStore struct {
	exists    bool
	createErr error
	created   *model.Submission
}

func (f *fakeSubmissionStore) Create(s *model.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = s
	return nil
}

func (f *fakeSubmissionStore) Exists(studentID uint, examID string) (bool, error) {
	return f.exists, nil
}

func (f *fakeSubmissionStore) FindByStudentAndExam(studentID uint, examID string) (*model.Submission, error) {
	return nil, nil
}

func (f *fakeSubmissionStore) ListByStudent(studentID uint) ([]model.Submission, error) {
	return nil, nil
}

func (f *fakeSubmissionStore) ListByExam(examID string) ([]model.Submission, error) {
	return nil, nil
}

type fakeExamFinder struct {
	exam *model.Exam
	err  error
}

func (f *fakeExamFinder) FindByExamID(examID string) (*model.Exam, error) {
	return f.exam, f.err
}

type fakeQuestionLister struct {
	questions []model.Question
}

func (f *fakeQuestionLister) ListByExamID(examID string) ([]model.Question, error) {
	return f.questions, nil
}

func TestSubmitExamRejectsDuplicate(t *testing.T) {
	svc := NewSubmissionService(&fakeSubmissionStore{exists: true}, &fakeExamFinder{}, &fakeQuestionLister{}, nil)

	_, err := svc.SubmitExam(1, SubmitExamRequest{ExamID: "exam-1"})
	if !errors.Is(err, util.ErrExamAlreadySubmitted) {
		t.Fatalf("got %v, want ErrExamAlreadySubmitted", err)
	}
}

// 先查后写的竞态下，唯一索引的冲突同样映射为重复提交
func TestSubmitExamRejectsConcurrentDuplicate(t *testing.T) {
	store := &fakeSubmissionStore{createErr: repository.ErrDuplicateSubmission}
	svc := NewSubmissionService(
		store,
		&fakeExamFinder{exam: &model.Exam{ExamID: "exam-1"}},
		&fakeQuestionLister{questions: []model.Question{
			question(1, "Q1", option(11, "A", true), option(12, "B", false)),
		}},
		nil,
	)

	_, err := svc.SubmitExam(1, SubmitExamRequest{
		ExamID:  "exam-1",
		Answers: []AnswerSubmission{{QuestionID: 1, StudentAnswer: "11"}},
	})
	if !errors.Is(err, util.ErrExamAlreadySubmitted) {
		t.Fatalf("got %v, want ErrExamAlreadySubmitted", err)
	}
}

func TestSubmitExamComputesSummary(t *testing.T) {
	store := &fakeSubmissionStore{}
	svc := NewSubmissionService(
		store,
		&fakeExamFinder{exam: &model.Exam{ExamID: "exam-1"}},
		&fakeQuestionLister{questions: []model.Question{
			question(1, "Q1", option(11, "A", true), option(12, "B", false)),
			question(2, "Q2", option(21, "A", false), option(22, "B", true)),
			question(3, "Q3", option(31, "A", true), option(32, "B", false)),
		}},
		nil,
	)

	resp, err := svc.SubmitExam(7, SubmitExamRequest{
		ExamID: "exam-1",
		Answers: []AnswerSubmission{
			{QuestionID: 1, StudentAnswer: "11"},
			{QuestionID: 2, StudentAnswer: "21"},
			{QuestionID: 3, StudentAnswer: ""},
		},
		TotalTimeSpent: 300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.CorrectAnswers != 1 || resp.IncorrectAnswers != 1 || resp.Percentage != 33 {
		t.Errorf("response = %+v, want correct=1 incorrect=1 percentage=33", resp)
	}
	if store.created == nil {
		t.Fatal("submission not persisted")
	}
	if store.created.UnansweredQuestions != 1 || store.created.TotalQuestions != 3 {
		t.Errorf("persisted = %+v, want unanswered=1 total=3", store.created)
	}
	if store.created.Status != model.StatusCompleted {
		t.Errorf("status = %q, want default completed", store.created.Status)
	}
}

func TestPercentageOf(t *testing.T) {
	cases := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
	}
	for _, c := range cases {
		if got := percentageOf(c.correct, c.total); got != c.want {
			t.Errorf("percentageOf(%d, %d) = %d, want %d", c.correct, c.total, got, c.want)
		}
	}
}

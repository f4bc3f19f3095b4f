package service

import (
	"exam_guardian_backend/internal/model"
	"testing"
	"time"
)

func submissionWithPercentage(p int) model.Submission {
	return model.Submission{Percentage: p}
}

func TestBuildOverallStats(t *testing.T) {
	submissions := []model.Submission{
		submissionWithPercentage(100),
		submissionWithPercentage(50),
	}

	stats := buildOverallStats(submissions)
	if stats.TotalSubmissions != 2 {
		t.Errorf("TotalSubmissions = %d, want 2", stats.TotalSubmissions)
	}
	if stats.AverageScore != 75 {
		t.Errorf("AverageScore = %d, want 75", stats.AverageScore)
	}
	if stats.ScoreDistribution.Excellent != 1 || stats.ScoreDistribution.Average != 1 {
		t.Errorf("distribution = %+v, want excellent=1 average=1", stats.ScoreDistribution)
	}
}

func TestBuildOverallStatsBandBoundaries(t *testing.T) {
	submissions := []model.Submission{
		submissionWithPercentage(90),
		submissionWithPercentage(89),
		submissionWithPercentage(70),
		submissionWithPercentage(69),
		submissionWithPercentage(50),
		submissionWithPercentage(49),
	}

	stats := buildOverallStats(submissions)
	d := stats.ScoreDistribution
	if d.Excellent != 1 || d.Good != 2 || d.Average != 2 || d.Poor != 1 {
		t.Errorf("distribution = %+v, want excellent=1 good=2 average=2 poor=1", d)
	}
	if sum := d.Excellent + d.Good + d.Average + d.Poor; sum != stats.TotalSubmissions {
		t.Errorf("bands sum to %d, want %d", sum, stats.TotalSubmissions)
	}
	if stats.AverageScore != 70 {
		t.Errorf("AverageScore = %d, want 70", stats.AverageScore)
	}
}

func TestBuildOverallStatsEmpty(t *testing.T) {
	stats := buildOverallStats(nil)
	if stats.TotalSubmissions != 0 || stats.AverageScore != 0 {
		t.Errorf("empty stats = %+v, want zeros", stats)
	}
}

func TestBuildQuestionAnalytics(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true), option(12, "B", false)),
		question(2, "Q2", option(21, "A", false), option(22, "B", true)),
	}
	submissions := []model.Submission{
		{Answers: []model.SubmissionAnswer{
			{QuestionID: 1, StudentAnswer: "A", IsCorrect: true, TimeSpent: 20},
			{QuestionID: 2, StudentAnswer: "A", IsCorrect: false, TimeSpent: 40},
		}},
		{Answers: []model.SubmissionAnswer{
			{QuestionID: 1, StudentAnswer: "B", IsCorrect: false, TimeSpent: 40},
			{QuestionID: 2, StudentAnswer: "", IsCorrect: false, TimeSpent: 10},
		}},
	}

	result := buildQuestionAnalytics(questions, submissions)
	if len(result) != 2 {
		t.Fatalf("got %d rows, want 2", len(result))
	}

	// Q2准确率0%，升序排在Q1(50%)前面
	if result[0].QuestionID != 2 || result[1].QuestionID != 1 {
		t.Fatalf("order = [%d, %d], want hardest first [2, 1]",
			result[0].QuestionID, result[1].QuestionID)
	}

	q2 := result[0].Stats
	if q2.TotalAttempts != 2 || q2.CorrectAttempts != 0 || q2.Accuracy != 0 {
		t.Errorf("q2 stats = %+v, want attempts=2 correct=0 accuracy=0", q2)
	}
	if q2.AnswerDistribution["A"] != 1 || q2.AnswerDistribution["Unanswered"] != 1 {
		t.Errorf("q2 distribution = %v, want A:1 Unanswered:1", q2.AnswerDistribution)
	}
	if q2.AverageTimeSpent != 25 {
		t.Errorf("q2 AverageTimeSpent = %d, want 25", q2.AverageTimeSpent)
	}

	q1 := result[1].Stats
	if q1.TotalAttempts != 2 || q1.CorrectAttempts != 1 || q1.Accuracy != 50 {
		t.Errorf("q1 stats = %+v, want attempts=2 correct=1 accuracy=50", q1)
	}
	if q1.AverageTimeSpent != 30 {
		t.Errorf("q1 AverageTimeSpent = %d, want 30", q1.AverageTimeSpent)
	}
}

func TestBuildQuestionAnalyticsNoSubmissions(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true)),
	}

	result := buildQuestionAnalytics(questions, nil)
	if len(result) != 1 {
		t.Fatalf("got %d rows, want 1", len(result))
	}
	stats := result[0].Stats
	if stats.TotalAttempts != 0 || stats.Accuracy != 0 || stats.AverageTimeSpent != 0 {
		t.Errorf("stats = %+v, want zeros without attempts", stats)
	}
	if stats.AnswerDistribution == nil {
		t.Error("AnswerDistribution is nil, want empty map")
	}
}

// 同准确率保持题库顺序
func TestBuildQuestionAnalyticsStableOrder(t *testing.T) {
	questions := []model.Question{
		question(1, "Q1", option(11, "A", true)),
		question(2, "Q2", option(21, "A", true)),
		question(3, "Q3", option(31, "A", true)),
	}

	result := buildQuestionAnalytics(questions, nil)
	for i, want := range []uint{1, 2, 3} {
		if result[i].QuestionID != want {
			t.Errorf("result[%d].QuestionID = %d, want %d", i, result[i].QuestionID, want)
		}
	}
}

func TestBuildStudentPerformance(t *testing.T) {
	submittedAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	submissions := []model.Submission{
		{
			Student:        &model.User{Name: "Alice", Email: "alice@example.com"},
			Percentage:     80,
			CorrectAnswers: 8,
			TotalTimeSpent: 600,
			SubmittedAt:    submittedAt,
		},
		{
			Percentage: 40,
		},
	}

	roster := buildStudentPerformance(submissions)
	if len(roster) != 2 {
		t.Fatalf("got %d rows, want 2", len(roster))
	}
	first := roster[0]
	if first.StudentName != "Alice" || first.StudentEmail != "alice@example.com" {
		t.Errorf("first row = %+v, want Alice", first)
	}
	if first.Score != 80 || first.CorrectAnswers != 8 || first.TotalTimeSpent != 600 {
		t.Errorf("first row numbers = %+v", first)
	}
	if !first.SubmittedAt.Equal(submittedAt) {
		t.Errorf("SubmittedAt = %v, want %v", first.SubmittedAt, submittedAt)
	}
	// 未预加载学生时名字留空，行仍然保留
	if roster[1].StudentName != "" || roster[1].Score != 40 {
		t.Errorf("second row = %+v, want empty name score 40", roster[1])
	}
}

func TestBuildOverviewStats(t *testing.T) {
	submissions := []model.Submission{
		submissionWithPercentage(80),
		submissionWithPercentage(20),
		submissionWithPercentage(50),
	}

	stats := buildOverviewStats(submissions)
	if stats.TotalSubmissions != 3 {
		t.Errorf("TotalSubmissions = %d, want 3", stats.TotalSubmissions)
	}
	if stats.AverageScore != 50 {
		t.Errorf("AverageScore = %d, want 50", stats.AverageScore)
	}
	if stats.HighestScore != 80 || stats.LowestScore != 20 {
		t.Errorf("highest/lowest = %d/%d, want 80/20", stats.HighestScore, stats.LowestScore)
	}
}

func TestBuildOverviewStatsEmpty(t *testing.T) {
	stats := buildOverviewStats(nil)
	if stats.TotalSubmissions != 0 || stats.HighestScore != 0 || stats.LowestScore != 0 {
		t.Errorf("empty stats = %+v, want zeros", stats)
	}
}

func TestAnalyticsCacheKey(t *testing.T) {
	if got := analyticsCacheKey("abc-123"); got != "exam:analytics:abc-123" {
		t.Errorf("analyticsCacheKey = %q", got)
	}
}

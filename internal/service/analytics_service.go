package service

import (
	"context"
	"encoding/json"
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"exam_guardian_backend/pkg/logger"
	"math"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const analyticsCacheTTL = 5 * time.Minute

func analyticsCacheKey(examID string) string {
	return "exam:analytics:" + examID
}

type AnalyticsService struct {
	ExamRepo       *repository.ExamRepository
	SubmissionRepo *repository.SubmissionRepository
	QuestionRepo   *repository.QuestionRepository
	AI             *AIService
	Redis          *redis.Client
}

func NewAnalyticsService(
	examRepo *repository.ExamRepository,
	submissionRepo *repository.SubmissionRepository,
	questionRepo *repository.QuestionRepository,
	ai *AIService,
	rdb *redis.Client,
) *AnalyticsService {
	return &AnalyticsService{
		ExamRepo:       examRepo,
		SubmissionRepo: submissionRepo,
		QuestionRepo:   questionRepo,
		AI:             ai,
		Redis:          rdb,
	}
}

// GetExamAnalytics 教师端完整分析报告。
// 考试必须是请求者创建的；不存在和不属于统一按未找到处理，不泄露存在性。
// 取数失败整个调用失败；AI洞察失败只降级，报告照常返回。
func (s *AnalyticsService) GetExamAnalytics(ctx context.Context, examID string, teacherID uint) (*model.ExamAnalytics, error) {
	exam, err := s.ExamRepo.FindByExamIDAndCreator(examID, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	if cached := s.cachedReport(ctx, examID); cached != nil {
		return cached, nil
	}

	submissions, err := s.SubmissionRepo.ListByExamWithAnswers(examID)
	if err != nil {
		return nil, err
	}

	questions, err := s.QuestionRepo.ListByExamID(examID)
	if err != nil {
		return nil, err
	}

	overall := buildOverallStats(submissions)
	questionAnalytics := buildQuestionAnalytics(questions, submissions)

	insights, aiErr := s.AI.GenerateExamInsights(ctx, questionAnalytics, exam.ExamName, len(questions), overall)
	if aiErr != nil {
		logger.Log.Warn("AI insight generation fell back",
			zap.String("examId", examID), zap.Error(aiErr))
	}

	report := &model.ExamAnalytics{
		Exam:               exam,
		OverallStats:       overall,
		QuestionAnalytics:  questionAnalytics,
		StudentPerformance: buildStudentPerformance(submissions),
		AIInsights:         insights,
	}

	s.cacheReport(ctx, examID, report)
	return report, nil
}

func (s *AnalyticsService) cachedReport(ctx context.Context, examID string) *model.ExamAnalytics {
	if s.Redis == nil {
		return nil
	}
	data, err := s.Redis.Get(ctx, analyticsCacheKey(examID)).Bytes()
	if err != nil {
		return nil
	}
	var report model.ExamAnalytics
	if err := json.Unmarshal(data, &report); err != nil {
		return nil
	}
	return &report
}

func (s *AnalyticsService) cacheReport(ctx context.Context, examID string, report *model.ExamAnalytics) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, analyticsCacheKey(examID), data, analyticsCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache analytics report",
			zap.String("examId", examID), zap.Error(err))
	}
}

// buildOverallStats 班级层面统计。分段阈值90/70/50固定，
// 区间左闭右开（最高段闭区间），每份提交恰好落入一段。
func buildOverallStats(submissions []model.Submission) model.OverallStats {
	stats := model.OverallStats{TotalSubmissions: len(submissions)}
	if len(submissions) == 0 {
		return stats
	}

	sum := 0
	for i := range submissions {
		p := submissions[i].Percentage
		sum += p

		switch {
		case p >= 90:
			stats.ScoreDistribution.Excellent++
		case p >= 70:
			stats.ScoreDistribution.Good++
		case p >= 50:
			stats.ScoreDistribution.Average++
		default:
			stats.ScoreDistribution.Poor++
		}
	}

	stats.AverageScore = int(math.Round(float64(sum) / float64(len(submissions))))
	return stats
}

// buildQuestionAnalytics 汇总每道题跨所有提交的作答情况，
// 按准确率升序排列（最难的在前），同分保持题库顺序。
func buildQuestionAnalytics(questions []model.Question, submissions []model.Submission) []model.QuestionAnalytics {
	type bucket struct {
		attempts     int
		correct      int
		timeTotal    int
		distribution map[string]int
	}
	buckets := make(map[uint]*bucket, len(questions))
	for i := range questions {
		buckets[questions[i].ID] = &bucket{distribution: make(map[string]int)}
	}

	for i := range submissions {
		for j := range submissions[i].Answers {
			answer := &submissions[i].Answers[j]
			b, ok := buckets[answer.QuestionID]
			if !ok {
				continue
			}
			b.attempts++
			if answer.IsCorrect {
				b.correct++
			}
			b.timeTotal += answer.TimeSpent

			label := answer.StudentAnswer
			if label == "" {
				label = "Unanswered"
			}
			b.distribution[label]++
		}
	}

	result := make([]model.QuestionAnalytics, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		b := buckets[q.ID]

		accuracy := 0
		averageTime := 0
		if b.attempts > 0 {
			accuracy = int(math.Round(float64(b.correct) / float64(b.attempts) * 100))
			averageTime = int(math.Round(float64(b.timeTotal) / float64(b.attempts)))
		}

		result = append(result, model.QuestionAnalytics{
			QuestionID: q.ID,
			Question:   q.Question,
			Options:    q.Options,
			Stats: model.QuestionStats{
				TotalAttempts:      b.attempts,
				CorrectAttempts:    b.correct,
				Accuracy:           accuracy,
				AverageTimeSpent:   averageTime,
				AnswerDistribution: b.distribution,
			},
		})
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Stats.Accuracy < result[b].Stats.Accuracy
	})
	return result
}

// buildStudentPerformance 学生名册，沿用提交的获取顺序（提交时间倒序）
func buildStudentPerformance(submissions []model.Submission) []model.StudentPerformance {
	roster := make([]model.StudentPerformance, 0, len(submissions))
	for i := range submissions {
		sub := &submissions[i]
		row := model.StudentPerformance{
			Score:          sub.Percentage,
			CorrectAnswers: sub.CorrectAnswers,
			TotalTimeSpent: sub.TotalTimeSpent,
			SubmittedAt:    sub.SubmittedAt,
		}
		if sub.Student != nil {
			row.StudentName = sub.Student.Name
			row.StudentEmail = sub.Student.Email
		}
		roster = append(roster, row)
	}
	return roster
}

// GetTeacherExamsOverview 教师创建的全部考试及其简要统计，新考试在前
func (s *AnalyticsService) GetTeacherExamsOverview(teacherID uint) ([]model.ExamOverview, error) {
	exams, err := s.ExamRepo.ListByCreator(teacherID)
	if err != nil {
		return nil, err
	}

	overviews := make([]model.ExamOverview, 0, len(exams))
	for i := range exams {
		submissions, err := s.SubmissionRepo.ListByExam(exams[i].ExamID)
		if err != nil {
			return nil, err
		}

		overviews = append(overviews, model.ExamOverview{
			Exam:  exams[i],
			Stats: buildOverviewStats(submissions),
		})
	}
	return overviews, nil
}

func buildOverviewStats(submissions []model.Submission) model.ExamOverviewStats {
	stats := model.ExamOverviewStats{TotalSubmissions: len(submissions)}
	if len(submissions) == 0 {
		return stats
	}

	sum := 0
	highest := submissions[0].Percentage
	lowest := submissions[0].Percentage
	for i := range submissions {
		p := submissions[i].Percentage
		sum += p
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
	}

	stats.AverageScore = int(math.Round(float64(sum) / float64(len(submissions))))
	stats.HighestScore = highest
	stats.LowestScore = lowest
	return stats
}

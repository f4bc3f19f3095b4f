package service

import (
	"context"
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"exam_guardian_backend/pkg/logger"
	"exam_guardian_backend/pkg/monitoring"
	"math"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmissionStore 提交服务依赖的最小仓储面
type SubmissionStore interface {
	Create(submission *model.Submission) error
	Exists(studentID uint, examID string) (bool, error)
	FindByStudentAndExam(studentID uint, examID string) (*model.Submission, error)
	ListByStudent(studentID uint) ([]model.Submission, error)
	ListByExam(examID string) ([]model.Submission, error)
}

type ExamFinder interface {
	FindByExamID(examID string) (*model.Exam, error)
}

type QuestionLister interface {
	ListByExamID(examID string) ([]model.Question, error)
}

type SubmissionService struct {
	SubmissionRepo SubmissionStore
	ExamRepo       ExamFinder
	QuestionRepo   QuestionLister
	Redis          *redis.Client
}

func NewSubmissionService(
	submissionRepo SubmissionStore,
	examRepo ExamFinder,
	questionRepo QuestionLister,
	rdb *redis.Client,
) *SubmissionService {
	return &SubmissionService{
		SubmissionRepo: submissionRepo,
		ExamRepo:       examRepo,
		QuestionRepo:   questionRepo,
		Redis:          rdb,
	}
}

// AnswerSubmission 学生对单题的作答。StudentAnswer 是所选选项的行ID字符串，
// 空串表示未作答。
type AnswerSubmission struct {
	QuestionID    uint   `json:"questionId" binding:"required"`
	StudentAnswer string `json:"studentAnswer"`
	TimeSpent     int    `json:"timeSpent"`
}

type SubmitExamRequest struct {
	ExamID         string             `json:"examId" binding:"required"`
	Answers        []AnswerSubmission `json:"answers" binding:"required"`
	TotalTimeSpent int                `json:"totalTimeSpent"`
	Status         string             `json:"status" binding:"omitempty,oneof=completed timeout terminated"`
}

// SubmitExamResponse 创建提交后返回的精简视图，不回显逐题明细
type SubmitExamResponse struct {
	ID               uint      `json:"id"`
	ExamID           string    `json:"examId"`
	TotalScore       int       `json:"totalScore"`
	Percentage       int       `json:"percentage"`
	CorrectAnswers   int       `json:"correctAnswers"`
	IncorrectAnswers int       `json:"incorrectAnswers"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

type gradeResult struct {
	answers    []model.SubmissionAnswer
	correct    int
	incorrect  int
	unanswered int
}

// gradeAnswers 纯判分逻辑：按题目ID建索引，逐条作答解析。
// 引用了题库中不存在题目ID的作答直接忽略（沿用既有行为）；
// 正确性按选项ID比对，展示文本只用于存储。
// 每条作答恰好落入 未作答/正确/错误 三类之一。
func gradeAnswers(answers []AnswerSubmission, questions []model.Question) gradeResult {
	questionMap := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		questionMap[questions[i].ID] = &questions[i]
	}

	var res gradeResult
	for _, ans := range answers {
		question, ok := questionMap[ans.QuestionID]
		if !ok {
			continue
		}

		correctOption := question.CorrectOption()
		var selectedOption *model.QuestionOption
		for i := range question.Options {
			if strconv.FormatUint(uint64(question.Options[i].ID), 10) == ans.StudentAnswer {
				selectedOption = &question.Options[i]
				break
			}
		}

		correctText := ""
		if correctOption != nil {
			correctText = correctOption.OptionText
		}
		selectedText := ""
		if selectedOption != nil {
			selectedText = selectedOption.OptionText
		}

		isCorrect := correctOption != nil &&
			ans.StudentAnswer == strconv.FormatUint(uint64(correctOption.ID), 10)

		switch {
		case ans.StudentAnswer == "":
			res.unanswered++
		case isCorrect:
			res.correct++
		default:
			res.incorrect++
		}

		res.answers = append(res.answers, model.SubmissionAnswer{
			QuestionID:    question.ID,
			StudentAnswer: selectedText,
			CorrectAnswer: correctText,
			IsCorrect:     isCorrect,
			TimeSpent:     ans.TimeSpent,
		})
	}
	return res
}

func percentageOf(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

func (s *SubmissionService) SubmitExam(studentID uint, req SubmitExamRequest) (*SubmitExamResponse, error) {
	exists, err := s.SubmissionRepo.Exists(studentID, req.ExamID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrExamAlreadySubmitted
	}

	if _, err := s.ExamRepo.FindByExamID(req.ExamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	questions, err := s.QuestionRepo.ListByExamID(req.ExamID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, util.ErrNoQuestions
	}

	graded := gradeAnswers(req.Answers, questions)

	status := model.SubmissionStatus(req.Status)
	if status == "" {
		status = model.StatusCompleted
	}

	totalQuestions := len(questions)
	submission := &model.Submission{
		StudentID:           studentID,
		ExamID:              req.ExamID,
		Answers:             graded.answers,
		TotalQuestions:      totalQuestions,
		CorrectAnswers:      graded.correct,
		IncorrectAnswers:    graded.incorrect,
		UnansweredQuestions: graded.unanswered,
		TotalScore:          graded.correct,
		Percentage:          percentageOf(graded.correct, totalQuestions),
		TotalTimeSpent:      req.TotalTimeSpent,
		SubmittedAt:         time.Now(),
		Status:              status,
	}

	if err := s.SubmissionRepo.Create(submission); err != nil {
		// 先查后写的竞态由联合唯一索引兜底，统一映射为重复提交
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, util.ErrExamAlreadySubmitted
		}
		return nil, err
	}

	monitoring.SubmissionsGraded.WithLabelValues(string(status)).Inc()
	s.invalidateAnalyticsCache(req.ExamID)

	return &SubmitExamResponse{
		ID:               submission.ID,
		ExamID:           submission.ExamID,
		TotalScore:       submission.TotalScore,
		Percentage:       submission.Percentage,
		CorrectAnswers:   submission.CorrectAnswers,
		IncorrectAnswers: submission.IncorrectAnswers,
		SubmittedAt:      submission.SubmittedAt,
	}, nil
}

// 新提交到达后分析缓存立即失效
func (s *SubmissionService) invalidateAnalyticsCache(examID string) {
	if s.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Del(ctx, analyticsCacheKey(examID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate analytics cache",
			zap.String("examId", examID), zap.Error(err))
	}
}

// StudentResult 学生端结果视图：提交明细+考试元信息
type StudentResult struct {
	Submission *model.Submission `json:"submission"`
	Exam       *model.Exam       `json:"exam"`
}

func (s *SubmissionService) GetStudentResult(studentID uint, examID string) (*StudentResult, error) {
	submission, err := s.SubmissionRepo.FindByStudentAndExam(studentID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}

	exam, err := s.ExamRepo.FindByExamID(examID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &StudentResult{Submission: submission, Exam: exam}, nil
}

func (s *SubmissionService) GetAllStudentResults(studentID uint) ([]StudentResult, error) {
	submissions, err := s.SubmissionRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}

	results := make([]StudentResult, 0, len(submissions))
	for i := range submissions {
		exam, err := s.ExamRepo.FindByExamID(submissions[i].ExamID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		results = append(results, StudentResult{
			Submission: &submissions[i],
			Exam:       exam,
		})
	}
	return results, nil
}

// ExamSubmissions 教师端某考试的全部提交
type ExamSubmissions struct {
	Exam        *model.Exam        `json:"exam"`
	Submissions []model.Submission `json:"submissions"`
}

func (s *SubmissionService) GetExamSubmissions(examID string) (*ExamSubmissions, error) {
	exam, err := s.ExamRepo.FindByExamID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	submissions, err := s.SubmissionRepo.ListByExam(examID)
	if err != nil {
		return nil, err
	}

	return &ExamSubmissions{Exam: exam, Submissions: submissions}, nil
}

package service

import (
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	ExamRepo     *repository.ExamRepository
}

func NewQuestionService(questionRepo *repository.QuestionRepository, examRepo *repository.ExamRepository) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		ExamRepo:     examRepo,
	}
}

type QuestionOptionRequest struct {
	OptionText string `json:"optionText" binding:"required"`
	IsCorrect  bool   `json:"isCorrect"`
}

type CreateQuestionRequest struct {
	ExamID   string                  `json:"examId" binding:"required"`
	Question string                  `json:"question" binding:"required"`
	Options  []QuestionOptionRequest `json:"options" binding:"required"`
}

// CreateQuestion 创建单选题。恰好一个正确选项在这里强校验，
// 多正确选项不再留给判分阶段做隐式取舍。
func (s *QuestionService) CreateQuestion(req CreateQuestionRequest) (*model.Question, error) {
	if _, err := s.ExamRepo.FindByExamID(req.ExamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	if len(req.Options) < 2 {
		return nil, util.ErrTooFewOptions
	}

	correctCount := 0
	for _, opt := range req.Options {
		if opt.IsCorrect {
			correctCount++
		}
	}
	if correctCount != 1 {
		return nil, util.ErrNoCorrectOption
	}

	options := make([]model.QuestionOption, len(req.Options))
	for i, opt := range req.Options {
		options[i] = model.QuestionOption{
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
		}
	}

	question := &model.Question{
		ExamID:   req.ExamID,
		Question: req.Question,
		Options:  options,
	}
	if err := s.QuestionRepo.Create(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) ListQuestions(examID string) ([]model.Question, error) {
	return s.QuestionRepo.ListByExamID(examID)
}

// DeleteQuestion 连同选项一并删除
func (s *QuestionService) DeleteQuestion(questionID uint) error {
	if _, err := s.QuestionRepo.FindByID(questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuestionNotFound
		}
		return err
	}
	return s.QuestionRepo.Delete(questionID)
}

// StudentQuestionOption 学生视图里不带 isCorrect 标记
type StudentQuestionOption struct {
	ID         uint   `json:"id"`
	OptionText string `json:"optionText"`
}

type StudentQuestion struct {
	ID       uint                    `json:"id"`
	ExamID   string                  `json:"examId"`
	Question string                  `json:"question"`
	Options  []StudentQuestionOption `json:"options"`
}

// ListQuestionsForStudent 考试开放窗口内才下发题目，且剥离正确答案标记
func (s *QuestionService) ListQuestionsForStudent(examID string) ([]StudentQuestion, error) {
	exam, err := s.ExamRepo.FindByExamID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	if !exam.IsOpen(time.Now()) {
		return nil, util.ErrExamNotOpen
	}

	questions, err := s.QuestionRepo.ListByExamID(examID)
	if err != nil {
		return nil, err
	}

	result := make([]StudentQuestion, len(questions))
	for i := range questions {
		options := make([]StudentQuestionOption, len(questions[i].Options))
		for j, opt := range questions[i].Options {
			options[j] = StudentQuestionOption{
				ID:         opt.ID,
				OptionText: opt.OptionText,
			}
		}
		result[i] = StudentQuestion{
			ID:       questions[i].ID,
			ExamID:   questions[i].ExamID,
			Question: questions[i].Question,
			Options:  options,
		}
	}
	return result, nil
}

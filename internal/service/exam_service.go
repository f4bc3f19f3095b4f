package service

import (
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type ExamService struct {
	ExamRepo *repository.ExamRepository
}

func NewExamService(examRepo *repository.ExamRepository) *ExamService {
	return &ExamService{ExamRepo: examRepo}
}

type CreateExamRequest struct {
	ExamName       string    `json:"examName" binding:"required"`
	TotalQuestions int       `json:"totalQuestions" binding:"required,min=1"`
	Duration       int       `json:"duration" binding:"required,min=1"` // Minutes
	LiveDate       time.Time `json:"liveDate" binding:"required"`
	DeadDate       time.Time `json:"deadDate" binding:"required"`
}

func (s *ExamService) CreateExam(creatorID uint, req CreateExamRequest) (*model.Exam, error) {
	// 开放窗口必须有效
	if !req.LiveDate.Before(req.DeadDate) {
		return nil, util.ErrInvalidExamWindow
	}

	exam := &model.Exam{
		ExamName:       req.ExamName,
		TotalQuestions: req.TotalQuestions,
		Duration:       req.Duration,
		LiveDate:       req.LiveDate,
		DeadDate:       req.DeadDate,
		CreatedBy:      creatorID,
	}
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) ListExams() ([]model.Exam, error) {
	return s.ExamRepo.ListAll()
}

func (s *ExamService) GetExam(examID string) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByExamID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

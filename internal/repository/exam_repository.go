package repository

import (
	"exam_guardian_backend/internal/model"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) Create(exam *model.Exam) error {
	return r.DB.Create(exam).Error
}

func (r *ExamRepository) FindByExamID(examID string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("exam_id = ?", examID).First(&exam).Error
	return &exam, err
}

// FindByExamIDAndCreator 按创建者过滤，教师只能访问自己创建的考试
func (r *ExamRepository) FindByExamIDAndCreator(examID string, creatorID uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("exam_id = ? AND created_by = ?", examID, creatorID).First(&exam).Error
	return &exam, err
}

func (r *ExamRepository) ListAll() ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Order("created_at desc").Find(&exams).Error
	return exams, err
}

func (r *ExamRepository) ListByCreator(creatorID uint) ([]model.Exam, error) {
	var exams []model.Exam
	err := r.DB.Where("created_by = ?", creatorID).Order("created_at desc").Find(&exams).Error
	return exams, err
}

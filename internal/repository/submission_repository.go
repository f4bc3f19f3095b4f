package repository

import (
	"errors"
	"exam_guardian_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

// ErrDuplicateSubmission 由 idx_student_exam 联合唯一索引触发，
// 并发下先查后写的竞态最终落到这里。
var ErrDuplicateSubmission = errors.New("duplicate submission")

func (r *SubmissionRepository) Create(submission *model.Submission) error {
	err := r.DB.Create(submission).Error
	if err != nil && isDuplicateKeyError(err) {
		return ErrDuplicateSubmission
	}
	return err
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL error 1062
	return strings.Contains(err.Error(), "Duplicate entry")
}

func (r *SubmissionRepository) Exists(studentID uint, examID string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	return count > 0, err
}

func (r *SubmissionRepository) FindByStudentAndExam(studentID uint, examID string) (*model.Submission, error) {
	var s model.Submission
	err := r.DB.Preload("Student").
		Preload("Answers").
		Preload("Answers.Question").
		Preload("Answers.Question.Options").
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&s).Error
	return &s, err
}

func (r *SubmissionRepository) ListByStudent(studentID uint) ([]model.Submission, error) {
	var ss []model.Submission
	err := r.DB.Preload("Student").
		Where("student_id = ?", studentID).
		Order("submitted_at desc").
		Find(&ss).Error
	return ss, err
}

func (r *SubmissionRepository) ListByExam(examID string) ([]model.Submission, error) {
	var ss []model.Submission
	err := r.DB.Preload("Student").
		Where("exam_id = ?", examID).
		Order("submitted_at desc").
		Find(&ss).Error
	return ss, err
}

// ListByExamWithAnswers 分析聚合用，带上每条答案
func (r *SubmissionRepository) ListByExamWithAnswers(examID string) ([]model.Submission, error) {
	var ss []model.Submission
	err := r.DB.Preload("Student").
		Preload("Answers").
		Where("exam_id = ?", examID).
		Order("submitted_at desc").
		Find(&ss).Error
	return ss, err
}

package repository

import (
	"exam_guardian_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

// Create 题目连同选项一起写入（GORM关联插入）
func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Options").First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) ListByExamID(examID string) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Preload("Options").Where("exam_id = ?", examID).Order("created_at asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.QuestionOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

package repository

import (
	"exam_guardian_backend/internal/model"

	"gorm.io/gorm"
)

type CheatingLogRepository struct {
	DB *gorm.DB
}

func NewCheatingLogRepository(db *gorm.DB) *CheatingLogRepository {
	return &CheatingLogRepository{DB: db}
}

func (r *CheatingLogRepository) Create(log *model.CheatingLog) error {
	return r.DB.Create(log).Error
}

func (r *CheatingLogRepository) FindByUserAndExam(userID uint, examID string) (*model.CheatingLog, error) {
	var l model.CheatingLog
	err := r.DB.Where("user_id = ? AND exam_id = ?", userID, examID).First(&l).Error
	return &l, err
}

func (r *CheatingLogRepository) Update(log *model.CheatingLog) error {
	return r.DB.Save(log).Error
}

func (r *CheatingLogRepository) ListByExam(examID string) ([]model.CheatingLog, error) {
	var logs []model.CheatingLog
	err := r.DB.Where("exam_id = ?", examID).Order("created_at desc").Find(&logs).Error
	return logs, err
}

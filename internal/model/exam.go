package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Exam 一场考试。ExamID 是对外暴露的业务主键，题目和提交都通过它关联。
// swagger:model Exam
type Exam struct {
	BaseModel
	ExamID         string    `gorm:"size:36;uniqueIndex;not null" json:"examId"`
	ExamName       string    `gorm:"size:255;not null" json:"examName"`
	TotalQuestions int       `gorm:"not null" json:"totalQuestions"`
	Duration       int       `gorm:"not null" json:"duration"` // Minutes
	LiveDate       time.Time `gorm:"not null" json:"liveDate"`
	DeadDate       time.Time `gorm:"not null" json:"deadDate"`
	CreatedBy      uint      `gorm:"index;type:bigint unsigned;not null" json:"createdBy"`
	Creator        *User     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ExamID == "" {
		e.ExamID = uuid.New().String()
	}
	return
}

// IsOpen 判断考试当前是否在开放窗口内
func (e *Exam) IsOpen(now time.Time) bool {
	return !now.Before(e.LiveDate) && now.Before(e.DeadDate)
}

package model

import "time"

type SubmissionStatus string

const (
	StatusCompleted  SubmissionStatus = "completed"
	StatusTimeout    SubmissionStatus = "timeout"
	StatusTerminated SubmissionStatus = "terminated"
)

// Submission 一名学生对一场考试的判分结果，创建后不再修改。
// (student_id, exam_id) 上建联合唯一索引，并发重复提交由数据库兜底。
// swagger:model Submission
type Submission struct {
	BaseModel
	StudentID           uint               `gorm:"uniqueIndex:idx_student_exam;type:bigint unsigned;not null" json:"studentId"`
	Student             *User              `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	ExamID              string             `gorm:"size:36;uniqueIndex:idx_student_exam;index;not null" json:"examId"`
	Answers             []SubmissionAnswer `gorm:"foreignKey:SubmissionID" json:"answers,omitempty"`
	TotalQuestions      int                `gorm:"not null" json:"totalQuestions"`
	CorrectAnswers      int                `gorm:"not null" json:"correctAnswers"`
	IncorrectAnswers    int                `gorm:"not null" json:"incorrectAnswers"`
	UnansweredQuestions int                `gorm:"default:0" json:"unansweredQuestions"`
	TotalScore          int                `gorm:"not null" json:"totalScore"`
	Percentage          int                `gorm:"not null" json:"percentage"`
	TotalTimeSpent      int                `gorm:"not null" json:"totalTimeSpent"` // Seconds
	SubmittedAt         time.Time          `json:"submittedAt"`
	Status              SubmissionStatus   `gorm:"size:20;default:'completed'" json:"status"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SubmissionAnswer 提交内的单题判分记录。
// 学生答案和正确答案存展示文本，便于前端直接渲染。
// swagger:model SubmissionAnswer
type SubmissionAnswer struct {
	BaseModel
	SubmissionID  uint      `gorm:"index;type:bigint unsigned;not null" json:"submissionId"`
	QuestionID    uint      `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	Question      *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	StudentAnswer string    `gorm:"size:500" json:"studentAnswer"`
	CorrectAnswer string    `gorm:"size:500" json:"correctAnswer"`
	IsCorrect     bool      `gorm:"not null" json:"isCorrect"`
	TimeSpent     int       `gorm:"default:0" json:"timeSpent"` // Seconds
}

func (SubmissionAnswer) TableName() string {
	return "submission_answers"
}

package model

// Question 单选题，归属于一场考试。选项单独建表，
// 学生提交时用选项行ID作答，判分按ID比对而不是按文本。
// swagger:model Question
type Question struct {
	BaseModel
	ExamID   string           `gorm:"size:36;index;not null" json:"examId"`
	Question string           `gorm:"type:text;not null" json:"question"`
	Options  []QuestionOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model QuestionOption
type QuestionOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	OptionText string `gorm:"size:500;not null" json:"optionText"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// CorrectOption 返回第一个标记为正确的选项。
// 创建时已校验恰好一个正确选项，这里保留按序取第一个的兜底策略。
func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

package model

// CheatingLog 监考端上报的违规计数，按学生+考试一条记录。
// 计数由前端检测算法产生，后端只存储和展示。
// swagger:model CheatingLog
type CheatingLog struct {
	BaseModel
	ExamID                string `gorm:"size:36;index;not null" json:"examId"`
	UserID                uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Name                  string `gorm:"size:100" json:"username"`
	Email                 string `gorm:"size:100" json:"email"`
	NoFaceCount           int    `gorm:"default:0" json:"noFaceCount"`
	MultipleFaceCount     int    `gorm:"default:0" json:"multipleFaceCount"`
	CellPhoneCount        int    `gorm:"default:0" json:"cellPhoneCount"`
	ProhibitedObjectCount int    `gorm:"default:0" json:"prohibitedObjectCount"`
	ScreenshotURL         string `gorm:"size:500" json:"screenshotUrl,omitempty"`
}

func (CheatingLog) TableName() string {
	return "cheating_logs"
}

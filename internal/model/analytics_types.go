package model

import "time"

// 考试分析的聚合视图类型，不落库，由 AnalyticsService 计算后直接返回。

// ScoreDistribution 固定分段的成绩分布：
// excellent [90,100]、good [70,90)、average [50,70)、poor [0,50)。
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Average   int `json:"average"`
	Poor      int `json:"poor"`
}

type OverallStats struct {
	TotalSubmissions  int               `json:"totalSubmissions"`
	AverageScore      int               `json:"averageScore"`
	ScoreDistribution ScoreDistribution `json:"scoreDistribution"`
}

// QuestionStats 单题跨所有提交的统计
type QuestionStats struct {
	TotalAttempts    int            `json:"totalAttempts"`
	CorrectAttempts  int            `json:"correctAttempts"`
	Accuracy         int            `json:"accuracy"`
	AverageTimeSpent int            `json:"averageTimeSpent"` // Seconds
	// 按展示文本统计的作答直方图，空选择计入 "Unanswered"
	AnswerDistribution map[string]int `json:"answerDistribution"`
}

type QuestionAnalytics struct {
	QuestionID uint             `json:"questionId"`
	Question   string           `json:"question"`
	Options    []QuestionOption `json:"options"`
	Stats      QuestionStats    `json:"stats"`
}

type StudentPerformance struct {
	StudentName    string    `json:"studentName"`
	StudentEmail   string    `json:"studentEmail"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalTimeSpent int       `json:"totalTimeSpent"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// AIInsights 外部大模型返回的四段式教学洞察。
// 无论成功或降级，四个字段都保证是非空字符串。
type AIInsights struct {
	PerformanceAssessment   string `json:"performance_assessment"`
	StrugglingTopics        string `json:"struggling_topics"`
	Misconceptions          string `json:"misconceptions"`
	TeachingRecommendations string `json:"teaching_recommendations"`
}

// ExamAnalytics 教师端考试分析报告的完整载荷
type ExamAnalytics struct {
	Exam               *Exam                `json:"exam"`
	OverallStats       OverallStats         `json:"overallStats"`
	QuestionAnalytics  []QuestionAnalytics  `json:"questionAnalytics"`
	StudentPerformance []StudentPerformance `json:"studentPerformance"`
	AIInsights         AIInsights           `json:"aiInsights"`
}

// ExamOverviewStats 教师考试总览里的简要统计
type ExamOverviewStats struct {
	TotalSubmissions int `json:"totalSubmissions"`
	AverageScore     int `json:"averageScore"`
	HighestScore     int `json:"highestScore"`
	LowestScore      int `json:"lowestScore"`
}

type ExamOverview struct {
	Exam
	Stats ExamOverviewStats `json:"stats"`
}

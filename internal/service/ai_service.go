package service

import (
	"bytes"
	"context"
	"encoding/json"
	"exam_guardian_backend/internal/config"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/pkg/monitoring"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// 准确率低于该阈值的题目视为困难题送入提示词
	strugglingAccuracyThreshold = 70
	maxStrugglingQuestions      = 5
	maxQuestionTextLen          = 100
	maxTopAnswers               = 3
)

// AIService 的配置可被监听协程热更新，读写都要经过锁。
// 在途请求继续使用换出前的client，Timeout不原地修改。
type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Reload 配置热更新入口，配合配置文件监听使用。整体换掉client
func (s *AIService) Reload(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
}

// snapshot 取当前配置和client的一致快照
func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []AIChatMessage `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// fallbackInsights 降级载荷。四个字段永远有值，报告结构对前端恒定。
func fallbackInsights() model.AIInsights {
	return model.AIInsights{
		PerformanceAssessment:   "AI insights temporarily unavailable. Please review the statistics above for an overview of class performance.",
		StrugglingTopics:        "AI insights temporarily unavailable. Questions with the lowest accuracy are listed first in the question analytics.",
		Misconceptions:          "AI insights temporarily unavailable. The answer distribution per question may point to common wrong choices.",
		TeachingRecommendations: "AI insights temporarily unavailable. Consider revisiting the questions with accuracy below 70%.",
	}
}

// GenerateExamInsights 基于聚合统计调用外部大模型生成教学洞察。
// 单次调用、不重试；任何一步失败（校验、网络、非JSON回复、字段缺失）
// 都返回固定降级载荷，绝不把错误抛给上层的分析聚合。
// 返回的error仅用于日志记录。
func (s *AIService) GenerateExamInsights(
	ctx context.Context,
	questionStats []model.QuestionAnalytics,
	examName string,
	totalQuestions int,
	overall model.OverallStats,
) (model.AIInsights, error) {
	if err := validateInsightInput(questionStats); err != nil {
		monitoring.AIInsightFallbacks.Inc()
		return fallbackInsights(), err
	}

	prompt := buildInsightPrompt(questionStats, examName, totalQuestions, overall)

	raw, err := s.chatJSON(ctx, prompt)
	if err != nil {
		monitoring.AIInsightFallbacks.Inc()
		return fallbackInsights(), err
	}

	insights, err := parseInsightReply(raw)
	if err != nil {
		monitoring.AIInsightFallbacks.Inc()
		return fallbackInsights(), err
	}
	return insights, nil
}

func validateInsightInput(questionStats []model.QuestionAnalytics) error {
	if len(questionStats) == 0 {
		return fmt.Errorf("no question statistics to analyze")
	}
	for i := range questionStats {
		if questionStats[i].Question == "" {
			return fmt.Errorf("question %d has no text", questionStats[i].QuestionID)
		}
		if questionStats[i].Stats.AnswerDistribution == nil {
			return fmt.Errorf("question %d has no answer distribution", questionStats[i].QuestionID)
		}
	}
	return nil
}

// buildInsightPrompt 选出至多5道准确率低于阈值的题目，
// 题干截断到100字符，附上按选择人数降序的前3个作答。
func buildInsightPrompt(
	questionStats []model.QuestionAnalytics,
	examName string,
	totalQuestions int,
	overall model.OverallStats,
) string {
	var struggling []string
	for i := range questionStats {
		if len(struggling) >= maxStrugglingQuestions {
			break
		}
		q := &questionStats[i]
		if q.Stats.Accuracy >= strugglingAccuracyThreshold {
			continue
		}

		text := q.Question
		// 按字符截断，题干可能含多字节字符
		if runes := []rune(text); len(runes) > maxQuestionTextLen {
			text = string(runes[:maxQuestionTextLen]) + "..."
		}

		type answerCount struct {
			text  string
			count int
		}
		counts := make([]answerCount, 0, len(q.Stats.AnswerDistribution))
		for answer, count := range q.Stats.AnswerDistribution {
			counts = append(counts, answerCount{answer, count})
		}
		sort.SliceStable(counts, func(a, b int) bool {
			return counts[a].count > counts[b].count
		})
		if len(counts) > maxTopAnswers {
			counts = counts[:maxTopAnswers]
		}

		answers := make([]string, 0, len(counts))
		for _, c := range counts {
			answers = append(answers, fmt.Sprintf("%q x%d", c.text, c.count))
		}

		struggling = append(struggling, fmt.Sprintf(
			"- %s (accuracy %d%%, top answers: %s)",
			text, q.Stats.Accuracy, strings.Join(answers, ", ")))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced teaching assistant analyzing exam results.\n\n")
	fmt.Fprintf(&b, "Exam: %s\n", examName)
	fmt.Fprintf(&b, "Questions: %d, Submissions: %d, Class average: %d%%\n\n",
		totalQuestions, overall.TotalSubmissions, overall.AverageScore)
	if len(struggling) > 0 {
		fmt.Fprintf(&b, "Questions students struggled with:\n%s\n\n", strings.Join(struggling, "\n"))
	} else {
		fmt.Fprintf(&b, "No question fell below the %d%% accuracy threshold.\n\n", strugglingAccuracyThreshold)
	}
	b.WriteString("Respond with ONLY a JSON object, no other text, with exactly these four string fields, each at most 100 words:\n")
	b.WriteString(`{"performance_assessment": "...", "struggling_topics": "...", "misconceptions": "...", "teaching_recommendations": "..."}`)
	return b.String()
}

func (s *AIService) chatJSON(ctx context.Context, prompt string) (string, error) {
	cfg, client := s.snapshot()

	reqBody := chatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: "You are a teaching analytics assistant. Always answer with a single JSON object."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}

// parseInsightReply 从回复中截取首个大括号包裹的JSON子串再解析，
// 防御模型在JSON前后输出多余文本。
func parseInsightReply(raw string) (model.AIInsights, error) {
	var insights model.AIInsights

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return insights, fmt.Errorf("no JSON object in AI reply")
	}

	if err := json.Unmarshal([]byte(raw[start:end+1]), &insights); err != nil {
		return insights, fmt.Errorf("malformed AI reply: %w", err)
	}

	if insights.PerformanceAssessment == "" ||
		insights.StrugglingTopics == "" ||
		insights.Misconceptions == "" ||
		insights.TeachingRecommendations == "" {
		return insights, fmt.Errorf("AI reply missing required fields")
	}
	return insights, nil
}

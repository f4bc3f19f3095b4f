package service

import (
	"context"
	"encoding/json"
	"exam_guardian_backend/internal/config"
	"exam_guardian_backend/internal/model"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

func insightQA(id uint, text string, accuracy int, distribution map[string]int) model.QuestionAnalytics {
	if distribution == nil {
		distribution = map[string]int{}
	}
	return model.QuestionAnalytics{
		QuestionID: id,
		Question:   text,
		Stats: model.QuestionStats{
			Accuracy:           accuracy,
			AnswerDistribution: distribution,
		},
	}
}

func chatReply(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func newTestAIService(baseURL string) *AIService {
	return NewAIService(config.AIConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "test-model",
		TimeoutSeconds: 5,
	})
}

func validInsightJSON() string {
	return `{
		"performance_assessment": "Class performed well overall.",
		"struggling_topics": "Recursion and pointers.",
		"misconceptions": "Confusing pass-by-value with pass-by-reference.",
		"teaching_recommendations": "Review memory diagrams in class."
	}`
}

func TestGenerateExamInsightsSuccess(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, chatReply(validInsightJSON()))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 40, map[string]int{"A": 3})}

	insights, err := svc.GenerateExamInsights(context.Background(), stats, "Midterm", 10, model.OverallStats{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("request path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if insights.StrugglingTopics != "Recursion and pointers." {
		t.Errorf("StrugglingTopics = %q", insights.StrugglingTopics)
	}
}

func TestGenerateExamInsightsFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 40, nil)}

	insights, err := svc.GenerateExamInsights(context.Background(), stats, "Midterm", 10, model.OverallStats{})
	if err == nil {
		t.Fatal("want error for logging, got nil")
	}
	assertFallbackShape(t, insights)
}

func TestGenerateExamInsightsFallbackOnNonJSONReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply("I cannot answer that."))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 40, nil)}

	insights, err := svc.GenerateExamInsights(context.Background(), stats, "Midterm", 10, model.OverallStats{})
	if err == nil {
		t.Fatal("want error for logging, got nil")
	}
	assertFallbackShape(t, insights)
}

func TestGenerateExamInsightsFallbackOnMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply(`{"performance_assessment": "ok"}`))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 40, nil)}

	insights, err := svc.GenerateExamInsights(context.Background(), stats, "Midterm", 10, model.OverallStats{})
	if err == nil {
		t.Fatal("want error for logging, got nil")
	}
	assertFallbackShape(t, insights)
}

func TestGenerateExamInsightsFallbackOnEmptyInput(t *testing.T) {
	// 输入校验失败时根本不应发起请求
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected HTTP call for empty input")
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	insights, err := svc.GenerateExamInsights(context.Background(), nil, "Midterm", 10, model.OverallStats{})
	if err == nil {
		t.Fatal("want error for logging, got nil")
	}
	assertFallbackShape(t, insights)
}

// 无论哪条降级路径，四个字段都必须非空
func assertFallbackShape(t *testing.T, insights model.AIInsights) {
	t.Helper()
	if insights.PerformanceAssessment == "" ||
		insights.StrugglingTopics == "" ||
		insights.Misconceptions == "" ||
		insights.TeachingRecommendations == "" {
		t.Errorf("fallback insights have empty fields: %+v", insights)
	}
}

// 配置热更新和在途请求并发执行必须安全（go test -race 验证）
func TestGenerateExamInsightsDuringReload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatReply(validInsightJSON()))
	}))
	defer srv.Close()

	svc := newTestAIService(srv.URL)
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 40, map[string]int{"A": 3})}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				svc.Reload(config.AIConfig{
					BaseURL:        srv.URL,
					APIKey:         "rotated-key",
					Model:          "test-model",
					TimeoutSeconds: 5,
				})
			}
		}
	}()

	for i := 0; i < 20; i++ {
		if _, err := svc.GenerateExamInsights(context.Background(), stats, "Midterm", 10, model.OverallStats{}); err != nil {
			t.Errorf("unexpected error during reload: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}

func TestValidateInsightInput(t *testing.T) {
	if err := validateInsightInput(nil); err == nil {
		t.Error("empty input should fail validation")
	}
	if err := validateInsightInput([]model.QuestionAnalytics{insightQA(1, "", 50, nil)}); err == nil {
		t.Error("missing question text should fail validation")
	}
	noDist := model.QuestionAnalytics{QuestionID: 1, Question: "Q1"}
	if err := validateInsightInput([]model.QuestionAnalytics{noDist}); err == nil {
		t.Error("nil distribution should fail validation")
	}
	if err := validateInsightInput([]model.QuestionAnalytics{insightQA(1, "Q1", 50, nil)}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestBuildInsightPromptSelectsStrugglingQuestions(t *testing.T) {
	stats := []model.QuestionAnalytics{
		insightQA(1, "Easy question", 95, map[string]int{"A": 10}),
		insightQA(2, "Hard question", 30, map[string]int{"Wrong": 7, "Right": 3}),
	}

	prompt := buildInsightPrompt(stats, "Final", 2, model.OverallStats{TotalSubmissions: 10, AverageScore: 62})
	if !strings.Contains(prompt, "Hard question") {
		t.Error("prompt misses the struggling question")
	}
	if strings.Contains(prompt, "Easy question") {
		t.Error("prompt should not include questions at or above the threshold")
	}
	if !strings.Contains(prompt, "Exam: Final") {
		t.Error("prompt misses the exam name")
	}
	if !strings.Contains(prompt, `"Wrong" x7`) {
		t.Errorf("prompt misses the answer histogram: %s", prompt)
	}
}

func TestBuildInsightPromptCapsQuestionCount(t *testing.T) {
	var stats []model.QuestionAnalytics
	for i := 1; i <= 8; i++ {
		stats = append(stats, insightQA(uint(i), fmt.Sprintf("Question number %d", i), 10, map[string]int{"A": 1}))
	}

	prompt := buildInsightPrompt(stats, "Final", 8, model.OverallStats{})
	if got := strings.Count(prompt, "- Question number"); got != maxStrugglingQuestions {
		t.Errorf("prompt lists %d questions, want %d", got, maxStrugglingQuestions)
	}
}

func TestBuildInsightPromptTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", 150)
	stats := []model.QuestionAnalytics{insightQA(1, long, 10, map[string]int{"A": 1})}

	prompt := buildInsightPrompt(stats, "Final", 1, model.OverallStats{})
	want := strings.Repeat("x", maxQuestionTextLen) + "..."
	if !strings.Contains(prompt, want) {
		t.Error("long question text not truncated")
	}
	if strings.Contains(prompt, long) {
		t.Error("full question text leaked into prompt")
	}
}

// 截断按字符计，不能把多字节字符切成半个
func TestBuildInsightPromptTruncatesByRunes(t *testing.T) {
	long := strings.Repeat("题", 150)
	stats := []model.QuestionAnalytics{insightQA(1, long, 10, map[string]int{"A": 1})}

	prompt := buildInsightPrompt(stats, "Final", 1, model.OverallStats{})
	want := strings.Repeat("题", maxQuestionTextLen) + "..."
	if !strings.Contains(prompt, want) {
		t.Error("multi-byte question text not truncated at a rune boundary")
	}
	if !utf8.ValidString(prompt) {
		t.Error("prompt contains invalid UTF-8")
	}
}

func TestBuildInsightPromptTopAnswers(t *testing.T) {
	stats := []model.QuestionAnalytics{
		insightQA(1, "Q1", 10, map[string]int{"A": 1, "B": 5, "C": 3, "D": 2}),
	}

	prompt := buildInsightPrompt(stats, "Final", 1, model.OverallStats{})
	if !strings.Contains(prompt, `"B" x5`) || !strings.Contains(prompt, `"C" x3`) || !strings.Contains(prompt, `"D" x2`) {
		t.Errorf("top answers missing from prompt: %s", prompt)
	}
	if strings.Contains(prompt, `"A" x1`) {
		t.Error("prompt should keep only the top answers")
	}
	if strings.Index(prompt, `"B" x5`) > strings.Index(prompt, `"C" x3`) {
		t.Error("top answers not in descending order")
	}
}

func TestBuildInsightPromptNoStrugglingQuestions(t *testing.T) {
	stats := []model.QuestionAnalytics{insightQA(1, "Q1", 90, map[string]int{"A": 9})}

	prompt := buildInsightPrompt(stats, "Final", 1, model.OverallStats{})
	if !strings.Contains(prompt, "No question fell below") {
		t.Error("prompt misses the all-clear note")
	}
}

func TestParseInsightReply(t *testing.T) {
	insights, err := parseInsightReply("Sure, here you go: " + validInsightJSON() + " Hope that helps!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if insights.Misconceptions == "" {
		t.Error("Misconceptions not parsed")
	}
}

func TestParseInsightReplyErrors(t *testing.T) {
	if _, err := parseInsightReply("no braces at all"); err == nil {
		t.Error("want error for reply without JSON")
	}
	if _, err := parseInsightReply("{not valid json}"); err == nil {
		t.Error("want error for malformed JSON")
	}
	if _, err := parseInsightReply(`{"performance_assessment": "only one field"}`); err == nil {
		t.Error("want error for missing fields")
	}
}

func TestFallbackInsightsShape(t *testing.T) {
	assertFallbackShape(t, fallbackInsights())
}

package controller

import (
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/service"
	"exam_guardian_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 仅教师可创建。至少两个选项且恰好一个正确选项
// @Tags 题目
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateQuestionRequest true "题目信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req service.CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuestionService.CreateQuestion(req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrTooFewOptions), errors.Is(err, util.ErrNoCorrectOption):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目（教师）
// @Tags 题目
// @Produce json
// @Security ApiKeyAuth
// @Param questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{questionId} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("questionId"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuestionService.DeleteQuestion(uint(id)); err != nil {
		if errors.Is(err, util.ErrQuestionNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"message": "question deleted"})
}

// ListQuestions godoc
// @Summary 获取某考试的题目列表
// @Description 教师拿到完整题目；学生在考试开放窗口内拿到去掉正确答案标记的题目
// @Tags 题目
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/questions/{examId} [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	examID := ctx.Param("examId")

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	// 教师和管理员看完整题目
	if claims.Role == model.Teacher || claims.Role == model.Admin {
		questions, err := c.QuestionService.ListQuestions(examID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, questions)
		return
	}

	questions, err := c.QuestionService.ListQuestionsForStudent(examID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrExamNotOpen):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, questions)
}

package controller

import (
	"errors"
	"exam_guardian_backend/internal/service"
	"exam_guardian_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	ExamService *service.ExamService
}

func NewExamController(examService *service.ExamService) *ExamController {
	return &ExamController{ExamService: examService}
}

// ListExams godoc
// @Summary 获取考试列表
// @Tags 考试
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/exams [get]
func (c *ExamController) ListExams(ctx *gin.Context) {
	exams, err := c.ExamService.ListExams()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, exams)
}

// CreateExam godoc
// @Summary 创建考试
// @Description 仅教师可创建。开放时间必须早于截止时间
// @Tags 考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateExamRequest true "考试信息"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/exams [post]
func (c *ExamController) CreateExam(ctx *gin.Context) {
	var req service.CreateExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	exam, err := c.ExamService.CreateExam(claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrInvalidExamWindow) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, exam)
}

// GetExam godoc
// @Summary 获取考试详情
// @Tags 考试
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/exams/{examId} [get]
func (c *ExamController) GetExam(ctx *gin.Context) {
	exam, err := c.ExamService.GetExam(ctx.Param("examId"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, exam)
}

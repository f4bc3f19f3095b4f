package controller

import (
	"errors"
	"exam_guardian_backend/internal/service"
	"exam_guardian_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
	AnalyticsService  *service.AnalyticsService
}

func NewSubmissionController(
	submissionService *service.SubmissionService,
	analyticsService *service.AnalyticsService,
) *SubmissionController {
	return &SubmissionController{
		SubmissionService: submissionService,
		AnalyticsService:  analyticsService,
	}
}

// SubmitExam godoc
// @Summary 提交考试答卷
// @Description 判分并创建提交记录。每名学生每场考试只能提交一次
// @Tags 提交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SubmitExamRequest true "答卷"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "重复提交"
// @Failure 404 {object} util.Response "考试或题目不存在"
// @Router /api/submissions [post]
func (c *SubmissionController) SubmitExam(ctx *gin.Context) {
	var req service.SubmitExamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.SubmitExam(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrExamAlreadySubmitted):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrExamNotFound), errors.Is(err, util.ErrNoQuestions):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"message":    "Exam submitted successfully",
		"submission": result,
	})
}

// GetStudentResult godoc
// @Summary 查询本人某场考试的成绩
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/submissions/{examId} [get]
func (c *SubmissionController) GetStudentResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.SubmissionService.GetStudentResult(claims.UserID, ctx.Param("examId"))
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// GetAllStudentResults godoc
// @Summary 查询本人全部成绩
// @Description 按提交时间倒序
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/submissions/student/all [get]
func (c *SubmissionController) GetAllStudentResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	results, err := c.SubmissionService.GetAllStudentResults(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// GetExamSubmissions godoc
// @Summary 查询某考试的全部提交（教师）
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/submissions/exam/{examId}/all [get]
func (c *SubmissionController) GetExamSubmissions(ctx *gin.Context) {
	result, err := c.SubmissionService.GetExamSubmissions(ctx.Param("examId"))
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// GetTeacherExamsOverview godoc
// @Summary 教师考试总览
// @Description 当前教师创建的全部考试及提交数/平均分/最高分/最低分
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/submissions/teacher/all-exams [get]
func (c *SubmissionController) GetTeacherExamsOverview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overviews, err := c.AnalyticsService.GetTeacherExamsOverview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overviews)
}

// GetExamAnalytics godoc
// @Summary 考试分析报告（教师）
// @Description 班级统计、逐题统计（按准确率升序）、学生名册和AI教学洞察。
// @Description 仅考试创建者可访问；AI失败时洞察字段为占位文本，报告照常返回
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/submissions/exam/{examId}/analytics [get]
func (c *SubmissionController) GetExamAnalytics(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.AnalyticsService.GetExamAnalytics(ctx.Request.Context(), ctx.Param("examId"), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, report)
}

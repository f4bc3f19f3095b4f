package controller

import (
	"errors"
	"exam_guardian_backend/internal/service"
	"exam_guardian_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const maxScreenshotSize = 5 << 20 // 5MB

type CheatingLogController struct {
	CheatingLogService *service.CheatingLogService
	AuthService        *service.AuthService
}

func NewCheatingLogController(
	cheatingLogService *service.CheatingLogService,
	authService *service.AuthService,
) *CheatingLogController {
	return &CheatingLogController{
		CheatingLogService: cheatingLogService,
		AuthService:        authService,
	}
}

// Record godoc
// @Summary 上报监考违规计数
// @Description 前端检测算法产生的计数，按学生+考试累加
// @Tags 监考
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CheatingLogRequest true "违规计数"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/cheating-logs [post]
func (c *CheatingLogController) Record(ctx *gin.Context) {
	var req service.CheatingLogRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	log, err := c.CheatingLogService.Record(user, req)
	if err != nil {
		if errors.Is(err, util.ErrExamNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, log)
}

// ListByExam godoc
// @Summary 查询某考试的违规记录（教师）
// @Tags 监考
// @Produce json
// @Security ApiKeyAuth
// @Param examId path string true "考试ID"
// @Success 200 {object} util.Response
// @Router /api/cheating-logs/{examId} [get]
func (c *CheatingLogController) ListByExam(ctx *gin.Context) {
	logs, err := c.CheatingLogService.ListByExam(ctx.Param("examId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}

// UploadScreenshot godoc
// @Summary 上传监考快照
// @Description multipart上传，存入对象存储并返回URL
// @Tags 监考
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param examId formData string true "考试ID"
// @Param screenshot formData file true "快照图片"
// @Success 201 {object} util.Response
// @Router /api/cheating-logs/screenshot [post]
func (c *CheatingLogController) UploadScreenshot(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	examID := ctx.PostForm("examId")
	if examID == "" {
		util.BadRequest(ctx, "examId is required")
		return
	}

	fileHeader, err := ctx.FormFile("screenshot")
	if err != nil {
		util.BadRequest(ctx, "screenshot file is required")
		return
	}
	if fileHeader.Size > maxScreenshotSize {
		util.BadRequest(ctx, "screenshot too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := c.CheatingLogService.UploadScreenshot(
		ctx.Request.Context(), claims.UserID, examID, file, fileHeader.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"url": url})
}

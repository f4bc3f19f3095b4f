package service

import (
	"context"
	"errors"
	"exam_guardian_backend/internal/model"
	"exam_guardian_backend/internal/repository"
	"exam_guardian_backend/internal/util"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"
)

// CheatingLogService 监考违规记录。计数由前端检测产生，
// 这里只负责按学生+考试累加存储，截图走对象存储。
type CheatingLogService struct {
	CheatingLogRepo *repository.CheatingLogRepository
	ExamRepo        *repository.ExamRepository
	Storage         *StorageService
}

func NewCheatingLogService(
	cheatingLogRepo *repository.CheatingLogRepository,
	examRepo *repository.ExamRepository,
	storage *StorageService,
) *CheatingLogService {
	return &CheatingLogService{
		CheatingLogRepo: cheatingLogRepo,
		ExamRepo:        examRepo,
		Storage:         storage,
	}
}

type CheatingLogRequest struct {
	ExamID                string `json:"examId" binding:"required"`
	NoFaceCount           int    `json:"noFaceCount"`
	MultipleFaceCount     int    `json:"multipleFaceCount"`
	CellPhoneCount        int    `json:"cellPhoneCount"`
	ProhibitedObjectCount int    `json:"prohibitedObjectCount"`
	ScreenshotURL         string `json:"screenshotUrl"`
}

// Record 同一学生同一考试只保留一条记录，重复上报做计数累加
func (s *CheatingLogService) Record(user *model.User, req CheatingLogRequest) (*model.CheatingLog, error) {
	if _, err := s.ExamRepo.FindByExamID(req.ExamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	existing, err := s.CheatingLogRepo.FindByUserAndExam(user.ID, req.ExamID)
	if err == nil {
		existing.NoFaceCount += req.NoFaceCount
		existing.MultipleFaceCount += req.MultipleFaceCount
		existing.CellPhoneCount += req.CellPhoneCount
		existing.ProhibitedObjectCount += req.ProhibitedObjectCount
		if req.ScreenshotURL != "" {
			existing.ScreenshotURL = req.ScreenshotURL
		}
		if err := s.CheatingLogRepo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	log := &model.CheatingLog{
		ExamID:                req.ExamID,
		UserID:                user.ID,
		Name:                  user.Name,
		Email:                 user.Email,
		NoFaceCount:           req.NoFaceCount,
		MultipleFaceCount:     req.MultipleFaceCount,
		CellPhoneCount:        req.CellPhoneCount,
		ProhibitedObjectCount: req.ProhibitedObjectCount,
		ScreenshotURL:         req.ScreenshotURL,
	}
	if err := s.CheatingLogRepo.Create(log); err != nil {
		return nil, err
	}
	return log, nil
}

func (s *CheatingLogService) ListByExam(examID string) ([]model.CheatingLog, error) {
	return s.CheatingLogRepo.ListByExam(examID)
}

// UploadScreenshot 监考快照入对象存储，返回可访问URL
func (s *CheatingLogService) UploadScreenshot(ctx context.Context, userID uint, examID string, reader io.Reader, size int64, contentType string) (string, error) {
	filename := fmt.Sprintf("proctoring/%s/%d_%d.jpg", examID, userID, time.Now().UnixNano())
	return s.Storage.Upload(ctx, filename, reader, size, contentType)
}

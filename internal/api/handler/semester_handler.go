package handler

import (
	"github.com/gin-gonic/gin"

	"uctenky/backend/internal/service"
	"uctenky/backend/pkg/response"
)

// SemesterHandler 学期模块 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc}
}

// ListSemesters 有数据的学期列表（最新在前，始终包含当前学期）
// GET /api/v1/semesters
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.semesterSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, semesters)
}

// GetCurrent 当前学期
// GET /api/v1/semesters/current
func (h *SemesterHandler) GetCurrent(c *gin.Context) {
	response.OK(c, h.semesterSvc.Current(c.Request.Context()))
}

// GetSemester 按学期键查询时间范围
// GET /api/v1/semesters/:key
func (h *SemesterHandler) GetSemester(c *gin.Context) {
	semester, err := h.semesterSvc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, semester)
}

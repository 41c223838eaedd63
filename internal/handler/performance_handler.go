package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/service"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
	"github.com/noah-isme/student-records-api/pkg/response"
)

// PerformanceHandler exposes academic performance endpoints.
type PerformanceHandler struct {
	performances *service.PerformanceService
}

// NewPerformanceHandler constructs PerformanceHandler.
func NewPerformanceHandler(performances *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{performances: performances}
}

// List godoc
// @Summary List performance records visible to the caller
// @Tags Performance
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param subjectId query string false "Filter by subject"
// @Param examType query string false "Filter by exam type"
// @Param academicYear query string false "Filter by academic year"
// @Param term query int false "Filter by term"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /performance [get]
func (h *PerformanceHandler) List(c *gin.Context) {
	var filter models.PerformanceFilter
	filter.StudentID = c.Query("studentId")
	filter.SubjectID = c.Query("subjectId")
	filter.ExamType = models.ExamType(c.Query("examType"))
	filter.AcademicYear = c.Query("academicYear")
	if term, err := strconv.Atoi(c.Query("term")); err == nil {
		filter.Term = term
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.performances.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get performance record
// @Tags Performance
// @Produce json
// @Param id path string true "Performance ID"
// @Success 200 {object} response.Envelope
// @Router /performance/{id} [get]
func (h *PerformanceHandler) Get(c *gin.Context) {
	record, err := h.performances.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create godoc
// @Summary Record exam result
// @Tags Performance
// @Accept json
// @Produce json
// @Param payload body service.CreatePerformanceRequest true "Performance payload"
// @Success 201 {object} response.Envelope
// @Router /performance [post]
func (h *PerformanceHandler) Create(c *gin.Context) {
	var req service.CreatePerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.performances.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update exam result
// @Tags Performance
// @Accept json
// @Produce json
// @Param id path string true "Performance ID"
// @Param payload body service.UpdatePerformanceRequest true "Performance payload"
// @Success 200 {object} response.Envelope
// @Router /performance/{id} [put]
func (h *PerformanceHandler) Update(c *gin.Context) {
	var req service.UpdatePerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.performances.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete exam result
// @Tags Performance
// @Produce json
// @Param id path string true "Performance ID"
// @Success 204
// @Router /performance/{id} [delete]
func (h *PerformanceHandler) Delete(c *gin.Context) {
	if err := h.performances.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

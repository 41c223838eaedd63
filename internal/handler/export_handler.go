package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-records-api/internal/models"
	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/pkg/response"
)

// ExportHandler streams rendered documents.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// PerformanceSheet godoc
// @Summary Export visible performance records as CSV
// @Tags Exports
// @Produce text/csv
// @Param studentId query string false "Filter by student"
// @Param academicYear query string false "Filter by academic year"
// @Param term query int false "Filter by term"
// @Success 200 {file} file
// @Router /exports/performance [get]
func (h *ExportHandler) PerformanceSheet(c *gin.Context) {
	var filter models.PerformanceFilter
	filter.StudentID = c.Query("studentId")
	filter.AcademicYear = c.Query("academicYear")
	if term, err := strconv.Atoi(c.Query("term")); err == nil {
		filter.Term = term
	}

	file, err := h.exports.PerformanceSheet(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// InvoiceStatement godoc
// @Summary Export visible invoices as a PDF statement
// @Tags Exports
// @Produce application/pdf
// @Param studentId query string false "Filter by student"
// @Param academicYear query string false "Filter by academic year"
// @Param term query int false "Filter by term"
// @Success 200 {file} file
// @Router /exports/invoices [get]
func (h *ExportHandler) InvoiceStatement(c *gin.Context) {
	var filter models.InvoiceFilter
	filter.StudentID = c.Query("studentId")
	filter.AcademicYear = c.Query("academicYear")
	if term, err := strconv.Atoi(c.Query("term")); err == nil {
		filter.Term = term
	}

	file, err := h.exports.InvoiceStatement(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

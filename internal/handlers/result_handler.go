package handlers

import (
	"fmt"
	"net/http"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
	exportService services.ImportExportService
}

func NewResultHandler(resultService services.ResultService, exportService services.ImportExportService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
		exportService: exportService,
	}
}

// Submit grades an attempt for the calling student
// @Summary Submit exam
// @Tags results
// @Accept json
// @Produce json
// @Param request body services.SubmitExamRequest true "Answers"
// @Success 201 {object} models.Result
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /results/submit [post]
func (h *ResultHandler) Submit(c *gin.Context) {
	var req services.SubmitExamRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p := auth.PrincipalFrom(c)
	h.LogRequest(c, "Submitting exam", "exam_id", req.ExamID, "answers", len(req.Answers))

	result, err := h.resultService.Submit(c.Request.Context(), p.StudentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Leaderboard returns the all-time ranking. With view=top a student gets the
// top ten plus their own row.
// @Summary Leaderboard
// @Tags results
// @Produce json
// @Param view query string false "top"
// @Success 200 {object} services.Leaderboard
// @Router /results/leaderboard [get]
func (h *ResultHandler) Leaderboard(c *gin.Context) {
	board, err := h.resultService.Leaderboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if c.Query("view") == "top" {
		regNo := c.Query("reg_no")
		if p := auth.PrincipalFrom(c); p != nil && !p.IsAdmin() {
			regNo = p.RegNo
		}
		board = &services.Leaderboard{
			Month:       board.Month,
			Leaderboard: services.SelectLeaderboardView(board.Leaderboard, regNo),
		}
	}
	c.JSON(http.StatusOK, board)
}

// ListByStudent returns a student's results newest first
// @Summary Student results
// @Tags results
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {array} models.Result
// @Router /results/session/{id} [get]
func (h *ResultHandler) ListByStudent(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	results, err := h.resultService.ListByStudent(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Get returns one result; students only see their own
// @Summary Get result
// @Tags results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} models.Result
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /results/{id} [get]
func (h *ResultHandler) Get(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	result, err := h.resultService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if p := auth.PrincipalFrom(c); !p.IsAdmin() && result.StudentID != p.StudentID {
		h.handleServiceError(c, services.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ===== ADMIN =====

// AdminList returns results newest updated first, with student names
// @Summary List results (admin)
// @Tags admin
// @Produce json
// @Param student_id query int false "Student ID"
// @Param exam_id query int false "Exam ID"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param sort_by query string false "created_at or updated_at"
// @Success 200 {object} ListResponse{items=[]services.AdminResultView}
// @Router /admin/results [get]
func (h *ResultHandler) AdminList(c *gin.Context) {
	from, ok := parseDateQuery(c, "date_from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "date_to")
	if !ok {
		return
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	filters := repositories.ResultFilters{
		StudentID: parseUintQuery(c, "student_id"),
		ExamID:    parseUintQuery(c, "exam_id"),
		DateFrom:  from,
		DateTo:    to,
		SortBy:    c.Query("sort_by"),
		Limit:     parseIntQuery(c, "limit", 0),
		Offset:    parseIntQuery(c, "offset", 0),
	}

	results, total, err := h.resultService.AdminList(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: results, Total: total})
}

// AdminGet returns one result with the student's name
// @Summary Get result (admin)
// @Tags admin
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} services.AdminResultView
// @Router /admin/results/{id} [get]
func (h *ResultHandler) AdminGet(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	result, err := h.resultService.AdminGet(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete removes a result
// @Summary Delete result
// @Tags admin
// @Param id path int true "Result ID"
// @Success 200 {object} MessageResponse
// @Router /admin/results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting result", "result_id", id)

	if err := h.resultService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Result deleted successfully"})
}

// Export downloads results as an xlsx workbook
// @Summary Export results
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /admin/results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	day, ok := parseDateQuery(c, "date")
	if !ok {
		return
	}
	data, err := h.exportService.ExportResults(c.Request.Context(), day)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "results.xlsx"
	if day != nil {
		filename = fmt.Sprintf("results-%s.xlsx", day.Format("2006-01-02"))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ReportCards returns one card per student, ordered by name
// @Summary Report cards
// @Tags admin
// @Produce json
// @Success 200 {array} services.ReportCard
// @Router /admin/report-cards [get]
func (h *ResultHandler) ReportCards(c *gin.Context) {
	cards, err := h.resultService.ReportCards(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// AdminLeaderboard returns the full all-time ranking
// @Summary Leaderboard (admin)
// @Tags admin
// @Produce json
// @Success 200 {object} services.Leaderboard
// @Router /admin/leaderboard [get]
func (h *ResultHandler) AdminLeaderboard(c *gin.Context) {
	board, err := h.resultService.Leaderboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

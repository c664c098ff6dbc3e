package handlers

import (
	"net/http"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	BaseHandler
	examService   services.ExamService
	importService services.ImportExportService
}

func NewExamHandler(examService services.ExamService, importService services.ImportExportService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler:   NewBaseHandler(logger),
		examService:   examService,
		importService: importService,
	}
}

type VerifyKeyRequest struct {
	SecurityKey string `json:"security_key"`
}

type VerifyKeyResponse struct {
	Verified bool `json:"verified"`
}

type VisibilityRequest struct {
	IsHidden *bool `json:"is_hidden" binding:"required"`
}

func examFilters(c *gin.Context) repositories.ExamFilters {
	return repositories.ExamFilters{
		Category: c.Query("category"),
		Limit:    parseIntQuery(c, "limit", 0),
		Offset:   parseIntQuery(c, "offset", 0),
	}
}

// ===== TAKING =====

// List returns visible and expired exams without questions
// @Summary List exams
// @Tags exams
// @Produce json
// @Param category query string false "Category"
// @Success 200 {object} ListResponse{items=[]services.StudentExamView}
// @Router /exams [get]
func (h *ExamHandler) List(c *gin.Context) {
	exams, total, err := h.examService.ListForStudent(c.Request.Context(), examFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: exams, Total: total})
}

// ExamKeyHeader carries the security key when fetching a secured exam.
const ExamKeyHeader = "X-Exam-Key"

// Get returns an exam ready to take, without answers. Secured exams need the key.
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Param X-Exam-Key header string false "Security key of a secured exam"
// @Success 200 {object} services.StudentExamView
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	exam, err := h.examService.GetForStudent(c.Request.Context(), id, c.GetHeader(ExamKeyHeader))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// VerifyKey checks an exam's security key
// @Summary Verify exam key
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body VerifyKeyRequest true "Key"
// @Success 200 {object} VerifyKeyResponse
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/verify-key [post]
func (h *ExamHandler) VerifyKey(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	var req VerifyKeyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.examService.VerifyKey(c.Request.Context(), id, req.SecurityKey); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, VerifyKeyResponse{Verified: true})
}

// ===== AUTHORING =====

// Create stores a new exam
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.ExamRequest true "Exam"
// @Success 201 {object} services.AdminExamView
// @Failure 400 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	var req services.ExamRequest
	if !h.bindJSON(c, &req) {
		return
	}
	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// Update replaces an exam's definition
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param exam body services.ExamRequest true "Exam"
// @Success 200 {object} services.AdminExamView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [put]
func (h *ExamHandler) Update(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	var req services.ExamRequest
	if !h.bindJSON(c, &req) {
		return
	}
	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// Delete removes an exam; its results are kept
// @Summary Delete exam
// @Tags exams
// @Param id path int true "Exam ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) Delete(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting exam", "exam_id", id)

	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Exam deleted successfully"})
}

// Copy duplicates an exam as a hidden draft
// @Summary Copy exam
// @Tags exams
// @Produce json
// @Param id path int true "Exam ID"
// @Success 201 {object} services.AdminExamView
// @Router /exams/{id}/copy [post]
func (h *ExamHandler) Copy(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	exam, err := h.examService.Copy(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// SetVisibility hides or shows an exam
// @Summary Toggle exam visibility
// @Tags exams
// @Accept json
// @Produce json
// @Param id path int true "Exam ID"
// @Param request body VisibilityRequest true "Hidden flag"
// @Success 200 {object} services.AdminExamView
// @Router /exams/{id}/visibility [patch]
func (h *ExamHandler) SetVisibility(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	var req VisibilityRequest
	if !h.bindJSON(c, &req) {
		return
	}
	exam, err := h.examService.SetVisibility(c.Request.Context(), id, *req.IsHidden)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// Import parses a question sheet for review; nothing is stored
// @Summary Import questions
// @Tags exams
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx, xls or csv"
// @Param format query string false "v1 or legacy"
// @Success 200 {object} services.QuestionImportResult
// @Failure 400 {object} ErrorResponse
// @Router /exams/import [post]
func (h *ExamHandler) Import(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.respondBadRequest(c, "No file uploaded", err.Error())
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondBadRequest(c, "Could not read upload", err.Error())
		return
	}
	defer file.Close()

	format := models.ImportFormat(c.Query("format"))
	h.LogRequest(c, "Importing questions", "filename", header.Filename, "format", format)

	result, err := h.importService.ImportQuestions(c.Request.Context(), file, header.Filename, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ===== ADMIN VIEWS =====

// AdminList returns every exam with answers and derived status
// @Summary List exams (admin)
// @Tags admin
// @Produce json
// @Success 200 {object} ListResponse{items=[]services.AdminExamView}
// @Router /admin/exams [get]
func (h *ExamHandler) AdminList(c *gin.Context) {
	exams, total, err := h.examService.ListForAdmin(c.Request.Context(), examFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: exams, Total: total})
}

// AdminGet returns the full exam
// @Summary Get exam (admin)
// @Tags admin
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} services.AdminExamView
// @Router /admin/exams/{id} [get]
func (h *ExamHandler) AdminGet(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	exam, err := h.examService.GetForAdmin(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

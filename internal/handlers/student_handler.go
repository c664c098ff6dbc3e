package handlers

import (
	"net/http"

	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	BaseHandler
	studentService services.StudentService
	authService    services.AuthService
	importService  services.ImportExportService
}

func NewStudentHandler(
	studentService services.StudentService,
	authService services.AuthService,
	importService services.ImportExportService,
	logger utils.Logger,
) *StudentHandler {
	return &StudentHandler{
		BaseHandler:    NewBaseHandler(logger),
		studentService: studentService,
		authService:    authService,
		importService:  importService,
	}
}

// BulkStudentsRequest is the JSON body of a bulk add.
type BulkStudentsRequest struct {
	Students []services.BulkStudentRow `json:"students"`
}

// ===== PUBLIC =====

// Register creates a student account with a password
// @Summary Register student
// @Tags students
// @Accept json
// @Produce json
// @Param student body services.RegisterStudentRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students/register [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req services.RegisterStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	student, err := h.studentService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// Login opens or reuses a student session
// @Summary Student login
// @Tags students
// @Accept json
// @Produce json
// @Param credentials body services.StudentLoginRequest true "Email and password"
// @Success 200 {object} services.StudentLoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /students/login [post]
func (h *StudentHandler) Login(c *gin.Context) {
	var req services.StudentLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.authService.StudentLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyDetails checks identity facts before a password reset
// @Summary Verify student details
// @Tags students
// @Accept json
// @Produce json
// @Param details body services.VerifyDetailsRequest true "Name, email and phone"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/verify-details [post]
func (h *StudentHandler) VerifyDetails(c *gin.Context) {
	var req services.VerifyDetailsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.authService.VerifyStudentDetails(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Details verified"})
}

// ResetPassword sets a new password after re-verifying identity
// @Summary Reset student password
// @Tags students
// @Accept json
// @Produce json
// @Param request body services.ResetStudentPasswordRequest true "Details and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/reset-password [post]
func (h *StudentHandler) ResetPassword(c *gin.Context) {
	var req services.ResetStudentPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetStudentPassword(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}

// ===== ADMIN =====

// Create adds a student; the password is optional
// @Summary Add student
// @Tags students
// @Accept json
// @Produce json
// @Param student body services.CreateStudentRequest true "Student data"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req services.CreateStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// List returns students newest first
// @Summary List students
// @Tags students
// @Produce json
// @Param search query string false "Name, email, phone or reg no"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.StudentListResponse
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filters := repositories.StudentFilters{
		Search: c.Query("search"),
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}
	resp, err := h.studentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BulkCreate adds students row by row and reports failures
// @Summary Bulk add students
// @Tags students
// @Accept json
// @Produce json
// @Param request body BulkStudentsRequest true "Rows"
// @Success 200 {object} services.BulkAddResult
// @Router /students/bulk [post]
func (h *StudentHandler) BulkCreate(c *gin.Context) {
	var req BulkStudentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Bulk adding students", "rows", len(req.Students))

	result, err := h.studentService.BulkCreate(c.Request.Context(), req.Students)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BulkUpload reads a student sheet and bulk adds its rows
// @Summary Upload student sheet
// @Tags students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx, xls or csv"
// @Success 200 {object} services.BulkAddResult
// @Failure 400 {object} ErrorResponse
// @Router /students/bulk/upload [post]
func (h *StudentHandler) BulkUpload(c *gin.Context) {
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

	h.LogRequest(c, "Uploading student sheet", "filename", header.Filename, "size", header.Size)
	rows, err := h.importService.ParseStudentSheet(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	result, err := h.studentService.BulkCreate(c.Request.Context(), rows)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete removes a student with their results and sessions
// @Summary Delete student
// @Tags students
// @Param id path int true "Student ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting student", "student_id", id)

	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Student deleted successfully"})
}

// ===== ADMIN OR SELF =====

// Get returns one student
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} ErrorResponse
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	student, err := h.studentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// Update changes the supplied profile fields
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param student body services.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	var req services.UpdateStudentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	student, err := h.studentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// MarkAttendance records today for the student
// @Summary Mark attendance
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} services.AttendanceResponse
// @Router /students/{id}/attendance [post]
func (h *StudentHandler) MarkAttendance(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	resp, err := h.studentService.MarkAttendance(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats returns the dashboard figures for a student
// @Summary Student stats
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} services.StudentStatsResponse
// @Router /students/{id}/stats [get]
func (h *StudentHandler) Stats(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	stats, err := h.studentService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ReportCard returns the best-attempt report card
// @Summary Student report card
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} services.ReportCard
// @Router /students/{id}/report-card [get]
func (h *StudentHandler) ReportCard(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}
	card, err := h.studentService.GetReportCard(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

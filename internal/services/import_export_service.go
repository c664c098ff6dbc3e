package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

// Header aliases accepted by the student bulk upload, in lookup order.
var (
	studentNameHeaders     = []string{"name", "Name", "Student Name"}
	studentPhoneHeaders    = []string{"phone", "Phone", "Mobile"}
	studentEmailHeaders    = []string{"email", "Email"}
	studentPasswordHeaders = []string{"password", "Password"}
)

type importExportService struct {
	repo          repositories.Repository
	log           *ServiceLogger
	validator     *validator.Validator
	metrics       *metrics.Metrics
	defaultFormat models.ImportFormat
	now           func() time.Time
}

func NewImportExportService(deps Dependencies) ImportExportService {
	format := deps.DefaultImportFormat
	if format == "" {
		format = models.ImportFormatV1
	}
	return &importExportService{
		repo:          deps.Repo,
		log:           NewServiceLogger(deps.Logger, "import_export"),
		validator:     deps.Validator,
		metrics:       deps.Metrics,
		defaultFormat: format,
		now:           time.Now,
	}
}

// ===== QUESTION IMPORT =====

// ImportQuestions parses a question sheet. Questions are returned to the caller
// for review and are not stored.
func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, filename string, format models.ImportFormat) (*QuestionImportResult, error) {
	if format == "" {
		format = s.defaultFormat
	}
	s.log.Logger().InfoContext(ctx, "Starting question import", "filename", filename, "format", format)

	rows, err := readSheet(r, filename)
	if err != nil {
		return nil, err
	}

	var result *QuestionImportResult
	switch format {
	case models.ImportFormatLegacy:
		result = ParseLegacyQuestions(rows)
	case models.ImportFormatV1:
		result, err = s.parseV1Questions(rows)
		if err != nil {
			return nil, err
		}
	default:
		return nil, NewValidationError("format", "must be v1 or legacy", format)
	}

	s.metrics.ImportRows("questions", result.SuccessCount, result.ErrorCount)
	s.log.Logger().InfoContext(ctx, "Question import completed",
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	return result, nil
}

// ParseLegacyQuestions applies the positional heuristic of the old admin
// console. A first row containing a "question" cell is a header. Rows whose
// first cell is MCQ or True/False read Type|Question|Opt1..Opt4|Correct;
// other rows read Question|Opt1..Opt4|Correct. Correct is 1-based and falls
// back to 1. Rows without question text are dropped silently.
func ParseLegacyQuestions(rows [][]string) *QuestionImportResult {
	result := &QuestionImportResult{
		Format:    models.ImportFormatLegacy,
		Errors:    []models.ImportValidationError{},
		Questions: []models.Question{},
	}

	if len(rows) > 0 {
		for _, cell := range rows[0] {
			if strings.ToLower(cell) == "question" {
				rows = rows[1:]
				break
			}
		}
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		result.TotalRows++

		var q models.Question
		first := strings.ToLower(strings.TrimSpace(row[0]))
		if first == "mcq" || first == "true/false" {
			q.Text = cell(row, 1)
			if first == "true/false" {
				q.Type = models.QuestionTrueFalse
				q.Options = []string{"True", "False"}
			} else {
				q.Type = models.QuestionMCQ
				q.Options = []string{cell(row, 2), cell(row, 3), cell(row, 4), cell(row, 5)}
			}
			q.CorrectIndex = legacyCorrect(cell(row, 6)) - 1
		} else {
			q.Type = models.QuestionMCQ
			q.Text = cell(row, 0)
			q.Options = []string{cell(row, 1), cell(row, 2), cell(row, 3), cell(row, 4)}
			q.CorrectIndex = legacyCorrect(cell(row, 5)) - 1
		}

		if q.Text == "" {
			continue
		}
		result.Questions = append(result.Questions, q)
		result.SuccessCount++
	}
	return result
}

// legacyCorrect reads a leading integer the lenient way spreadsheets were
// read before; a missing, unparsable or zero value becomes 1.
func legacyCorrect(v string) int {
	v = strings.TrimSpace(v)
	end := 0
	if end < len(v) && (v[end] == '-' || v[end] == '+') {
		end++
	}
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil || n == 0 {
		return 1
	}
	return n
}

// parseV1Questions requires the named header row and validates every row.
func (s *importExportService) parseV1Questions(rows [][]string) (*QuestionImportResult, error) {
	if len(rows) < 2 {
		return nil, NewValidationError("file", "sheet must have a header row and at least one data row", len(rows))
	}

	header := headerIndex(rows[0], true)
	for _, col := range models.QuestionImportColumns {
		if _, ok := header[col]; !ok {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &QuestionImportResult{
		Format:    models.ImportFormatV1,
		Errors:    []models.ImportValidationError{},
		Questions: []models.Question{},
	}

	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		result.TotalRows++
		rowNum := i + 2

		q, rowErrs := s.parseV1Row(row, header, rowNum)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.ErrorCount++
			continue
		}
		result.Questions = append(result.Questions, q)
		result.SuccessCount++
	}
	return result, nil
}

func (s *importExportService) parseV1Row(row []string, header map[string]int, rowNum int) (models.Question, []models.ImportValidationError) {
	get := func(col string) string { return cell(row, header[col]) }
	var errs []models.ImportValidationError

	var q models.Question
	switch strings.ToLower(get("type")) {
	case "mcq":
		q.Type = models.QuestionMCQ
	case "true/false", "truefalse", "tf":
		q.Type = models.QuestionTrueFalse
	default:
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "type", Message: "must be MCQ or True/False", Value: get("type")})
		return q, errs
	}
	q.Text = get("question")

	if q.Type == models.QuestionTrueFalse {
		q.Options = []string{"True", "False"}
	} else {
		q.Options = []string{get("option_1"), get("option_2"), get("option_3"), get("option_4")}
	}

	correct, err := strconv.Atoi(get("correct_option"))
	if err != nil {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "correct_option", Message: "must be a whole number", Value: get("correct_option")})
		return q, errs
	}
	q.CorrectIndex = correct - 1

	for _, ve := range s.validator.Question().ValidateQuestion("question", q) {
		value := ""
		if ve.Value != nil {
			value = fmt.Sprint(ve.Value)
		}
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: ve.Field, Message: ve.Message, Value: value})
	}
	return q, errs
}

// ===== STUDENT UPLOAD =====

// ParseStudentSheet maps a headed student sheet onto bulk rows. Full names are
// split at the first space; a missing last name becomes ".".
func (s *importExportService) ParseStudentSheet(ctx context.Context, r io.Reader, filename string) ([]BulkStudentRow, error) {
	rows, err := readSheet(r, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "sheet must have a header row and at least one data row", len(rows))
	}

	header := headerIndex(rows[0], false)
	lookup := func(row []string, names []string) string {
		for _, name := range names {
			if i, ok := header[name]; ok {
				if v := cell(row, i); v != "" {
					return v
				}
			}
		}
		return ""
	}

	var out []BulkStudentRow
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		first, last := splitFullName(lookup(row, studentNameHeaders))
		out = append(out, BulkStudentRow{
			FirstName: first,
			LastName:  last,
			Email:     lookup(row, studentEmailHeaders),
			Phone:     lookup(row, studentPhoneHeaders),
			Password:  lookup(row, studentPasswordHeaders),
		})
	}

	s.log.Logger().InfoContext(ctx, "Parsed student sheet", "filename", filename, "rows", len(out))
	return out, nil
}

func splitFullName(full string) (string, string) {
	parts := strings.Split(strings.TrimSpace(full), " ")
	if len(parts) == 1 {
		return parts[0], "."
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ===== RESULTS EXPORT =====

// ExportResults writes results as an xlsx workbook, limited to one calendar
// day (server-local) when day is set.
func (s *importExportService) ExportResults(ctx context.Context, day *time.Time) ([]byte, error) {
	filters := repositories.ResultFilters{SortBy: "updated_at"}
	if day != nil {
		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
		to := from.AddDate(0, 0, 1)
		filters.DateFrom, filters.DateTo = &from, &to
	}

	results, _, err := s.repo.Result().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	names := make(map[uint]string)
	var ids []uint
	for _, r := range results {
		if _, ok := names[r.StudentID]; !ok {
			names[r.StudentID] = "Unknown"
			ids = append(ids, r.StudentID)
		}
	}
	if len(ids) > 0 {
		students, err := s.repo.Student().GetByIDs(ctx, nil, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load students: %w", err)
		}
		for _, st := range students {
			names[st.ID] = st.ShortName()
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []interface{}{"Student Name", "Exam Title", "Score", "Total Questions", "Percentage", "Date"}
	if err := f.SetSheetRow(resultsSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range results {
		row := []interface{}{
			names[r.StudentID],
			r.ExamTitle,
			r.Score,
			r.TotalQuestions,
			fmt.Sprintf("%.2f%%", percentage(r.Score, r.TotalQuestions)),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		}
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(resultsSheet, cellName, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	s.log.Logger().InfoContext(ctx, "Exported results", "rows", len(results))
	return buf.Bytes(), nil
}

// ===== SHEET READING =====

// readSheet returns the rows of a CSV file or of the first worksheet of an
// Excel workbook.
func readSheet(r io.Reader, filename string) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		reader := csv.NewReader(r)
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, NewValidationError("file", "could not read CSV: "+err.Error(), filename)
		}
		return rows, nil
	case ".xlsx", ".xls":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, NewValidationError("file", "could not open workbook", filename)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, NewValidationError("file", "workbook has no sheets", filename)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		return rows, nil
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func headerIndex(header []string, fold bool) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if fold {
			h = strings.ToLower(h)
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

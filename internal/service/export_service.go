package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"learnloop/internal/dto"
)

// ErrExportGenerateFail the workbook could not be written.
var ErrExportGenerateFail = errors.New("generate roster workbook failed")

const rosterSheet = "Roster"

// ExportService renders course data as downloadable files.
type ExportService interface {
	// ExportRoster returns the course roster as an .xlsx workbook together
	// with a suggested file name.
	ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	course CourseService
	logger *zap.Logger
}

// NewExportService creates an ExportService.
func NewExportService(course CourseService, logger *zap.Logger) ExportService {
	return &exportService{course: course, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportRoster
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - row 1: course title, merged across all columns
//   - row 2: header
//   - row 3..: one student per row in enrollment order

func (s *exportService) ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	course, err := s.course.Get(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	students, err := s.course.ListStudents(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(rosterSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Username", "First Name", "Last Name", "Email", "Enrolled"}
	widths := []float64{20, 18, 18, 32, 24}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(rosterSheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	last := colName(len(headers) - 1)
	f.SetCellValue(rosterSheet, "A1", rosterTitle(course))
	f.MergeCell(rosterSheet, "A1", cell(last, 1))
	f.SetCellStyle(rosterSheet, "A1", "A1", headerStyle)

	for i, h := range headers {
		f.SetCellValue(rosterSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(rosterSheet, "A2", cell(last, 2), headerStyle)

	row := 3
	for _, st := range students {
		values := []string{st.Username, st.FirstName, st.LastName, st.Email, st.EnrollDate}
		for i, v := range values {
			f.SetCellValue(rosterSheet, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write roster workbook failed", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("roster exported", zap.String("course_id", courseID), zap.Int("students", len(students)))
	return buf, rosterFilename(course), nil
}

// ── helpers ──

func rosterTitle(c *dto.CourseResponse) string {
	return fmt.Sprintf("%s %s: %s (%s %s)", c.Department, c.CourseNumber, c.CourseName, c.Term, c.Year)
}

// rosterFilename keeps letters, digits, dashes and underscores only.
func rosterFilename(c *dto.CourseResponse) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, c.Department+c.CourseNumber+"_"+c.Term+"_"+c.Year)
	return "roster_" + base + ".xlsx"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

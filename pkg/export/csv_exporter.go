package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/noah-isme/attendance-report-api/internal/dto"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// AttendanceReportDataset flattens the per-staff summaries of a report into
// one row per staff member, followed by a deduplicated overall row.
func AttendanceReportDataset(report *dto.AttendanceReportResponse) Dataset {
	headers := []string{
		"staff_id", "staff_name", "expected_arrival",
		"total_days", "present_days", "absent_days", "late_days",
		"agreed_days", "not_agreed_days", "pending_days", "attendance_rate",
	}
	rows := make([]map[string]string, 0, len(report.PerSubject)+1)
	for _, subject := range report.PerSubject {
		rows = append(rows, map[string]string{
			"staff_id":         subject.SubjectID,
			"staff_name":       subject.SubjectName,
			"expected_arrival": subject.ExpectedArrival,
			"total_days":       strconv.Itoa(subject.Summary.TotalDays),
			"present_days":     strconv.Itoa(subject.Summary.PresentDays),
			"absent_days":      strconv.Itoa(subject.Summary.AbsentDays),
			"late_days":        strconv.Itoa(subject.Summary.LateDays),
			"agreed_days":      strconv.Itoa(subject.Summary.AgreedDays),
			"not_agreed_days":  strconv.Itoa(subject.Summary.NotAgreedDays),
			"pending_days":     strconv.Itoa(subject.Summary.PendingDays),
			"attendance_rate":  strconv.FormatFloat(subject.AttendanceRate, 'f', 2, 64),
		})
	}
	overall := report.Overall
	rows = append(rows, map[string]string{
		"staff_id":         "overall",
		"staff_name":       "All staff",
		"expected_arrival": "",
		"total_days":       strconv.Itoa(overall.TotalDays),
		"present_days":     strconv.Itoa(overall.PresentDays),
		"absent_days":      strconv.Itoa(overall.AbsentDays),
		"late_days":        strconv.Itoa(overall.LateDays),
		"agreed_days":      strconv.Itoa(overall.AgreedDays),
		"not_agreed_days":  strconv.Itoa(overall.NotAgreedDays),
		"pending_days":     strconv.Itoa(overall.PendingDays),
		"attendance_rate":  strconv.FormatFloat(overall.AttendanceRate, 'f', 2, 64),
	})
	return Dataset{Headers: headers, Rows: rows}
}

package export

import (
	"fmt"
	"io"

	"butterfly/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{
	"ID", "Reference", "Name", "Phone", "Email", "Date", "Time", "Guests",
	"Duration", "Type", "Contact", "Status", "Total Price", "Special Requests", "Created At",
}

// статусные цвета заливки
var statusFill = map[string]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusRejected:  "#F8CBAD",
}

// FileName builds the download name for an export made at the given moment.
func FileName(stamp string) string {
	return fmt.Sprintf("bookings_%s.xlsx", stamp)
}

// WriteBookings renders bookings as an XLSX workbook with one row per booking
// in the order given.
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(SheetName); err == nil {
		f.SetActiveSheet(index)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle)

	statusStyles := make(map[string]int, len(statusFill))
	for status, color := range statusFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("error creating style: %w", err)
		}
		statusStyles[status] = style
	}

	for i := range bookings {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, rowValues(&bookings[i])); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := statusStyles[bookings[i].Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(12, row)
			_ = f.SetCellStyle(SheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "B", 12)
	_ = f.SetColWidth(SheetName, "C", "E", 22)
	_ = f.SetColWidth(SheetName, "N", "N", 40)
	_ = f.SetColWidth(SheetName, "O", "O", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func rowValues(b *models.Booking) []interface{} {
	var total interface{}
	if b.TotalPrice != nil {
		total = *b.TotalPrice
	}
	return []interface{}{
		b.ID,
		b.Reference,
		b.Name,
		b.Phone,
		b.Email,
		b.Date,
		b.Time,
		b.Guests,
		b.Duration,
		b.Type,
		b.ContactMethod,
		b.Status,
		total,
		b.SpecialRequests,
		b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Package export writes venue-manager reports as Excel workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"holidaze/internal/config"
	"holidaze/internal/models"
)

const (
	SheetName = "Bookings"

	titleRow  = 1
	headerRow = 2
	firstRow  = 3
)

var headers = []string{
	"Venue", "Venue ID", "Booking ID", "Check-in", "Check-out",
	"Nights", "Guests", "Customer", "Customer email", "Total price", "Booked at",
}

// Row is one booking line of the workbook.
type Row struct {
	VenueName     string
	VenueID       string
	BookingID     string
	DateFrom      time.Time
	DateTo        time.Time
	Nights        int
	Guests        int
	Customer      string
	CustomerEmail string
	TotalPrice    float64
	Created       time.Time
}

// Rows flattens the bookings of every venue, ordered by venue name then check-in.
func Rows(venues []models.Venue) []Row {
	var rows []Row
	for _, v := range venues {
		for _, b := range v.Bookings {
			nights := int(b.DateTo.Sub(b.DateFrom).Hours() / 24)
			if nights < 1 {
				nights = 1
			}
			r := Row{
				VenueName:  v.Name,
				VenueID:    v.ID,
				BookingID:  b.ID,
				DateFrom:   b.DateFrom,
				DateTo:     b.DateTo,
				Nights:     nights,
				Guests:     b.Guests,
				TotalPrice: v.Price * float64(nights),
				Created:    b.Created,
			}
			if b.Customer != nil {
				r.Customer = b.Customer.Name
				r.CustomerEmail = b.Customer.Email
			}
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].VenueName != rows[j].VenueName {
			return rows[i].VenueName < rows[j].VenueName
		}
		return rows[i].DateFrom.Before(rows[j].DateFrom)
	})
	return rows
}

// Exporter saves workbooks under the configured exports directory.
type Exporter struct {
	dir    string
	loc    *time.Location
	logger *zerolog.Logger
	now    func() time.Time
}

func NewExporter(cfg config.ExportConfig, loc *time.Location, logger *zerolog.Logger) *Exporter {
	dir := cfg.Path
	if dir == "" {
		dir = "exports"
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{dir: dir, loc: loc, logger: logger, now: time.Now}
}

// BuildWorkbook renders rows into a new workbook. The caller closes it.
func (e *Exporter) BuildWorkbook(owner string, rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	title := fmt.Sprintf("Bookings for %s, exported %s", owner, e.now().In(e.loc).Format("02.01.2006 15:04"))
	_ = f.SetCellValue(SheetName, cell(1, titleRow), title)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(SheetName, cell(1, titleRow), lastCol+fmt.Sprint(titleRow))
	if style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(SheetName, cell(1, titleRow), cell(1, titleRow), style)
	}

	for i, h := range headers {
		_ = f.SetCellValue(SheetName, cell(i+1, headerRow), h)
	}
	if style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = f.SetCellStyle(SheetName, cell(1, headerRow), cell(len(headers), headerRow), style)
	}

	for i, r := range rows {
		row := firstRow + i
		values := []interface{}{
			r.VenueName,
			r.VenueID,
			r.BookingID,
			r.DateFrom.In(e.loc).Format(models.DateLayout),
			r.DateTo.In(e.loc).Format(models.DateLayout),
			r.Nights,
			r.Guests,
			r.Customer,
			r.CustomerEmail,
			r.TotalPrice,
			formatTime(r.Created, e.loc),
		}
		if err := f.SetSheetRow(SheetName, cell(1, row), &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 30)
	_ = f.SetColWidth(SheetName, "B", "C", 38)
	_ = f.SetColWidth(SheetName, "D", "K", 16)
	return f, nil
}

// ManagerBookings writes the bookings of all venues to a new file and
// returns its path.
func (e *Exporter) ManagerBookings(owner string, venues []models.Venue) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	rows := Rows(venues)
	f, err := e.BuildWorkbook(owner, rows)
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := fmt.Sprintf("bookings_%s_%s.xlsx", safeName(owner), e.now().In(e.loc).Format("20060102_150405"))
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", path).Int("rows", len(rows)).Msg("bookings workbook created")
	return path, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" {
		return "manager"
	}
	return s
}

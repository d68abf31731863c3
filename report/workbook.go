package report

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

const (
	PunchesSheet = "Punches"
	SummarySheet = "Summary"
)

var (
	punchHeader = []interface{}{
		"Employee", "Date", "Time", "Type", "Geo Validated",
		"Original Coordinates", "Matching Coordinates", "Distance (m)", "Request ID", "Message",
	}
	summaryHeader = []interface{}{
		"Employee", "Date", "First Punch", "Last Punch", "Punches", "Worked Hours", "Open",
	}
)

// BuildWorkbook writes the journal records and the per-day summary. Times are
// shown in loc.
func BuildWorkbook(records []store.PunchRecord, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = utils.BrisbaneTZ
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), PunchesSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, err
	}

	if err := writePunches(f, records, loc); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s sheet: %w", PunchesSheet, err)
	}
	if err := writeSummary(f, Summarize(records, loc)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write %s sheet: %w", SummarySheet, err)
	}
	return f, nil
}

func writePunches(f *excelize.File, records []store.PunchRecord, loc *time.Location) error {
	if err := writeHeader(f, PunchesSheet, punchHeader); err != nil {
		return err
	}
	for i, r := range records {
		local := r.ServerTime.In(loc)
		row := []interface{}{
			r.EmployeeID,
			local.Format(utils.DateLayout),
			local.Format(utils.TimeLayout),
			r.TransactionType,
			utils.YesNo(r.IsGeoValidated),
			r.OriginalCoordinates,
			r.MatchingCoordinates,
			math.Round(r.Distance),
			r.RequestID,
			r.Message,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(PunchesSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, days []DaySummary) error {
	if err := writeHeader(f, SummarySheet, summaryHeader); err != nil {
		return err
	}
	for i, d := range days {
		row := []interface{}{
			d.EmployeeID,
			d.Date,
			d.From.Format(utils.TimeLayout),
			d.To.Format(utils.TimeLayout),
			d.Punches,
			math.Round(d.WorkedHours()*100) / 100,
			utils.YesNo(d.Open),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

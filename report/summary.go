package report

import (
	"sort"
	"time"

	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/utils"
)

// DaySummary is one employee's punches on one calendar day.
type DaySummary struct {
	EmployeeID    string
	Date          string
	From          time.Time
	To            time.Time
	Punches       int
	WorkedSeconds int64
	// Open is set when the day ends on an IN without a matching OUT.
	Open bool
}

func (d DaySummary) WorkedHours() float64 {
	return float64(d.WorkedSeconds) / 3600
}

// Summarize groups records by employee and local date and pairs each IN with
// the next OUT.
func Summarize(records []store.PunchRecord, loc *time.Location) []DaySummary {
	if loc == nil {
		loc = utils.BrisbaneTZ
	}

	sorted := make([]store.PunchRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EmployeeID != sorted[j].EmployeeID {
			return sorted[i].EmployeeID < sorted[j].EmployeeID
		}
		return sorted[i].ServerTime.Before(sorted[j].ServerTime)
	})

	var out []DaySummary
	var openAt *time.Time
	for _, r := range sorted {
		local := r.ServerTime.In(loc)
		date := local.Format(utils.DateLayout)

		if n := len(out); n == 0 || out[n-1].EmployeeID != r.EmployeeID || out[n-1].Date != date {
			out = append(out, DaySummary{EmployeeID: r.EmployeeID, Date: date, From: local, To: local})
			openAt = nil
		}
		day := &out[len(out)-1]
		day.Punches++
		if local.Before(day.From) {
			day.From = local
		}
		if local.After(day.To) {
			day.To = local
		}

		switch r.TransactionType {
		case "IN":
			t := local
			openAt = &t
		case "OUT":
			if openAt != nil {
				day.WorkedSeconds += int64(local.Sub(*openAt) / time.Second)
				openAt = nil
			}
		}
		day.Open = openAt != nil
	}
	return out
}

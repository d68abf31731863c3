package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"axiapac.com/punchclock/api/v1/common"
	"axiapac.com/punchclock/utils"
)

type TransactionDTO struct {
	TransactionType     string `json:"transactiontype"`
	TransactionDate     string `json:"transactiondate,omitempty"`
	TransactionTime     string `json:"transactiontime,omitempty"`
	TransactionDateTime string `json:"transactiondatetime,omitempty"`
	DeviceClass         string `json:"deviceclass,omitempty"`
}

// When prefers the full timestamp and falls back to date and time in loc.
func (dto *TransactionDTO) When(loc *time.Location) (time.Time, error) {
	if dto.TransactionDateTime != "" {
		t, err := utils.ParseISOTime(dto.TransactionDateTime)
		if err != nil {
			return time.Time{}, err
		}
		return *t, nil
	}
	return utils.ParseDateTimeIn(dto.TransactionDate, dto.TransactionTime, loc)
}

type ProfileDTO struct {
	EmployeeNumber  string           `json:"employeenumber"`
	ToBeValidated   common.FlexBool  `json:"tobevalidated"`
	GeoCoordinates  common.RawText   `json:"geocoordinates"`
	Radius          common.FlexFloat `json:"radius"`
	MinimumPunchGap common.FlexFloat `json:"minimumpunchgap"`
	LastPunchType   string           `json:"lastpunchtype"`
	LastTransaction *TransactionDTO  `json:"lastTransaction,omitempty"`
}

type ProfileEndpoint struct {
	transport *Transport
}

func (this *ProfileEndpoint) Get(ctx context.Context, employeeID string) (*ProfileDTO, error) {
	resp, err := this.transport.Get(ctx, fmt.Sprintf("/api/v1/employees/%s/profile", url.PathEscape(employeeID)), nil)
	if err != nil {
		return nil, err
	}

	var result common.StatusAPIResponse[*ProfileDTO]
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	if !result.Status || result.Data == nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: result.ErrorMessage("profile not found")}
	}
	if result.Data.EmployeeNumber == "" {
		result.Data.EmployeeNumber = employeeID
	}
	return result.Data, nil
}

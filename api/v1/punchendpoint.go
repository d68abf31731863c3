package v1

import (
	"context"
	"encoding/json"

	"axiapac.com/punchclock/api/v1/common"
)

// PunchDTO is the attendance punch payload. Coordinates are JSON encoded
// [lat,lng] strings, matchingcoordinates is "[]" when nothing matched.
type PunchDTO struct {
	EmployeeNumber      string `json:"employeenumber"`
	TransactionDate     string `json:"transactiondate"` // yyyy-MM-dd
	TransactionTime     string `json:"transactiontime"` // HH:mm:ss
	TransactionType     string `json:"transactiontype"`
	IsGeoValidated      bool   `json:"isgeovalidated"`
	OriginalCoordinates string `json:"originalcoordinates"`
	MatchingCoordinates string `json:"matchingcoordinates"`
}

type PunchResultDTO struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

type PunchEndpoint struct {
	transport *Transport
}

func (this *PunchEndpoint) Submit(ctx context.Context, dto *PunchDTO) (*common.StatusAPIResponse[*PunchResultDTO], error) {
	resp, err := this.transport.Post(ctx, "/api/v1/attendance/punch", dto, nil)
	if err != nil {
		return nil, err
	}

	var result common.StatusAPIResponse[*PunchResultDTO]
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: result.ErrorMessage("punch was not accepted")}
	}

	return &result, nil
}

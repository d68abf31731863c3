package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"axiapac.com/punchclock/utils"
)

type ServerTimeDTO struct {
	CurrentDate string          `json:"currentDate"` // yyyy-MM-dd
	CurrentTime string          `json:"currentTime"` // HH:mm:ss
	ServerTime  json.RawMessage `json:"serverTime"`
}

// Time returns the authoritative instant. serverTime may be an ISO string or
// epoch milliseconds; without it the date and time are read in loc.
func (dto *ServerTimeDTO) Time(loc *time.Location) (time.Time, error) {
	raw := strings.Trim(strings.TrimSpace(string(dto.ServerTime)), `"`)
	if raw != "" && raw != "null" {
		t, err := utils.ParseISOTime(raw)
		if err != nil {
			return time.Time{}, err
		}
		return *t, nil
	}
	if dto.CurrentDate == "" || dto.CurrentTime == "" {
		return time.Time{}, fmt.Errorf("server time missing from response")
	}
	return utils.ParseDateTimeIn(dto.CurrentDate, dto.CurrentTime, loc)
}

type TimeEndpoint struct {
	transport *Transport
}

func (this *TimeEndpoint) Current(ctx context.Context) (*ServerTimeDTO, error) {
	resp, err := this.transport.Get(ctx, "/api/v1/time", nil)
	if err != nil {
		return nil, err
	}

	var result ServerTimeDTO
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

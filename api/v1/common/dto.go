package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"axiapac.com/punchclock/utils"
)

// FlexBool accepts true/false, 1/0 and "Y"/"N" style strings.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*b = false
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = FlexBool(t)
	case float64:
		*b = t != 0
	case string:
		parsed, err := utils.ParseYesNo(t)
		if err != nil {
			return err
		}
		*b = FlexBool(parsed)
	default:
		return fmt.Errorf("invalid boolean value %s", data)
	}
	return nil
}

// FlexFloat accepts a number or a numeric string. Blank means zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*f = 0
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", data)
	}
	*f = FlexFloat(v)
	return nil
}

// RawText keeps a JSON string's contents, or the raw JSON of any other value.
type RawText string

func (r *RawText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RawText(s)
		return nil
	}
	*r = RawText(data)
	return nil
}

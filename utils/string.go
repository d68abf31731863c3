package utils

import (
	"fmt"
	"strings"
)

// YesNo renders a flag the way the backend and the reports spell it.
func YesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// ParseYesNo reads Y/N, yes/no, true/false and 1/0. Blank is false.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "1":
		return true, nil
	case "", "N", "NO", "FALSE", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}

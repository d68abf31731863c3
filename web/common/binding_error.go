package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"axiapac.com/punchclock/utils"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func FormatBindingError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}

	// e.g. a string where a number is expected
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return strings.Join(utils.Map(ve, formatFieldError), ", ")
	}

	return err.Error()
}

// fieldMessages holds the message for each validation tag the agent API
// uses. %[1]s is the field and %[2]s the tag parameter.
var fieldMessages = map[string]string{
	"required": "Field '%[1]s' is required",
	"gte":      "Field '%[1]s' must be greater than or equal to %[2]s",
	"lte":      "Field '%[1]s' must be less than or equal to %[2]s",
	"min":      "Field '%[1]s' must be at least %[2]s",
	"max":      "Field '%[1]s' must be at most %[2]s",
	"oneof":    "Field '%[1]s' must be one of [%[2]s]",
	"jwt":      "Field '%[1]s' must be a JWT",
}

func formatFieldError(fe validator.FieldError) string {
	if format, ok := fieldMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

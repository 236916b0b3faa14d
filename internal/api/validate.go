package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks a request body before it is sent. Failures are reported as
// a *ValidationError naming the offending fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}

	var required, invalid []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "notblank":
			required = append(required, fe.Field())
		default:
			invalid = append(invalid, fe.Field())
		}
	}

	var parts []string
	if len(required) > 0 {
		parts = append(parts, joinFields(required)+" "+pluralize(len(required), "is", "are")+" required")
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid "+joinFields(invalid))
	}
	return &ValidationError{Message: strings.Join(parts, "; ")}
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1]
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// ErrInvalidMetadata is the message shown when edited metadata is not JSON
const ErrInvalidMetadata = "Invalid JSON in metadata. Please check the syntax."

// ParseMetadata turns operator-typed metadata into a JSON value.
//
// Blank input yields nil. Valid JSON is returned unchanged. Invalid JSON is
// stored as a JSON string when lenient is set (create flow) and rejected with
// a *ValidationError otherwise (edit flow).
func ParseMetadata(text string, lenient bool) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if json.Valid([]byte(text)) {
		return json.RawMessage(text), nil
	}
	if !lenient {
		return nil, &ValidationError{Message: ErrInvalidMetadata}
	}
	data, err := json.Marshal(text)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return json.RawMessage(data), nil
}

// EditMetadata parses metadata typed in the edit flow, where blank means an
// empty object
func EditMetadata(text string) (json.RawMessage, error) {
	raw, err := ParseMetadata(text, false)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return json.RawMessage("{}"), nil
	}
	return raw, nil
}

package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vaughan-dsouza/salonbook/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// maxbytes bounds the encoded length, where max counts runes
	_ = validate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
}

// Normalizer is implemented by request bodies that canonicalise their
// fields (trimming, case folding) before validation.
type Normalizer interface {
	Normalize()
}

// JSON writes a JSON response with status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes e as {"code": ..., "message": ...} with its status.
func Error(w http.ResponseWriter, e *apperr.Error) {
	JSON(w, e.Status, e)
}

// DecodeJSON parses the JSON body into v, normalises it when v is a
// Normalizer, and validates it. On failure it has already written a
// VALIDATION_ERROR response.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		err := apperr.Validation(apperr.FieldError{Field: "body", Message: "empty request body"})
		Error(w, err)
		return err
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		msg := "invalid JSON"
		if errors.Is(err, io.EOF) {
			msg = "empty request body"
		}
		appErr := apperr.Validation(apperr.FieldError{Field: "body", Message: msg})
		Error(w, appErr)
		return appErr
	}

	if n, ok := v.(Normalizer); ok {
		n.Normalize()
	}

	if err := Validate(v); err != nil {
		Error(w, err)
		return err
	}

	return nil
}

// Validate runs the struct's `validate` tags and converts failures into a
// field-level VALIDATION_ERROR. It returns nil when v is valid.
func Validate(v interface{}) *apperr.Error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(apperr.FieldError{Field: "body", Message: err.Error()})
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperr.Validation(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "datetime":
		return "must match the format " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "e164":
		return "must be a phone number in international format"
	}
	return "is invalid"
}

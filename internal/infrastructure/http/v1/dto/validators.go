package dto

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
)

// Now is the clock used by date rules.
var Now = time.Now

// RegisterValidators adds the custom rules used by request DTOs.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("notfuture", notFuture)
}

// notFuture accepts dates up to and including today (UTC). Strings are
// parsed as calendar dates or RFC 3339 timestamps; unparsable strings are
// left to the datetime rule.
func notFuture(fl validator.FieldLevel) bool {
	var t time.Time
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		if field.String() == "" {
			return true
		}
		parsed, err := ParseDate(fl.FieldName(), field.String())
		if err != nil {
			return true
		}
		t = parsed
	case reflect.Struct:
		v, ok := field.Interface().(time.Time)
		if !ok {
			return false
		}
		if v.IsZero() {
			return true
		}
		t = v
	default:
		return false
	}

	day := t.UTC().Truncate(24 * time.Hour)
	today := Now().UTC().Truncate(24 * time.Hour)
	return !day.After(today)
}

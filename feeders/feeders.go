// Package feeders populates configuration structs from files and the
// environment.
package feeders

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/golobby/cast"
)

var (
	ErrInvalidStructure = errors.New("feeder: target must be a pointer to a struct")
	ErrFieldNotSettable = errors.New("feeder: field cannot be set")
)

var durationType = reflect.TypeOf(time.Duration(0))

// SetFieldFromString converts raw to the field's type and assigns it.
// Durations use time.ParseDuration and string slices are comma separated.
func SetFieldFromString(field reflect.Value, raw string) error {
	if !field.CanSet() {
		return ErrFieldNotSettable
	}

	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("cannot parse duration %q: %w", raw, err)
		}
		field.SetInt(int64(d))
		return nil
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(field.Type().Elem()))
			}
		}
		field.Set(out)
		return nil
	}

	converted, err := cast.FromType(raw, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
	}
	cv := reflect.ValueOf(converted)
	if !cv.Type().ConvertibleTo(field.Type()) {
		return fmt.Errorf("cannot convert %v to %v", cv.Type(), field.Type())
	}
	field.Set(cv.Convert(field.Type()))
	return nil
}

func structValue(target any) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, ErrInvalidStructure
	}
	return v.Elem(), nil
}

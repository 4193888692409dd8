package feeders

import (
	"fmt"
	"os"
	"reflect"
	"strings"
)

// EnvFeeder fills struct fields tagged `env:"NAME"` from environment
// variables. With a Prefix set the variable is PREFIX_NAME; FeedKey adds the
// section, giving PREFIX_SECTION_NAME.
type EnvFeeder struct {
	Prefix string
}

func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

func (f EnvFeeder) Feed(structure any) error {
	rv, err := structValue(structure)
	if err != nil {
		return err
	}
	return fillStruct(rv, strings.ToUpper(f.Prefix))
}

func (f EnvFeeder) FeedKey(key string, target any) error {
	rv, err := structValue(target)
	if err != nil {
		return err
	}
	return fillStruct(rv, joinEnv(strings.ToUpper(f.Prefix), strings.ToUpper(key)))
}

func fillStruct(rv reflect.Value, prefix string) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}

		tag, hasTag := fieldType.Tag.Lookup("env")
		if field.Kind() == reflect.Struct && field.Type() != durationType {
			nested := prefix
			if hasTag {
				nested = joinEnv(prefix, strings.ToUpper(tag))
			}
			if err := fillStruct(field, nested); err != nil {
				return err
			}
			continue
		}
		if !hasTag {
			continue
		}

		name := joinEnv(prefix, strings.ToUpper(tag))
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if err := SetFieldFromString(field, value); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
	}
	return nil
}

func joinEnv(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

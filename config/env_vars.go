// Copyright 2025, the filekit contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedSliceType    = errors.New("unsupported slice type")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeFor[time.Duration]()

// envTag is a parsed `env:"NAME[,overwrite]"` struct tag.
type envTag struct {
	name      string
	overwrite bool
}

func parseEnvTag(raw string) envTag {
	parts := strings.Split(raw, ",")

	return envTag{name: parts[0], overwrite: slices.Contains(parts[1:], "overwrite")}
}

// readEnv walks the struct pointed to by target and assigns every field that
// carries an env tag from the matching environment variable.
//
// Unset variables leave the field alone. Fields without ",overwrite" are
// only filled when they still hold their zero value.
func readEnv(target any) error {
	structValue := reflect.ValueOf(target)
	if structValue.Kind() != reflect.Pointer {
		return fmt.Errorf("%w, got %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structValue = structValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("%w, got a pointer to %s", errExpectedPointerToStruct, structValue.Kind())
	}

	structType := structValue.Type()

	for i := range structValue.NumField() {
		field := structValue.Field(i)
		fieldType := structType.Field(i)

		raw, tagged := fieldType.Tag.Lookup("env")
		if !tagged || fieldType.Anonymous {
			if field.Kind() == reflect.Struct && field.CanAddr() && fieldType.IsExported() {
				if err := readEnv(field.Addr().Interface()); err != nil {
					return err
				}
			}

			continue
		}

		tag := parseEnvTag(raw)

		value, exists := os.LookupEnv(tag.name)
		if !exists || !field.CanSet() {
			continue
		}

		if !tag.overwrite && !field.IsZero() {
			continue
		}

		if err := setFieldValue(field, fieldType.Name, tag.name, value); err != nil {
			return err
		}
	}

	return nil
}

// setFieldValue converts value to the field's kind and stores it.
func setFieldValue(field reflect.Value, fieldName, envVarName, value string) error {
	parseErr := func(kind string, err error) error {
		return fmt.Errorf("failed to parse %s for %s from env var %s (%s): %w",
			kind, fieldName, envVarName, value, err)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return parseErr("duration", err)
			}

			field.SetInt(int64(d))

			return nil
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return parseErr("int", err)
		}

		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return parseErr("bool", err)
		}

		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w for field %s", errUnsupportedSliceType, fieldName)
		}

		field.Set(reflect.ValueOf(splitList(value)))
	default:
		return fmt.Errorf("%w for field %s: %s", errUnsupportedFieldType, fieldName, field.Kind())
	}

	return nil
}

// splitList splits a comma separated value, dropping blank items.
func splitList(value string) []string {
	items := strings.Split(value, ",")
	out := make([]string, 0, len(items))

	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

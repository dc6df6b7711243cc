package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/framesource/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "FRAMESOURCE_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// opts must be a pointer to a flat struct whose fields carry `toml` and `env` tags;
// a string field named Config holds the file path. If cmd is provided, flags
// explicitly set via CLI will not be overwritten.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: expected pointer to struct, got %T", opts)
	}
	v = v.Elem()
	t := v.Type()

	changed := changedFlags(cmd)

	var configPath string
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
		configPath = f.String()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			var doc map[string]any
			if err := toml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse TOML config %s: %w", configPath, err)
			}
			for i := 0; i < v.NumField(); i++ {
				field := t.Field(i)
				if changed[fieldNameToFlag(field.Name)] {
					continue
				}
				if path := field.Tag.Get("toml"); path != "" {
					if value := getNestedValue(doc, path); value != nil {
						setFieldValue(v.Field(i), value)
					}
				}
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if changed[fieldNameToFlag(field.Name)] {
			continue
		}
		if key := field.Tag.Get("env"); key != "" {
			if value := os.Getenv(EnvPrefix + key); value != "" {
				setFieldValueFromString(v.Field(i), value)
			}
		}
	}

	return nil
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	if cmd == nil {
		return changed
	}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			changed[f.Name] = true
		}
	})
	return changed
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "FPS" -> "fps".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var result []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				result = append(result, '-')
			}
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue sets a field from a decoded TOML value. Durations may be
// written as strings ("500ms") or integer nanoseconds.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		switch d := value.(type) {
		case string:
			if parsed, err := time.ParseDuration(d); err == nil {
				field.SetInt(int64(parsed))
			}
		case int64:
			field.SetInt(d)
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
		}
	case reflect.Float64:
		switch f := value.(type) {
		case float64:
			field.SetFloat(f)
		case int64:
			field.SetFloat(float64(f))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		if arr, ok := value.([]any); ok {
			slice := make([]string, 0, len(arr))
			for _, item := range arr {
				if s, strOk := item.(string); strOk {
					slice = append(slice, s)
				}
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	if field.Type() == durationType {
		if d, err := time.ParseDuration(value); err == nil {
			field.SetInt(int64(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Float64:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			field.SetFloat(f)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
}

// LoadLoggingConfig reads the [logging] table of a TOML file. "level" and
// "format" are global; every other key is a module level.
func LoadLoggingConfig(configPath string) (logging.Config, error) {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	var raw struct {
		Logging map[string]any `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config %s: %w", configPath, err)
	}

	for key, value := range raw.Logging {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch key {
		case "level":
			cfg.Level = s
		case "format":
			cfg.Format = s
		default:
			cfg.Modules[key] = s
		}
	}

	return cfg, nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

func outputFormat() (string, error) {
	output := viper.GetString("output")

	switch output {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, output)
	}
}

// encode writes value as JSON or YAML and reports whether it did.
func encode(w io.Writer, format string, value interface{}) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(value)
		if err != nil {
			return true, err
		}

		return true, encoder.Close()
	default:
		return false, nil
	}
}

// renderObject prints a single record, one field per row in table mode.
func renderObject(w io.Writer, object fxcrm.Object) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	done, err := encode(w, format, normalize(object))
	if done || err != nil {
		return err
	}

	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	for _, key := range keys {
		_ = table.Append(key, formatValue(object[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderObjects prints a list of records, one per row in table mode.
func renderObjects(w io.Writer, objects []fxcrm.Object, fields []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	normalized := make([]interface{}, 0, len(objects))
	for _, object := range objects {
		normalized = append(normalized, normalize(object))
	}

	done, err := encode(w, format, normalized)
	if done || err != nil {
		return err
	}

	if len(objects) == 0 {
		_, err = fmt.Fprintln(w, "No records found")

		return err
	}

	columns := columnsFor(objects, fields)
	header := make([]any, 0, len(columns))

	for _, column := range columns {
		header = append(header, column)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for _, object := range objects {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, formatValue(object[column]))
		}

		_ = table.Append(row)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// normalize converts json.Number values so YAML renders them as numbers.
func normalize(value interface{}) interface{} {
	switch typed := value.(type) {
	case fxcrm.Object:
		return normalize(map[string]interface{}(typed))
	case map[string]interface{}:
		result := make(map[string]interface{}, len(typed))
		for key, item := range typed {
			result[key] = normalize(item)
		}

		return result
	case []interface{}:
		result := make([]interface{}, len(typed))
		for i, item := range typed {
			result[i] = normalize(item)
		}

		return result
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}

		if float, err := typed.Float64(); err == nil {
			return float
		}

		return typed.String()
	default:
		return value
	}
}

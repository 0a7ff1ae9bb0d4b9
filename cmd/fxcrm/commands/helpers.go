package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sharecrm-io/fxcrm/internal/constants"
	"github.com/sharecrm-io/fxcrm/pkg/fxcrm"
)

// Order directions accepted by --order.
const (
	Asc  = "asc"
	Desc = "desc"
)

// parseFilter parses field:operator:value. The value may contain colons;
// IN and NIN take a comma separated list.
func parseFilter(raw string) (fxcrm.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return fxcrm.Filter{}, fmt.Errorf("%w: %q", constants.ErrInvalidFilterFormat, raw)
	}

	operator := strings.ToUpper(parts[1])

	var values []interface{}

	switch operator {
	case fxcrm.OperatorIn, fxcrm.OperatorNin:
		for _, value := range strings.Split(parts[2], ",") {
			values = append(values, strings.TrimSpace(value))
		}
	default:
		values = []interface{}{parts[2]}
	}

	return fxcrm.Filter{
		FieldName:   parts[0],
		FieldValues: values,
		Operator:    operator,
	}, nil
}

// parseOrder parses field:asc or field:desc; the direction defaults to asc.
func parseOrder(raw string) (fxcrm.Order, error) {
	field, direction, found := strings.Cut(raw, ":")
	if field == "" {
		return fxcrm.Order{}, fmt.Errorf("%w: %q", constants.ErrInvalidOrderFormat, raw)
	}

	if !found {
		return fxcrm.Order{FieldName: field, IsAsc: true}, nil
	}

	switch strings.ToLower(direction) {
	case Asc:
		return fxcrm.Order{FieldName: field, IsAsc: true}, nil
	case Desc:
		return fxcrm.Order{FieldName: field, IsAsc: false}, nil
	default:
		return fxcrm.Order{}, fmt.Errorf("%w: %q", constants.ErrInvalidOrderFormat, raw)
	}
}

// splitFields splits a comma separated field list, dropping blanks.
func splitFields(raw string) []string {
	var fields []string

	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}

	return fields
}

// loadObjectData reads the record to create from --data or --file.
func loadObjectData(data, file string) (fxcrm.Object, error) {
	switch {
	case data != "":
		var object fxcrm.Object

		err := json.Unmarshal([]byte(data), &object)
		if err != nil {
			return nil, fmt.Errorf("parsing --data: %w", err)
		}

		return object, nil
	case file != "":
		return loadObjectFile(file)
	default:
		return nil, constants.ErrDataOrFileRequired
	}
}

func loadObjectFile(path string) (fxcrm.Object, error) {
	// #nosec G304 -- the user chose the payload file
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var object fxcrm.Object

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(content, &object)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &object)
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnsupportedFileType, path)
	}

	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return object, nil
}

// formatValue renders a field value for table output.
func formatValue(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}

		return string(encoded)
	}
}

// columnsFor returns the requested fields, or the sorted union of keys.
func columnsFor(objects []fxcrm.Object, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}

	seen := make(map[string]struct{})

	for _, object := range objects {
		for key := range object {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

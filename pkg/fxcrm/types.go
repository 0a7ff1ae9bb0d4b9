package fxcrm

import (
	"encoding/json"
	"strings"
)

// Object is a decoded JSON object: a CRM record, an envelope body, or the
// unwrapped data member of an envelope. Numbers are kept as json.Number.
type Object map[string]interface{}

// String returns the string value stored under key, if any.
func (o Object) String(key string) (string, bool) {
	value, ok := o[key].(string)

	return value, ok
}

// Int returns the integer value stored under key, if any.
func (o Object) Int(key string) (int, bool) {
	value, ok := o[key]
	if !ok {
		return 0, false
	}

	return intValue(value)
}

// Params is the nested parameter tree sent as the JSON request body.
type Params map[string]interface{}

// Clone returns a deep copy of the parameter tree. Nested maps and slices
// are copied; other values are shared.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}

	cloned, _ := cloneValue(map[string]interface{}(p)).(map[string]interface{})

	return Params(cloned)
}

// SetPath stores value at the nested key path, creating intermediate maps.
func (p Params) SetPath(value interface{}, keys ...string) {
	if len(keys) == 0 {
		return
	}

	current := map[string]interface{}(p)

	for _, key := range keys[:len(keys)-1] {
		next, ok := asMap(current[key])
		if !ok {
			next = map[string]interface{}{}
			current[key] = next
		}

		current = next
	}

	current[keys[len(keys)-1]] = value
}

// GetPath returns the value at the nested key path.
func (p Params) GetPath(keys ...string) (interface{}, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	current := map[string]interface{}(p)

	for _, key := range keys[:len(keys)-1] {
		next, ok := asMap(current[key])
		if !ok {
			return nil, false
		}

		current = next
	}

	value, ok := current[keys[len(keys)-1]]

	return value, ok
}

// Merge copies every top-level key of other into p, overwriting existing keys.
func (p Params) Merge(other Params) {
	for key, value := range other.Clone() {
		p[key] = value
	}
}

// SplitPath splits a dotted parameter path such as "data.search_query_info.offset".
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, ".")
}

// Path addresses an endpoint either by literal URL or by segments joined
// under the configured API root and version.
type Path struct {
	url      string
	segments []string
}

// URL returns a Path that is used verbatim.
func URL(rawURL string) Path {
	return Path{url: rawURL}
}

// Segments returns a Path resolved as {apiRoot}/{apiVersion}/{segments...}.
func Segments(segments ...string) Path {
	return Path{segments: append([]string(nil), segments...)}
}

// IsURL reports whether the path is a literal URL.
func (p Path) IsURL() bool {
	return p.url != ""
}

// Resolve returns the absolute URL for the path.
func (p Path) Resolve(root, version string) string {
	if p.IsURL() {
		return p.url
	}

	parts := make([]string, 0, len(p.segments)+2)
	parts = append(parts, strings.TrimSuffix(root, "/"), strings.Trim(version, "/"))

	for _, segment := range p.segments {
		parts = append(parts, strings.Trim(segment, "/"))
	}

	return strings.Join(parts, "/")
}

// String implements fmt.Stringer.
func (p Path) String() string {
	if p.IsURL() {
		return p.url
	}

	return strings.Join(p.segments, "/")
}

// File is a multipart upload attached to a call.
type File struct {
	// Field is the multipart form field name.
	Field string
	// Path is read when Content is nil.
	Path string
	// Filename overrides the base name of Path.
	Filename string
	// Content is sent instead of reading Path.
	Content []byte
}

// TokenPair is the identity injected into every data request body.
type TokenPair struct {
	CorpAccessToken string `json:"corpAccessToken"`
	CorpID          string `json:"corpId"`
}

func asMap(value interface{}) (map[string]interface{}, bool) {
	switch typed := value.(type) {
	case map[string]interface{}:
		return typed, true
	case Params:
		return map[string]interface{}(typed), true
	case Object:
		return map[string]interface{}(typed), true
	default:
		return nil, false
	}
}

func cloneValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		cloned := make(map[string]interface{}, len(typed))
		for key, item := range typed {
			cloned[key] = cloneValue(item)
		}

		return cloned
	case Params:
		return Params(typed).Clone()
	case Object:
		cloned, _ := cloneValue(map[string]interface{}(typed)).(map[string]interface{})

		return Object(cloned)
	case []interface{}:
		cloned := make([]interface{}, len(typed))
		for i, item := range typed {
			cloned[i] = cloneValue(item)
		}

		return cloned
	case []string:
		return append([]string(nil), typed...)
	default:
		return value
	}
}

func intValue(value interface{}) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case int32:
		return int(typed), true
	case float64:
		return int(typed), true
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			floatValue, floatErr := typed.Float64()
			if floatErr != nil {
				return 0, false
			}

			return int(floatValue), true
		}

		return int(parsed), true
	default:
		return 0, false
	}
}

// Copyright (c) 2025-2026 The gchatmcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mcp

// In this file: argument validation against a tool's input schema.

import "fmt"

// ArgumentError describes an argument that failed schema validation.  Field
// names the offending argument and is surfaced to the client in the error
// data.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// Validate checks args against the schema: every required field must be
// present, and every present field with a declared type must match it.
// Unknown arguments are passed through untouched, mirroring the permissive
// behaviour of JSON Schema objects without additionalProperties.
func (s Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return &ArgumentError{Field: name, Reason: "required argument is missing"}
		}
	}
	for name, v := range args {
		prop, ok := s.Properties[name]
		if !ok {
			continue
		}
		if !typeMatches(prop.Type, v) {
			return &ArgumentError{Field: name, Reason: fmt.Sprintf("expected %s, got %T", prop.Type, v)}
		}
	}
	return nil
}

// typeMatches reports whether a decoded JSON value conforms to a JSON Schema
// primitive type name.  Numbers arrive as float64 from encoding/json, but
// handler-constructed argument maps may carry native ints.
func typeMatches(schemaType string, v any) bool {
	if schemaType == "" || v == nil {
		return true
	}
	switch schemaType {
	case "string":
		_, ok := v.(string)
		return ok
	case "integer", "number":
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	}
	return true
}

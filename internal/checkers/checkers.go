// Package checkers provides quicktest checkers shared across the test suite.
package checkers

import (
	"encoding/json"
	"fmt"

	qt "github.com/frankban/quicktest"
	"github.com/yalp/jsonpath"
)

// jsonPathEqualsChecker implements qt.Checker, comparing the value at a
// JSONPath against a single expected value.
type jsonPathEqualsChecker struct {
	*qt.CheckerInfo
	path string
}

// JSONPathEquals returns a checker that parses "got" as JSON ([]byte or
// string), reads path from the parsed document, and compares the result
// against the single "want" argument for equality.
//
//	c.Assert(data, checkers.JSONPathEquals("$.mcpServers.vaultmem.command"), "memory")
func JSONPathEquals(path string) qt.Checker {
	return &jsonPathEqualsChecker{
		CheckerInfo: &qt.CheckerInfo{Name: "JSONPathEquals", Args: []string{"got", "want"}},
		path:        path,
	}
}

func (c *jsonPathEqualsChecker) Check(got any, args []any, note func(key string, value any)) error {
	want := args[0]

	var raw []byte
	switch v := got.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("JSONPathEquals: got value must be []byte or string, got %T", got)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("JSONPathEquals: invalid JSON: %w", err)
	}

	val, err := jsonpath.Read(doc, c.path)
	if err != nil {
		return fmt.Errorf("JSONPathEquals: path %q: %w", c.path, err)
	}
	note("value at path", val)

	if val != want {
		return fmt.Errorf("JSONPathEquals: path %q: got %v, want %v", c.path, val, want)
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Opsdash Contributors

package collector

import (
	"strings"

	"github.com/tidwall/gjson"

	opserr "github.com/opsdash-dev/opsdash/pkg/errors"
)

// ParseJSONOutput parses JSON emitted by a collector command. A top-level
// object becomes the payload directly; any other JSON value is wrapped under
// a "data" key so the fetch contract (map payload) always holds.
func ParseJSONOutput(output string) (map[string]any, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, opserr.New(opserr.CodeCollectorParseInvalid, "no output to parse")
	}
	if !gjson.Valid(trimmed) {
		return nil, opserr.New(opserr.CodeCollectorParseInvalid, "invalid JSON output")
	}

	parsed := gjson.Parse(trimmed)
	if parsed.IsObject() {
		obj, ok := parsed.Value().(map[string]any)
		if !ok {
			return nil, opserr.New(opserr.CodeCollectorParseInvalid, "invalid JSON object")
		}
		return obj, nil
	}

	return map[string]any{"data": parsed.Value()}, nil
}

// SafeGet traverses nested maps by key, returning nil when any step of the
// path is missing or not a map.
func SafeGet(data map[string]any, keys ...string) any {
	var current any = data
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// FormatError shapes an error message for a width-constrained display:
// common prefixes stripped, truncated to maxLen, optional type tag.
func FormatError(msg, errType string, maxLen int) string {
	if msg == "" {
		return "unknown error"
	}

	for _, prefix := range []string{"Error: ", "ERROR: ", "error: "} {
		if strings.HasPrefix(msg, prefix) {
			msg = msg[len(prefix):]
			break
		}
	}

	if maxLen > 0 {
		if runes := []rune(msg); len(runes) > maxLen {
			msg = string(runes[:maxLen-1]) + "…"
		}
	}

	if errType != "" {
		return "[" + errType + "] " + msg
	}
	return msg
}

// Package shape probes inconsistent JSON envelopes. The upstream API has
// historically returned the same logical list under several different key
// paths ({success, data:{...}}, a bare array, {plans:[...]}), so every
// consumer resolves values through an ordered candidate-path list and takes
// the first match.
package shape

import (
	"time"

	"github.com/tidwall/gjson"
)

// Root is the candidate path standing for the payload itself, for
// endpoints that return a bare array.
const Root = "@this"

// ExtractArray probes paths in order and returns the first array found.
// A missing payload or no matching path yields an empty slice, never nil
// panics downstream.
func ExtractArray(payload gjson.Result, paths ...string) []gjson.Result {
	for _, p := range paths {
		v := resolve(payload, p)
		if v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

// ExtractObject probes paths in order and returns the first object found
// along with true, or the zero Result and false.
func ExtractObject(payload gjson.Result, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		v := resolve(payload, p)
		if v.IsObject() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// FirstString returns the first non-empty string among the candidate keys.
func FirstString(payload gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := payload.Get(k); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// FirstNumber returns the first numeric value among the candidate keys.
// Numeric strings ("120") count; empty strings and nulls do not.
func FirstNumber(payload gjson.Result, keys ...string) (float64, bool) {
	for _, k := range keys {
		v := payload.Get(k)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		switch v.Type {
		case gjson.Number:
			return v.Float(), true
		case gjson.String:
			if v.Str == "" {
				continue
			}
			f := v.Float()
			if f != 0 || v.Str == "0" {
				return f, true
			}
		}
	}
	return 0, false
}

// FirstInt is FirstNumber truncated to int.
func FirstInt(payload gjson.Result, keys ...string) (int, bool) {
	f, ok := FirstNumber(payload, keys...)
	return int(f), ok
}

// timeLayouts covers the formats the upstream mixes freely.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// FirstTime parses the first recognizable timestamp among the candidate
// keys. Unix-second numbers are accepted alongside the string layouts.
func FirstTime(payload gjson.Result, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v := payload.Get(k)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.Number {
			return time.Unix(v.Int(), 0).UTC(), true
		}
		s := v.String()
		if s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func resolve(payload gjson.Result, path string) gjson.Result {
	if path == Root {
		return payload
	}
	return payload.Get(path)
}

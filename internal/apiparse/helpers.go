package apiparse

import (
	"strconv"

	gojson "github.com/goccy/go-json"
	jp "github.com/gravwell/jsonparser"
)

// validJSON reports whether payload is syntactically well-formed JSON
// (spec §7.5 JsonInvalid: a response that is not valid JSON at all must be
// logged and skipped rather than silently parsed as an all-empty record).
func validJSON(payload []byte) bool {
	return gojson.Valid(payload)
}

// getStr returns the string at keys, or "" if absent/wrong type. Several
// Alexa endpoints mix string and numeric JSON types for the same logical
// field across API versions, so numeric/bool values are stringified rather
// than treated as errors.
func getStr(data []byte, keys ...string) string {
	v, t, _, err := jp.Get(data, keys...)
	if err != nil {
		return ""
	}
	switch t {
	case jp.String:
		s, _ := jp.ParseString(v)
		return s
	case jp.Number, jp.Boolean:
		return string(v)
	default:
		return ""
	}
}

// getInt returns the integer at keys, or 0 if absent/unparseable.
func getInt(data []byte, keys ...string) int64 {
	v, err := jp.GetInt(data, keys...)
	if err == nil {
		return v
	}
	// Some fields arrive as numeric strings (e.g. release_date in seconds).
	if s := getStr(data, keys...); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// getBoolStr renders a boolean-ish field as "true"/"false" text, since the
// store's entity fields are all TEXT (matching the original peewee models'
// loose typing).
func getBoolStr(data []byte, keys ...string) string {
	v, err := jp.GetBoolean(data, keys...)
	if err != nil {
		return ""
	}
	if v {
		return "true"
	}
	return "false"
}

// eachArrayElement runs fn over every element of the array at keys,
// swallowing per-element extraction errors from jp.ArrayEach itself (a
// single malformed array element must not abort transformation of the
// rest of the array). A DbError returned by fn, by contrast, aborts the
// remaining elements and is propagated to the caller (spec §7.5 DbError:
// "aborts the containing parser call but not the whole run") — the
// harvester logs it and moves on to the next response.
func eachArrayElement(data []byte, keys []string, fn func(value []byte) error) error {
	var firstErr error
	_ = jp.ArrayEach(data, func(value []byte, dataType jp.ValueType, offset int, err error) {
		if err != nil || firstErr != nil {
			return
		}
		if e := fn(value); e != nil {
			firstErr = e
		}
	}, keys...)
	return firstErr
}

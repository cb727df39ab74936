// Package fetch is the data-fetch capability: retrieving an external
// payload, pulling a scalar out of it by dotted path, and evaluating a
// comparison operator against it. The resolver reaches the network only
// through the Fetcher interface; Extract and Evaluate are plain
// functions it calls directly.
package fetch

import (
	"context"
	"strconv"
	"strings"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/models"
)

// Fetcher retrieves and interprets an oracle payload. Implementations
// must honor ctx's deadline; HTTPFetcher applies its own 10-second
// default when the caller hasn't set one.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (map[string]any, error)
}

// Extract walks a dotted path with array-index syntax (field[n]) into
// payload and returns the leaf as a Scalar. Any missing or null link
// returns core.KindPathMissing.
func Extract(payload map[string]any, path string) (models.Scalar, error) {
	var cur any = payload
	for _, segment := range strings.Split(path, ".") {
		name, index, hasIndex := splitIndex(segment)

		m, ok := cur.(map[string]any)
		if !ok {
			return models.Scalar{}, core.New(core.KindPathMissing, "path %q: %q is not an object", path, name)
		}
		val, ok := m[name]
		if !ok || val == nil {
			return models.Scalar{}, core.New(core.KindPathMissing, "path %q: %q is missing", path, name)
		}

		if hasIndex {
			arr, ok := val.([]any)
			if !ok || index < 0 || index >= len(arr) {
				return models.Scalar{}, core.New(core.KindPathMissing, "path %q: %q[%d] out of range", path, name, index)
			}
			val = arr[index]
		}
		cur = val
	}
	return toScalar(cur)
}

// splitIndex parses "field[3]" into ("field", 3, true) or "field" into
// ("field", 0, false).
func splitIndex(segment string) (string, int, bool) {
	open := strings.IndexByte(segment, '[')
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}
	name := segment[:open]
	idxStr := segment[open+1 : len(segment)-1]
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return segment, 0, false
	}
	return name, idx, true
}

func toScalar(v any) (models.Scalar, error) {
	switch t := v.(type) {
	case string:
		return models.NewStringScalar(t), nil
	case float64:
		return models.NewNumberScalar(t), nil
	case bool:
		return models.NewBoolScalar(t), nil
	case map[string]any, []any:
		return models.Scalar{}, core.New(core.KindPathMissing, "leaf value is not a scalar")
	default:
		return models.Scalar{}, core.New(core.KindPathMissing, "unsupported leaf type %T", v)
	}
}

// Evaluate compares actual against expected using operator: numeric
// comparisons coerce via decimal parsing, equals/not_equals compare
// after string coercion, contains is a case-insensitive substring
// check on string coercions.
func Evaluate(actual models.Scalar, operator string, expected models.Scalar) (bool, error) {
	switch operator {
	case "equals":
		return actual.String() == expected.String(), nil
	case "not_equals":
		return actual.String() != expected.String(), nil
	case "contains":
		return strings.Contains(strings.ToLower(actual.String()), strings.ToLower(expected.String())), nil
	case ">", ">=", "<", "<=":
		a, err := strconv.ParseFloat(actual.String(), 64)
		if err != nil {
			return false, core.New(core.KindValidation, "actual value %q is not numeric", actual.String())
		}
		b, err := strconv.ParseFloat(expected.String(), 64)
		if err != nil {
			return false, core.New(core.KindValidation, "expected value %q is not numeric", expected.String())
		}
		switch operator {
		case ">":
			return a > b, nil
		case ">=":
			return a >= b, nil
		case "<":
			return a < b, nil
		default:
			return a <= b, nil
		}
	default:
		return false, core.New(core.KindUnknownOperator, "unknown operator %q", operator)
	}
}

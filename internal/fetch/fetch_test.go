package fetch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lmsrexchange/internal/core"
	"lmsrexchange/internal/fetch"
	"lmsrexchange/internal/models"
)

func TestExtractSimplePath(t *testing.T) {
	payload := map[string]any{"result": map[string]any{"score": 42.0}}
	v, err := fetch.Extract(payload, "result.score")
	require.NoError(t, err)
	require.Equal(t, models.NewNumberScalar(42.0), v)
}

func TestExtractArrayIndex(t *testing.T) {
	payload := map[string]any{"events": []any{
		map[string]any{"name": "first"},
		map[string]any{"name": "second"},
	}}
	v, err := fetch.Extract(payload, "events[1].name")
	require.NoError(t, err)
	require.Equal(t, models.NewStringScalar("second"), v)
}

func TestExtractMissingPathFails(t *testing.T) {
	payload := map[string]any{"result": map[string]any{}}
	_, err := fetch.Extract(payload, "result.score")
	require.Error(t, err)
	require.True(t, core.Is(err, core.KindPathMissing))
}

func TestExtractOutOfRangeIndex(t *testing.T) {
	payload := map[string]any{"events": []any{map[string]any{"name": "only"}}}
	_, err := fetch.Extract(payload, "events[5].name")
	require.Error(t, err)
	require.True(t, core.Is(err, core.KindPathMissing))
}

func TestEvaluateOperators(t *testing.T) {
	cases := []struct {
		name     string
		actual   models.Scalar
		op       string
		expected models.Scalar
		want     bool
	}{
		{"equals true", models.NewStringScalar("YES"), "equals", models.NewStringScalar("YES"), true},
		{"equals false", models.NewStringScalar("YES"), "equals", models.NewStringScalar("NO"), false},
		{"not_equals", models.NewStringScalar("YES"), "not_equals", models.NewStringScalar("NO"), true},
		{"gt", models.NewNumberScalar(10), ">", models.NewNumberScalar(5), true},
		{"gte equal", models.NewNumberScalar(5), ">=", models.NewNumberScalar(5), true},
		{"lt", models.NewNumberScalar(3), "<", models.NewNumberScalar(5), true},
		{"lte false", models.NewNumberScalar(9), "<=", models.NewNumberScalar(5), false},
		{"contains", models.NewStringScalar("Total Score"), "contains", models.NewStringScalar("score"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fetch.Evaluate(tc.actual, tc.op, tc.expected)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	_, err := fetch.Evaluate(models.NewStringScalar("a"), "fuzzy_matches", models.NewStringScalar("a"))
	require.Error(t, err)
	require.True(t, core.Is(err, core.KindUnknownOperator))
}

func TestEvaluateNonNumericComparisonFails(t *testing.T) {
	_, err := fetch.Evaluate(models.NewStringScalar("not-a-number"), ">", models.NewNumberScalar(5))
	require.Error(t, err)
	require.True(t, core.Is(err, core.KindValidation))
}

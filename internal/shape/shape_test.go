package shape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestExtractArray_ProbesCandidatePathsInOrder(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		paths   []string
		wantLen int
	}{
		{
			name:    "nested under data.plans",
			json:    `{"success":true,"data":{"plans":[{"id":1},{"id":2}]}}`,
			paths:   []string{"data.plans", "plans", Root},
			wantLen: 2,
		},
		{
			name:    "top-level plans",
			json:    `{"plans":[{"id":1}]}`,
			paths:   []string{"data.plans", "plans", Root},
			wantLen: 1,
		},
		{
			name:    "bare array",
			json:    `[{"id":1},{"id":2},{"id":3}]`,
			paths:   []string{"data.plans", "plans", Root},
			wantLen: 3,
		},
		{
			name:    "no match yields empty",
			json:    `{"data":{"other":true}}`,
			paths:   []string{"data.plans", "plans"},
			wantLen: 0,
		},
		{
			name:    "first match wins over later candidates",
			json:    `{"data":{"plans":[{"id":1}]},"plans":[{"id":9},{"id":8}]}`,
			paths:   []string{"data.plans", "plans"},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractArray(gjson.Parse(tt.json), tt.paths...)
			require.Len(t, got, tt.wantLen)
		})
	}
}

func TestExtractArray_ScalarAtCandidatePathIsSkipped(t *testing.T) {
	payload := gjson.Parse(`{"data":"oops","items":[1,2]}`)
	got := ExtractArray(payload, "data", "items")
	require.Len(t, got, 2)
}

func TestExtractObject(t *testing.T) {
	payload := gjson.Parse(`{"data":{"patient":{"id":7}}}`)

	obj, ok := ExtractObject(payload, "data.patient", "patient")
	require.True(t, ok)
	require.Equal(t, int64(7), obj.Get("id").Int())

	_, ok = ExtractObject(payload, "nothing", "here")
	require.False(t, ok)
}

func TestFirstString_AliasFallthrough(t *testing.T) {
	payload := gjson.Parse(`{"nombre":"Glicemia","title":""}`)

	require.Equal(t, "Glicemia", FirstString(payload, "name", "nombre", "title"))
	require.Equal(t, "", FirstString(payload, "name", "title"))
}

func TestFirstNumber(t *testing.T) {
	payload := gjson.Parse(`{"sistolica":"120","weight":null,"glucose":95.5,"empty":""}`)

	got, ok := FirstNumber(payload, "systolic", "sistolica")
	require.True(t, ok)
	require.Equal(t, 120.0, got)

	got, ok = FirstNumber(payload, "weight", "glucose")
	require.True(t, ok)
	require.Equal(t, 95.5, got)

	_, ok = FirstNumber(payload, "weight", "empty", "missing")
	require.False(t, ok)
}

func TestFirstNumber_ZeroString(t *testing.T) {
	payload := gjson.Parse(`{"value":"0"}`)

	got, ok := FirstNumber(payload, "value")
	require.True(t, ok)
	require.Equal(t, 0.0, got)
}

func TestFirstTime(t *testing.T) {
	payload := gjson.Parse(`{"fecha":"2026-03-15 08:30:00"}`)

	got, ok := FirstTime(payload, "date", "fecha")
	require.True(t, ok)
	require.Equal(t, 2026, got.Year())
	require.Equal(t, time.March, got.Month())

	unix := gjson.Parse(`{"timestamp":1700000000}`)
	got, ok = FirstTime(unix, "timestamp")
	require.True(t, ok)
	require.Equal(t, int64(1700000000), got.Unix())

	_, ok = FirstTime(payload, "missing")
	require.False(t, ok)
}

package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctxWithPath(t *testing.T, names, values []string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("2024-02-29")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "2024-13-01", "01/02/2024", "2024-02-30", "yesterday"} {
		_, ok := parseDate(bad)
		assert.False(t, ok, "input %q should not parse", bad)
	}
}

func TestPathID(t *testing.T) {
	c := ctxWithPath(t, []string{"id"}, []string{"42"})
	id, ok := pathID(c, "id")
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		c := ctxWithPath(t, []string{"id"}, []string{bad})
		_, ok := pathID(c, "id")
		assert.False(t, ok, "param %q should be rejected", bad)
	}
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name string
		set  any
		want uint64
	}{
		{"float64 claim", float64(7), 7},
		{"uint64", uint64(9), 9},
		{"int", int(3), 3},
		{"numeric string", "11", 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())
			c.Set("user_id", tc.set)
			got, err := getUserID(c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	c := e.NewContext(httptest.NewRequest("GET", "/", nil), httptest.NewRecorder())
	_, err := getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", "not-a-number")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestTodayIsUTCMidnight(t *testing.T) {
	d := today()
	assert.Equal(t, time.UTC, d.Location())
	assert.Zero(t, d.Hour())
	assert.Zero(t, d.Minute())
	assert.Zero(t, d.Second())
}

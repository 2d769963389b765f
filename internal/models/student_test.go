package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentFilterNormalize(t *testing.T) {
	f := StudentFilter{Search: "  jane ", Limit: 1000, Offset: -5}.Normalize()
	assert.Equal(t, "jane", f.Search)
	assert.Equal(t, MaxStudentLimit, f.Limit)
	assert.Equal(t, 0, f.Offset)

	f = StudentFilter{}.Normalize()
	assert.Equal(t, DefaultStudentLimit, f.Limit)
}

func TestStudentStatus(t *testing.T) {
	assert.True(t, StudentStatusPending.Valid())
	assert.False(t, StudentStatus("archived").Valid())
	assert.False(t, StudentStatusPending.Reviewable())
	assert.True(t, StudentStatusApproved.Reviewable())
	assert.True(t, StudentStatusRejected.Reviewable())
}

func TestNewStudentStatsZeroFills(t *testing.T) {
	stats := NewStudentStats([]StatusCount{{Status: StudentStatusApproved, Count: 3}})
	assert.Equal(t, StudentStats{Approved: 3, Total: 3}, stats)

	stats = NewStudentStats(nil)
	assert.Equal(t, StudentStats{}, stats)

	stats = NewStudentStats([]StatusCount{
		{Status: StudentStatusPending, Count: 2},
		{Status: StudentStatusApproved, Count: 1},
		{Status: StudentStatusRejected, Count: 4},
	})
	assert.Equal(t, StudentStats{Pending: 2, Approved: 1, Rejected: 4, Total: 7}, stats)
}

func TestDateJSONAndScan(t *testing.T) {
	d, err := ParseDate("2010-05-14")
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2010-05-14"`, string(raw))

	var decoded Date
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Equal(d.Time))

	var scanned Date
	require.NoError(t, scanned.Scan(time.Date(2010, 5, 14, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "2010-05-14", scanned.String())
	require.NoError(t, scanned.Scan([]byte("2011-01-02T00:00:00Z")))
	assert.Equal(t, "2011-01-02", scanned.String())
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
	assert.Error(t, scanned.Scan(42))

	value, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2010-05-14", value)

	_, err = ParseDate("2010-13-01")
	assert.Error(t, err)
}

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStatusPersistence(t *testing.T) {
	perIssue := []map[string]float64{
		{"In Progress": 10, "Review": 4},
		{"In Progress": 20},
		{"In Progress": 30, "Review": 8},
		{"In Progress": 40},
	}

	got := CalculateStatusPersistence(perIssue)
	require.Len(t, got, 2)

	ip := got[0]
	assert.Equal(t, "In Progress", ip.StatusName)
	assert.Equal(t, 4, ip.Count)
	assert.Equal(t, 1.0, ip.Share)
	assert.Equal(t, 30.0, ip.P50)
	assert.Equal(t, 40.0, ip.P85)
	assert.Equal(t, 20.0, ip.IQR)

	review := got[1]
	assert.Equal(t, "Review", review.StatusName)
	assert.Equal(t, 0.5, review.Share)
	assert.Equal(t, 8.0, review.P50)
}

func TestCalculateStatusPersistence_Empty(t *testing.T) {
	assert.Nil(t, CalculateStatusPersistence(nil))
	assert.Empty(t, CalculateStatusPersistence([]map[string]float64{{}}))
}

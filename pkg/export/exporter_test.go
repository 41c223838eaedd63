package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyGroupsThousands(t *testing.T) {
	assert.Equal(t, "0.00", Money(0))
	assert.Equal(t, "950.00", Money(950))
	assert.Equal(t, "12,345.50", Money(12345.5))
	assert.Equal(t, "1,200,000.00", Money(1200000))
	assert.Equal(t, "-4,500.25", Money(-4500.25))
}

func TestCSVRenderWritesBOMAndRows(t *testing.T) {
	data, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Student", "Score"},
		Rows: []map[string]string{
			{"Student": "Alice", "Score": "88"},
			{"Student": "Carol", "Score": "72"},
		},
	})
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"))
	assert.Contains(t, out, "Student,Score")
	assert.Contains(t, out, "Alice,88")
	assert.Contains(t, out, "Carol,72")
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data, err := NewPDFExporter().Render(Dataset{
		Headers: []string{"Student", "Outstanding"},
		Numeric: []string{"Outstanding"},
		Rows: []map[string]string{
			{"Student": "Alice Wanjiku", "Outstanding": Money(4500)},
			{"Student": "Carol Wanjiku", "Outstanding": Money(0)},
		},
	}, "Fee Statement")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.NotEmpty(t, data)
}

func TestPDFRenderRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}

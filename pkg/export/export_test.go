package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title:       "At-risk students",
		GeneratedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
		Columns: []Column{
			{Key: "name", Title: "Student", Width: 2},
			{Key: "level", Title: "Risk level"},
			{Key: "score"},
		},
		Rows: []map[string]string{
			{"name": "Ana, Maria", "level": "high", "score": "60"},
			{"name": "Budi", "level": "medium"},
		},
	}
}

func TestCSVRenderer(t *testing.T) {
	out, err := NewCSVRenderer().Render(sampleTable())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Risk level,score", lines[0])
	assert.Equal(t, `"Ana, Maria",high,60`, lines[1])
	assert.Equal(t, "Budi,medium,", lines[2])

	_, err = NewCSVRenderer().Render(Table{})
	assert.Error(t, err)
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer()
	out, err := r.Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", r.ContentType())
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, pdfPageWidth, sum, 0.001)
	assert.InDelta(t, widths[1]*2, widths[0], 0.001)
}

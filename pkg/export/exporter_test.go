package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Columns: []Column{
			{Header: "Full Name", Quoted: true},
			{Header: "Email"},
			{Header: "Address", Quoted: true},
		},
		Rows: [][]string{
			{"Jane Doe", "jane@example.com", `12 "Main" St, Bamenda`},
			{"John", "john@example.com", ""},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte("\xEF\xBB\xBF")))
	body := strings.TrimPrefix(string(out), "\ufeff")
	lines := strings.Split(body, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Full Name,Email,Address", lines[0])
	assert.Equal(t, `"Jane Doe",jane@example.com,"12 ""Main"" St, Bamenda"`, lines[1])
	assert.Equal(t, `"John",john@example.com,""`, lines[2])
	assert.False(t, strings.HasSuffix(body, "\n"))
}

func TestCSVExporterHeaderOnly(t *testing.T) {
	data := sampleDataset()
	data.Rows = nil
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffFull Name,Email,Address\n", string(out))
}

func TestCSVExporterRejectsShortRow(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only one"})
	_, err := NewCSVExporter().Render(data)
	require.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Registrations", "generated for test")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "", "")
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

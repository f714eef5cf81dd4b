package registry

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "clients.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestLoad_SpreadsheetOnly(t *testing.T) {
	xlsx := writeWorkbook(t, [][]any{
		{"CNPJ Emitente", "Nome Fantasia", "Nome Vendedor"},
		{"11.222.333/0001-44", "ACME", "JOAO"},
		{"55.666.777/0001-88", "BETA", ""},
	})

	r := Load(xlsx, "", discard())
	require.Equal(t, 2, r.Len())

	c, ok := r.Lookup("11.222.333/0001-44")
	require.True(t, ok)
	assert.Equal(t, "ACME", c.DisplayName)
	assert.Equal(t, "JOAO", c.AgentName)

	c, ok = r.Lookup("55666777000188")
	require.True(t, ok)
	assert.Equal(t, "BETA", c.DisplayName)
	assert.Empty(t, c.AgentName)
}

func TestLoad_TableSemicolonDelimited(t *testing.T) {
	csvPath := writeTable(t, "CNPJ Emitente;Nome Fantasia;Nome Vendedor\n11.222.333/0001-44;ACME CSV;MARIA\n")

	r := Load("", csvPath, discard())
	require.Equal(t, 1, r.Len())

	c, ok := r.Lookup("11222333000144")
	require.True(t, ok)
	assert.Equal(t, "ACME CSV", c.DisplayName)
	assert.Equal(t, "MARIA", c.AgentName)
}

func TestLoad_TableCommaDelimited(t *testing.T) {
	csvPath := writeTable(t, "CNPJ Emitente,Nome Fantasia,Nome Vendedor\n99.888.777/0001-66,GAMMA,PEDRO\n")

	r := Load("", csvPath, discard())
	require.Equal(t, 1, r.Len())

	c, ok := r.Lookup("99.888.777/0001-66")
	require.True(t, ok)
	assert.Equal(t, "GAMMA", c.DisplayName)
}

func TestLoad_TableHeaderNormalization(t *testing.T) {
	// Accented, cased and punctuated headers all fold to the same keys.
	csvPath := writeTable(t, "CNPJ_EMITENTE;NOME FANTASÍA;nome-vendedor\n123/0001-01;DELTA;ANA\n")

	r := Load("", csvPath, discard())
	require.Equal(t, 1, r.Len())

	c, ok := r.Lookup("1230001-01")
	require.True(t, ok)
	assert.Equal(t, "DELTA", c.DisplayName)
	assert.Equal(t, "ANA", c.AgentName)
}

func TestLookup_SpreadsheetWinsOverTable(t *testing.T) {
	xlsx := writeWorkbook(t, [][]any{
		{"CNPJ Emitente", "Nome Fantasia", "Nome Vendedor"},
		{"11.222.333/0001-44", "FROM-XLSX", "JOAO"},
	})
	csvPath := writeTable(t, "CNPJ Emitente;Nome Fantasia;Nome Vendedor\n11.222.333/0001-44;FROM-CSV;MARIA\n")

	r := Load(xlsx, csvPath, discard())
	require.Equal(t, 2, r.Len())

	c, ok := r.Lookup("11.222.333/0001-44")
	require.True(t, ok)
	assert.Equal(t, "FROM-XLSX", c.DisplayName)
}

func TestLookup_Misses(t *testing.T) {
	csvPath := writeTable(t, "CNPJ Emitente;Nome Fantasia;Nome Vendedor\n11.222.333/0001-44;ACME;JOAO\n")
	r := Load("", csvPath, discard())

	_, ok := r.Lookup("00.000.000/0000-00")
	assert.False(t, ok)

	_, ok = r.Lookup("")
	assert.False(t, ok)

	_, ok = r.Lookup("N/A")
	assert.False(t, ok)
}

func TestLoad_MissingSources(t *testing.T) {
	r := Load("/nonexistent/a.xlsx", "/nonexistent/b.csv", discard())
	assert.Equal(t, 0, r.Len())

	_, ok := r.Lookup("11.222.333/0001-44")
	assert.False(t, ok)
}

func TestLoad_SkipsEmptyRows(t *testing.T) {
	csvPath := writeTable(t, "CNPJ Emitente;Nome Fantasia;Nome Vendedor\n;;\n11.222.333/0001-44;ACME;JOAO\n")
	r := Load("", csvPath, discard())
	assert.Equal(t, 1, r.Len())
}

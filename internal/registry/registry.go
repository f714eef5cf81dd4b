package registry

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column names used by the registry sources. The spreadsheet keeps its
// original headers; the text table is matched through normalized keys.
const (
	rawTaxIDCol   = "CNPJ Emitente"
	rawDisplayCol = "Nome Fantasia"
	rawAgentCol   = "Nome Vendedor"

	normTaxIDCol   = "cnpjemitente"
	normDisplayCol = "nomefantasia"
	normAgentCol   = "nomevendedor"
)

// Client is one resolved identity from the client base.
type Client struct {
	TaxID       string
	DisplayName string
	AgentName   string
}

// row is one source record. norm holds normalized-header cells (both
// sources); raw holds the original spreadsheet headers, nil for table rows.
type row struct {
	norm map[string]string
	raw  map[string]string
}

// Registry maps emitter tax identifiers to client identities.
// Built once at startup, read-only afterwards; safe for concurrent lookups.
type Registry struct {
	rows []row
	log  *slog.Logger
}

// Load builds a registry from the spreadsheet and the delimited text table.
// Loading is best-effort per source: a missing or unreadable source is
// logged and skipped. Spreadsheet rows come first so they win lookup ties.
func Load(spreadsheetPath, tablePath string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{log: log}

	if rows, err := loadSpreadsheet(spreadsheetPath); err != nil {
		log.Warn("registry.spreadsheet.skipped", "path", spreadsheetPath, "err", err)
	} else {
		r.rows = append(r.rows, rows...)
		log.Info("registry.spreadsheet.loaded", "path", spreadsheetPath, "records", len(rows))
	}

	if rows, err := loadTable(tablePath); err != nil {
		log.Warn("registry.table.skipped", "path", tablePath, "err", err)
	} else {
		r.rows = append(r.rows, rows...)
		log.Info("registry.table.loaded", "path", tablePath, "records", len(rows))
	}

	log.Info("registry.loaded", "total", len(r.rows))
	return r
}

// Len reports the number of loaded client records.
func (r *Registry) Len() int {
	return len(r.rows)
}

// Lookup resolves a document tax identifier to a client identity.
// The query is normalized to digits and hyphens, then matched in order:
// normalized keys across all rows (spreadsheet rows first), then the raw
// spreadsheet column names. Returns false when no source knows the id.
func (r *Registry) Lookup(taxID string) (Client, bool) {
	key := NormalizeTaxID(taxID)
	if key == "" {
		return Client{}, false
	}

	for _, rw := range r.rows {
		if NormalizeTaxID(rw.norm[normTaxIDCol]) == key {
			return clientFrom(key, rw.norm[normDisplayCol], rw.norm[normAgentCol]), true
		}
	}
	for _, rw := range r.rows {
		if rw.raw == nil {
			continue
		}
		if NormalizeTaxID(rw.raw[rawTaxIDCol]) == key {
			return clientFrom(key, rw.raw[rawDisplayCol], rw.raw[rawAgentCol]), true
		}
	}
	return Client{}, false
}

func clientFrom(taxID, display, agent string) Client {
	return Client{
		TaxID:       taxID,
		DisplayName: strings.TrimSpace(display),
		AgentName:   strings.TrimSpace(agent),
	}
}

// loadSpreadsheet reads the first sheet of an XLSX workbook. The header row
// is kept twice per record: under its original names and normalized.
func loadSpreadsheet(path string) ([]row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]row, 0, len(records)-1)
	for _, cells := range records[1:] {
		rw := row{
			norm: make(map[string]string, len(header)),
			raw:  make(map[string]string, len(header)),
		}
		empty := true
		for i, name := range header {
			var val string
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			if val != "" {
				empty = false
			}
			rw.raw[name] = val
			rw.norm[NormalizeKey(name)] = val
		}
		if !empty {
			rows = append(rows, rw)
		}
	}
	return rows, nil
}

// loadTable reads the delimited text table. The field delimiter is sniffed
// from the header line (semicolon wins when it outnumbers commas) and header
// names are normalized before keying.
func loadTable(path string) ([]row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	firstLine, _, _ := strings.Cut(string(data), "\n")
	delimiter := ','
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		delimiter = ';'
	}

	rd := csv.NewReader(strings.NewReader(string(data)))
	rd.Comma = delimiter
	rd.FieldsPerRecord = -1
	rd.TrimLeadingSpace = true

	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = NormalizeKey(name)
	}

	rows := make([]row, 0, len(records)-1)
	for _, cells := range records[1:] {
		rw := row{norm: make(map[string]string, len(header))}
		empty := true
		for i, name := range header {
			var val string
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			if val != "" {
				empty = false
			}
			rw.norm[name] = val
		}
		if !empty {
			rows = append(rows, rw)
		}
	}
	return rows, nil
}

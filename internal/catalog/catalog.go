// Package catalog loads the TR-ID catalog and matches extracted files
// against it.
package catalog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/windgate/tecres/internal/common"
	"github.com/windgate/tecres/internal/model"
)

// Required catalog columns. The catalog is exported from a German system,
// hence the header names.
const (
	nameColumn       = "Name"
	resourceIDColumn = "Technische Ressourcen-ID"
)

// DefaultSuffix is the measurement kind encoded in every output filename.
const DefaultSuffix = "WindgeschwIstAnlage"

// candidateEncoding is one entry of the fixed decode order tried on the
// catalog file. The order mirrors what the vendor actually ships: UTF-8
// exports with occasional Latin-1/CP1252 files containing umlauts.
type candidateEncoding struct {
	decoder *encoding.Decoder
	name    string
}

func candidateEncodings() []candidateEncoding {
	return []candidateEncoding{
		{name: "utf-8", decoder: nil},
		{name: "latin-1", decoder: charmap.ISO8859_1.NewDecoder()},
		{name: "iso-8859-1", decoder: charmap.ISO8859_1.NewDecoder()},
		{name: "cp1252", decoder: charmap.Windows1252.NewDecoder()},
	}
}

// Load reads the catalog from a delimited file, trying each known encoding
// in order. The first encoding that decodes cleanly wins; there is no
// further validation that the decode was semantically correct.
func Load(path string) (model.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Catalog{}, fmt.Errorf("%w: %s", common.ErrCatalogNotFound, path)
		}
		return model.Catalog{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	text, encName, err := decodeCatalog(raw)
	if err != nil {
		return model.Catalog{}, err
	}
	slog.Debug("Decoded catalog", "path", path, "encoding", encName)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return model.Catalog{}, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return model.Catalog{}, fmt.Errorf("%w: %s is empty", common.ErrCatalogColumns, path)
	}

	header := records[0]
	nameIdx, idIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case nameColumn:
			nameIdx = i
		case resourceIDColumn:
			idIdx = i
		}
	}
	if nameIdx < 0 || idIdx < 0 {
		var missing []string
		if nameIdx < 0 {
			missing = append(missing, nameColumn)
		}
		if idIdx < 0 {
			missing = append(missing, resourceIDColumn)
		}
		return model.Catalog{}, fmt.Errorf("%w: %s", common.ErrCatalogColumns, strings.Join(missing, ", "))
	}

	var cat model.Catalog
	for _, record := range records[1:] {
		if nameIdx >= len(record) || idIdx >= len(record) {
			continue
		}
		cat.Entries = append(cat.Entries, model.CatalogEntry{
			Name:       record[nameIdx],
			ResourceID: record[idIdx],
		})
	}

	slog.Info("Loaded catalog", "path", path, "entries", cat.Len(), "encoding", encName)
	return cat, nil
}

// decodeCatalog walks the fixed encoding list and returns the first clean
// decode. UTF-8 is checked by validity; the single-byte encodings decode
// any input, so in practice they terminate the chain.
func decodeCatalog(raw []byte) (string, string, error) {
	for _, cand := range candidateEncodings() {
		if cand.decoder == nil {
			if utf8.Valid(raw) {
				return string(raw), cand.name, nil
			}
			continue
		}
		decoded, err := cand.decoder.Bytes(raw)
		if err != nil {
			continue
		}
		return string(decoded), cand.name, nil
	}
	return "", "", common.ErrCatalogEncoding
}

// Match returns the first catalog entry whose name is a substring of the
// given filename stem. Ties are broken by catalog order, not specificity:
// when one name is a substring of another (Turbine1 vs Turbine10) the
// earlier row wins even if a longer name also matches. The vendor never
// specified a resolution order, so this mirrors the delivered behavior.
func Match(stem string, cat model.Catalog) model.MatchResult {
	for _, entry := range cat.Entries {
		if strings.Contains(stem, entry.Name) {
			return model.MatchResult{
				ResourceID:  entry.ResourceID,
				MatchedName: entry.Name,
				Matched:     true,
			}
		}
	}
	return model.MatchResult{}
}

// BuildFilename returns the canonical output filename for a matched file:
// tecres_<TR-ID>_<suffix>_<date>.csv with the date as dd-mm-YYYY.
func BuildFilename(resourceID, dateStr, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return fmt.Sprintf("tecres_%s_%s_%s.csv", resourceID, suffix, dateStr)
}

// FallbackFilename returns the output filename used when no catalog match
// exists and fallback naming is enabled.
func FallbackFilename(stem, dateStr string) string {
	return fmt.Sprintf("%s_%s.csv", stem, dateStr)
}

package gog

import (
	"bytes"
	"encoding/json"
	"os"

	"gamelib/internal/services"
)

// LoadExport reads a saved getFilteredProducts document for offline import.
// The file may hold a single page object or an array of pages.
func LoadExport(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "gog", "load export", path, err)
	}
	return ParseExport(data)
}

// ParseExport decodes export bytes; see LoadExport.
func ParseExport(data []byte) ([]Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, services.Wrap(services.ErrValidation, "gog", "parse export", "empty document", nil)
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	if trimmed[0] == '[' {
		var pages []Page
		if err := decoder.Decode(&pages); err != nil {
			return nil, services.Wrap(services.ErrValidation, "gog", "parse export", "malformed page array", err)
		}
		return pages, nil
	}
	var page Page
	if err := decoder.Decode(&page); err != nil {
		return nil, services.Wrap(services.ErrValidation, "gog", "parse export", "malformed page", err)
	}
	if page.Products == nil {
		return nil, services.Wrap(services.ErrValidation, "gog", "parse export",
			"document has no products field", nil)
	}
	return []Page{page}, nil
}

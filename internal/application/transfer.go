package application

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// ExportFilename is the suggested download name for exported catalogs.
const ExportFilename = "password-requirements.json"

// Sentinel errors for import documents. Both abort the whole import.
var (
	// ErrImportMalformed indicates the document is not valid JSON.
	ErrImportMalformed = errors.New("import document is not valid JSON")

	// ErrImportNotArray indicates the top-level JSON value is not an array.
	ErrImportNotArray = errors.New("import document must be a JSON array")
)

// ImportResult is the outcome of parsing a bulk document. Dropped counts the
// elements that were skipped because they failed validation.
type ImportResult struct {
	Services []model.Service
	Dropped  int
}

// Export serializes services in the given order as a pretty-printed JSON
// array. An empty collection exports as [].
func Export(services []model.Service) ([]byte, error) {
	if services == nil {
		services = []model.Service{}
	}
	data, err := json.MarshalIndent(services, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal services: %w", err)
	}
	return data, nil
}

// ParseJSONList decodes a JSON document whose top-level value must be an
// array. Each element is normalized with policy; elements that are not
// objects or fail validation are dropped. Ids that repeat within the
// document are regenerated.
func ParseJSONList(doc []byte, policy Policy) (ImportResult, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ImportResult{}, fmt.Errorf("%w: unexpected data after top-level value", ErrImportMalformed)
	}

	elems, ok := top.([]any)
	if !ok {
		return ImportResult{}, fmt.Errorf("%w, got %s", ErrImportNotArray, jsonKind(top))
	}

	seen := make(map[string]bool, len(elems))
	taken := func(id string) bool { return seen[id] }

	result := ImportResult{Services: make([]model.Service, 0, len(elems))}
	for _, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			result.Dropped++
			continue
		}
		svc, err := Normalize(obj, policy, taken)
		if err != nil {
			result.Dropped++
			continue
		}
		seen[svc.ID] = true
		result.Services = append(result.Services, svc)
	}

	return result, nil
}

// ParseText reads the plain-text fallback format: one service per line as
// name|url|icon|color. Blank lines and lines starting with # are skipped.
// Records are normalized with PolicyViewer.
func ParseText(doc []byte) (ImportResult, error) {
	fields := []string{"name", "url", "icon", "color"}

	seen := make(map[string]bool)
	taken := func(id string) bool { return seen[id] }

	var result ImportResult
	scanner := bufio.NewScanner(bytes.NewReader(doc))
	// The document is already in memory, so any line fits.
	scanner.Buffer(nil, max(len(doc)+1, bufio.MaxScanTokenSize))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		raw := make(map[string]any, len(fields))
		for i, part := range strings.Split(line, "|") {
			if i >= len(fields) {
				break
			}
			raw[fields[i]] = part
		}

		svc, err := Normalize(raw, PolicyViewer, taken)
		if err != nil {
			result.Dropped++
			continue
		}
		seen[svc.ID] = true
		result.Services = append(result.Services, svc)
	}
	if err := scanner.Err(); err != nil {
		return ImportResult{}, fmt.Errorf("scan text document: %w", err)
	}

	return result, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

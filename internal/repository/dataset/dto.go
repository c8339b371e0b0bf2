package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
)

// modelKey is the embedding family the precomputed files were produced with.
const modelKey = "multilingual_minilm"

// vectorRow is one entry of a precomputed vector file.
type vectorRow struct {
	ID         string                    `json:"id"`
	Embeddings map[string]modelEmbedding `json:"embeddings"`
	Original   struct {
		TextPreview string `json:"text_preview"`
	} `json:"original_data"`
	Metadata map[string]any `json:"metadata"`
}

type modelEmbedding struct {
	Embeddings map[string][]float32 `json:"embeddings"`
}

// envelope is the {"data": [...]} wrapper some exports use.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap accepts either a bare JSON array or an object carrying "data".
func unwrap(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty file: %w", domain.ErrInvalidRecord)
	}
	if trimmed[0] == '[' {
		return trimmed, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("missing data array: %w", domain.ErrInvalidRecord)
	}
	return env.Data, nil
}

// rowToRaw converts a vector row to a catalog input. Rows without the
// expected model embeddings yield ok=false.
func rowToRaw(idx int, row vectorRow) (item.Raw, bool) {
	model, ok := row.Embeddings[modelKey]
	if !ok || len(model.Embeddings) == 0 {
		return item.Raw{}, false
	}
	id := row.ID
	if id == "" {
		id = fmt.Sprintf("item_%d", idx)
	}
	return item.Raw{
		ID:              id,
		Preview:         row.Original.TextPreview,
		Representations: model.Embeddings,
		Metadata:        row.Metadata,
	}, true
}

// Reserved record keys; every other string field lands in Details.
var recordFields = map[string]struct{}{
	"id": {}, "text": {}, "name": {}, "description": {},
	"governorate": {}, "sector": {}, "category": {}, "metadata": {}, "details": {},
}

// rowToRecord converts a loosely typed record object.
func rowToRecord(kind collection.Kind, idx int, row map[string]any) link.Record {
	r := link.Record{
		ID:          stringField(row, "id"),
		Text:        stringField(row, "text"),
		Name:        stringField(row, "name"),
		Description: stringField(row, "description"),
		Governorate: stringField(row, "governorate"),
		Sector:      stringField(row, "sector"),
		Category:    stringField(row, "category"),
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s_%d", kind, idx)
	}
	if md, ok := row["metadata"].(map[string]any); ok && len(md) > 0 {
		r.Metadata = md
	}

	details := map[string]string{}
	if d, ok := row["details"].(map[string]any); ok {
		for k, v := range d {
			if s, ok := v.(string); ok && s != "" {
				details[k] = s
			}
		}
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, reserved := recordFields[k]; reserved {
			continue
		}
		if s, ok := row[k].(string); ok && s != "" {
			details[k] = s
		}
	}
	if len(details) > 0 {
		r.Details = details
	}
	return r
}

// stringField reads a string or number field as text.
func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}

package dataset

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
)

func testFiles() Files {
	return Files{
		Vectors: map[collection.Kind]string{
			collection.Activities: "activities.json",
			collection.Zones:      "zones.json",
		},
		Records: map[collection.Kind]string{
			collection.Activities: "activity_records.json",
		},
	}
}

func TestItems_FromDisk(t *testing.T) {
	repo := New("testdata", testFiles(), nil)

	raws, err := repo.Items(collection.Activities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 items (row without model skipped), got %d", len(raws))
	}
	if raws[0].ID != "act_1" || raws[0].Preview != "فندق خمس نجوم - تراخيص سياحية" {
		t.Errorf("unexpected first item: %+v", raws[0])
	}
	if len(raws[0].Representations) != 2 {
		t.Errorf("expected 2 representations, got %d", len(raws[0].Representations))
	}
	if raws[1].ID != "item_1" {
		t.Errorf("expected positional id item_1, got %q", raws[1].ID)
	}
}

func TestItems_MissingFile(t *testing.T) {
	repo := New("testdata", testFiles(), nil)

	_, err := repo.Items(collection.Zones)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = repo.Items(collection.Decisions)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unconfigured file, got %v", err)
	}
}

func TestRecords_FromDisk(t *testing.T) {
	repo := New("testdata", testFiles(), nil)

	recs, err := repo.Records(collection.Activities)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (null skipped), got %d", len(recs))
	}

	first := recs[0]
	if first.Name != "فندق خمس نجوم" || first.Governorate != "القاهرة" {
		t.Errorf("unexpected record: %+v", first)
	}
	if first.Details["license_authority"] != "وزارة السياحة والآثار" {
		t.Errorf("extra string fields must land in details, got %v", first.Details)
	}
	if _, ok := first.Details["code"]; ok {
		t.Error("numeric fields must not land in details")
	}
	if first.Metadata["stars"] == nil {
		t.Error("expected metadata to be kept")
	}

	second := recs[1]
	if second.ID != "activities_1" {
		t.Errorf("expected positional id, got %q", second.ID)
	}
	if second.Details["authority"] == "" {
		t.Error("expected nested details")
	}
}

func TestDecodeItems_BareArray(t *testing.T) {
	in := `[{"id":"z1","embeddings":{"multilingual_minilm":{"embeddings":{"full":[1,0]}}},
		"original_data":{"text_preview":"منطقة العاشر الصناعية"}}]`

	raws, err := DecodeItems(collection.Zones, strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 1 || raws[0].ID != "z1" {
		t.Fatalf("unexpected items: %+v", raws)
	}
}

func TestDecodeItems_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"no data":    `{"items": []}`,
		"bad json":   `[{"id": }`,
		"wrong type": `{"data": {"id": "x"}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeItems(collection.Activities, strings.NewReader(in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewFS(t *testing.T) {
	fsys := fstest.MapFS{
		"d/decisions.json": {Data: []byte(`{"data":[{"id":"d1","embeddings":{"multilingual_minilm":{"embeddings":{"full":[1]}}}}]}`)},
	}
	repo := NewFS(fsys, Files{Vectors: map[collection.Kind]string{collection.Decisions: "d/decisions.json"}}, nil)

	raws, err := repo.Items(collection.Decisions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raws) != 1 || raws[0].Preview != "" {
		t.Fatalf("unexpected items: %+v", raws)
	}
}

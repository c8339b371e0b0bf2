package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/linkdex/internal/config"
	"github.com/kailas-cloud/linkdex/internal/db/memory"
	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/rules"
	embeddinguc "github.com/kailas-cloud/linkdex/internal/usecase/embedding"
	searchuc "github.com/kailas-cloud/linkdex/internal/usecase/search"
)

type fakeDataset struct {
	items   map[collection.Kind][]item.Raw
	records map[collection.Kind][]link.Record
	err     error
	reads   int
}

func (f *fakeDataset) Items(kind collection.Kind) ([]item.Raw, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	raws, ok := f.items[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raws, nil
}

func (f *fakeDataset) Records(kind collection.Kind) ([]link.Record, error) {
	recs, ok := f.records[kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return recs, nil
}

type fixedEmbedder struct {
	vector []float32
}

func (f fixedEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.vector}, nil
}

func raw(id, preview string, full ...float32) item.Raw {
	return item.Raw{ID: id, Preview: preview, Representations: map[string][]float32{"full": full}}
}

func testDataset() *fakeDataset {
	return &fakeDataset{
		items: map[collection.Kind][]item.Raw{
			collection.Activities: {
				raw("act-1", "فندق خمس نجوم - تراخيص سياحية", 1, 0, 0),
				raw("act-2", "مصنع أغذية - اشتراطات السلامة الصناعية", 0, 1, 0),
			},
			collection.Zones: {
				raw("zone-1", "منطقة العاشر من رمضان الصناعية", 0, 0, 1),
			},
		},
		records: map[collection.Kind][]link.Record{
			collection.Activities: {{ID: "act-1", Text: "فندق خمس نجوم - تراخيص سياحية"}},
		},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Engine.Dimensions = 3
	cfg.Engine.Workers = 2
	return cfg
}

func newApp(t *testing.T, store *memory.Store, ds Dataset) *App {
	t.Helper()
	a, err := New(context.Background(), Params{
		Config:   testConfig(),
		Store:    store,
		Embedder: fixedEmbedder{vector: []float32{1, 0, 0}},
		Dataset:  ds,
	})
	require.NoError(t, err)
	return a
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(context.Background(), Params{Config: testConfig()})
	require.Error(t, err)
}

func TestNew_LoadsDataset(t *testing.T) {
	a := newApp(t, memory.NewStore(), testDataset())
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	sizes := a.Catalog.Sizes()
	assert.Equal(t, 2, sizes[collection.Activities])
	assert.Equal(t, 1, sizes[collection.Zones])
	assert.Equal(t, 0, sizes[collection.Decisions], "missing file leaves the collection empty")
	assert.Equal(t, 1, a.Linker.Sizes()[collection.Activities])
}

func TestNew_DatasetErrorFails(t *testing.T) {
	ds := &fakeDataset{err: errors.New("corrupt file")}
	_, err := New(context.Background(), Params{Config: testConfig(), Store: memory.NewStore(), Dataset: ds})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt file")
}

func TestNew_WithoutDataset(t *testing.T) {
	a, err := New(context.Background(), Params{Store: memory.NewStore()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Empty(t, a.Catalog.Sizes()[collection.Activities])
	resp := a.Search.IntelligentSearch(context.Background(), "فندق", searchuc.Options{})
	assert.Zero(t, resp.Total())
}

func TestApp_Search(t *testing.T) {
	a := newApp(t, memory.NewStore(), testDataset())
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	resp := a.Search.IntelligentSearch(context.Background(), "فندق 5 نجوم", searchuc.Options{})

	require.False(t, resp.IsFallback, resp.Analysis.Error)
	require.NotEmpty(t, resp.Activities)
	assert.Equal(t, "act-1", resp.Activities[0].ID)
	assert.NotEmpty(t, resp.SessionID)
}

func TestApp_RulesSwapReloads(t *testing.T) {
	ds := testDataset()
	a := newApp(t, memory.NewStore(), ds)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	before := ds.reads
	a.Search.IntelligentSearch(context.Background(), "فندق", searchuc.Options{})
	require.Equal(t, 1, a.SearchCache.Stats().Session)

	require.NoError(t, a.Rules.Swap(rules.Default()))

	assert.Equal(t, before+len(collection.All()), ds.reads)
	assert.Zero(t, a.SearchCache.Stats().Session, "swap clears cached responses")
}

func TestApp_ClosePersistsState(t *testing.T) {
	store := memory.NewStore()
	a := newApp(t, store, testDataset())
	a.Search.IntelligentSearch(context.Background(), "فندق 5 نجوم", searchuc.Options{})
	require.NoError(t, a.Close(context.Background()))

	b := newApp(t, store, testDataset())
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	assert.Equal(t, 1, b.Learning.Stats().Queries)
}

func TestBuildEmbedder(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		emb := BuildEmbedder(config.EmbeddingConfig{Provider: config.ProviderNone}, "", nil, nil)
		_, err := emb.Embed(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("openai", func(t *testing.T) {
		emb := BuildEmbedder(config.EmbeddingConfig{
			Provider: config.ProviderOpenAI,
			BaseURL:  "http://localhost:1",
			Model:    "sentence-encoder",
		}, "test:", memory.NewStore(), nil)
		assert.IsType(t, &embeddinguc.InstrumentedEmbedder{}, emb)
	})

	t.Run("instruction", func(t *testing.T) {
		emb := BuildEmbedder(config.EmbeddingConfig{
			Provider:         config.ProviderOpenAI,
			BaseURL:          "http://localhost:1",
			Model:            "sentence-encoder",
			QueryInstruction: "query: ",
		}, "test:", nil, nil)
		assert.IsType(t, &domain.InstructionEmbedder{}, emb)
	})
}

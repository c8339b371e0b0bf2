package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/linkdex/internal/domain"
)

const testdata = "../../internal/repository/dataset/testdata"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--dataset", testdata, "--store", "memory", "--dimensions", "4"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "linkdexctl "))
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, "analyze", "فندق 5 نجوم")
	require.NoError(t, err)
	assert.Contains(t, out, `"query": "فندق 5 نجوم"`)
	assert.Contains(t, out, `"intent"`)
}

func TestSearch(t *testing.T) {
	out, err := run(t, "search", "فندق خمس نجوم")
	require.NoError(t, err)
	assert.Contains(t, out, "act_1")
}

func TestSearch_JSON(t *testing.T) {
	out, err := run(t, "search", "--json", "--session", "s-1", "فندق خمس نجوم")
	require.NoError(t, err)
	assert.Contains(t, out, `"session_id": "s-1"`)
	assert.Contains(t, out, `"activities"`)
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := run(t, "search", "   ")
	require.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestLink(t *testing.T) {
	out, err := run(t, "link", "--collection", "activity", "--id", "act_1", "فندق خمس نجوم")
	require.NoError(t, err)
	assert.Contains(t, out, `"act_1"`)
}

func TestLink_UnknownCollection(t *testing.T) {
	_, err := run(t, "link", "--collection", "hotels", "فندق")
	require.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"activities"`)
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataset

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_InfersTypes(t *testing.T) {
	ds, err := Parse(strings.NewReader("a,b\n1,x\n2,y\n"), ',')
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, Row{"a": float64(1), "b": "x"}, ds.Rows[0])
	assert.Equal(t, Row{"a": float64(2), "b": "y"}, ds.Rows[1])
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
}

func TestParse_ColumnOrderFollowsHeader(t *testing.T) {
	ds, err := Parse(strings.NewReader("zeta,alpha,mid\n1,2,3\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ds.Columns())
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, ds.Values(ds.Rows[0]))
}

func TestParse_StripsBOM(t *testing.T) {
	ds, err := Parse(strings.NewReader("\ufeffcity,pop\nOslo,709000\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "pop"}, ds.Columns())
	assert.Equal(t, "Oslo", ds.Rows[0]["city"])
}

func TestParse_TabDelimited(t *testing.T) {
	ds, err := Parse(strings.NewReader("k\tv\nx\t1.5\n"), DelimiterFor("data.tsv"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, ds.Rows[0]["v"])
}

func TestParse_RaggedRows(t *testing.T) {
	ds, err := Parse(strings.NewReader("a,b,c\n1\n1,2,3,4\n"), ',')
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	assert.Equal(t, Row{"a": float64(1), "b": nil, "c": nil}, ds.Rows[0])
	assert.Equal(t, Row{"a": float64(1), "b": float64(2), "c": float64(3)}, ds.Rows[1])
}

func TestParse_DuplicateHeaderLaterCellWins(t *testing.T) {
	ds, err := Parse(strings.NewReader("a,b,a\n1,2,3\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.Equal(t, float64(3), ds.Rows[0]["a"])
}

func TestParse_HeaderOnly(t *testing.T) {
	ds, err := Parse(strings.NewReader("a,b\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Nil(t, ds.Columns(), "columns derive from the first row")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""), ',')
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse(strings.NewReader("a,b\n\"unterminated,2\n"), ',')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line")
}

func TestInfer(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"", nil},
		{"   ", nil},
		{"null", nil},
		{"NaN", nil},
		{"true", true},
		{"false", false},
		{" true ", true},
		{"TRUE", "TRUE"},
		{"42", float64(42)},
		{"-3.25", -3.25},
		{"1e3", float64(1000)},
		{" 7 ", float64(7)},
		{"Infinity", "Infinity"},
		{"2024-01-05", "2024-01-05"},
		{" padded text ", " padded text "},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Infer(tc.raw), "Infer(%q)", tc.raw)
	}
}

// =============================================================================
// DATASET HELPERS
// =============================================================================

func TestDataset_Head(t *testing.T) {
	ds := New("x.csv", []string{"n"}, []Row{{"n": 1.0}, {"n": 2.0}, {"n": 3.0}})

	assert.Len(t, ds.Head(2), 2)
	assert.Len(t, ds.Head(10), 3)
	assert.Nil(t, ds.Head(0))

	var nilDS *Dataset
	assert.Equal(t, 0, nilDS.Len())
	assert.Nil(t, nilDS.Columns())
}

func TestHasExtension(t *testing.T) {
	exts := []string{".csv"}
	assert.True(t, HasExtension("data.csv", exts))
	assert.True(t, HasExtension("DATA.CSV", exts))
	assert.False(t, HasExtension("data.txt", exts))
	assert.False(t, HasExtension("csv", exts))
	assert.False(t, HasExtension("data.csv.bak", exts))
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_SetClearCurrent(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Current())

	ds := New("a.csv", []string{"a"}, []Row{{"a": 1.0}})
	s.Set(ds)
	assert.Same(t, ds, s.Current())

	s.Clear()
	assert.Nil(t, s.Current())
	assert.Equal(t, uint64(2), s.Generation())
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := NewStore()
	a := New("a.csv", []string{"a"}, []Row{{"a": 1.0}})
	b := New("b.csv", []string{"b"}, []Row{{"b": 2.0}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); s.Set(a) }()
		go func() { defer wg.Done(); s.Set(b) }()
		go func() { defer wg.Done(); _ = s.Current() }()
	}
	wg.Wait()

	cur := s.Current()
	assert.True(t, cur == a || cur == b, "store must hold one whole dataset")
}

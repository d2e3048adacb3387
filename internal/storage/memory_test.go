package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLatestOnEmptyLog(t *testing.T) {
	m := NewMemory()
	_, err := m.Latest()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestMemoryReplayOnEmptyLog(t *testing.T) {
	m := NewMemory()
	entries, err := m.All(0)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestMemoryWriteThenLatestRoundTrips(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Entry{Seq: 1, Value: []byte("v1")}))

	latest, err := m.Latest()
	require.NoError(t, err)
	require.Equal(t, Entry{Seq: 1, Value: []byte("v1")}, latest)
}

func TestMemoryRejectsOutOfOrderWrite(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Entry{Seq: 1, Value: []byte("v1")}))

	err := m.Write(Entry{Seq: 3, Value: []byte("v3")})
	require.Error(t, err)

	err = m.Write(Entry{Seq: 1, Value: []byte("dup")})
	require.Error(t, err, "duplicate seq must be rejected")
}

func TestMemoryAllFromBeginning(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Entry{Seq: 1, Value: []byte("a")}))
	require.NoError(t, m.Write(Entry{Seq: 2, Value: []byte("b")}))
	require.NoError(t, m.Write(Entry{Seq: 3, Value: []byte("c")}))

	entries, err := m.All(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	entries, err = m.All(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(2), entries[0].Seq)
}

func TestMemoryAllBeyondRangeIsEmptyNotError(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Entry{Seq: 1, Value: []byte("a")}))

	entries, err := m.All(5)
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestMemoryReplayIsIdempotent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Write(Entry{Seq: 1, Value: []byte("a")}))

	first, err := m.All(1)
	require.NoError(t, err)
	second, err := m.All(1)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestMemoryWriteDefensivelyCopiesValue(t *testing.T) {
	m := NewMemory()
	value := []byte("mutable")
	require.NoError(t, m.Write(Entry{Seq: 1, Value: value}))
	value[0] = 'X'

	latest, err := m.Latest()
	require.NoError(t, err)
	require.Equal(t, []byte("mutable"), latest.Value)
}

package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCSVParsesHexAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft.csv")
	contents := "icao,registration,manufacturer,callsign\n" +
		"4b9696,PH-BGA,Boeing 737,KLM1023\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	store, err := LoadCSV(path)
	require.NoError(t, err)

	rec, ok := store.Lookup(0x4B9696)
	require.True(t, ok)
	require.Equal(t, "PH-BGA", rec.Registration)
	require.Equal(t, "Boeing 737", rec.Manufacturer)
	require.Equal(t, "KLM1023", rec.CallSign)
}

func TestLoadCSVSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft.csv")
	contents := "icao,registration,manufacturer,callsign\n" +
		"zzzzzz,Bad,Row,Here\n" +
		"4b9696,PH-BGA,Boeing 737,KLM1023\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	store, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, store.records, 1)
}

func TestCSVStoreLookupMissUnknownAddress(t *testing.T) {
	store := &CSVStore{records: map[uint32]Record{}}
	_, ok := store.Lookup(0x000001)
	require.False(t, ok)
}

func TestAsLookupAdaptsStoreSignature(t *testing.T) {
	store := &CSVStore{records: map[uint32]Record{
		0x4B9696: {Registration: "PH-BGA", Manufacturer: "Boeing", CallSign: "KLM1023"},
	}}
	lookup := AsLookup(store)

	reg, mfr, cs, ok := lookup(0x4B9696)
	require.True(t, ok)
	require.Equal(t, "PH-BGA", reg)
	require.Equal(t, "Boeing", mfr)
	require.Equal(t, "KLM1023", cs)

	_, _, _, ok = lookup(0xFFFFFF)
	require.False(t, ok)
}

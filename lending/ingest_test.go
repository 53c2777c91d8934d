package lending

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const banner = "Notes offered by Prospectus (https://www.lendingclub.com/info/prospectus.action)\n"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestIngestSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "LoanStats3a.csv", banner+
		"id,int_rate,loan_status,inq_last_6mths,purpose\n"+
		"1,10.00%,Fully Paid,2,car\n"+
		"2,20.00%,Charged Off,0,debt\n"+
		"3,15.00%,Current,1,house\n")
	writeFile(t, dir, "notes.txt", "ignored")

	logger, logs := observedLogger()
	instances, err := NewIngestor(logger).Ingest(dir)
	require.NoError(t, err)
	require.Len(t, instances, 2)

	first := instances[0]
	assert.Equal(t, []float64{0.10, 2}, first.Features)
	assert.Equal(t, 0.10, first.Attributes[ColumnIntRate])
	assert.Equal(t, 2, first.Attributes[ColumnInquiries])
	assert.Equal(t, "car", first.Attributes["purpose"])
	assert.True(t, first.IsWinner())
	assert.Equal(t, StatusChargedOff, instances[1].Status())

	assert.Equal(t, 1, logs.FilterMessage("LoanStats3a.csv had 2 valid rows, 1 invalid rows.").Len())
	statusLogs := logs.FilterMessage("Status codes encountered").All()
	require.Len(t, statusLogs, 1)
	assert.Equal(t, []any{"Charged Off", "Current", "Fully Paid"}, statusLogs[0].ContextMap()["statuses"])
}

func TestIngestFileOrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	header := "int_rate,loan_status,inq_last_6mths\n"
	writeFile(t, dir, "b.csv", banner+header+"11.00%,Fully Paid,1\n")
	writeFile(t, dir, "a.csv", banner+header+
		"12.00%,Default,0\n"+
		",Fully Paid,1\n"+
		"13.00%,Fully Paid,\n"+
		"14.00%,Fully Paid\n"+
		"\"Total amount funded in policy code 1: 123\"\n")
	writeFile(t, dir, "header_only.csv", banner+header)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	instances, err := NewIngestor(nil).Ingest(dir)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, 0.12, instances[0].IntRate())
	assert.Equal(t, 0.11, instances[1].IntRate())
}

func TestIngestPaddedNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "padded.csv", banner+
		"int_rate,loan_status,inq_last_6mths\n"+
		"\" 10.65%\",Fully Paid,\" 2\"\n"+
		"\"  \",Fully Paid,1\n")

	instances, err := NewIngestor(nil).Ingest(dir)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, []float64{0.1065, 2}, instances[0].Features)
	assert.Equal(t, 2, instances[0].Attributes[ColumnInquiries])
}

func TestIngestEmptyDirectory(t *testing.T) {
	instances, err := NewIngestor(nil).Ingest(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, instances)
	assert.NotNil(t, instances)
}

func TestIngestErrors(t *testing.T) {
	header := "int_rate,loan_status,inq_last_6mths\n"
	cases := map[string]struct {
		content string
		want    error
	}{
		"truncated banner": {"no newline here", ErrIO},
		"empty file":       {"", ErrIO},
		"missing column":   {banner + "int_rate,loan_status\n10.00%,Fully Paid\n", ErrMissingColumn},
		"rate too high":    {banner + header + "45.00%,Fully Paid,1\n", ErrInvalidRate},
		"malformed rate":   {banner + header + "10%,Fully Paid,1\n", ErrInvalidRate},
		"bad inquiries":    {banner + header + "10.00%,Fully Paid,two\n", ErrInvalidRow},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "data.csv", tc.content)
			_, err := NewIngestor(nil).Ingest(dir)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := NewIngestor(nil).Ingest(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestIngestedRatesInRange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "data.csv", banner+"int_rate,loan_status,inq_last_6mths\n"+
		"0.01%,Fully Paid,0\n39.99%,Charged Off,8\n5.42%,Default,3\n")
	instances, err := NewIngestor(nil).Ingest(dir)
	require.NoError(t, err)
	require.Len(t, instances, 3)
	for _, inst := range instances {
		assert.Greater(t, inst.Features[0], 0.0)
		assert.Less(t, inst.Features[0], MaxRate)
	}
}

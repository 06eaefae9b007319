package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"processos/internal/core"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "process_data.json"))
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "process_data.json")
	s := New(path)

	in := []core.Process{{
		ProcessDate:  core.NewDate(2024, 1, 2),
		Number:       "P1",
		Counterparty: "ACME",
		ReceiptDate:  core.NewDate(2024, 3, 1),
		Installments: []core.Installment{
			{Number: 1, Value: core.Reais(200, 0), DueDate: core.NewDate(2024, 3, 31)},
			{Number: 2, Value: core.Reais(200, 0), DueDate: core.NewDate(2024, 4, 30), Paid: true},
		},
	}}
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "process_data.json")
	s := New(path)

	require.NoError(t, s.Save(ctx, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), "new file is world readable")

	require.NoError(t, os.Chmod(path, 0o640))
	require.NoError(t, s.Save(ctx, nil))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm(), "existing mode survives a save")
}

func TestLoadOriginalLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_data.json")
	content := `[{"data_processo": "2024-01-02", "numero_processo": "123", "contra_quem": "Fulano",
	  "data_recebimento": "2024-01-11",
	  "parcelas": [{"numero": 1, "valor": 1000.0, "vencimento": "2024-02-10", "pago": false}]}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := New(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fulano", got[0].Counterparty)
	assert.Equal(t, int64(100000), got[0].Installments[0].Value.Cents)
	assert.Equal(t, core.NewDate(2024, 2, 10), got[0].Installments[0].DueDate)
}

func TestLoadMalformedDateAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_data.json")
	content := `[{"numero_processo": "ok", "data_processo": "2024-01-02", "data_recebimento": "2024-01-11", "parcelas": []},
	  {"numero_processo": "bad", "data_processo": "2024-01-02", "data_recebimento": "11/01/2024", "parcelas": []}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := New(path).Load(context.Background())
	require.Error(t, err)
	var pe *core.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "record 1")
}

func TestSaveUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(filepath.Join(blocker, "process_data.json"))
	err := s.Save(context.Background(), nil)
	assert.Error(t, err)
}

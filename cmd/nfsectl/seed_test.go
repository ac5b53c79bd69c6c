package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/Rental-api/internal/infrastructure/sqlite"
)

// ──── Lectura ────

func TestReadCSV_Latin1(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("ibge;nome;uf\n3550308;São Paulo;SP\n")
	require.NoError(t, err)

	rows, err := readCSV(bytes.NewReader([]byte(raw)), true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "São Paulo", rows[1][1])
}

func TestParseMunicipalities_DescartaCabeceraYDuplicados(t *testing.T) {
	rows := [][]string{
		{"ibge", "nome", "uf"},
		{"5300108", "Brasília", "df"},
		{"4205407", "Florianópolis", "SC"},
		{"5300108", "Brasília", "DF"},
		{"123", "inválido", "XX"},
	}
	got := parseMunicipalities(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "4205407", got[0].IBGE, "ordenado por código")
	assert.Equal(t, "DF", got[1].UF)
}

func TestParseServiceCodes_NormalizaLC116(t *testing.T) {
	rows := [][]string{
		{"codigo_lc116", "codigo_nacional", "descricao"},
		{"17.05", "990101", "Locação com operador"},
		{"3.05", "990101"},
		{"xx", "990101"},
	}
	got := parseServiceCodes(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "030500", got[0].Municipal)
	assert.Equal(t, "170500", got[1].Municipal)
	assert.Equal(t, "Locação com operador", got[1].Description)
}

// ──── Script ────

func TestCatalogSQL_AplicaEnSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	script := catalogSQL(
		[]municipality{{IBGE: "5300108", Name: "Brasília", UF: "DF"}, {IBGE: "9999999", Name: "Pau d'Arco", UF: "PA"}},
		[]serviceCode{{Municipal: "170500", National: "990101"}},
	)
	_, err = db.ExecContext(ctx, script)
	require.NoError(t, err)
	// Reaplicar es idempotente.
	_, err = db.ExecContext(ctx, script)
	require.NoError(t, err)

	cat, err := sqlite.LoadCatalog(ctx, db)
	require.NoError(t, err)
	assert.True(t, cat.IsNationalMunicipality("9999999"))
	code, ok := cat.NationalCodeFor("170500")
	assert.True(t, ok)
	assert.Equal(t, "990101", code)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcd****", maskToken("abcdefgh"))
	assert.Equal(t, "****", maskToken("abc"))
}

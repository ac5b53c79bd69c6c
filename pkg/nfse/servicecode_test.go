package nfse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rental-api/pkg/nfse"
)

func TestNormalizeServiceCode_NacionalSeMantiene(t *testing.T) {
	sc, err := nfse.NormalizeServiceCode(nfse.DefaultCatalog(), "990101", true)
	require.NoError(t, err)
	assert.True(t, sc.IsNacional)
	assert.Equal(t, "990101", sc.Code)
	assert.False(t, sc.Fallback)
}

func TestNormalizeServiceCode_MunicipalExpandido(t *testing.T) {
	sc, err := nfse.NormalizeServiceCode(nfse.DefaultCatalog(), "01.05", false)
	require.NoError(t, err)
	assert.False(t, sc.IsNacional)
	assert.Equal(t, "010500", sc.Code)
}

func TestNormalizeServiceCode_TraduccionPorTabla(t *testing.T) {
	sc, err := nfse.NormalizeServiceCode(nfse.DefaultCatalog(), "17.05", true)
	require.NoError(t, err)
	assert.True(t, sc.IsNacional)
	assert.Equal(t, "990101", sc.Code)
	assert.False(t, sc.Fallback, "17.05 tiene entrada en la tabla")
}

func TestNormalizeServiceCode_SinEntradaUsaFallback(t *testing.T) {
	sc, err := nfse.NormalizeServiceCode(nfse.DefaultCatalog(), "14.01", true)
	require.NoError(t, err)
	assert.True(t, sc.IsNacional)
	assert.Equal(t, nfse.DefaultNationalServiceCode, sc.Code)
	assert.True(t, sc.Fallback, "debe marcarse el uso del código por defecto")
	assert.Equal(t, "14.01", sc.Original)
}

func TestNormalizeServiceCode_FormasMunicipales(t *testing.T) {
	cases := map[string]string{
		"17.05":    "170500",
		"1.05":     "010500",
		"1705":     "170500",
		"170500":   "170500",
		"07.02.01": "070201",
		" 3.05 ":   "030500",
	}
	for in, want := range cases {
		sc, err := nfse.NormalizeServiceCode(nil, in, false)
		require.NoError(t, err, in)
		assert.False(t, sc.IsNacional, in)
		assert.Equal(t, want, sc.Code, in)
	}
}

func TestNormalizeServiceCode_Invalidos(t *testing.T) {
	for _, in := range []string{"", "abc", "1234567", "123.456.7.8"} {
		_, err := nfse.NormalizeServiceCode(nfse.DefaultCatalog(), in, true)
		assert.Error(t, err, "%q debe rechazarse", in)
	}
}

func TestStaticCatalog_Overrides(t *testing.T) {
	cat := nfse.NewStaticCatalog([]string{"3550308"}, map[string]string{"14.01": "990199"})

	assert.True(t, cat.IsNationalMunicipality("3550308"))
	assert.False(t, cat.IsNationalMunicipality("5300108"), "catálogo propio reemplaza la lista por defecto")

	sc, err := nfse.NormalizeServiceCode(cat, "14.01", true)
	require.NoError(t, err)
	assert.Equal(t, "990199", sc.Code)
	assert.False(t, sc.Fallback)

	m, c := cat.Len()
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, c)
}

func TestDefaultCatalog_Copias(t *testing.T) {
	list := nfse.DefaultNationalMunicipalities()
	list[0] = "0000000"
	assert.NotEqual(t, "0000000", nfse.DefaultNationalMunicipalities()[0], "la lista por defecto no debe mutar")
}

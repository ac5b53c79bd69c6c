package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rental-api/pkg/logger"
)

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Service: "rental-api", Output: &buf})

	log.WithComponent("nfse").WithTenant("tenant-1").Info().Str("ref", "nfse-1").Msg("NFS-e enviada")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev), buf.String())
	assert.Equal(t, "info", ev["level"])
	assert.Equal(t, "rental-api", ev["service"])
	assert.Equal(t, "nfse", ev["component"])
	assert.Equal(t, "tenant-1", ev["tenant_id"])
	assert.Equal(t, "nfse-1", ev["ref"])
	assert.Equal(t, "NFS-e enviada", ev["message"])
}

func TestNew_FiltraPorNivel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "WARN", Output: &buf})

	log.Info().Msg("descartado")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("registrado")
	assert.Contains(t, buf.String(), "registrado")
}

package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("docs/SIA/apuntes/teoria.pdf", 3)
	b := ChunkID("docs/SIA/apuntes/teoria.pdf", 3)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestChunkIDDistinguishesIdentity(t *testing.T) {
	base := ChunkID("docs/a.pdf", 1)
	assert.NotEqual(t, base, ChunkID("docs/a.pdf", 2))
	assert.NotEqual(t, base, ChunkID("docs/b.pdf", 1))
	// The separator keeps (source "a", index 11) apart from (source "a1", index 1).
	assert.NotEqual(t, ChunkID("docs/a1.pdf", 1), ChunkID("docs/a.pdf", 11))
}

func TestStoreErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &StoreError{Op: "connect", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connect")
}

func TestMetadataRoundTrip(t *testing.T) {
	md := models.Metadata{
		Materia:       "Probabilidad y estadistica",
		UnidadNumero:  2,
		UnidadTema:    "Distribucion Normal",
		TipoDocumento: "ejercicios",
		FileType:      "pdf",
	}

	data, err := json.Marshal(md)
	require.NoError(t, err)

	// The serialized keys are what metadata @> filters match against.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Probabilidad y estadistica", raw["materia"])
	assert.Equal(t, float64(2), raw["unidad_numero"])
	assert.Equal(t, "ejercicios", raw["tipo_documento"])
	assert.NotContains(t, raw, "nivel_sugerido")

	var back models.Metadata
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, md, back)
}

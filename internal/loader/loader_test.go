package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CTepedino/deep-learning-tp2/internal/metadata"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader() *Loader {
	return New(metadata.NewExtractor("docs"), Options{})
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "docs", "Probabilidad_y_estadistica", "Unidad_02_Distribucion_Normal", "apuntes"), "teoria.txt", "La distribucion normal es simetrica.")

	doc, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "La distribucion normal es simetrica.", doc.Content)
	assert.Equal(t, "txt", doc.Metadata.FileType)
	assert.Equal(t, "Probabilidad y estadistica", doc.Metadata.Materia)
	assert.Equal(t, 2, doc.Metadata.UnidadNumero)
	assert.Equal(t, "apuntes", doc.Metadata.TipoDocumento)
	assert.Equal(t, path, doc.Source)
}

func TestLoadTexFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "formulas.tex", `La media es $\mu = \frac{1}{n}\sum x_i$.`)

	doc, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "tex", doc.Metadata.FileType)
	assert.Contains(t, doc.Content, `\mu`)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "imagen.jpg", "not really")

	_, err := newTestLoader().Load(context.Background(), path)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), filepath.Join(t.TempDir(), "no_such.txt"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadDirectoryIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs", "SIA", "Unidad_1_Intro", "apuntes")
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		writeFile(t, docs, name, "contenido de "+name)
	}
	// A .pdf that isn't a PDF at all.
	writeFile(t, docs, "roto.pdf", "esto no es un pdf")
	// Unsupported files are ignored, not failures.
	writeFile(t, docs, "notas.md", "ignorado")

	batch, err := newTestLoader().LoadDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 5, batch.Loaded)
	assert.Len(t, batch.Documents, 5)
	require.Equal(t, 1, batch.Failed)
	assert.Contains(t, batch.Failures[0].Path, "roto.pdf")
}

func TestLoadDirectoryDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "c.txt", "c")

	batch, err := newTestLoader().LoadDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, batch.Documents, 3)
	assert.Contains(t, batch.Documents[0].Source, "a.txt")
	assert.Contains(t, batch.Documents[1].Source, "b.txt")
	assert.Contains(t, batch.Documents[2].Source, "c.txt")
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		similar bool
	}{
		{"identical", "la varianza mide dispersion", "la varianza mide dispersion", true},
		{"case and punctuation ignored", "La varianza mide dispersion.", "la varianza mide dispersion", true},
		{"disjoint", "teorema de bayes", "regresion lineal simple", false},
		{"empty ocr", "texto directo", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(tt.a, tt.b) >= duplicateThreshold
			assert.Equal(t, tt.similar, got)
		})
	}
}

func TestMergePageFormats(t *testing.T) {
	l := New(metadata.NewExtractor("docs"), Options{
		Engine:     fakeEngine{text: "formula en la pizarra"},
		Rasterizer: fakeRasterizer{},
	})
	merged := l.mergePage(context.Background(), "x.pdf", 1, "texto directo de la pagina")
	assert.Equal(t, "texto directo de la pagina\n\n[Transcripción de la imagen: formula en la pizarra]", merged)
}

func TestMergePageDropsDuplicateOCR(t *testing.T) {
	l := New(metadata.NewExtractor("docs"), Options{
		Engine:     fakeEngine{text: "texto directo de la pagina"},
		Rasterizer: fakeRasterizer{},
	})
	merged := l.mergePage(context.Background(), "x.pdf", 1, "texto directo de la pagina")
	assert.Equal(t, "texto directo de la pagina", merged)
}

func TestMergePageCaptionsWhenNoOCRText(t *testing.T) {
	l := New(metadata.NewExtractor("docs"), Options{
		Engine:     fakeEngine{},
		Rasterizer: fakeRasterizer{},
		Captioner:  fakeCaptioner{caption: "diagrama de un perceptron"},
	})
	merged := l.mergePage(context.Background(), "x.pdf", 1, "texto directo")
	assert.Equal(t, "texto directo\n\n[Descripción de la imagen: diagrama de un perceptron]", merged)
}

type fakeEngine struct{ text string }

func (f fakeEngine) Recognize(ctx context.Context, image []byte, languages string) (string, error) {
	return f.text, nil
}

type fakeRasterizer struct{}

func (fakeRasterizer) Render(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

type fakeCaptioner struct{ caption string }

func (f fakeCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	return f.caption, nil
}

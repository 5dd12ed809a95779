package models

// Metadata holds the academic metadata attached to a document and copied
// verbatim onto each of its chunks. Optional fields stay zero-valued and are
// omitted from the serialized form, so a missing path segment never fabricates
// a value.
type Metadata struct {
	Materia       string   `json:"materia,omitempty"`
	UnidadNumero  int      `json:"unidad_numero,omitempty"`
	UnidadTema    string   `json:"unidad_tema,omitempty"`
	TipoDocumento string   `json:"tipo_documento,omitempty"`
	NivelSugerido string   `json:"nivel_sugerido,omitempty"`
	FileType      string   `json:"file_type,omitempty"`
	Filename      string   `json:"filename,omitempty"`
	PalabrasClave []string `json:"palabras_clave,omitempty"`

	// Exam-specific fields, populated only for parciales and finales.
	Anio         int    `json:"anio,omitempty"`
	Cuatrimestre int    `json:"cuatrimestre,omitempty"`
	TipoExamen   string `json:"tipo_examen,omitempty"`
	Tema         string `json:"tema,omitempty"`
}

// Document is one loaded source file: continuous extracted text plus the
// metadata derived from its path. Documents only live until they are split
// into chunks.
type Document struct {
	Source   string   `json:"source"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Chunk is the retrieval unit: a bounded fragment of a document carrying the
// parent metadata, its position within the parent, and (after embedding) a
// fixed-dimension vector.
type Chunk struct {
	Source      string    `json:"source"`
	ChunkIndex  int       `json:"chunk_index"`
	StartOffset int       `json:"start_offset"`
	Content     string    `json:"content"`
	Metadata    Metadata  `json:"metadata"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// Exercise is the validated shape returned by the generator. Opciones is
// present only for multiple choice, where it must hold exactly four entries.
type Exercise struct {
	Pregunta          string   `json:"pregunta"`
	Opciones          []string `json:"opciones,omitempty"`
	RespuestaCorrecta string   `json:"respuesta_correcta"`
	Pista             string   `json:"pista"`
	Solucion          string   `json:"solucion"`
}

package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/CTepedino/deep-learning-tp2/internal/models"
)

// Result is one path's extraction outcome. Fallback is set when the
// configured documents root was not found in the path and the last segments
// were used best-effort instead.
type Result struct {
	models.Metadata
	Fallback bool
}

// Extractor derives academic metadata from a file's location under the
// documents root. Extraction never fails: a segment that doesn't match its
// expected pattern leaves the corresponding fields absent.
type Extractor struct {
	Root string
}

func NewExtractor(root string) *Extractor {
	if root == "" {
		root = "docs"
	}
	return &Extractor{Root: filepath.Base(filepath.Clean(root))}
}

var (
	unitFolderRe   = regexp.MustCompile(`(?i)^(?:unidad|tema|capitulo|modulo)[_\s-]*(\d+)[_\s-]*(.*)$`)
	leadingUnitRe  = regexp.MustCompile(`^(\d+)[_\s.-]+(.*)$`)
	examYearRe     = regexp.MustCompile(`(19|20)\d{2}`)
	cuatrimestreRe = regexp.MustCompile(`([12])\s*c(?:uat)?`)
	examTemaRe     = regexp.MustCompile(`(?:^|[_\s-])tema[_\s]*([a-z0-9]+)`)
)

var tipoSynonyms = map[string]string{
	"apunte":     "apuntes",
	"apuntes":    "apuntes",
	"teoria":     "apuntes",
	"teorica":    "apuntes",
	"teoricas":   "apuntes",
	"teorico":    "apuntes",
	"ejercicio":  "ejercicios",
	"ejercicios": "ejercicios",
	"practica":   "practicas",
	"practicas":  "practicas",
	"practico":   "practicas",
	"guia":       "guias",
	"guias":      "guias",
	"examen":     "examenes",
	"examenes":   "examenes",
	"parcial":    "parciales",
	"parciales":  "parciales",
	"final":      "finales",
	"finales":    "finales",
}

var examTipos = map[string]bool{"examenes": true, "parciales": true, "finales": true}

var difficultyKeywords = []struct {
	keyword string
	level   string
}{
	{"basico", "introductorio"},
	{"introductorio", "introductorio"},
	{"intro", "introductorio"},
	{"intermedio", "intermedio"},
	{"medio", "intermedio"},
	{"avanzado", "avanzado"},
}

// Extract parses path into a metadata record. Segments are read relative to
// the documents root: subject folder, then unit folder, then document type
// folder, then the file itself. Whatever the path layout omits, the filename
// fills in where it can (type keywords, difficulty, unit numbers like
// "18 - Intervalos de Confianza.pdf").
func (e *Extractor) Extract(path string) Result {
	var res Result

	segs := splitPath(path)
	if len(segs) == 0 {
		return res
	}

	filename := segs[len(segs)-1]
	res.Filename = filename
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	rel := e.relativeSegments(segs)
	if rel == nil {
		// Root not in the path at all (legacy flat layout). Best effort from
		// the trailing segments.
		res.Fallback = true
		rel = segs
		if len(rel) > 2 {
			rel = rel[len(rel)-2:]
		}
		e.extractFallback(rel, stem, &res)
	} else {
		e.extractStructured(rel, stem, &res)
	}

	if res.NivelSugerido == "" {
		res.NivelSugerido = difficultyFromName(stem)
	}
	if res.PalabrasClave == nil {
		res.PalabrasClave = keywordsFromName(stem)
	}
	if examTipos[res.TipoDocumento] {
		extractExamFields(stem, &res.Metadata)
	}
	return res
}

// relativeSegments returns the segments after the documents root, or nil when
// the root doesn't appear in the path.
func (e *Extractor) relativeSegments(segs []string) []string {
	for i, s := range segs[:len(segs)-1] {
		if Fold(s) == Fold(e.Root) {
			return segs[i+1:]
		}
	}
	return nil
}

func (e *Extractor) extractStructured(rel []string, stem string, res *Result) {
	switch len(rel) {
	case 0:
		return
	case 1:
		// File directly under the root: everything from the filename.
		if canon, ok := CanonicalSubject(stem); ok {
			res.Materia = canon
		}
		res.TipoDocumento = tipoFromName(stem)
		extractUnitFromName(stem, &res.Metadata)
		return
	}

	canon, _ := CanonicalSubject(rel[0])
	res.Materia = cleanSegment(canon)

	switch len(rel) {
	case 2:
		// materia/file: unit and type come from the filename if anywhere.
		res.TipoDocumento = tipoFromName(stem)
		extractUnitFromName(stem, &res.Metadata)
	case 3:
		// materia/X/file: X is a unit folder or a type folder.
		if matchUnitFolder(rel[1], &res.Metadata) {
			res.TipoDocumento = tipoFromName(stem)
		} else if tipo := matchTipo(rel[1]); tipo != "" {
			res.TipoDocumento = tipo
			extractUnitFromName(stem, &res.Metadata)
		} else {
			res.TipoDocumento = tipoFromName(stem)
		}
	default:
		// materia/unit/tipo/file, the canonical layout.
		matchUnitFolder(rel[1], &res.Metadata)
		if tipo := matchTipo(rel[2]); tipo != "" {
			res.TipoDocumento = tipo
		} else {
			res.TipoDocumento = tipoFromName(stem)
		}
		if res.UnidadNumero == 0 {
			extractUnitFromName(stem, &res.Metadata)
		}
	}
}

func (e *Extractor) extractFallback(rel []string, stem string, res *Result) {
	// Last directory segment (if any) is the materia candidate, the filename
	// supplies the type.
	if len(rel) >= 2 {
		if canon, ok := CanonicalSubject(rel[0]); ok {
			res.Materia = canon
		}
	}
	if res.Materia == "" {
		if canon, ok := CanonicalSubject(stem); ok {
			res.Materia = canon
		}
	}
	res.TipoDocumento = tipoFromName(stem)
	extractUnitFromName(stem, &res.Metadata)
}

// matchUnitFolder parses folder names like "Unidad_02_Distribucion_Normal" or
// "3 - Regresion Lineal" into number and topic.
func matchUnitFolder(seg string, md *models.Metadata) bool {
	m := unitFolderRe.FindStringSubmatch(seg)
	if m == nil {
		m = leadingUnitRe.FindStringSubmatch(seg)
	}
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return false
	}
	md.UnidadNumero = n
	md.UnidadTema = cleanSegment(m[2])
	return true
}

// extractUnitFromName recovers a unit number and topic from filenames that
// start with digits, e.g. "18 - Intervalos de Confianza.pdf".
func extractUnitFromName(stem string, md *models.Metadata) {
	if md.UnidadNumero != 0 {
		return
	}
	matchUnitFolder(stem, md)
}

func matchTipo(seg string) string {
	return tipoSynonyms[Fold(strings.Trim(seg, "_ -"))]
}

// tipoFromName scans a filename for a controlled-vocabulary keyword.
func tipoFromName(stem string) string {
	folded := Fold(stem)
	for _, word := range splitWords(folded) {
		if tipo, ok := tipoSynonyms[word]; ok {
			return tipo
		}
	}
	return ""
}

func difficultyFromName(stem string) string {
	folded := Fold(stem)
	for _, dk := range difficultyKeywords {
		if strings.Contains(folded, dk.keyword) {
			return dk.level
		}
	}
	return ""
}

var keywordStopwords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true, "del": true,
	"y": true, "en": true, "con": true, "para": true, "un": true, "una": true,
}

// keywordsFromName turns the filename stem into lowercase search keywords,
// dropping separators, numbers and stopwords.
func keywordsFromName(stem string) []string {
	var kws []string
	for _, w := range splitWords(Fold(stem)) {
		if len(w) < 3 || keywordStopwords[w] {
			continue
		}
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		kws = append(kws, w)
	}
	return kws
}

func extractExamFields(stem string, md *models.Metadata) {
	folded := Fold(stem)
	if m := examYearRe.FindString(folded); m != "" {
		md.Anio, _ = strconv.Atoi(m)
	}
	if m := cuatrimestreRe.FindStringSubmatch(folded); m != nil {
		md.Cuatrimestre, _ = strconv.Atoi(m[1])
	}
	switch {
	case strings.Contains(folded, "recuperatorio"):
		md.TipoExamen = "recuperatorio"
	case strings.Contains(folded, "parcial"):
		md.TipoExamen = "parcial"
	case strings.Contains(folded, "final"):
		md.TipoExamen = "final"
	}
	if m := examTemaRe.FindStringSubmatch(folded); m != nil {
		md.Tema = strings.ToUpper(m[1])
	}
}

// cleanSegment replaces filesystem-friendly separators with spaces.
func cleanSegment(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.' || r == '(' || r == ')'
	})
}

func splitPath(path string) []string {
	path = filepath.ToSlash(filepath.Clean(path))
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	return segs
}

package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/qepting91/recordsync/internal/domain"
)

// Annotation sets one local field on the cached record with a matching id.
type Annotation struct {
	ID    any // json.Number for numeric ids, string otherwise
	Field string
	Value string
}

// Regex for ids that should match numeric record ids
var numericID = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// LoadAnnotations reads an "id,field,value" CSV. The header row is skipped
// and malformed rows are dropped.
func LoadAnnotations(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAnnotations(f)
}

func ReadAnnotations(src io.Reader) ([]Annotation, error) {
	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(src))
	r.FieldsPerRecord = -1

	var annotations []Annotation
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 {
			continue
		}

		// Validation (Fail-Soft)
		if len(record) < 3 {
			continue
		}
		id := strings.TrimSpace(record[0])
		field := strings.TrimSpace(record[1])
		if id == "" || field == "" || field == "id" {
			continue
		}

		a := Annotation{ID: id, Field: field, Value: record[2]}
		if numericID.MatchString(id) {
			a.ID = json.Number(id)
		}
		annotations = append(annotations, a)
	}
	return annotations, nil
}

// Apply sets every annotation on the first record with a matching id and
// reports how many were applied. Annotations for unknown ids are ignored.
func Apply(c domain.Collection, annotations []Annotation) int {
	applied := 0
	for _, a := range annotations {
		for _, r := range c {
			if sameID(r["id"], a.ID) {
				r[a.Field] = a.Value
				applied++
				break
			}
		}
	}
	return applied
}

func sameID(recordID, want any) bool {
	switch w := want.(type) {
	case json.Number:
		n, ok := recordID.(json.Number)
		if !ok {
			return false
		}
		a, errA := n.Float64()
		b, errB := w.Float64()
		return errA == nil && errB == nil && a == b
	case string:
		s, ok := recordID.(string)
		return ok && s == w
	}
	return false
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}

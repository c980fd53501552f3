package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Well-known record fields.
const (
	FieldEmbedding    = "embedding"
	FieldDenseContext = "dense_context"
	FieldQuestion     = "question"
	FieldAnswer       = "answer"
	FieldText         = "text"
)

// Record is one JSON object read from an input line.
// Field values are kept as raw JSON in their original key order, so fields the
// pipeline does not understand are written back unchanged. The only mutation
// is SetEmbedding.
type Record struct {
	keys   []string
	fields map[string]json.RawMessage
}

// ParseRecord parses a single line into a Record.
// Returns ErrInvalidRecord if the line is not exactly one JSON object.
func ParseRecord(line string) (*Record, error) {
	data := []byte(line)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidRecord)
	}

	r := &Record{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", ErrInvalidRecord, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidRecord, key, err)
		}

		// Duplicate keys keep their first position and their last value.
		if _, seen := r.fields[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.fields[key] = raw
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidRecord)
	}

	return r, nil
}

// Keys returns the field names in their original order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the raw JSON value of a field.
func (r *Record) Get(key string) (json.RawMessage, bool) {
	raw, ok := r.fields[key]
	return raw, ok
}

// DenseContext returns the dense_context field, or "" if absent or not a string.
func (r *Record) DenseContext() string {
	return r.stringField(FieldDenseContext)
}

// Question returns the question field, or "" if absent or not a string.
func (r *Record) Question() string {
	return r.stringField(FieldQuestion)
}

// Answer returns the answer field, or "" if absent or not a string.
func (r *Record) Answer() string {
	return r.stringField(FieldAnswer)
}

// Text returns the text field, or "" if absent or not a string.
func (r *Record) Text() string {
	return r.stringField(FieldText)
}

// EmbeddingText returns the text to embed for this record, chosen in priority
// order: dense_context, then question and answer together, then text.
// An empty result means the record has nothing to embed.
func (r *Record) EmbeddingText() string {
	if s := r.DenseContext(); s != "" {
		return s
	}
	if q, a := r.Question(), r.Answer(); q != "" && a != "" {
		return "Q: " + q + "\nA: " + a
	}
	return r.Text()
}

// HasEmbedding reports whether the record carries a non-empty embedding array.
func (r *Record) HasEmbedding() bool {
	raw, ok := r.fields[FieldEmbedding]
	if !ok {
		return false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return false
	}
	return len(elems) > 0
}

// Embedding decodes the embedding field. Returns nil if it is absent or not numeric.
func (r *Record) Embedding() Vector {
	raw, ok := r.fields[FieldEmbedding]
	if !ok {
		return nil
	}
	var v Vector
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// SetEmbedding sets or overwrites the embedding field.
// An existing field keeps its position; a new one is appended.
func (r *Record) SetEmbedding(v Vector) error {
	if v == nil {
		v = Vector{}
	}
	raw, err := json.Marshal([]float32(v))
	if err != nil {
		return err
	}
	if _, seen := r.fields[FieldEmbedding]; !seen {
		r.keys = append(r.keys, FieldEmbedding)
	}
	r.fields[FieldEmbedding] = raw
	return nil
}

// MarshalJSON writes the record as a single-line JSON object in original key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		buf.Write(r.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) stringField(key string) string {
	raw, ok := r.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// writeJSONString encodes s without HTML escaping so keys round-trip as written.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.WriteString(strings.TrimSuffix(tmp.String(), "\n"))
	return nil
}

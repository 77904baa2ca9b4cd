package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const indent = "  "

// ParseError reports a document that is missing or is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("storage: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Encode renders v as 2-space indented JSON without a trailing newline.
func Encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	return data, nil
}

// WriteDocument serializes v and replaces the document at path.
func WriteDocument(p Provider, path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return p.Write(path, data)
}

// ReadDocument reads the document at path into a new T. Missing files and
// invalid JSON both yield a *ParseError.
func ReadDocument[T any](p Provider, path string) (T, error) {
	var out T
	data, err := p.Read(path)
	if err != nil {
		return out, &ParseError{Path: path, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	// Untyped numbers stay json.Number so large integers survive a rewrite.
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return out, &ParseError{Path: path, Err: err}
	}
	// Reject trailing content such as `{} {}`.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return out, &ParseError{Path: path, Err: fmt.Errorf("unexpected data after document")}
	}
	return out, nil
}

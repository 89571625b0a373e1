// Package problemfile reads problem definitions from YAML or JSON files.
package problemfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/lplab/internal/lp"
)

// Load reads and validates the problem in path. JSON is accepted since it
// is a subset of YAML.
func Load(path string) (*lp.Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes one problem definition and validates it. Unknown fields are
// rejected.
func Parse(data []byte) (*lp.Problem, error) {
	def, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return lp.NewProblem(def)
}

// Decode reads a definition without validating it.
func Decode(r io.Reader) (lp.Definition, error) {
	var def lp.Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return def, fmt.Errorf("problem file is empty")
		}
		return def, fmt.Errorf("failed to decode problem: %w", err)
	}
	return def, nil
}

// Marshal encodes p's canonical definition as YAML.
func Marshal(p *lp.Problem) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p.Definition()); err != nil {
		return nil, fmt.Errorf("failed to encode problem: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrEmptyRequest is returned for a request file with no document.
var ErrEmptyRequest = errors.New("cli: empty request")

// LoadRequest decodes a request file into v. The path "-" reads stdin.
func LoadRequest(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("cli: read request: %w", err)
	}
	if err := ParseRequest(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ParseRequest decodes a YAML or JSON document into v. Fields that v does
// not declare are rejected, so a misspelled key fails instead of being
// silently ignored.
func ParseRequest(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyRequest
		}
		return fmt.Errorf("cli: parse request: %w", err)
	}
	return nil
}

package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type callRequest struct {
	Language string `yaml:"language"`
	Voice    string `yaml:"voice"`
}

func TestParseRequest(t *testing.T) {
	for name, data := range map[string]string{
		"yaml": "language: en\nvoice: Puck\n",
		"json": `{"language":"en","voice":"Puck"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var r callRequest
			if err := ParseRequest([]byte(data), &r); err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if r.Language != "en" || r.Voice != "Puck" {
				t.Errorf("got %+v", r)
			}
		})
	}

	var r callRequest
	if err := ParseRequest([]byte("lenguaje: en\n"), &r); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := ParseRequest([]byte("{bad"), &r); err == nil {
		t.Error("expected error for malformed input")
	}
	if err := ParseRequest(nil, &r); !errors.Is(err, ErrEmptyRequest) {
		t.Errorf("empty input: err = %v, want ErrEmptyRequest", err)
	}
}

func TestLoadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "call.yaml")
	if err := os.WriteFile(path, []byte("voice: Kore\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var r callRequest
	if err := LoadRequest(path, &r); err != nil {
		t.Fatalf("LoadRequest: %v", err)
	}
	if r.Voice != "Kore" {
		t.Errorf("voice = %q", r.Voice)
	}
	if err := LoadRequest(filepath.Join(t.TempDir(), "missing.yaml"), &r); err == nil {
		t.Error("expected error for missing file")
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type item struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	IsNew bool   `json:"is_new" yaml:"is_new"`
}

var items = []item{
	{"1", "Decreto 0125", true},
	{"3", "Resolución 000018", false},
}

func TestOutputFormats(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(items, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded []item
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 2 {
		t.Errorf("json output %q: %v", buf.String(), err)
	}

	buf.Reset()
	if err := Output(items[0], OutputOptions{Writer: &buf}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "title: Decreto 0125") {
		t.Errorf("yaml output = %q", buf.String())
	}

	buf.Reset()
	Output("hola", OutputOptions{Format: FormatRaw, Writer: &buf})
	if buf.String() != "hola\n" {
		t.Errorf("raw output = %q", buf.String())
	}

	if err := Output(items, OutputOptions{Format: "xml", Writer: &buf}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOutputQuery(t *testing.T) {
	var buf bytes.Buffer
	err := Output(items, OutputOptions{Format: FormatJSON, Indent: " ", Writer: &buf, Query: `.[] | select(.is_new) | .id`})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if buf.String() != "\"1\"\n" {
		t.Errorf("query output = %q", buf.String())
	}

	vals, err := RunQuery(`map(.title) | length`, items)
	if err != nil || len(vals) != 1 || vals[0] != 2 {
		t.Errorf("RunQuery = %v, %v", vals, err)
	}

	if _, err := RunQuery(`.[`, items); err == nil {
		t.Error("expected parse error")
	}
	if _, err := RunQuery(`error("bad")`, items); err == nil {
		t.Error("expected runtime error")
	}
}

func TestOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output(items, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatalf("Output: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Contains(data, []byte(`"id": "3"`)) {
		t.Errorf("file = %q, %v", data, err)
	}
}

package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/normacomex/normabot/pkg/cli"
	"github.com/normacomex/normabot/pkg/norms"
)

func TestMaskedConfig(t *testing.T) {
	cfg := &cli.Config{
		CurrentContext: "dev",
		Contexts: map[string]*cli.Context{
			"dev": {
				Name:   "dev",
				APIKey: "AIzaSyDEADBEEF1234567890",
				Extra: map[string]string{
					cli.ExtraOpenAIKey: "sk-abcdefghijklmnop",
					cli.ExtraLanguage:  "en",
				},
			},
		},
	}
	out := maskedConfig(cfg)
	got := out.Contexts["dev"]
	if got.APIKey == cfg.Contexts["dev"].APIKey {
		t.Error("api key not masked")
	}
	if got.Extra[cli.ExtraOpenAIKey] == "sk-abcdefghijklmnop" {
		t.Error("openai key not masked")
	}
	if got.Extra[cli.ExtraLanguage] != "en" {
		t.Errorf("language = %q, want en", got.Extra[cli.ExtraLanguage])
	}
	if cfg.Contexts["dev"].APIKey != "AIzaSyDEADBEEF1234567890" {
		t.Error("original config modified")
	}
}

func TestSummaries(t *testing.T) {
	list := []norms.Norm{{ID: "1", FullText: "texto"}, {ID: "2", FullText: "otro"}}
	out := summaries(list)
	for _, n := range out {
		if n.FullText != "" {
			t.Errorf("norm %s keeps full text", n.ID)
		}
	}
	if list[0].FullText != "texto" {
		t.Error("input slice modified")
	}
}

func TestMergeCallRequest(t *testing.T) {
	dst := CallRequest{Language: "es", Voice: "Kore", GraceDelayMs: 500}
	mergeCallRequest(&dst, CallRequest{Voice: "Puck", InputDevice: "USB"})
	want := CallRequest{Language: "es", Voice: "Puck", InputDevice: "USB", GraceDelayMs: 500}
	if dst != want {
		t.Errorf("merged = %+v, want %+v", dst, want)
	}
}

func TestResolveCallRequest(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "call.yaml")
	if err := os.WriteFile(file, []byte("language: en\nvoice: Charon\ngrace_delay_ms: 800\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prev := inputFile
	inputFile = file
	defer func() { inputFile = prev }()

	ctx := &cli.Context{
		Name:         "dev",
		DefaultVoice: "Kore",
		Model:        "custom-model",
		Extra:        map[string]string{cli.ExtraLanguage: "es", cli.ExtraTransport: "sdk"},
	}
	if err := callCmd.Flags().Set("voice", "Puck"); err != nil {
		t.Fatal(err)
	}
	defer callCmd.Flags().Set("voice", "")

	req, err := resolveCallRequest(callCmd, ctx)
	if err != nil {
		t.Fatalf("resolveCallRequest: %v", err)
	}
	want := CallRequest{
		Language:     "en",
		Voice:        "Puck",
		Model:        "custom-model",
		Transport:    "sdk",
		GraceDelayMs: 800,
	}
	if req != want {
		t.Errorf("request = %+v, want %+v", req, want)
	}
}

func TestReadLines(t *testing.T) {
	var got []string
	for l := range readLines(context.Background(), strings.NewReader("  /mute \n/exit\n")) {
		got = append(got, l)
	}
	if len(got) != 2 || got[0] != "/mute" || got[1] != "/exit" {
		t.Errorf("lines = %q", got)
	}
}

func TestReadLinesStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := readLines(ctx, strings.NewReader("/hangup\n/call\n/exit\n"))
	if l := <-lines; l != "/hangup" {
		t.Fatalf("first line = %q", l)
	}
	cancel()

	// Nobody reads the remaining lines; the reader must still exit.
	time.Sleep(50 * time.Millisecond)
	deadline := time.After(time.Second)
	for n := 0; ; n++ {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
			if n > 0 {
				t.Fatal("reader kept sending after cancel")
			}
		case <-deadline:
			t.Fatal("reader goroutine did not exit after cancel")
		}
	}
}

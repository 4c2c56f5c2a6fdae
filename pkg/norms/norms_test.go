package norms_test

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/normacomex/normabot/pkg/kv"
	"github.com/normacomex/normabot/pkg/norms"
)

func seeded(t *testing.T) *norms.Store {
	t.Helper()
	s := norms.NewStore(kv.NewMemory(nil))
	if err := s.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	return s
}

func ids(list []norms.Norm) []string {
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

func TestCatalog(t *testing.T) {
	list, err := norms.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(list) != 10 {
		t.Fatalf("catalog has %d norms, want 10", len(list))
	}
	first := list[0]
	if first.Label() != "Decreto 0125" || first.IssuingAuthority != "MinCIT" || !first.IsNew {
		t.Errorf("first = %+v", first)
	}
	if !strings.HasPrefix(first.FullText, "MINISTERIO DE COMERCIO") {
		t.Errorf("full text not loaded: %.40q", first.FullText)
	}
}

func TestParseCatalogRejects(t *testing.T) {
	tests := map[string]string{
		"missing id":       `- title: x` + "\n  category: Aduanera",
		"duplicate id":     "- id: a\n  category: Aduanera\n- id: a\n  category: Aduanera",
		"unknown category": "- id: a\n  category: Minera",
		"not a list":       "id: a",
	}
	for name, doc := range tests {
		if _, err := norms.ParseCatalog([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestStoreListAndGet(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	if got := ids(list); !slices.Equal(got, want) {
		t.Errorf("order = %v", got)
	}

	n, err := s.Get(ctx, "6")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Title != "Ajustes al Régimen de Zonas Francas 4.0" {
		t.Errorf("title = %q", n.Title)
	}
	if _, err := s.Get(ctx, "99"); !errors.Is(err, norms.ErrNotFound) {
		t.Errorf("Get unknown = %v", err)
	}

	// Seeding twice is a no-op.
	if err := s.EnsureSeeded(ctx); err != nil {
		t.Fatalf("EnsureSeeded again: %v", err)
	}
	again, _ := s.List(ctx)
	if len(again) != 10 {
		t.Errorf("reseed changed size to %d", len(again))
	}
}

func TestStoreReseed(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	err := s.Seed(ctx, []norms.Norm{{ID: "x", Title: "Ley X", Category: norms.CategoryTributaria}})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	list, _ := s.List(ctx)
	if got := ids(list); !slices.Equal(got, []string{"x"}) {
		t.Errorf("after reseed = %v", got)
	}
	if _, err := s.Get(ctx, "1"); !errors.Is(err, norms.ErrNotFound) {
		t.Errorf("old record still present: %v", err)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	tests := []struct {
		name  string
		query norms.Query
		want  []string
	}{
		{"empty matches all", norms.Query{}, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}},
		{"case insensitive title", norms.Query{Text: "ZONAS francas"}, []string{"6"}},
		{"number", norms.Query{Text: "dcin-85"}, []string{"8"}},
		{"category only", norms.Query{Category: norms.CategoryCambiaria}, []string{"2", "8"}},
		{"all category", norms.Query{Category: norms.CategoryAll, Text: "Antidumping"}, []string{"9"}},
		{"text and category", norms.Query{Text: "dian", Category: norms.CategoryTributaria}, []string{"3", "7"}},
		{"no match", norms.Query{Text: "xyzzy"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("Search = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestNotificationsAndStats(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	notes, err := s.Notifications(ctx)
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if got := ids(notes); !slices.Equal(got, []string{"1", "2", "4", "5", "6", "8", "10"}) {
		t.Errorf("notifications = %v", got)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 10 || st.New != 7 || st.Today != 7 {
		t.Errorf("stats = total %d new %d today %d", st.Total, st.New, st.Today)
	}
	wantCat := map[norms.Category]int{
		norms.CategoryAduanera:         4,
		norms.CategoryCambiaria:        2,
		norms.CategoryTributaria:       2,
		norms.CategoryComercioExterior: 2,
	}
	for c, n := range wantCat {
		if st.ByCategory[c] != n {
			t.Errorf("ByCategory[%s] = %d, want %d", c, st.ByCategory[c], n)
		}
	}
	if got := ids(st.Recent); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("recent = %v", got)
	}
	if st.Recent[0].FullText != "" {
		t.Error("recent entries should not carry the full text")
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	for n, want := range map[int][]string{
		0:  {},
		2:  {"1", "2"},
		20: {"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
	} {
		got, err := s.Recent(ctx, n)
		if err != nil {
			t.Fatalf("Recent(%d): %v", n, err)
		}
		if !slices.Equal(ids(got), want) {
			t.Errorf("Recent(%d) = %v, want %v", n, ids(got), want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]norms.Category{
		"":                  norms.CategoryAll,
		"All":               norms.CategoryAll,
		"Comercio Exterior": norms.CategoryComercioExterior,
	} {
		got, err := norms.ParseCategory(in)
		if err != nil || got != want {
			t.Errorf("ParseCategory(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := norms.ParseCategory("Minera"); err == nil {
		t.Error("expected error")
	}
}

var pageObj = regexp.MustCompile(`/Type\s*/Page[^s]`)

func TestExportPDF(t *testing.T) {
	list, _ := norms.Catalog()

	var buf bytes.Buffer
	if err := norms.ExportPDF(&buf, &list[0]); err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %.10q", buf.Bytes())
	}
	if pages := len(pageObj.FindAll(buf.Bytes(), -1)); pages < 2 {
		t.Errorf("full decree rendered on %d page(s), want several", pages)
	}

	buf.Reset()
	empty := norms.Norm{ID: "e", Type: "Ley", Number: "1", Title: "Sin texto", Category: norms.CategoryTributaria}
	if err := norms.ExportPDF(&buf, &empty); err != nil {
		t.Fatalf("ExportPDF empty: %v", err)
	}
	if pages := len(pageObj.FindAll(buf.Bytes(), -1)); pages != 1 {
		t.Errorf("empty norm rendered on %d pages, want 1", pages)
	}
}

func TestPDFFileName(t *testing.T) {
	tests := []struct {
		norm norms.Norm
		want string
	}{
		{
			norms.Norm{Type: "Decreto", Number: "0125", Title: "Modernización Digital del Régimen de Aduanas 2025"},
			"Norma_Decreto_0125_Modernizacion_Digital_del_Regimen_de_Aduanas_2025.pdf",
		},
		{
			norms.Norm{Type: "Resolución", Number: "DCIN-84", Title: "¿Qué   hay?"},
			"Norma_Resolucion_DCIN84_Que_hay.pdf",
		},
		{
			norms.Norm{Type: "Ley", Number: "1", Title: ""},
			"Norma_Ley_1_Documento.pdf",
		},
		{
			norms.Norm{Type: "Ley", Number: "2", Title: strings.Repeat("a", 45) + " bcdefgh"},
			"Norma_Ley_2_" + strings.Repeat("a", 45) + "_bcde.pdf",
		},
	}
	for _, tt := range tests {
		if got := norms.PDFFileName(&tt.norm); got != tt.want {
			t.Errorf("PDFFileName(%q) = %q, want %q", tt.norm.Title, got, tt.want)
		}
	}
}

func TestShare(t *testing.T) {
	n := norms.Norm{ID: "3", Type: "Resolución", Number: "000018", Title: "Calendario (UVT) 2025"}
	page := norms.NormURL("https://normacomex.co/", &n)
	if page != "https://normacomex.co/#/norm/3" {
		t.Fatalf("NormURL = %q", page)
	}
	links := norms.Share(&n, page)

	const text = "Revisa%20esta%20norma%3A%20Resoluci%C3%B3n%20000018%20-%20Calendario%20(UVT)%202025"
	const u = "https%3A%2F%2Fnormacomex.co%2F%23%2Fnorm%2F3"
	want := norms.ShareLinks{
		URL:      page,
		WhatsApp: "https://api.whatsapp.com/send?text=" + text + "%20" + u,
		LinkedIn: "https://www.linkedin.com/sharing/share-offsite/?url=" + u,
		Twitter:  "https://twitter.com/intent/tweet?text=" + text + "&url=" + u,
		Email:    "mailto:?subject=Norma%3A%20Resoluci%C3%B3n%20000018&body=" + text + "%0A%0A" + u,
	}
	if links != want {
		t.Errorf("Share =\n%+v\nwant\n%+v", links, want)
	}
}

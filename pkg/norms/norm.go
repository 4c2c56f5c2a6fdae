// Package norms holds the regulatory catalog: the seed norms, search,
// notifications, dashboard statistics, PDF export and share links.
package norms

import (
	_ "embed"
	"fmt"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
)

// Category groups norms by regulatory area.
type Category string

const (
	CategoryAduanera         Category = "Aduanera"
	CategoryCambiaria        Category = "Cambiaria"
	CategoryTributaria       Category = "Tributaria"
	CategoryComercioExterior Category = "Comercio Exterior"

	// CategoryAll disables category filtering in a Query.
	CategoryAll Category = "All"
)

// Categories lists the regulatory areas in display order.
var Categories = []Category{
	CategoryAduanera,
	CategoryCambiaria,
	CategoryTributaria,
	CategoryComercioExterior,
}

// ParseCategory accepts a category name, "All" or "".
func ParseCategory(s string) (Category, error) {
	if s == "" || s == string(CategoryAll) {
		return CategoryAll, nil
	}
	c := Category(s)
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("norms: unknown category %q", s)
	}
	return c, nil
}

// Norm types published by the issuing authorities.
const (
	TypeDecreto    = "Decreto"
	TypeResolucion = "Resolución"
	TypeCircular   = "Circular"
	TypeLey        = "Ley"
	TypeConcepto   = "Concepto"
)

// DateLayout is the format of Norm.Date.
const DateLayout = "2006-01-02"

// Today is the publication date the catalog treats as the current day.
var Today = time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)

// Norm is one regulatory document.
type Norm struct {
	ID               string   `yaml:"id" json:"id" msgpack:"id"`
	Title            string   `yaml:"title" json:"title" msgpack:"title"`
	Type             string   `yaml:"type" json:"type" msgpack:"type"`
	Number           string   `yaml:"number" json:"number" msgpack:"number"`
	Date             string   `yaml:"date" json:"date" msgpack:"date"`
	Category         Category `yaml:"category" json:"category" msgpack:"category"`
	IssuingAuthority string   `yaml:"issuing_authority" json:"issuing_authority" msgpack:"issuing_authority"`
	IsNew            bool     `yaml:"is_new,omitempty" json:"is_new,omitempty" msgpack:"is_new,omitempty"`
	Summary          string   `yaml:"summary" json:"summary" msgpack:"summary"`
	FullText         string   `yaml:"full_text" json:"full_text,omitempty" msgpack:"full_text"`
}

// Label returns "{type} {number}".
func (n *Norm) Label() string {
	return n.Type + " " + n.Number
}

// Published parses Date. It returns the zero time when Date is malformed.
func (n *Norm) Published() time.Time {
	t, err := time.Parse(DateLayout, n.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PublishedToday reports whether the norm was issued on Today.
func (n *Norm) PublishedToday() bool {
	return n.Published().Equal(Today)
}

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog returns the seed norms in publication order.
func Catalog() ([]Norm, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes a YAML list of norms and validates IDs and
// categories.
func ParseCatalog(data []byte) ([]Norm, error) {
	var list []Norm
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("norms: parse catalog: %w", err)
	}
	seen := make(map[string]bool, len(list))
	for i, n := range list {
		if n.ID == "" {
			return nil, fmt.Errorf("norms: catalog entry %d has no id", i)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("norms: duplicate id %q", n.ID)
		}
		seen[n.ID] = true
		if !slices.Contains(Categories, n.Category) {
			return nil, fmt.Errorf("norms: %s: unknown category %q", n.ID, n.Category)
		}
	}
	return list, nil
}

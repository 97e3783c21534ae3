package extract

import (
	"errors"
	"fmt"
	"strings"

	"supplydesk/internal"
)

// Kind selects the extraction strategy of a supplier profile.
type Kind string

const (
	KindColumnMapped     Kind = "columnMapped"
	KindHeuristicBWA     Kind = "heuristicBWA"
	KindHeuristicGeneric Kind = "heuristicGeneric"
)

func (k Kind) Heuristic() bool {
	return k == KindHeuristicBWA || k == KindHeuristicGeneric
}

// Rules is the matching vocabulary attached to a profile. It is data so that
// new suppliers are handled by configuration rather than code.
type Rules struct {
	Prefixes    []string `yaml:"prefixes"`
	StopWords   []string `yaml:"stopWords"`
	Labels      []string `yaml:"labels"`
	SkipWords   []string `yaml:"skipWords"`
	Boilerplate []string `yaml:"boilerplate"`
}

type SupplierProfile struct {
	Name         string                   `yaml:"name"`
	Kind         Kind                     `yaml:"kind"`
	Senders      []string                 `yaml:"senders"`
	StartRow     int                      `yaml:"startRow"`
	HasHeaderRow bool                     `yaml:"hasHeaderRow"`
	Mappings     []internal.ColumnMapping `yaml:"mappings"`
	Rules        Rules                    `yaml:"rules"`
}

var (
	ErrInvalidProfile = errors.New("invalid supplier profile")

	DefaultBoilerplate = []string{"subtotal", "total", "gst", "tax", "shipping", "page", "phone", "email", "www."}

	DefaultSkipWords = []string{
		"ABN", "ACN", "PTY LTD", "PTY. LTD.", "PTY LTD.", "LTD", "WAREHOUSE", "SHOWROOM", "OFFICE",
		"PHONE", "TEL", "MOBILE", "EMAIL", "E-MAIL", "FAX", "ADDRESS", "WWW", "WEBSITE",
		"QUOTE", "QUOTATION", "INVOICE", "TOTAL", "SUBTOTAL", "GST",
		"CODE", "DESCRIPTION", "PRICE", "QTY", "QUANTITY", "IMAGE", "ITEM",
	}

	DefaultLabels = []string{"Code", "SKU", "Part No", "Part Number", "Item Code", "Product Code", "Model"}

	DefaultBWAStopWords = []string{
		"VANITY", "WHITE", "MATT", "MATTE", "BLACK", "GLOSS", "CHROME", "BRUSHED", "NICKEL", "GOLD",
		"BRASS", "GUNMETAL", "GREY", "GRAY", "OAK", "WALNUT", "TIMBER", "STONE", "CERAMIC", "MARBLE",
		"BASIN", "MIXER", "TAP", "TOILET", "SHOWER", "BATH", "BATHTUB", "CABINET", "SHAVING", "MIRROR",
		"DRAWER", "DRAWERS", "DOOR", "DOORS", "WALL", "HUNG", "FLOOR", "STANDING", "FREESTANDING",
		"TOP", "SINK", "KITCHEN", "LAUNDRY", "TUB", "SET", "KIT", "WITH", "AND", "MM",
	}
)

// Normalized fills defaults and rejects inconsistent profiles.
func (p SupplierProfile) Normalized() (SupplierProfile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Kind == "" {
		if len(p.Mappings) > 0 {
			p.Kind = KindColumnMapped
		} else {
			p.Kind = KindHeuristicGeneric
		}
	}
	switch p.Kind {
	case KindColumnMapped, KindHeuristicBWA, KindHeuristicGeneric:
	default:
		return p, fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidProfile, p.Name, p.Kind)
	}
	if p.StartRow == 0 {
		p.StartRow = 1
		if p.HasHeaderRow {
			p.StartRow = 2
		}
	}
	if p.StartRow < 1 {
		return p, fmt.Errorf("%w: %s: startRow must be >= 1", ErrInvalidProfile, p.Name)
	}
	if len(p.Rules.Boilerplate) == 0 {
		p.Rules.Boilerplate = DefaultBoilerplate
	}
	if len(p.Rules.SkipWords) == 0 {
		p.Rules.SkipWords = DefaultSkipWords
	}
	if len(p.Rules.Labels) == 0 {
		p.Rules.Labels = DefaultLabels
	}
	if p.Kind == KindHeuristicBWA {
		if len(p.Rules.Prefixes) == 0 {
			p.Rules.Prefixes = []string{"BWA"}
		}
		if len(p.Rules.StopWords) == 0 {
			p.Rules.StopWords = DefaultBWAStopWords
		}
	}
	if p.Kind == KindColumnMapped {
		if err := ValidateMappings(p.Mappings); err != nil {
			return p, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, p.Name, err)
		}
	}
	return p, nil
}

// ValidateMappings enforces: code and description exactly once, every other
// field at most once, skip any number of times, unique positive columns.
func ValidateMappings(mappings []internal.ColumnMapping) error {
	columns := map[int]struct{}{}
	fields := map[internal.Field]int{}
	for _, m := range mappings {
		if m.Column < 1 {
			return fmt.Errorf("column %d must be >= 1", m.Column)
		}
		if _, dup := columns[m.Column]; dup {
			return fmt.Errorf("column %d mapped twice", m.Column)
		}
		columns[m.Column] = struct{}{}
		if !m.Field.Valid() {
			return fmt.Errorf("column %d: unknown field %q", m.Column, m.Field)
		}
		fields[m.Field]++
	}
	for _, required := range []internal.Field{internal.FieldCode, internal.FieldDescription} {
		if fields[required] != 1 {
			return fmt.Errorf("field %s must be mapped exactly once, got %d", required, fields[required])
		}
	}
	for field, n := range fields {
		if field != internal.FieldSkip && n > 1 {
			return fmt.Errorf("field %s mapped %d times", field, n)
		}
	}
	return nil
}

// BuiltinProfiles are available even without a profiles file.
func BuiltinProfiles() []SupplierProfile {
	return []SupplierProfile{
		{Name: "generic", Kind: KindHeuristicGeneric},
		{Name: "bwa", Kind: KindHeuristicBWA},
	}
}

package extract

import (
	"fmt"
	"log/slog"

	"supplydesk/internal"
	"supplydesk/internal/tables"
)

// Result is what one supplier document yielded. Heuristic profiles only
// produce Codes; their Records carry the code and nothing else.
type Result struct {
	Profile string
	Kind    Kind
	Source  tables.Source
	Records []internal.ExtractedRecord
	Codes   []string
	Missed  int
}

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract runs the strategy selected by the profile over a walked document.
func (e *Extractor) Extract(doc *tables.Document, profile SupplierProfile) (Result, error) {
	profile, err := profile.Normalized()
	if err != nil {
		return Result{}, err
	}
	res := Result{Profile: profile.Name, Kind: profile.Kind, Source: doc.Source}
	switch profile.Kind {
	case KindColumnMapped:
		res.Records, res.Missed = NewMapper(profile).Map(doc)
		res.Codes = make([]string, 0, len(res.Records))
		for _, r := range res.Records {
			res.Codes = append(res.Codes, r.Code)
		}
	case KindHeuristicBWA, KindHeuristicGeneric:
		res = e.fromText(doc.Text, profile)
		res.Source = doc.Source
	default:
		return Result{}, fmt.Errorf("unsupported profile kind %q", profile.Kind)
	}
	e.logger.Debug("extracted document",
		"profile", res.Profile, "kind", res.Kind, "source", res.Source,
		"records", len(res.Records), "missed", res.Missed)
	return res, nil
}

// ExtractText applies a heuristic profile to free text such as a PDF body.
func (e *Extractor) ExtractText(text string, profile SupplierProfile) (Result, error) {
	profile, err := profile.Normalized()
	if err != nil {
		return Result{}, err
	}
	if !profile.Kind.Heuristic() {
		return Result{}, fmt.Errorf("profile %s needs tables, not text", profile.Name)
	}
	return e.fromText(text, profile), nil
}

func (e *Extractor) fromText(text string, profile SupplierProfile) Result {
	codes, missed := NewTextParser(profile.Rules).Parse(text)
	res := Result{Profile: profile.Name, Kind: profile.Kind, Codes: codes, Missed: missed}
	res.Records = make([]internal.ExtractedRecord, 0, len(codes))
	for _, c := range codes {
		res.Records = append(res.Records, internal.ExtractedRecord{Code: c})
	}
	return res
}

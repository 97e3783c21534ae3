package extract

import (
	"regexp"
	"strings"

	"supplydesk/internal/util"
)

const maxCodeTokens = 3

var (
	reGenericCode = regexp.MustCompile(`\b([A-Za-z]{1,5}-?\d{2,}[A-Za-z0-9]*(?:[-/][A-Za-z0-9]+)*)\b`)
	reDimension   = regexp.MustCompile(`^\d{3,4}$`)
	dedupStripper = strings.NewReplacer(" ", "", "\t", "", "-", "", "_", "", ".", "", "/", "", `\`, "")
)

// TextParser pulls product codes out of unstructured document text.
type TextParser struct {
	rules    Rules
	prefixed *regexp.Regexp
	labeled  *regexp.Regexp
	stop     map[string]struct{}
}

func NewTextParser(rules Rules) *TextParser {
	p := &TextParser{rules: rules, stop: map[string]struct{}{}}
	for _, w := range rules.StopWords {
		p.stop[strings.ToUpper(w)] = struct{}{}
	}
	if alt := alternation(rules.Prefixes); alt != "" {
		p.prefixed = regexp.MustCompile(`(?i)\b(?:` + alt + `)\b[\s\-:_]*([A-Za-z]\d{1,3})\b`)
	}
	if alt := alternation(rules.Labels); alt != "" {
		p.labeled = regexp.MustCompile(`(?i)\b(?:` + alt + `)\s*[:#]\s*(\S+)`)
	}
	return p
}

func alternation(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts = append(parts, strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s*`))
	}
	return strings.Join(parts, "|")
}

// Parse returns distinct codes in order of first discovery plus the number of
// candidate lines that produced none.
func (p *TextParser) Parse(text string) (codes []string, missed int) {
	seen := map[string]struct{}{}
	add := func(code string) bool {
		code = strings.Trim(code, " ,;()[]")
		key := DedupKey(code)
		if key == "" {
			return false
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
		codes = append(codes, code)
		return true
	}

	for _, line := range joinContinuations(util.SplitLines(text)) {
		if util.ContainsFold(line, p.rules.Boilerplate) {
			continue
		}
		found := false
		var lineKeys []string
		for _, code := range append(p.prefixedCodes(line), p.labeledCodes(line)...) {
			if add(code) {
				found = true
				lineKeys = append(lineKeys, DedupKey(code))
			}
		}
		for _, m := range reGenericCode.FindAllString(line, -1) {
			if len(m) < 4 || covered(DedupKey(m), lineKeys) {
				continue
			}
			found = add(m) || found
		}
		if !found {
			missed++
		}
	}
	return codes, missed
}

// covered reports whether key is part of a code another strategy already
// found on the same line, such as "CWH66-1500DWM" inside "A8 CWH66-1500DWM".
func covered(key string, lineKeys []string) bool {
	for _, k := range lineKeys {
		if strings.Contains(k, key) {
			return true
		}
	}
	return false
}

// prefixedCodes handles "<PREFIX> <Category> <code tokens...>" and emits
// "<Category> <code tokens>".
func (p *TextParser) prefixedCodes(line string) []string {
	if p.prefixed == nil {
		return nil
	}
	matches := p.prefixed.FindAllStringSubmatchIndex(line, -1)
	var out []string
	for i, m := range matches {
		end := len(line)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		category := line[m[2]:m[3]]
		var tokens []string
		for _, tok := range strings.Fields(line[m[1]:end]) {
			tok = strings.Trim(tok, ",;()")
			if tok == "" {
				continue
			}
			if p.stopToken(tok) {
				break
			}
			tokens = append(tokens, tok)
			if len(tokens) == maxCodeTokens {
				break
			}
		}
		if len(tokens) > 0 {
			out = append(out, strings.ToUpper(category)+" "+strings.Join(tokens, " "))
		}
	}
	return out
}

func (p *TextParser) stopToken(tok string) bool {
	if _, ok := p.stop[strings.ToUpper(tok)]; ok {
		return true
	}
	return reDimension.MatchString(tok) || strings.HasPrefix(tok, "$")
}

func (p *TextParser) labeledCodes(line string) []string {
	if p.labeled == nil {
		return nil
	}
	var out []string
	for _, m := range p.labeled.FindAllStringSubmatch(line, -1) {
		out = append(out, m[1])
	}
	return out
}

// joinContinuations glues lines ending with '-' or '.' to the next line.
func joinContinuations(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for (strings.HasSuffix(line, "-") || strings.HasSuffix(line, ".")) && i+1 < len(lines) {
			i++
			line += lines[i]
		}
		out = append(out, line)
	}
	return out
}

// DedupKey is the identity used to collapse spelling variants of one code.
func DedupKey(code string) string {
	return dedupStripper.Replace(strings.ToLower(code))
}

package canonical

import (
	"strings"
)

// SkillExtractor derives a normalized skill set from a record's explicit
// skill list plus controlled-vocabulary matches in free text.
type SkillExtractor struct {
	synonyms map[string]string
	// vocab holds canonical labels keyed by their normalized form, in
	// declared order for deterministic matching.
	vocabOrder []string
	vocabNorm  map[string]string
}

func NewSkillExtractor(vocabulary []string, synonyms map[string]string) *SkillExtractor {
	e := &SkillExtractor{
		synonyms:  map[string]string{},
		vocabNorm: map[string]string{},
	}
	for k, v := range synonyms {
		e.synonyms[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, label := range vocabulary {
		norm := normalizeText(label)
		if norm == "" {
			continue
		}
		if _, ok := e.vocabNorm[norm]; !ok {
			e.vocabOrder = append(e.vocabOrder, norm)
			e.vocabNorm[norm] = label
		}
	}
	return e
}

// Extract returns the skill labels for one record, first-appearance order,
// no duplicates. A record with zero extractable skills is legitimate.
func (e *SkillExtractor) Extract(skillsRaw, description string) []string {
	var out []string
	seen := map[string]bool{}

	add := func(label string) {
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		out = append(out, label)
	}

	// Explicit skill list first: split on commas and semicolons, map
	// variants through the synonym table.
	for _, tok := range strings.FieldsFunc(skillsRaw, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		add(e.canonicalLabel(tok))
	}

	// Then vocabulary terms found in the description, matched on word
	// boundaries over the normalized text.
	if description != "" && len(e.vocabOrder) > 0 {
		padded := " " + normalizeText(description) + " "
		for _, norm := range e.vocabOrder {
			if strings.Contains(padded, " "+norm+" ") {
				add(e.vocabNorm[norm])
			}
		}
	}

	return out
}

// canonicalLabel maps one explicit token to its canonical display label:
// synonym table first, then the vocabulary, then the token as given.
func (e *SkillExtractor) canonicalLabel(token string) string {
	if label, ok := e.synonyms[strings.ToLower(token)]; ok {
		return label
	}
	if label, ok := e.vocabNorm[normalizeText(token)]; ok {
		return label
	}
	return token
}

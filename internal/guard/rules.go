package guard

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jobscope/jobscope/internal/dataset"
)

// Rule type names accepted in configuration.
const (
	RuleSchemaCheck = "schema_check"
	RuleNullCheck   = "null_check"
	RuleVolumeCheck = "volume_check"
)

// Spec is one rule entry as it appears in the configuration file.
type Spec struct {
	Type    string         `mapstructure:"type"`
	Options map[string]any `mapstructure:"options"`
}

// Build turns configured rule specs into executable rules. Unknown rule
// types and undecodable options are configuration errors.
func Build(specs []Spec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		rule, err := buildOne(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func buildOne(spec Spec) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case RuleSchemaCheck:
		rule := &SchemaCheck{}
		if err := decodeOptions(spec, rule); err != nil {
			return nil, err
		}
		return rule, nil
	case RuleNullCheck:
		rule := &NullCheck{}
		if err := decodeOptions(spec, rule); err != nil {
			return nil, err
		}
		return rule, nil
	case RuleVolumeCheck:
		rule := &VolumeCheck{MinRows: 1}
		if err := decodeOptions(spec, rule); err != nil {
			return nil, err
		}
		return rule, nil
	default:
		return nil, fmt.Errorf("unknown quality rule type: %q", spec.Type)
	}
}

func decodeOptions(spec Spec, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(spec.Options); err != nil {
		return fmt.Errorf("decoding %s options: %w", spec.Type, err)
	}
	return nil
}

// SchemaCheck fails the boundary when a required column is absent.
type SchemaCheck struct {
	RequiredFields []string `mapstructure:"required_fields"`
}

func (r *SchemaCheck) Name() string { return RuleSchemaCheck }

func (r *SchemaCheck) Check(ds *dataset.Dataset) []Finding {
	var findings []Finding
	for _, field := range r.RequiredFields {
		if !ds.HasColumn(field) {
			findings = append(findings, Finding{
				Rule:     r.Name(),
				Severity: SeverityFatal,
				Detail:   fmt.Sprintf("required field %q is absent from %s", field, ds.Name),
			})
		}
	}
	return findings
}

// NullCheck enforces a null-ratio ceiling on critical fields and flags
// nulls in warn fields without halting.
type NullCheck struct {
	CriticalFields []string `mapstructure:"critical_fields"`
	WarnFields     []string `mapstructure:"warn_fields"`
	// MaxNullRatio is the highest tolerated null fraction for critical
	// fields. Zero means any null is fatal.
	MaxNullRatio float64 `mapstructure:"max_null_ratio"`
}

func (r *NullCheck) Name() string { return RuleNullCheck }

func (r *NullCheck) Check(ds *dataset.Dataset) []Finding {
	var findings []Finding
	for _, field := range r.CriticalFields {
		ratio := ds.NullRatio(field)
		if ratio > r.MaxNullRatio {
			findings = append(findings, Finding{
				Rule:     r.Name(),
				Severity: SeverityFatal,
				Detail: fmt.Sprintf("critical field %q null ratio %.4f exceeds threshold %.4f in %s",
					field, ratio, r.MaxNullRatio, ds.Name),
			})
		}
	}
	for _, field := range r.WarnFields {
		if ratio := ds.NullRatio(field); ratio > 0 {
			findings = append(findings, Finding{
				Rule:     r.Name(),
				Severity: SeverityWarn,
				Detail:   fmt.Sprintf("field %q has null ratio %.4f in %s", field, ratio, ds.Name),
			})
		}
	}
	return findings
}

// VolumeCheck warns when a boundary carries fewer rows than expected. It is
// never fatal: zero valid rows after strict filtering is a legitimate
// outcome that must stay visible, not abort the run.
type VolumeCheck struct {
	MinRows int `mapstructure:"min_rows"`
}

func (r *VolumeCheck) Name() string { return RuleVolumeCheck }

func (r *VolumeCheck) Check(ds *dataset.Dataset) []Finding {
	if len(ds.Rows) >= r.MinRows {
		return nil
	}
	return []Finding{{
		Rule:     r.Name(),
		Severity: SeverityWarn,
		Detail:   fmt.Sprintf("%s has %d rows, expected at least %d", ds.Name, len(ds.Rows), r.MinRows),
	}}
}

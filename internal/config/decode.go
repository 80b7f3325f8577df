package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlConfig mirrors the workflow configuration file. Sections whose key
// order matters, or whose values mix shapes, are kept as raw nodes.
type yamlConfig struct {
	Inputs       yaml.Node           `yaml:"inputs"`
	Builds       yaml.Node           `yaml:"builds"`
	Filter       yaml.Node           `yaml:"filter"`
	Exposure     map[string]Exposure `yaml:"exposure"`
	Traits       map[string]Traits   `yaml:"traits"`
	Frequencies  yamlFrequencies     `yaml:"frequencies"`
	S3DstOrigins []string            `yaml:"S3_DST_ORIGINS"`
}

type yamlFrequencies struct {
	MaxDate            *float64 `yaml:"max_date"`
	RecentDaysToCensor *int     `yaml:"recent_days_to_censor"`
}

type yamlBuild struct {
	SubsamplingScheme string `yaml:"subsampling_scheme"`
	Region            string `yaml:"region"`
}

// ParseWorkflow decodes a workflow configuration document.
func ParseWorkflow(data []byte) (Workflow, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Workflow{}, fmt.Errorf("parse YAML: %w", err)
	}
	return decodeWorkflow(&raw)
}

func decodeWorkflow(raw *yamlConfig) (Workflow, error) {
	inputs, err := decodeInputs(&raw.Inputs)
	if err != nil {
		return Workflow{}, fmt.Errorf("inputs: %w", err)
	}

	builds, err := decodeBuilds(&raw.Builds)
	if err != nil {
		return Workflow{}, fmt.Errorf("builds: %w", err)
	}

	filter, err := decodeFilter(&raw.Filter)
	if err != nil {
		return Workflow{}, fmt.Errorf("filter: %w", err)
	}

	wf := Workflow{
		Inputs:       inputs,
		Builds:       builds,
		Filter:       filter,
		Exposure:     buildSection(raw.Exposure, mergeExposure),
		Traits:       buildSection(raw.Traits, mergeTraits),
		S3DstOrigins: raw.S3DstOrigins,
	}
	wf.Frequencies.MaxDate = raw.Frequencies.MaxDate
	if raw.Frequencies.RecentDaysToCensor != nil {
		wf.Frequencies.RecentDaysToCensor = *raw.Frequencies.RecentDaysToCensor
	}

	return wf, nil
}

// decodeInputs accepts either a mapping of origin name to stage locations or
// a sequence of entries carrying a "name" key.
func decodeInputs(node *yaml.Node) ([]Input, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		inputs := make([]Input, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			in, err := decodeInput(name, node.Content[i+1])
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		return inputs, nil
	case yaml.SequenceNode:
		inputs := make([]Input, 0, len(node.Content))
		for idx, item := range node.Content {
			name := ""
			if item.Kind == yaml.MappingNode {
				for i := 0; i+1 < len(item.Content); i += 2 {
					if item.Content[i].Value == "name" {
						name, _ = scalarValue(item.Content[i+1])
					}
				}
			}
			if name == "" {
				return nil, fmt.Errorf("entry %d has no name", idx)
			}
			in, err := decodeInput(name, item)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
		return inputs, nil
	default:
		return nil, fmt.Errorf("expected a mapping or a list, got %s", kindName(node.Kind))
	}
}

func decodeInput(name string, node *yaml.Node) (Input, error) {
	in := Input{Name: name, Locations: map[string]Location{}}
	if isNull(node) {
		return in, nil
	}
	if node.Kind != yaml.MappingNode {
		return Input{}, fmt.Errorf("%s: expected a mapping, got %s", name, kindName(node.Kind))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key == "name" {
			continue
		}
		// Non-scalar keys are options for other rules, not stage locations.
		if value, ok := scalarValue(node.Content[i+1]); ok {
			in.Locations[key] = ParseLocation(value)
		}
	}
	return in, nil
}

func decodeBuilds(node *yaml.Node) ([]Build, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping, got %s", kindName(node.Kind))
	}
	builds := make([]Build, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := node.Content[i+1]
		var raw yamlBuild
		if !isNull(value) {
			if err := value.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		builds = append(builds, Build{
			Name:              name,
			SubsamplingScheme: raw.SubsamplingScheme,
			Region:            raw.Region,
			HasRegion:         hasKey(value, "region"),
		})
	}
	return builds, nil
}

// decodeFilter splits scalar defaults from per-origin mappings and folds the
// defaults into every origin.
func decodeFilter(node *yaml.Node) (Filter, error) {
	filter := Filter{
		Defaults: map[string]string{},
		Origins:  map[string]map[string]string{},
	}
	if node.Kind == 0 || isNull(node) {
		return filter, nil
	}
	if node.Kind != yaml.MappingNode {
		return Filter{}, fmt.Errorf("expected a mapping, got %s", kindName(node.Kind))
	}

	overrides := map[string]map[string]string{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		value := node.Content[i+1]
		if value.Kind == yaml.MappingNode {
			values := map[string]string{}
			for j := 0; j+1 < len(value.Content); j += 2 {
				v, err := flattenValue(value.Content[j+1])
				if err != nil {
					return Filter{}, fmt.Errorf("%s.%s: %w", key, value.Content[j].Value, err)
				}
				values[value.Content[j].Value] = v
			}
			overrides[key] = values
			continue
		}
		v, err := flattenValue(value)
		if err != nil {
			return Filter{}, fmt.Errorf("%s: %w", key, err)
		}
		filter.Defaults[key] = v
	}

	for origin, values := range overrides {
		merged := make(map[string]string, len(filter.Defaults)+len(values))
		for k, v := range filter.Defaults {
			merged[k] = v
		}
		for k, v := range values {
			merged[k] = v
		}
		filter.Origins[origin] = merged
	}
	return filter, nil
}

func buildSection[T any](entries map[string]T, merge func(base, override T) T) Section[T] {
	section := Section[T]{Builds: map[string]T{}}
	if def, ok := entries[DefaultSection]; ok {
		section.Default = def
	}
	for name, entry := range entries {
		if name == DefaultSection {
			continue
		}
		section.Builds[name] = merge(section.Default, entry)
	}
	return section
}

// flattenValue renders a scalar as written, and a list of scalars joined by
// spaces, which is how the values end up on a command line.
func flattenValue(node *yaml.Node) (string, error) {
	if v, ok := scalarValue(node); ok {
		return v, nil
	}
	if node.Kind == yaml.SequenceNode {
		parts := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			v, ok := scalarValue(item)
			if !ok {
				return "", fmt.Errorf("list items must be scalars")
			}
			parts = append(parts, v)
		}
		return strings.Join(parts, " "), nil
	}
	return "", fmt.Errorf("unsupported value of kind %s", kindName(node.Kind))
}

func scalarValue(node *yaml.Node) (string, bool) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return "", false
	}
	if isNull(node) {
		return "", true
	}
	return node.Value, true
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "nothing"
	}
}

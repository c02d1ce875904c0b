package lusha

import (
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SizeRange bounds a company headcount filter (inclusive).
type SizeRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Preset is a named ideal customer profile used as search filters.
type Preset struct {
	Name         string      `yaml:"-"`
	Countries    []string    `yaml:"countries"`
	CompanySizes []SizeRange `yaml:"company_sizes"`
	IndustryIDs  []int       `yaml:"industry_ids"`
	JobTitles    []string    `yaml:"job_titles"`
}

// Validate checks that the preset can produce a meaningful search.
func (p Preset) Validate() error {
	if len(p.Countries) == 0 {
		return eris.Errorf("lusha: preset %q has no countries", p.Name)
	}
	if len(p.JobTitles) == 0 {
		return eris.Errorf("lusha: preset %q has no job titles", p.Name)
	}
	for _, s := range p.CompanySizes {
		if s.Min < 0 || (s.Max > 0 && s.Max < s.Min) {
			return eris.Errorf("lusha: preset %q has invalid size range %d-%d", p.Name, s.Min, s.Max)
		}
	}
	return nil
}

var cSuite = []string{
	"CEO", "Chief Executive Officer",
	"CFO", "Chief Financial Officer",
	"COO", "Chief Operating Officer",
	"CTO", "Chief Technology Officer",
	"CMO", "Chief Marketing Officer",
}

// DefaultPresets returns the built-in profiles.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		"nl_midsized_csuite": {
			Name:         "nl_midsized_csuite",
			Countries:    []string{"Netherlands"},
			CompanySizes: []SizeRange{{Min: 51, Max: 1000}},
			JobTitles:    slices.Clone(cSuite),
		},
		"nl_large_csuite": {
			Name:         "nl_large_csuite",
			Countries:    []string{"Netherlands"},
			CompanySizes: []SizeRange{{Min: 1001, Max: 10000}},
			JobTitles:    []string{"CEO", "CFO", "COO", "CTO", "CMO", "Director", "Managing Director"},
		},
	}
}

// LoadPresets reads presets from a yaml file keyed by preset name and merges
// them over the defaults. An empty path returns the defaults.
func LoadPresets(path string) (map[string]Preset, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lusha: read presets %s", path)
	}

	var file map[string]Preset
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "lusha: parse presets %s", path)
	}
	for name, p := range file {
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		presets[name] = p
	}
	return presets, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

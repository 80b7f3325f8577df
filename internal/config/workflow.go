package config

// DefaultSection is the key used by the exposure and traits sections for
// builds that have no entry of their own.
const DefaultSection = "default"

// Workflow is the typed form of the pipeline configuration. Fallbacks to
// "default" entries are already applied, so lookups never chain.
type Workflow struct {
	Inputs       []Input
	Builds       []Build
	Filter       Filter
	Exposure     Section[Exposure]
	Traits       Section[Traits]
	Frequencies  Frequencies
	S3DstOrigins []string
}

// Input is one configured data source. Locations is keyed by stage name.
type Input struct {
	Name      string
	Locations map[string]Location
}

// Location returns the configured location for stage, if any.
func (i Input) Location(stage string) Location {
	return i.Locations[stage]
}

// Build is one named analysis. HasRegion records that a region key was
// written, even with an empty value.
type Build struct {
	Name              string
	SubsamplingScheme string
	Region            string
	HasRegion         bool
}

// Exposure names the traits used for sampling and exposure inference.
type Exposure struct {
	Trait    string `yaml:"trait"`
	Exposure string `yaml:"exposure"`
}

// Traits configures discrete trait reconstruction.
type Traits struct {
	Columns                []string `yaml:"columns"`
	SamplingBiasCorrection *float64 `yaml:"sampling_bias_correction"`
}

// Frequencies configures frequency estimation.
type Frequencies struct {
	MaxDate            *float64
	RecentDaysToCensor int
}

// Section holds a default entry plus per-build entries merged over it.
type Section[T any] struct {
	Default T
	Builds  map[string]T
}

// For returns the entry for build, or the default entry.
func (s Section[T]) For(build string) T {
	if v, ok := s.Builds[build]; ok {
		return v
	}
	return s.Default
}

// Filter holds filter settings. Origins already include the defaults.
type Filter struct {
	Defaults map[string]string
	Origins  map[string]map[string]string
}

// Value returns filter[origin][key], falling back to filter[key], then "".
func (f Filter) Value(origin, key string) string {
	if origin != "" {
		if values, ok := f.Origins[origin]; ok {
			return values[key]
		}
	}
	return f.Defaults[key]
}

// Origins returns input names in declaration order.
func (w Workflow) Origins() []string {
	names := make([]string, 0, len(w.Inputs))
	for _, in := range w.Inputs {
		names = append(names, in.Name)
	}
	return names
}

// Input looks up an input by name.
func (w Workflow) Input(name string) (Input, bool) {
	for _, in := range w.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Build looks up a build by name.
func (w Workflow) Build(name string) (Build, bool) {
	for _, b := range w.Builds {
		if b.Name == name {
			return b, true
		}
	}
	return Build{}, false
}

func mergeExposure(base, override Exposure) Exposure {
	if override.Trait != "" {
		base.Trait = override.Trait
	}
	if override.Exposure != "" {
		base.Exposure = override.Exposure
	}
	return base
}

func mergeTraits(base, override Traits) Traits {
	if override.Columns != nil {
		base.Columns = override.Columns
	}
	if override.SamplingBiasCorrection != nil {
		base.SamplingBiasCorrection = override.SamplingBiasCorrection
	}
	return base
}

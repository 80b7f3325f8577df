package resolver

import (
	"fmt"
	"time"

	"github.com/eugenenazirov/ncov-resolver/internal/config"
)

const (
	combinedMetadataPath  = "results/combined_metadata.tsv.xz"
	combinedAlignmentPath = "results/combined_sequences_for_subsampling.fasta.xz"
	globalBuild           = "global"
)

// Resolver answers path and setting queries against one workflow configuration.
type Resolver struct {
	cfg   config.Workflow
	clock func() time.Time
}

// Option configures Resolver behaviour.
type Option func(*Resolver)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		r.clock = clock
	}
}

// New constructs a Resolver for cfg.
func New(cfg config.Workflow, opts ...Option) *Resolver {
	r := &Resolver{
		cfg:   cfg,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubsamplingSchemeForBuild returns the build's subsampling scheme, or the
// build name when none is set.
func (r *Resolver) SubsamplingSchemeForBuild(build string) string {
	if b, ok := r.cfg.Build(build); ok && b.SubsamplingScheme != "" {
		return b.SubsamplingScheme
	}
	return build
}

// FilterValue returns filter[origin][key], falling back to filter[key] and
// then to the empty string.
func (r *Resolver) FilterValue(origin, key string) string {
	return r.cfg.Filter.Value(origin, key)
}

// PathForInput returns the local path at which the artifact for stage and
// origin lives. Remote inputs map to the paths their download rules produce;
// local inputs map to the configured file or to the path of the rule that
// computes it.
func (r *Resolver) PathForInput(stage Stage, origin string) (string, error) {
	var loc config.Location
	if in, ok := r.cfg.Input(origin); ok {
		loc = in.Location(string(stage))
	}

	if loc.IsRemote() && loc.Scheme != "s3" {
		return "", fmt.Errorf("%w: %q for %s of origin %q", ErrUnsupportedScheme, loc.Scheme, stage, origin)
	}

	if loc.IsZero() && (stage == StageMetadata || stage == StageSequences) {
		return "", fmt.Errorf("%w: inputs.%s.%s", ErrMissingInput, origin, stage)
	}

	remote := loc.IsRemote()
	switch stage {
	case StageMetadata:
		if remote {
			return fmt.Sprintf("data/downloaded_%s.tsv", origin), nil
		}
		return loc.Raw, nil
	case StageSequences:
		if remote {
			return fmt.Sprintf("data/downloaded_%s.fasta.gz", origin), nil
		}
		return loc.Raw, nil
	case StageAligned:
		if remote {
			return fmt.Sprintf("results/precomputed-aligned_%s.fasta", origin), nil
		}
		return fmt.Sprintf("results/aligned_%s.fasta.xz", origin), nil
	case StageToExclude:
		if remote {
			return fmt.Sprintf("results/precomputed-to-exclude_%s.txt", origin), nil
		}
		return fmt.Sprintf("results/to-exclude_%s.txt", origin), nil
	case StageMasked:
		if remote {
			return fmt.Sprintf("results/precomputed-masked_%s.fasta", origin), nil
		}
		return fmt.Sprintf("results/masked_%s.fasta.xz", origin), nil
	case StageFiltered:
		if remote {
			return fmt.Sprintf("results/precomputed-filtered_%s.fasta", origin), nil
		}
		if !loc.IsZero() {
			return loc.Raw, nil
		}
		return fmt.Sprintf("results/filtered_%s.fasta.xz", origin), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStage, stage)
}

// UnifiedMetadata returns the metadata covering all origins: the sanitized
// metadata of the only origin, or the combined metadata of several.
func (r *Resolver) UnifiedMetadata() string {
	if origins := r.cfg.Origins(); len(origins) == 1 {
		return fmt.Sprintf("results/sanitized_metadata_%s.tsv.xz", origins[0])
	}
	return combinedMetadataPath
}

// UnifiedAlignment returns the alignment subsampling reads from, as a list of
// paths.
func (r *Resolver) UnifiedAlignment() ([]string, error) {
	if origins := r.cfg.Origins(); len(origins) == 1 {
		path, err := r.PathForInput(StageFiltered, origins[0])
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
	return []string{combinedAlignmentPath}, nil
}

// MetadataForBuild returns the metadata a build should read. Builds that
// declare a region key, even an empty one, read metadata whose regions were
// adjusted for that build. The global build never does.
func (r *Resolver) MetadataForBuild(build string) string {
	if b, ok := r.cfg.Build(build); ok && build != globalBuild && b.HasRegion {
		return AdjustedMetadataPath(build)
	}
	return r.UnifiedMetadata()
}

// AdjustedMetadataPath is the output of the rule that adjusts metadata regions
// for build.
func AdjustedMetadataPath(build string) string {
	return fmt.Sprintf("results/%s/metadata_adjusted.tsv.xz", build)
}

// SamplingTraitForBuild returns the trait used for sampling in build.
func (r *Resolver) SamplingTraitForBuild(build string) (string, error) {
	if trait := r.cfg.Exposure.For(build).Trait; trait != "" {
		return trait, nil
	}
	return "", fmt.Errorf("%w: exposure.%s.trait", ErrTraitNotConfigured, build)
}

// ExposureTraitForBuild returns the trait used for exposure in build.
func (r *Resolver) ExposureTraitForBuild(build string) (string, error) {
	if exposure := r.cfg.Exposure.For(build).Exposure; exposure != "" {
		return exposure, nil
	}
	return "", fmt.Errorf("%w: exposure.%s.exposure", ErrTraitNotConfigured, build)
}

// TraitColumnsForBuild returns the metadata columns reconstructed as traits
// for build.
func (r *Resolver) TraitColumnsForBuild(build string) ([]string, error) {
	columns := r.cfg.Traits.For(build).Columns
	if columns == nil {
		return nil, fmt.Errorf("%w: traits.%s.columns", ErrTraitNotConfigured, build)
	}
	out := make([]string, len(columns))
	copy(out, columns)
	return out, nil
}

// SamplingBiasCorrectionForBuild returns the sampling bias correction applied
// during trait reconstruction for build.
func (r *Resolver) SamplingBiasCorrectionForBuild(build string) (float64, error) {
	if value := r.cfg.Traits.For(build).SamplingBiasCorrection; value != nil {
		return *value, nil
	}
	return 0, fmt.Errorf("%w: traits.%s.sampling_bias_correction", ErrTraitNotConfigured, build)
}

// MaxDateForFrequencies returns the configured max date, or today minus the
// censored recent days as a numeric date.
func (r *Resolver) MaxDateForFrequencies() float64 {
	if maxDate := r.cfg.Frequencies.MaxDate; maxDate != nil {
		return *maxDate
	}
	day := r.today().AddDate(0, 0, -r.cfg.Frequencies.RecentDaysToCensor)
	return NumericDate(day)
}

// FilterValueForWildcards reads the origin wildcard, which may be absent.
func (r *Resolver) FilterValueForWildcards(w Wildcards, key string) string {
	return r.FilterValue(w[WildcardOrigin], key)
}

// PathForInputWildcards resolves stage for the origin wildcard.
func (r *Resolver) PathForInputWildcards(stage Stage, w Wildcards) (string, error) {
	origin, ok := w[WildcardOrigin]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingWildcard, WildcardOrigin)
	}
	return r.PathForInput(stage, origin)
}

// MetadataForWildcards resolves metadata for the build_name wildcard.
func (r *Resolver) MetadataForWildcards(w Wildcards) (string, error) {
	build, ok := w[WildcardBuildName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingWildcard, WildcardBuildName)
	}
	return r.MetadataForBuild(build), nil
}

func (r *Resolver) today() time.Time {
	now := r.clock()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

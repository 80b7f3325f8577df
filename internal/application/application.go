package application

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/ncov-resolver/internal/config"
	"github.com/eugenenazirov/ncov-resolver/internal/metadata"
	"github.com/eugenenazirov/ncov-resolver/internal/resolver"
)

// App encapsulates the resolver and the writer results are rendered to.
type App struct {
	resolver *resolver.Resolver
	logger   *zap.Logger
	out      io.Writer
	format   string
}

// BuildTraits groups the trait settings of a build. Settings that are not
// configured are left empty and omitted from output.
type BuildTraits struct {
	SamplingTrait          string   `json:"sampling_trait,omitempty" yaml:"sampling_trait,omitempty"`
	ExposureTrait          string   `json:"exposure_trait,omitempty" yaml:"exposure_trait,omitempty"`
	Columns                []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	SamplingBiasCorrection *float64 `json:"sampling_bias_correction,omitempty" yaml:"sampling_bias_correction,omitempty"`
}

// New initializes the application from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, out io.Writer, opts ...resolver.Option) *App {
	logger.Debug("configuration loaded",
		zap.Strings("origins", cfg.Workflow.Origins()),
		zap.Int("builds", len(cfg.Workflow.Builds)),
		zap.String("format", cfg.OutputFormat),
	)

	return &App{
		resolver: resolver.New(cfg.Workflow, opts...),
		logger:   logger,
		out:      out,
		format:   cfg.OutputFormat,
	}
}

// NumericDate renders date, or today when date is empty, as a fractional
// year. An unparsable date renders as null in structured formats and as an
// empty line in text.
func (a *App) NumericDate(date string) error {
	value, ok := a.resolver.ParseNumericDate(date)
	if !ok {
		a.logger.Warn("could not convert date", zap.String("date", date))
		return a.render(nil)
	}
	return a.render(value)
}

// SubsamplingScheme renders the subsampling scheme of build.
func (a *App) SubsamplingScheme(build string) error {
	return a.render(a.resolver.SubsamplingSchemeForBuild(build))
}

// FilterValue renders a filter setting for the origin wildcard.
func (a *App) FilterValue(w resolver.Wildcards, key string) error {
	return a.render(a.resolver.FilterValueForWildcards(w, key))
}

// Path renders the local path for stage and the origin wildcard.
func (a *App) Path(stage resolver.Stage, w resolver.Wildcards) error {
	path, err := a.resolver.PathForInputWildcards(stage, w)
	if err != nil {
		return err
	}
	a.logger.Debug("resolved input path",
		zap.String("stage", string(stage)),
		zap.String("origin", w[resolver.WildcardOrigin]),
		zap.String("path", path),
	)
	return a.render(path)
}

// UnifiedMetadata renders the metadata covering every origin.
func (a *App) UnifiedMetadata() error {
	return a.render(a.resolver.UnifiedMetadata())
}

// UnifiedAlignment renders the alignment subsampling reads from.
func (a *App) UnifiedAlignment() error {
	paths, err := a.resolver.UnifiedAlignment()
	if err != nil {
		return err
	}
	return a.render(paths)
}

// Metadata renders the metadata read by the build_name wildcard.
func (a *App) Metadata(w resolver.Wildcards) error {
	path, err := a.resolver.MetadataForWildcards(w)
	if err != nil {
		return err
	}
	return a.render(path)
}

// SamplingTrait renders the trait used for sampling in build.
func (a *App) SamplingTrait(build string) error {
	trait, err := a.resolver.SamplingTraitForBuild(build)
	if err != nil {
		return err
	}
	return a.render(trait)
}

// ExposureTrait renders the trait used for exposure in build.
func (a *App) ExposureTrait(build string) error {
	trait, err := a.resolver.ExposureTraitForBuild(build)
	if err != nil {
		return err
	}
	return a.render(trait)
}

// TraitColumns renders the columns reconstructed as traits in build.
func (a *App) TraitColumns(build string) error {
	columns, err := a.resolver.TraitColumnsForBuild(build)
	if err != nil {
		return err
	}
	return a.render(columns)
}

// SamplingBiasCorrection renders the sampling bias correction of build.
func (a *App) SamplingBiasCorrection(build string) error {
	value, err := a.resolver.SamplingBiasCorrectionForBuild(build)
	if err != nil {
		return err
	}
	return a.render(value)
}

// Traits renders every configured trait setting of build. It fails only when
// none of them is configured.
func (a *App) Traits(build string) error {
	traits, err := a.buildTraits(build)
	if err != nil {
		return err
	}
	if a.format != "text" {
		return a.render(traits)
	}

	lines := map[string]string{}
	if traits.SamplingTrait != "" {
		lines["sampling_trait"] = traits.SamplingTrait
	}
	if traits.ExposureTrait != "" {
		lines["exposure_trait"] = traits.ExposureTrait
	}
	if traits.Columns != nil {
		lines["columns"] = strings.Join(traits.Columns, " ")
	}
	if traits.SamplingBiasCorrection != nil {
		lines["sampling_bias_correction"] = formatFloat(*traits.SamplingBiasCorrection)
	}
	return a.render(lines)
}

// MaxDate renders the max date for frequency estimation.
func (a *App) MaxDate() error {
	return a.render(a.resolver.MaxDateForFrequencies())
}

// UploadMapping renders remote object names and the local files behind them.
func (a *App) UploadMapping() error {
	uploads, err := a.resolver.UploadMapping()
	if err != nil {
		return err
	}
	return a.render(uploads)
}

// CombineMetadata merges per-origin metadata files into output.
func (a *App) CombineMetadata(paths, origins []string, output string) error {
	if err := metadata.CombineFiles(paths, origins, output, a.logger); err != nil {
		return fmt.Errorf("combine metadata: %w", err)
	}
	a.logger.Info("wrote combined metadata", zap.String("output", output))
	return nil
}

func (a *App) buildTraits(build string) (BuildTraits, error) {
	var (
		traits     BuildTraits
		configured int
	)
	keep := func(err error) bool {
		if err == nil {
			configured++
			return true
		}
		a.logger.Debug("trait setting skipped", zap.String("build", build), zap.Error(err))
		return false
	}

	if trait, err := a.resolver.SamplingTraitForBuild(build); keep(err) {
		traits.SamplingTrait = trait
	}
	if trait, err := a.resolver.ExposureTraitForBuild(build); keep(err) {
		traits.ExposureTrait = trait
	}
	if columns, err := a.resolver.TraitColumnsForBuild(build); keep(err) {
		traits.Columns = columns
	}
	if value, err := a.resolver.SamplingBiasCorrectionForBuild(build); keep(err) {
		traits.SamplingBiasCorrection = &value
	}

	if configured == 0 {
		return BuildTraits{}, fmt.Errorf("%w: no trait settings for build %q", resolver.ErrTraitNotConfigured, build)
	}
	return traits, nil
}

func (a *App) render(value any) error {
	switch a.format {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		if err := enc.Encode(value); err != nil {
			return err
		}
		return enc.Close()
	default:
		return a.renderText(value)
	}
}

func (a *App) renderText(value any) error {
	var lines []string
	switch v := value.(type) {
	case nil:
		lines = []string{""}
	case string:
		lines = []string{v}
	case float64:
		lines = []string{formatFloat(v)}
	case []string:
		lines = v
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, k+"\t"+v[k])
		}
	default:
		return fmt.Errorf("cannot render %T as text", value)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(a.out, line); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

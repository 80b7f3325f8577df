package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/ncov-resolver/internal/application"
	"github.com/eugenenazirov/ncov-resolver/internal/config"
	"github.com/eugenenazirov/ncov-resolver/internal/logging"
	"github.com/eugenenazirov/ncov-resolver/internal/resolver"
)

const appName = "ncov-resolver"

var newLogger = logging.New

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New(appName, "Resolves input paths, upload targets and per-build settings for the ncov workflow")
	kingpinApp.ErrorWriter(stderr)
	kingpinApp.UsageWriter(stderr)

	configFile := kingpinApp.Flag("config", "Path to the workflow YAML configuration file").Short('c').String()
	format := kingpinApp.Flag("format", "Output format: text, json or yaml").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logEncoding := kingpinApp.Flag("log-encoding", "Log encoding (console or json)").String()
	verbose := kingpinApp.Flag("verbose", "Shorthand for --log-level=debug").Short('v').Bool()
	s3DstOrigins := kingpinApp.Flag("s3-dst-origins", "Comma-separated destination origins for uploads").String()
	recentDaysFlag := kingpinApp.Flag("recent-days-to-censor", "Recent days excluded from frequencies (set -1 to use the configuration)").Default("-1").Int()
	maxDateFlag := kingpinApp.Flag("max-date", "Numeric max date for frequencies (set -1 to use the configuration)").Default("-1").Float64()

	numericDateCmd := kingpinApp.Command("numeric-date", "Convert a YYYY-MM-DD date (default today) to a fractional year")
	numericDateArg := numericDateCmd.Arg("date", "Date to convert").String()

	schemeCmd := kingpinApp.Command("subsampling-scheme", "Print the subsampling scheme of a build")
	schemeBuild := schemeCmd.Arg("build", "Build name").Required().String()

	filterCmd := kingpinApp.Command("filter-value", "Print a filter setting, optionally for an origin")
	filterKey := filterCmd.Arg("key", "Filter setting name").Required().String()
	filterWildcards := filterCmd.Flag("wildcard", "Rule wildcard as name=value (e.g. origin=gisaid)").Short('w').StringMap()

	pathCmd := kingpinApp.Command("path", "Print the local path of a stage for the origin wildcard")
	pathStage := pathCmd.Arg("stage", "Stage: metadata, sequences, aligned, to-exclude, masked or filtered").Required().String()
	pathWildcards := pathCmd.Flag("wildcard", "Rule wildcard as name=value (requires origin=...)").Short('w').StringMap()

	unifiedMetadataCmd := kingpinApp.Command("unified-metadata", "Print the metadata covering every origin")
	unifiedAlignmentCmd := kingpinApp.Command("unified-alignment", "Print the alignment subsampling reads from")

	metadataCmd := kingpinApp.Command("metadata", "Print the metadata the build_name wildcard reads")
	metadataWildcards := metadataCmd.Flag("wildcard", "Rule wildcard as name=value (requires build_name=...)").Short('w').StringMap()

	traitsCmd := kingpinApp.Command("traits", "Print the configured trait settings of a build")
	traitsBuild := traitsCmd.Arg("build", "Build name").Required().String()

	samplingTraitCmd := kingpinApp.Command("sampling-trait", "Print the trait used for sampling in a build")
	samplingTraitBuild := samplingTraitCmd.Arg("build", "Build name").Required().String()

	exposureTraitCmd := kingpinApp.Command("exposure-trait", "Print the trait used for exposure in a build")
	exposureTraitBuild := exposureTraitCmd.Arg("build", "Build name").Required().String()

	traitColumnsCmd := kingpinApp.Command("trait-columns", "Print the columns reconstructed as traits in a build")
	traitColumnsBuild := traitColumnsCmd.Arg("build", "Build name").Required().String()

	biasCmd := kingpinApp.Command("sampling-bias-correction", "Print the sampling bias correction of a build")
	biasBuild := biasCmd.Arg("build", "Build name").Required().String()

	maxDateCmd := kingpinApp.Command("max-date", "Print the max date for frequency estimation")
	uploadCmd := kingpinApp.Command("upload-mapping", "Print remote object names and the local files uploaded to them")

	combineCmd := kingpinApp.Command("combine-metadata", "Combine per-origin metadata files")
	combineMetadata := combineCmd.Flag("metadata", "Metadata file (repeat, in origin order)").Required().Strings()
	combineOrigins := combineCmd.Flag("origins", "Origin name (repeat, in metadata order)").Required().Strings()
	combineOutput := combineCmd.Flag("output", "Combined metadata output").Required().String()

	command, err := kingpinApp.Parse(args)
	if err != nil {
		kingpinApp.Errorf("%s, try --help", err)
		return 2
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *format != "" {
		overrides.OutputFormat = format
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *verbose {
		debug := "debug"
		overrides.LogLevel = &debug
	}

	if *logEncoding != "" {
		overrides.LogEncoding = logEncoding
	}

	if *s3DstOrigins != "" {
		overrides.S3DstOriginsStr = s3DstOrigins
	}

	if *recentDaysFlag >= 0 {
		overrides.RecentDaysToCensor = recentDaysFlag
	}

	if *maxDateFlag >= 0 {
		overrides.MaxDate = maxDateFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "%s: failed to load configuration: %v\n", appName, err)
		return 1
	}

	logger, err := newLogger(logging.Options{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(stderr, "%s: failed to initialize logger: %v\n", appName, err)
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := application.New(cfg, logger, stdout)

	switch command {
	case numericDateCmd.FullCommand():
		err = app.NumericDate(*numericDateArg)
	case schemeCmd.FullCommand():
		err = app.SubsamplingScheme(*schemeBuild)
	case filterCmd.FullCommand():
		err = app.FilterValue(resolver.Wildcards(*filterWildcards), *filterKey)
	case pathCmd.FullCommand():
		err = app.Path(resolver.Stage(*pathStage), resolver.Wildcards(*pathWildcards))
	case unifiedMetadataCmd.FullCommand():
		err = app.UnifiedMetadata()
	case unifiedAlignmentCmd.FullCommand():
		err = app.UnifiedAlignment()
	case metadataCmd.FullCommand():
		err = app.Metadata(resolver.Wildcards(*metadataWildcards))
	case traitsCmd.FullCommand():
		err = app.Traits(*traitsBuild)
	case samplingTraitCmd.FullCommand():
		err = app.SamplingTrait(*samplingTraitBuild)
	case exposureTraitCmd.FullCommand():
		err = app.ExposureTrait(*exposureTraitBuild)
	case traitColumnsCmd.FullCommand():
		err = app.TraitColumns(*traitColumnsBuild)
	case biasCmd.FullCommand():
		err = app.SamplingBiasCorrection(*biasBuild)
	case maxDateCmd.FullCommand():
		err = app.MaxDate()
	case uploadCmd.FullCommand():
		err = app.UploadMapping()
	case combineCmd.FullCommand():
		err = app.CombineMetadata(*combineMetadata, *combineOrigins, *combineOutput)
	default:
		err = fmt.Errorf("unknown command %q", command)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		return 1
	}
	return 0
}

package resolver

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/eugenenazirov/ncov-resolver/internal/config"
)

const twoOriginWorkflow = `
inputs:
  gisaid:
    metadata: s3://nextstrain-ncov-private/metadata.tsv.gz
    sequences: s3://nextstrain-ncov-private/sequences.fasta.xz
    aligned: s3://nextstrain-ncov-private/aligned.fasta.xz
    to-exclude: s3://nextstrain-ncov-private/to-exclude.txt
    masked: s3://nextstrain-ncov-private/masked.fasta.xz
    filtered: s3://nextstrain-ncov-private/filtered.fasta.xz
  aus:
    metadata: data/aus_metadata.tsv
    sequences: data/aus_sequences.fasta
    filtered: data/aus_filtered.fasta
  broken:
    metadata: ftp://example.org/metadata.tsv
builds:
  global:
    subsampling_scheme: nextstrain_global
    region: global
  europe:
    region: Europe
  africa:
filter:
  min_length: 27000
  aus:
    min_length: 5000
exposure:
  default:
    trait: country
    exposure: country_exposure
  europe:
    trait: division
traits:
  default:
    columns: [country]
    sampling_bias_correction: 2.5
  europe:
    columns: [country, division]
    sampling_bias_correction: 5
frequencies:
  recent_days_to_censor: 7
S3_DST_ORIGINS: [gisaid]
`

var fixedNow = time.Date(2021, time.March, 10, 15, 30, 0, 0, time.UTC)

func newResolver(t *testing.T, contents string) *Resolver {
	t.Helper()

	wf, err := config.ParseWorkflow([]byte(contents))
	if err != nil {
		t.Fatalf("ParseWorkflow returned error: %v", err)
	}
	return New(wf, WithClock(func() time.Time { return fixedNow }))
}

func TestPathForInput(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)

	tests := []struct {
		name    string
		stage   Stage
		origin  string
		want    string
		wantErr error
	}{
		{name: "RemoteMetadata", stage: StageMetadata, origin: "gisaid", want: "data/downloaded_gisaid.tsv"},
		{name: "LocalMetadata", stage: StageMetadata, origin: "aus", want: "data/aus_metadata.tsv"},
		{name: "RemoteSequences", stage: StageSequences, origin: "gisaid", want: "data/downloaded_gisaid.fasta.gz"},
		{name: "LocalSequences", stage: StageSequences, origin: "aus", want: "data/aus_sequences.fasta"},
		{name: "RemoteAligned", stage: StageAligned, origin: "gisaid", want: "results/precomputed-aligned_gisaid.fasta"},
		{name: "LocalAligned", stage: StageAligned, origin: "aus", want: "results/aligned_aus.fasta.xz"},
		{name: "RemoteToExclude", stage: StageToExclude, origin: "gisaid", want: "results/precomputed-to-exclude_gisaid.txt"},
		{name: "LocalToExclude", stage: StageToExclude, origin: "aus", want: "results/to-exclude_aus.txt"},
		{name: "RemoteMasked", stage: StageMasked, origin: "gisaid", want: "results/precomputed-masked_gisaid.fasta"},
		{name: "LocalMasked", stage: StageMasked, origin: "aus", want: "results/masked_aus.fasta.xz"},
		{name: "RemoteFiltered", stage: StageFiltered, origin: "gisaid", want: "results/precomputed-filtered_gisaid.fasta"},
		{name: "ConfiguredFiltered", stage: StageFiltered, origin: "aus", want: "data/aus_filtered.fasta"},
		{name: "ComputedFiltered", stage: StageFiltered, origin: "unknown", want: "results/filtered_unknown.fasta.xz"},
		{name: "ComputedAlignedForUnknownOrigin", stage: StageAligned, origin: "unknown", want: "results/aligned_unknown.fasta.xz"},
		{name: "MissingMetadata", stage: StageMetadata, origin: "unknown", wantErr: ErrMissingInput},
		{name: "MissingSequences", stage: StageSequences, origin: "broken", wantErr: ErrMissingInput},
		{name: "UnsupportedScheme", stage: StageMetadata, origin: "broken", wantErr: ErrUnsupportedScheme},
		{name: "UnknownStage", stage: Stage("tree"), origin: "aus", wantErr: ErrUnknownStage},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.PathForInput(tc.stage, tc.origin)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPathForInputUnsupportedSchemeOnEveryStage(t *testing.T) {
	t.Parallel()

	r := newResolver(t, `
inputs:
  lab:
    metadata: ftp://lab.example/metadata.tsv
    sequences: ftp://lab.example/sequences.fasta
    aligned: ftp://lab.example/aligned.fasta
    to-exclude: ftp://lab.example/to-exclude.txt
    masked: ftp://lab.example/masked.fasta
    filtered: ftp://lab.example/filtered.fasta
`)
	for _, stage := range Stages() {
		if _, err := r.PathForInput(stage, "lab"); !errors.Is(err, ErrUnsupportedScheme) {
			t.Fatalf("expected ErrUnsupportedScheme for %s, got %v", stage, err)
		}
	}
}

func TestUnifiedMetadata(t *testing.T) {
	t.Parallel()

	if got := newResolver(t, twoOriginWorkflow).UnifiedMetadata(); got != "results/combined_metadata.tsv.xz" {
		t.Fatalf("unexpected multi-origin metadata %q", got)
	}

	single := newResolver(t, "inputs:\n  aus:\n    metadata: data/aus.tsv\n")
	if got := single.UnifiedMetadata(); got != "results/sanitized_metadata_aus.tsv.xz" {
		t.Fatalf("unexpected single-origin metadata %q", got)
	}
}

func TestUnifiedAlignment(t *testing.T) {
	t.Parallel()

	got, err := newResolver(t, twoOriginWorkflow).UnifiedAlignment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"results/combined_sequences_for_subsampling.fasta.xz"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	single := newResolver(t, "inputs:\n  gisaid:\n    filtered: s3://bucket/filtered.fasta.xz\n")
	got, err = single.UnifiedAlignment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"results/precomputed-filtered_gisaid.fasta"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	broken := newResolver(t, "inputs:\n  lab:\n    filtered: ftp://lab.example/filtered.fasta\n")
	if _, err := broken.UnifiedAlignment(); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestMetadataForBuild(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)

	tests := []struct {
		build string
		want  string
	}{
		{build: "global", want: "results/combined_metadata.tsv.xz"},
		{build: "europe", want: "results/europe/metadata_adjusted.tsv.xz"},
		{build: "africa", want: "results/combined_metadata.tsv.xz"},
		{build: "unconfigured", want: "results/combined_metadata.tsv.xz"},
	}
	for _, tc := range tests {
		if got := r.MetadataForBuild(tc.build); got != tc.want {
			t.Fatalf("MetadataForBuild(%q) = %q, want %q", tc.build, got, tc.want)
		}
	}
}

func TestMetadataForBuildEmptyRegion(t *testing.T) {
	t.Parallel()

	r := newResolver(t, `
inputs:
  gisaid:
    metadata: s3://bucket/metadata.tsv.gz
  aus:
    metadata: data/aus.tsv
builds:
  oceania:
    region: ""
  asia:
    region:
  global:
    region:
`)

	tests := []struct {
		build string
		want  string
	}{
		{build: "oceania", want: "results/oceania/metadata_adjusted.tsv.xz"},
		{build: "asia", want: "results/asia/metadata_adjusted.tsv.xz"},
		{build: "global", want: "results/combined_metadata.tsv.xz"},
	}
	for _, tc := range tests {
		if got := r.MetadataForBuild(tc.build); got != tc.want {
			t.Fatalf("MetadataForBuild(%q) = %q, want %q", tc.build, got, tc.want)
		}
	}
}

func TestSubsamplingSchemeForBuild(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)
	if got := r.SubsamplingSchemeForBuild("global"); got != "nextstrain_global" {
		t.Fatalf("unexpected scheme %q", got)
	}
	if got := r.SubsamplingSchemeForBuild("europe"); got != "europe" {
		t.Fatalf("expected build name as scheme, got %q", got)
	}
}

func TestFilterValue(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)

	if got := r.FilterValue("", "min_length"); got != "27000" {
		t.Fatalf("unexpected default filter value %q", got)
	}
	if got := r.FilterValue("aus", "min_length"); got != "5000" {
		t.Fatalf("unexpected origin filter value %q", got)
	}
	if got := r.FilterValue("gisaid", "min_length"); got != "27000" {
		t.Fatalf("expected fallback filter value, got %q", got)
	}
	if got := r.FilterValue("aus", "exclude"); got != "" {
		t.Fatalf("expected empty filter value, got %q", got)
	}
	if got := r.FilterValueForWildcards(Wildcards{"origin": "aus"}, "min_length"); got != "5000" {
		t.Fatalf("unexpected wildcard filter value %q", got)
	}
	if got := r.FilterValueForWildcards(Wildcards{}, "min_length"); got != "27000" {
		t.Fatalf("unexpected wildcard-less filter value %q", got)
	}
}

func TestTraitsForBuild(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)

	if got, err := r.SamplingTraitForBuild("europe"); err != nil || got != "division" {
		t.Fatalf("unexpected europe sampling trait %q (%v)", got, err)
	}
	if got, err := r.SamplingTraitForBuild("africa"); err != nil || got != "country" {
		t.Fatalf("unexpected default sampling trait %q (%v)", got, err)
	}
	if got, err := r.ExposureTraitForBuild("europe"); err != nil || got != "country_exposure" {
		t.Fatalf("unexpected europe exposure trait %q (%v)", got, err)
	}
	if got, err := r.TraitColumnsForBuild("europe"); err != nil || !slices.Equal(got, []string{"country", "division"}) {
		t.Fatalf("unexpected europe trait columns %v (%v)", got, err)
	}
	if got, err := r.TraitColumnsForBuild("africa"); err != nil || !slices.Equal(got, []string{"country"}) {
		t.Fatalf("unexpected default trait columns %v (%v)", got, err)
	}
	if got, err := r.SamplingBiasCorrectionForBuild("europe"); err != nil || got != 5 {
		t.Fatalf("unexpected europe sampling bias correction %v (%v)", got, err)
	}
	if got, err := r.SamplingBiasCorrectionForBuild("africa"); err != nil || got != 2.5 {
		t.Fatalf("unexpected default sampling bias correction %v (%v)", got, err)
	}
}

func TestTraitsForBuildNotConfigured(t *testing.T) {
	t.Parallel()

	r := newResolver(t, "builds:\n  global:\n")

	if _, err := r.SamplingTraitForBuild("global"); !errors.Is(err, ErrTraitNotConfigured) {
		t.Fatalf("expected ErrTraitNotConfigured, got %v", err)
	}
	if _, err := r.ExposureTraitForBuild("global"); !errors.Is(err, ErrTraitNotConfigured) {
		t.Fatalf("expected ErrTraitNotConfigured, got %v", err)
	}
	if _, err := r.TraitColumnsForBuild("global"); !errors.Is(err, ErrTraitNotConfigured) {
		t.Fatalf("expected ErrTraitNotConfigured, got %v", err)
	}
	if _, err := r.SamplingBiasCorrectionForBuild("global"); !errors.Is(err, ErrTraitNotConfigured) {
		t.Fatalf("expected ErrTraitNotConfigured, got %v", err)
	}
}

func TestTraitColumnsReturnsCopy(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)
	columns, err := r.TraitColumnsForBuild("europe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	columns[0] = "mutated"

	again, _ := r.TraitColumnsForBuild("europe")
	if again[0] != "country" {
		t.Fatalf("expected configuration to be unchanged, got %v", again)
	}
}

func TestMaxDateForFrequencies(t *testing.T) {
	t.Parallel()

	censored := newResolver(t, twoOriginWorkflow)
	want := NumericDate(time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC))
	if got := censored.MaxDateForFrequencies(); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	fixed := newResolver(t, "frequencies:\n  max_date: 2020.75\n  recent_days_to_censor: 7\n")
	if got := fixed.MaxDateForFrequencies(); got != 2020.75 {
		t.Fatalf("expected configured max date, got %v", got)
	}

	uncensored := newResolver(t, "")
	if got, want := uncensored.MaxDateForFrequencies(), NumericDate(fixedNow); got != want {
		t.Fatalf("expected today %v, got %v", want, got)
	}
}

func TestWildcardAdapters(t *testing.T) {
	t.Parallel()

	r := newResolver(t, twoOriginWorkflow)

	got, err := r.PathForInputWildcards(StageAligned, Wildcards{WildcardOrigin: "aus"})
	if err != nil || got != "results/aligned_aus.fasta.xz" {
		t.Fatalf("unexpected path %q (%v)", got, err)
	}
	if _, err := r.PathForInputWildcards(StageAligned, Wildcards{}); !errors.Is(err, ErrMissingWildcard) {
		t.Fatalf("expected ErrMissingWildcard, got %v", err)
	}

	got, err = r.MetadataForWildcards(Wildcards{WildcardBuildName: "europe"})
	if err != nil || got != "results/europe/metadata_adjusted.tsv.xz" {
		t.Fatalf("unexpected metadata %q (%v)", got, err)
	}
	if _, err := r.MetadataForWildcards(Wildcards{WildcardOrigin: "aus"}); !errors.Is(err, ErrMissingWildcard) {
		t.Fatalf("expected ErrMissingWildcard, got %v", err)
	}
}

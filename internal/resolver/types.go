package resolver

// Stage names a class of pipeline artifact with its own path convention.
type Stage string

const (
	StageMetadata  Stage = "metadata"
	StageSequences Stage = "sequences"
	StageAligned   Stage = "aligned"
	StageToExclude Stage = "to-exclude"
	StageMasked    Stage = "masked"
	StageFiltered  Stage = "filtered"
)

// Stages lists every known stage in pipeline order.
func Stages() []Stage {
	return []Stage{StageMetadata, StageSequences, StageAligned, StageToExclude, StageMasked, StageFiltered}
}

// Wildcards are the values filling a rule's placeholders, such as origin or
// build_name.
type Wildcards map[string]string

// Wildcard names read by the resolver.
const (
	WildcardOrigin    = "origin"
	WildcardBuildName = "build_name"
)

package enums

// GenerationRunStatus records where a job's material-order run ended up.
type GenerationRunStatus string

const (
	GenerationRunStatusGenerating     GenerationRunStatus = "GENERATING"
	GenerationRunStatusDone           GenerationRunStatus = "DONE"
	GenerationRunStatusDoneWithErrors GenerationRunStatus = "DONE_WITH_ERRORS"
)

// String implements fmt.Stringer.
func (s GenerationRunStatus) String() string {
	return string(s)
}

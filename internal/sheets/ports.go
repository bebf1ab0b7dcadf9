package sheets

import (
	"context"

	"harambee/internal/core"
)

// ContributionWriter is the outbound port for the spreadsheet backup. The
// Google adapter implements it against a real sheet, the memory adapter backs
// worker tests.
type ContributionWriter interface {
	Append(ctx context.Context, c core.Contribution) (rowRef string, err error)
}

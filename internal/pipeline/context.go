package pipeline

import (
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/canonical"
	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"
	"github.com/jobscope/jobscope/internal/guard"
	"github.com/jobscope/jobscope/internal/recommend"
	"github.com/jobscope/jobscope/internal/skillgraph"
)

// Context carries the run's configuration and the datasets handed from
// stage to stage. It is passed explicitly through every stage call so runs
// stay independently testable and re-entrant; there is no ambient state.
type Context struct {
	Config *config.Config
	Logger *zap.Logger
	Seed   int64

	Raw      []dataset.RawRecord
	Resolved []dataset.ResolvedRecord
	Tables   *canonical.Tables
	Graph    *skillgraph.Graph
	Recs     map[string][]recommend.Recommendation

	Reports map[string]*guard.Report
}

// NewContext prepares an empty run context.
func NewContext(cfg *config.Config, logger *zap.Logger, seed int64) *Context {
	return &Context{
		Config:  cfg,
		Logger:  logger,
		Seed:    seed,
		Recs:    map[string][]recommend.Recommendation{},
		Reports: map[string]*guard.Report{},
	}
}

// Package stages wires the built-in pipeline stages into a registry.
package stages

import (
	"github.com/kingrea/prospector/internal/stage"
	"github.com/kingrea/prospector/internal/stages/enrich"
	"github.com/kingrea/prospector/internal/stages/hunter"
	"github.com/kingrea/prospector/internal/stages/outreach"
	"github.com/kingrea/prospector/internal/stages/score"
	"github.com/kingrea/prospector/internal/stages/scout"
	"github.com/kingrea/prospector/internal/stages/stakeholders"
)

// RegisterBuiltins installs every shipped stage.
func RegisterBuiltins(reg *stage.Registry) {
	reg.MustRegister(scout.New())
	reg.MustRegister(hunter.New())
	reg.MustRegister(enrich.New())
	reg.MustRegister(stakeholders.New())
	reg.MustRegister(outreach.New())
	reg.MustRegister(score.New())
}

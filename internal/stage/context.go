package stage

import (
	"time"

	"github.com/kingrea/prospector/internal/artifact"
	"github.com/kingrea/prospector/internal/config"
	"github.com/kingrea/prospector/internal/directory"
	"github.com/kingrea/prospector/internal/llm"
	"github.com/kingrea/prospector/internal/logbook"
)

// Context carries shared runtime dependencies into every stage. It is built
// once per run and passed explicitly, never held in package state.
type Context struct {
	Config    *config.Config
	Artifacts *artifact.Store
	Logbook   *logbook.Logbook
	Research  llm.Client
	Writer    llm.Client
	Directory directory.Directory
	Now       func() time.Time
}

// NewContext builds a Context with a fresh artifact store over the data dir.
func NewContext(cfg *config.Config, lb *logbook.Logbook) *Context {
	return &Context{
		Config:    cfg,
		Artifacts: artifact.NewStore(cfg.DataDir()),
		Logbook:   lb,
		Directory: directory.Stub{},
		Now:       time.Now,
	}
}

// WithResearch injects the research client.
func (c *Context) WithResearch(client llm.Client) *Context {
	clone := *c
	clone.Research = client
	return &clone
}

// WithWriter injects the writer client.
func (c *Context) WithWriter(client llm.Client) *Context {
	clone := *c
	clone.Writer = client
	return &clone
}

// WithDirectory injects a contact directory implementation.
func (c *Context) WithDirectory(dir directory.Directory) *Context {
	clone := *c
	clone.Directory = dir
	return &clone
}

// Log returns a stage-scoped logbook, tolerating a nil logbook in tests.
func (c *Context) Log(stageID string) *logbook.StageLog {
	if c.Logbook == nil {
		return nil
	}
	return c.Logbook.Stage(stageID)
}

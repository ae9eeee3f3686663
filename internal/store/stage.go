package store

import (
	"context"
	"strings"
	"time"
)

type Phase string

const (
	PhasePreDeploy  Phase = "pre_deploy"
	PhaseDeploy     Phase = "deploy"
	PhasePostDeploy Phase = "post_deploy"
)

// PhaseOrder is the fixed order in which stage phases execute within a run.
var PhaseOrder = []Phase{PhasePreDeploy, PhaseDeploy, PhasePostDeploy}

// Stage is read-only configuration shared by all runs of a project. The
// execution engine never mutates it.
type Stage struct {
	StageID           int64
	StageProjectID    int64
	Name              string
	Phase             Phase
	Position          int64
	// Commands holds one shell command per line
	Commands          string
	Enabled           bool
	ContinueOnFailure bool
	TimeoutSeconds    int64
	Artifacts         string
}

func (s *Stage) CommandList() []string {
	lines := strings.Split(s.Commands, "\n")
	commands := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			commands = append(commands, line)
		}
	}
	return commands
}

func (s *Stage) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type StageStore interface {
	CreateStage(
		context.Context,
		int64,
		string,
		Phase,
		int64,
		string,
		bool,
		bool,
		int64,
		string,
	) (*Stage, error)
	ReadStageByID(context.Context, int64) (*Stage, error)
	UpdateStage(context.Context, *Stage) error
	DeleteStage(context.Context, int64) error
	ListProjectStages(context.Context, int64) ([]*Stage, error)
	ListEnabledProjectStages(context.Context, int64) ([]*Stage, error)
	DeleteProjectStages(context.Context, int64) error
}

package service

import (
	"fmt"
	"strings"

	"github.com/MohamedRoshdi/devflow-sub024/internal/store"
	"github.com/goccy/go-yaml"
)

const defaultStageTimeoutSeconds = 600

// StageScript is the YAML form of a project's pipeline, used to import
// stage definitions in bulk.
type StageScript struct {
	Stages []ScriptStage `yaml:"stages"`
}

type ScriptStage struct {
	Name              string   `yaml:"name"`
	Phase             string   `yaml:"phase"`
	Commands          []string `yaml:"commands"`
	ContinueOnFailure bool     `yaml:"continue_on_failure"`
	TimeoutSeconds    int64    `yaml:"timeout_seconds"`
	Artifacts         []string `yaml:"artifacts"`
}

// ParseStageScript unmarshals and validates a pipeline YAML document.
// Stages missing a timeout get the default.
func ParseStageScript(data []byte) (*StageScript, error) {
	script := new(StageScript)
	if err := yaml.Unmarshal(data, script); err != nil {
		return nil, fmt.Errorf("err unmarshaling stage script: %+w", err)
	}
	if len(script.Stages) == 0 {
		return nil, ProjectConfigError{Message: "stage script defines no stages"}
	}

	for i := range script.Stages {
		stage := &script.Stages[i]
		if strings.TrimSpace(stage.Name) == "" {
			return nil, ProjectConfigError{
				Message: fmt.Sprintf("stage %d has no name", i+1),
			}
		}
		switch store.Phase(stage.Phase) {
		case store.PhasePreDeploy, store.PhaseDeploy, store.PhasePostDeploy:
		default:
			return nil, ProjectConfigError{
				Message: fmt.Sprintf(
					"stage '%s' has unknown phase '%s'", stage.Name, stage.Phase,
				),
			}
		}
		if len(stage.Commands) == 0 {
			return nil, ProjectConfigError{
				Message: fmt.Sprintf("stage '%s' has no commands", stage.Name),
			}
		}
		if stage.TimeoutSeconds <= 0 {
			stage.TimeoutSeconds = defaultStageTimeoutSeconds
		}
	}
	return script, nil
}

// CommandBlock joins the stage's commands into the newline-separated form
// stages are stored in.
func (ss ScriptStage) CommandBlock() string {
	return strings.Join(ss.Commands, "\n")
}

func (ss ScriptStage) ArtifactBlock() string {
	return strings.Join(ss.Artifacts, "\n")
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStageScript(t *testing.T) {
	t.Run("success - full script parses", func(t *testing.T) {
		// arrange
		data := []byte(`
stages:
  - name: build
    phase: pre_deploy
    commands:
      - go build ./...
      - go test ./...
    timeout_seconds: 300
  - name: deploy
    phase: deploy
    commands:
      - ./scripts/deploy.sh
    artifacts:
      - dist
  - name: smoke
    phase: post_deploy
    commands:
      - curl -fsS http://localhost:8080/healthz
    continue_on_failure: true
`)

		// act
		script, err := ParseStageScript(data)

		// assert
		assert.NoError(t, err)
		assert.Len(t, script.Stages, 3)
		assert.Equal(t, "go build ./...\ngo test ./...", script.Stages[0].CommandBlock())
		assert.Equal(t, int64(300), script.Stages[0].TimeoutSeconds)
		assert.Equal(t, "dist", script.Stages[1].ArtifactBlock())
		assert.True(t, script.Stages[2].ContinueOnFailure)
	})

	t.Run("success - missing timeout gets the default", func(t *testing.T) {
		// arrange
		data := []byte(`
stages:
  - name: build
    phase: pre_deploy
    commands:
      - make
`)

		// act
		script, err := ParseStageScript(data)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(defaultStageTimeoutSeconds), script.Stages[0].TimeoutSeconds)
	})

	t.Run("failure - empty script", func(t *testing.T) {
		// act
		script, err := ParseStageScript([]byte("stages: []"))

		// assert
		var pce ProjectConfigError
		assert.ErrorAs(t, err, &pce)
		assert.Nil(t, script)
	})

	t.Run("failure - unknown phase", func(t *testing.T) {
		// arrange
		data := []byte(`
stages:
  - name: build
    phase: compile
    commands:
      - make
`)

		// act
		script, err := ParseStageScript(data)

		// assert
		var pce ProjectConfigError
		assert.ErrorAs(t, err, &pce)
		assert.Contains(t, pce.Message, "compile")
		assert.Nil(t, script)
	})

	t.Run("failure - stage without commands", func(t *testing.T) {
		// arrange
		data := []byte(`
stages:
  - name: build
    phase: pre_deploy
`)

		// act
		script, err := ParseStageScript(data)

		// assert
		var pce ProjectConfigError
		assert.ErrorAs(t, err, &pce)
		assert.Nil(t, script)
	})

	t.Run("failure - invalid yaml", func(t *testing.T) {
		// act
		script, err := ParseStageScript([]byte("stages: ["))

		// assert
		assert.Error(t, err)
		assert.Nil(t, script)
	})
}

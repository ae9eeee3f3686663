package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_UnmarshalJSON(t *testing.T) {
	t.Run("success - unmarshal json works as expected", func(t *testing.T) {
		// arrange
		jsonInput := []byte(`{"queue_size": 4, "provider_request_seconds": 15, "external_poll_seconds": 5}`)
		var config Configuration

		// act
		err := json.Unmarshal(jsonInput, &config)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, int64(4), config.QueueSize)
		assert.Equal(t, 15*time.Second, time.Duration(config.ProviderRequestSeconds))
		assert.Equal(t, 5*time.Second, time.Duration(config.ExternalPollSeconds))
	})
}

func TestConfig_MarshalJSON(t *testing.T) {
	t.Run("success - marshal json works as expected", func(t *testing.T) {
		// arrange
		config := Configuration{
			QueueSize:               5,
			ProviderRequestSeconds:  NewSecondsDuration(30),
			JenkinsQueuePollSeconds: NewSecondsDuration(2),
			JenkinsQueuePollLimit:   10,
		}

		// act
		b, err := json.Marshal(config)

		// assert
		assert.NoError(t, err)
		assert.Contains(t, string(b), `"queue_size":5`)
		assert.Contains(t, string(b), `"provider_request_seconds":30`)
		assert.Contains(t, string(b), `"jenkins_queue_poll_limit":10`)
	})
}

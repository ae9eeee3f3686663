package internal

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/MohamedRoshdi/devflow-sub024/internal/util"
)

var Config *Configuration

type SecondsDuration time.Duration

func NewSecondsDuration(seconds int64) SecondsDuration {
	return SecondsDuration(time.Duration(seconds) * time.Second)
}

func (sd SecondsDuration) MarshalJSON() ([]byte, error) {
	seconds := float64(time.Duration(sd)) / float64(time.Second)
	return json.Marshal(seconds)
}

func (sd *SecondsDuration) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return err
	}
	*sd = SecondsDuration(seconds * float64(time.Second))
	return nil
}

type Configuration struct {
	QueueSize               int64           `json:"queue_size"`
	ProviderRequestSeconds  SecondsDuration `json:"provider_request_seconds"`
	ExternalPollSeconds     SecondsDuration `json:"external_poll_seconds"`
	JenkinsQueuePollSeconds SecondsDuration `json:"jenkins_queue_poll_seconds"`
	JenkinsQueuePollLimit   int             `json:"jenkins_queue_poll_limit"`
}

func InitializeConfiguration() {
	Config = &Configuration{
		QueueSize:               3,
		ProviderRequestSeconds:  NewSecondsDuration(30),
		ExternalPollSeconds:     NewSecondsDuration(10),
		JenkinsQueuePollSeconds: NewSecondsDuration(2),
		JenkinsQueuePollLimit:   10,
	}

	configFileExists, _ := util.PathExists("config.json")
	if !configFileExists {
		b, err := json.MarshalIndent(Config, "", "    ")
		if err != nil {
			log.Fatal(err)
		}
		configFile, err := os.Create("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if _, err := configFile.Write(b); err != nil {
			log.Fatal(err)
		}
	} else {
		configBytes, err := os.ReadFile("config.json")
		if err != nil {
			log.Fatal(err)
		}
		if err := json.Unmarshal(configBytes, &Config); err != nil {
			log.Fatal(err)
		}
	}
}

func UpdateConfiguration(config *Configuration) error {
	b, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return err
	}

	configFile, err := os.Create("config.json")
	if err != nil {
		return err
	}

	if _, err := configFile.Write(b); err != nil {
		return err
	}

	Config = config

	return nil
}

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestJenkinsClient(t *testing.T, baseURL string) *JenkinsClient {
	t.Helper()
	c, err := NewJenkinsClient(Config{
		BaseURL:  baseURL,
		Username: "deploy",
		Token:    "test-token",
		JobName:  "webshop-deploy",
	}, http.DefaultClient)
	if err != nil {
		t.Fatal(err)
	}
	c.queuePollInterval = time.Millisecond
	return c
}

func TestJenkins_NewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing base URL", Config{Username: "deploy", Token: "t", JobName: "job"}},
		{"missing token", Config{BaseURL: "https://jenkins.local", Username: "deploy", JobName: "job"}},
		{"missing job name", Config{BaseURL: "https://jenkins.local", Username: "deploy", Token: "t"}},
	}
	for _, tt := range tests {
		t.Run("failure - "+tt.name, func(t *testing.T) {
			_, err := NewJenkinsClient(tt.cfg, http.DefaultClient)
			var confErr ConfigError
			assert.ErrorAs(t, err, &confErr)
			assert.Equal(t, "jenkins", confErr.Provider)
		})
	}
	t.Run("success - configured queue poll bounds are used", func(t *testing.T) {
		// act
		c, err := NewJenkinsClient(Config{
			BaseURL:           "https://jenkins.local",
			Username:          "deploy",
			Token:             "t",
			JobName:           "job",
			QueuePollLimit:    25,
			QueuePollInterval: 5 * time.Second,
		}, http.DefaultClient)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, 25, c.queuePollLimit)
		assert.Equal(t, 5*time.Second, c.queuePollInterval)
	})
	t.Run("success - zero poll bounds fall back to the defaults", func(t *testing.T) {
		// act
		c, err := NewJenkinsClient(Config{
			BaseURL:  "https://jenkins.local",
			Username: "deploy",
			Token:    "t",
			JobName:  "job",
		}, http.DefaultClient)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, jenkinsQueuePollLimit, c.queuePollLimit)
		assert.Equal(t, jenkinsQueuePollInterval, c.queuePollInterval)
	})
}

func TestJenkins_Trigger(t *testing.T) {
	t.Run("success - build number resolved from queue on third poll", func(t *testing.T) {
		// arrange
		var polls atomic.Int64
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()
		mux.HandleFunc("/job/webshop-deploy/buildWithParameters", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", srv.URL+"/queue/item/55/")
			w.WriteHeader(http.StatusCreated)
		})
		mux.HandleFunc("/queue/item/55/api/json", func(w http.ResponseWriter, r *http.Request) {
			if polls.Add(1) < 3 {
				w.Write([]byte(`{"why": "waiting for executor"}`))
				return
			}
			fmt.Fprintf(w, `{"executable": {"number": 101, "url": "%s/job/webshop-deploy/101/"}}`, srv.URL)
		})
		c := newTestJenkinsClient(t, srv.URL)

		// act
		res, err := c.Trigger(context.Background(), TriggerParams{RunID: 42, Branch: "main"})

		// assert
		assert.NoError(t, err)
		assert.Equal(t, "101", res.ExternalID)
		assert.Equal(t, int64(3), polls.Load())
	})
	t.Run("failure - queue item cancelled before a build number appears", func(t *testing.T) {
		// arrange
		var polls atomic.Int64
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()
		mux.HandleFunc("/job/webshop-deploy/buildWithParameters", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", srv.URL+"/queue/item/55/")
			w.WriteHeader(http.StatusCreated)
		})
		mux.HandleFunc("/queue/item/55/api/json", func(w http.ResponseWriter, r *http.Request) {
			if polls.Add(1) < 3 {
				w.Write([]byte(`{}`))
				return
			}
			w.Write([]byte(`{"cancelled": true}`))
		})
		c := newTestJenkinsClient(t, srv.URL)

		// act
		_, err := c.Trigger(context.Background(), TriggerParams{RunID: 42, Branch: "main"})

		// assert
		var cancelledErr QueueCancelledError
		assert.ErrorAs(t, err, &cancelledErr)
		assert.EqualError(t, err, "build was cancelled in queue")
		assert.Equal(t, int64(3), polls.Load())
	})
	t.Run("failure - poll limit is a hard bound", func(t *testing.T) {
		// arrange
		var polls atomic.Int64
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()
		mux.HandleFunc("/job/webshop-deploy/buildWithParameters", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", srv.URL+"/queue/item/55/")
			w.WriteHeader(http.StatusCreated)
		})
		mux.HandleFunc("/queue/item/55/api/json", func(w http.ResponseWriter, r *http.Request) {
			polls.Add(1)
			w.Write([]byte(`{}`))
		})
		c := newTestJenkinsClient(t, srv.URL)

		// act
		_, err := c.Trigger(context.Background(), TriggerParams{RunID: 42, Branch: "main"})

		// assert
		assert.Error(t, err)
		assert.Equal(t, int64(jenkinsQueuePollLimit), polls.Load())
	})
	t.Run("failure - missing queue location", func(t *testing.T) {
		// arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()
		c := newTestJenkinsClient(t, srv.URL)

		// act
		_, err := c.Trigger(context.Background(), TriggerParams{RunID: 42, Branch: "main"})

		// assert
		assert.Error(t, err)
	})
}

func TestJenkins_Status(t *testing.T) {
	t.Run("success - building maps to running", func(t *testing.T) {
		// arrange
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"building": true, "result": null}`))
		}))
		defer srv.Close()
		c := newTestJenkinsClient(t, srv.URL)

		// act
		res, err := c.Status(context.Background(), "101")

		// assert
		assert.NoError(t, err)
		assert.Equal(t, StatusRunning, res.Status)
		assert.Equal(t, "building", res.ExternalStatus)
	})
	t.Run("failure - missing external id", func(t *testing.T) {
		// arrange
		c := newTestJenkinsClient(t, "http://localhost:0")

		// act
		_, err := c.Status(context.Background(), "")

		// assert
		var missingErr ErrMissingExternalID
		assert.ErrorAs(t, err, &missingErr)
	})
}

func TestJenkins_MapStatus(t *testing.T) {
	tests := []struct {
		name     string
		building bool
		result   string
		expected Status
	}{
		{"building", true, "", StatusRunning},
		{"success", false, "SUCCESS", StatusSuccess},
		{"failure", false, "FAILURE", StatusFailed},
		{"unstable", false, "UNSTABLE", StatusFailed},
		{"aborted", false, "ABORTED", StatusCancelled},
		{"not built", false, "NOT_BUILT", StatusSkipped},
		{"absent result", false, "", StatusQueued},
		{"unknown result", false, "EXPLODED", StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapJenkinsStatus(tt.building, tt.result))
		})
	}
}

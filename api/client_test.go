package api

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"heartbeat/data"
	"heartbeat/logger"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	var received HeartbeatRequest
	var headers http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()

		reader, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.NewDecoder(reader).Decode(&received))

		w.Write([]byte(`{"min_agent_version": "2.0.0"}`))
	}))
	defer server.Close()

	config := testConfig()
	config.APIEndpoint = server.URL
	config.APIKey = "secret"

	request := NewHeartbeatRequest(config, &data.Data{}, nil, 1649299370)
	response, err := NewClient(config).Send(&request)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "2.0.0", response.MinAgentVersion)
	assert.False(t, response.Retryable())

	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
	assert.Equal(t, "gzip", headers.Get("Content-Encoding"))
	assert.Equal(t, "heartbeat-agent/1.0.0", headers.Get("User-Agent"))
	assert.Equal(t, int64(1649299370), received.ReportedAt)
	assert.Equal(t, config.UUID.String(), received.Agent.UUID)
}

func TestSendMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"min_agent_version": `))
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel("debug")
	defer func() {
		logger.SetLevel("info")
		logger.SetOutput(os.Stdout)
	}()

	config := testConfig()
	config.APIEndpoint = server.URL

	request := NewHeartbeatRequest(config, &data.Data{}, nil, 1)
	response, err := NewClient(config).Send(&request)
	require.NoError(t, err)

	// a bad body does not fail the heartbeat
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "", response.MinAgentVersion)
	assert.Contains(t, buf.String(), `msg="Unable to parse heartbeat response"`)
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	config := testConfig()
	config.APIEndpoint = server.URL

	request := NewHeartbeatRequest(config, &data.Data{}, nil, 1)
	response, err := NewClient(config).Send(&request)
	require.NoError(t, err)

	assert.True(t, response.Retryable())
	assert.Equal(t, "", response.MinAgentVersion)
}

func TestSendUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	config := testConfig()
	config.APIEndpoint = server.URL

	request := NewHeartbeatRequest(config, &data.Data{}, nil, 1)
	response, err := NewClient(config).Send(&request)
	require.NoError(t, err)

	assert.False(t, response.Retryable())
}

func TestSendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	config := testConfig()
	config.APIEndpoint = server.URL

	request := NewHeartbeatRequest(config, &data.Data{}, nil, 1)
	_, err := NewClient(config).Send(&request)

	assert.Error(t, err)
}

package ollama

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/types"
)

func testAdapter() *Adapter {
	a, err := New(types.ProviderConfig{Name: "ollama", Models: []types.ModelDescriptor{{ID: "llama3.1", IsDefault: true}}}, logrus.New())
	if err != nil {
		panic(err)
	}
	return a
}

func TestNewDefaultsBaseURL(t *testing.T) {
	a, err := New(types.ProviderConfig{Name: "ollama"}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, a.baseURL)
}

func TestNewNoAPIKeyRequired(t *testing.T) {
	_, err := New(types.ProviderConfig{Name: "ollama"}, logrus.New())
	require.NoError(t, err)
}

func TestBuildRequestRejectsImageParts(t *testing.T) {
	a := testAdapter()
	req := &types.Request{
		Messages: []types.Message{
			{Role: types.RoleUser, Parts: []types.ContentPart{{Kind: types.PartImage, Image: &types.ImagePart{MediaType: types.ImagePNG, Data: "x"}}}},
		},
	}
	_, err := a.buildRequest(req, false)
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidRequest, re.Code)
}

func TestBuildRequestCarriesOptions(t *testing.T) {
	a := testAdapter()
	temp := 0.5
	maxTok := 128
	req := &types.Request{
		Messages:    []types.Message{{Role: types.RoleUser, Text: "hi"}},
		Temperature: &temp,
		MaxTokens:   &maxTok,
	}
	out, err := a.buildRequest(req, true)
	require.NoError(t, err)
	assert.True(t, out.Stream)
	assert.Equal(t, "llama3.1", out.Model)
	assert.Equal(t, 0.5, out.Options["temperature"])
	assert.Equal(t, 128, out.Options["num_predict"])
}

func TestCompleteWithVisionAlwaysFails(t *testing.T) {
	a := testAdapter()
	_, err := a.CompleteWithVision(nil, &types.Request{})
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidRequest, re.Code)
}

func TestNormalizeErrorMapsConnectionRefused(t *testing.T) {
	a := testAdapter()
	err := a.normalizeError(errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"))
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ProviderUnavailable, re.Code)
}

func TestNormalizeErrorMapsTimeout(t *testing.T) {
	a := testAdapter()
	err := a.normalizeError(errors.New("context deadline exceeded"))
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.Timeout, re.Code)
}

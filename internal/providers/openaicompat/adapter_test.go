package openaicompat

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tributary-ai/llm-router/internal/errs"
	"github.com/tributary-ai/llm-router/internal/types"
)

func testAdapter(models []types.ModelDescriptor) *Adapter {
	a, err := New("openai", "", true, types.ProviderConfig{Name: "openai", APIKey: "test-key", Models: models}, logrus.New())
	if err != nil {
		panic(err)
	}
	return a
}

func TestNewRequiresAPIKeyWhenRequired(t *testing.T) {
	_, err := New("openai", "", true, types.ProviderConfig{Name: "openai"}, logrus.New())
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.AuthenticationFailed, re.Code)
}

func TestNewWithDefaultBaseURLKeepsGivenName(t *testing.T) {
	a, err := New("groq", "https://api.groq.com/openai/v1", true, types.ProviderConfig{Name: "groq", APIKey: "key"}, logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "groq", a.Name())
}

func TestConvertMessageRejectsImageWithoutVisionModel(t *testing.T) {
	a := testAdapter([]types.ModelDescriptor{{ID: "gpt", SupportsVision: false}})
	msg := types.Message{
		Role: types.RoleUser,
		Parts: []types.ContentPart{
			{Kind: types.PartImage, Image: &types.ImagePart{MediaType: types.ImageJPEG, Data: "zzz"}},
		},
	}
	_, err := a.convertMessage(msg)
	require.Error(t, err)
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.InvalidRequest, re.Code)
}

func TestConvertMessageBuildsDataURLForImages(t *testing.T) {
	a := testAdapter([]types.ModelDescriptor{{ID: "gpt", SupportsVision: true}})
	msg := types.Message{
		Role: types.RoleUser,
		Parts: []types.ContentPart{
			{Kind: types.PartImage, Image: &types.ImagePart{MediaType: types.ImageJPEG, Data: "zzz"}},
		},
	}
	out, err := a.convertMessage(msg)
	require.NoError(t, err)
	require.Len(t, out.MultiContent, 1)
	assert.Contains(t, out.MultiContent[0].ImageURL.URL, "data:image/jpeg;base64,zzz")
}

func TestModelIDForPrefersRequestThenDefault(t *testing.T) {
	models := []types.ModelDescriptor{{ID: "a"}, {ID: "b", IsDefault: true}}
	assert.Equal(t, "explicit", modelIDFor(&types.Request{Model: "explicit"}, models))
	assert.Equal(t, "b", modelIDFor(&types.Request{}, models))
}

func TestBuildRequestCarriesOptionalFields(t *testing.T) {
	a := testAdapter([]types.ModelDescriptor{{ID: "gpt-4o", IsDefault: true}})
	maxTok := 256
	temp := 0.7
	req := &types.Request{
		Messages:  []types.Message{{Role: types.RoleUser, Text: "hi"}},
		MaxTokens: &maxTok,
		Temperature: &temp,
	}
	out, err := a.buildRequest(req)
	require.NoError(t, err)
	assert.Equal(t, 256, out.MaxTokens)
	assert.InDelta(t, 0.7, out.Temperature, 1e-6)
}

func TestTranslateFinish(t *testing.T) {
	assert.Equal(t, types.FinishMaxTokens, translateFinish(openai.FinishReasonLength))
	assert.Equal(t, types.FinishStop, translateFinish(openai.FinishReasonStop))
}

func TestNormalizeErrorMapsAPIErrorStatus(t *testing.T) {
	a := testAdapter(nil)
	err := a.normalizeError(&openai.APIError{HTTPStatusCode: 429, Message: "rate limited"})
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.RateLimited, re.Code)
}

func TestNormalizeErrorMapsServerError(t *testing.T) {
	a := testAdapter(nil)
	err := a.normalizeError(&openai.APIError{HTTPStatusCode: 503, Message: "overloaded"})
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.ProviderUnavailable, re.Code)
}

func TestNormalizeErrorFallsBackToStringMatching(t *testing.T) {
	a := testAdapter(nil)
	err := a.normalizeError(errors.New("dial tcp: connection refused"))
	re, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, errs.NetworkError, re.Code)
}

func TestIsStreamEOF(t *testing.T) {
	assert.True(t, isStreamEOF(errors.New("EOF")))
	assert.True(t, isStreamEOF(errors.New("unexpected EOF")))
	assert.False(t, isStreamEOF(errors.New("connection reset")))
	assert.False(t, isStreamEOF(nil))
}

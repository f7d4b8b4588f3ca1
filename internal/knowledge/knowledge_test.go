package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results []SearchResult
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > maxResults {
		return f.results[:maxResults], nil
	}
	return f.results, nil
}

func TestSearchDegradesToUnsuccessfulOnTransportError(t *testing.T) {
	agent := New(&fakeSearcher{err: errors.New("network down")}, nil, "")
	resp := agent.Search(context.Background(), "golang concurrency", 5)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Results)
}

func TestSearchCapsResultsAtMaxResults(t *testing.T) {
	agent := New(&fakeSearcher{results: []SearchResult{
		{Title: "a"}, {Title: "b"}, {Title: "c"},
	}}, nil, "")
	resp := agent.Search(context.Background(), "q", 2)
	require.True(t, resp.Success)
	assert.Len(t, resp.Results, 2)
}

func TestDeriveQueriesRespectsCount(t *testing.T) {
	assert.Len(t, deriveQueries("what is go", 1), 1)
	assert.Len(t, deriveQueries("what is go", 2), 2)
	assert.Len(t, deriveQueries("what is go", 4), 4)
}

func TestQueryCountForMapsDepthToCount(t *testing.T) {
	assert.Equal(t, 1, queryCountFor(DepthQuick))
	assert.Equal(t, 2, queryCountFor(DepthMedium))
	assert.Equal(t, 4, queryCountFor(DepthDeep))
}

func TestParseResearchResponseExtractsJSON(t *testing.T) {
	result, err := parseResearchResponse(`Here you go: {"answer":"Go uses goroutines","insights":["cheap","scheduled by runtime"],"confidence":"high"} thanks`)
	require.NoError(t, err)
	assert.Equal(t, "Go uses goroutines", result.Answer)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	assert.Len(t, result.Insights, 2)
}

func TestParseResearchResponseNoJSONErrors(t *testing.T) {
	_, err := parseResearchResponse("no json here")
	assert.Error(t, err)
}

func TestDegradedResearchResultNoResults(t *testing.T) {
	result := degradedResearchResult("what is rust", []string{"what is rust"}, nil)
	assert.Equal(t, ConfidenceLow, result.Confidence)
	assert.Contains(t, result.Answer, "No search results")
}

func TestParseVerifyResponseExtractsVerdict(t *testing.T) {
	verdict, confidence, err := parseVerifyResponse(`{"verdict":"true","confidence":"medium"}`)
	require.NoError(t, err)
	assert.Equal(t, VerdictTrue, verdict)
	assert.Equal(t, ConfidenceMedium, confidence)
}

func TestParseVerifyResponseMissingVerdictErrors(t *testing.T) {
	_, _, err := parseVerifyResponse(`{"confidence":"medium"}`)
	assert.Error(t, err)
}

func TestVerifyDegradesToNeedsMoreInfoWhenSearchFails(t *testing.T) {
	agent := New(&fakeSearcher{err: errors.New("network down")}, nil, "")
	result := agent.Verify(context.Background(), "Go was released in 2009", "")
	assert.Equal(t, VerdictNeedsMoreInfo, result.Verdict)
	assert.Equal(t, ConfidenceLow, result.Confidence)
}

func TestIsPrivateOrReservedIPRejectsLoopbackAndPrivateRanges(t *testing.T) {
	extractor := NewContentExtractor(0)
	assert.Error(t, extractor.guardAgainstSSRF("http://127.0.0.1/"))
	assert.Error(t, extractor.guardAgainstSSRF("http://169.254.169.254/latest/meta-data"))
	assert.Error(t, extractor.guardAgainstSSRF("ftp://example.com/"))
}

func TestCollapseWhitespaceJoinsFields(t *testing.T) {
	assert.Equal(t, "a b c", collapseWhitespace("a \n  b\tc  "))
}

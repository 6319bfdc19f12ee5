package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchRequest_Normalize(t *testing.T) {
	req := &SearchRequest{Query: "  find the parser  "}
	req.Normalize()
	assert.Equal(t, "find the parser", req.Query)
	assert.Equal(t, DefaultTopK, req.TopK)

	req = &SearchRequest{Query: "q", TopK: 500}
	req.Normalize()
	assert.Equal(t, MaxTopK, req.TopK)

	req = &SearchRequest{Query: "q", TopK: -3}
	req.Normalize()
	assert.Equal(t, DefaultTopK, req.TopK)

	req = &SearchRequest{Query: "q", TopK: 25}
	req.Normalize()
	assert.Equal(t, 25, req.TopK)
}

func TestSearchRequest_Filters(t *testing.T) {
	req := &SearchRequest{
		Query:          "q",
		Languages:      []Language{LanguageGo},
		NodeTypes:      []NodeType{NodeTypeStruct},
		FilePathPrefix: "internal/",
	}

	f := req.Filters()
	assert.Equal(t, []Language{LanguageGo}, f.Languages)
	assert.Equal(t, []NodeType{NodeTypeStruct}, f.NodeTypes)
	assert.Equal(t, "internal/", f.FilePathPrefix)
}

func TestIndexResponse_DurationSeconds(t *testing.T) {
	resp := &IndexResponse{Duration: 1500000000}
	assert.InDelta(t, 1.5, resp.DurationSeconds(), 0.001)
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := assert.AnError
	err := NewDomainErrorWithCause(ErrCodeInternalError, "wrapped", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")
	assert.Contains(t, err.Error(), "wrapped")
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// NodeType classifies the syntax node a chunk was extracted from. The set is
// a superset across supported languages; parser node kinds with no mapping
// fall back to NodeTypeUnknown.
type NodeType string

const (
	NodeTypeClass         NodeType = "class"
	NodeTypeInterface     NodeType = "interface"
	NodeTypeStruct        NodeType = "struct"
	NodeTypeRecord        NodeType = "record"
	NodeTypeEnum          NodeType = "enum"
	NodeTypeMethod        NodeType = "method"
	NodeTypeConstructor   NodeType = "constructor"
	NodeTypeProperty      NodeType = "property"
	NodeTypeField         NodeType = "field"
	NodeTypeEvent         NodeType = "event"
	NodeTypeDelegate      NodeType = "delegate"
	NodeTypeNamespace     NodeType = "namespace"
	NodeTypeFunction      NodeType = "function"
	NodeTypeArrowFunction NodeType = "arrow_function"
	NodeTypeBlock         NodeType = "block"
	NodeTypeUnknown       NodeType = "unknown"
)

// Language identifies a supported source language.
type Language string

const (
	LanguageCSharp     Language = "csharp"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageGo         Language = "go"
)

// Languages lists every supported language.
func Languages() []Language {
	return []Language{
		LanguageCSharp,
		LanguageJavaScript,
		LanguageTypeScript,
		LanguagePython,
		LanguageGo,
	}
}

// ParseLanguage converts user input to a Language.
func ParseLanguage(s string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages() {
		if lang == known {
			return lang, nil
		}
	}
	return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown language: %s", s))
}

// ParseNodeType converts user input to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	nt := NodeType(strings.ToLower(strings.TrimSpace(s)))
	switch nt {
	case NodeTypeClass, NodeTypeInterface, NodeTypeStruct, NodeTypeRecord,
		NodeTypeEnum, NodeTypeMethod, NodeTypeConstructor, NodeTypeProperty,
		NodeTypeField, NodeTypeEvent, NodeTypeDelegate, NodeTypeNamespace,
		NodeTypeFunction, NodeTypeArrowFunction, NodeTypeBlock, NodeTypeUnknown:
		return nt, nil
	}
	return "", NewDomainError(ErrCodeValidation, fmt.Sprintf("unknown node type: %s", s))
}

// Chunk is the atomic indexed unit: a structurally-delimited piece of source
// code (class, method, function, ...) with its location and derived metrics.
//
// Identity is the pair (FilePath, FullyQualifiedName); it is unique within
// the index. ID is the store's own record handle and is never used as
// identity; upserts look records up by the identity key first.
type Chunk struct {
	ID                 string    `json:"id"`
	FilePath           string    `json:"file_path"`
	FullyQualifiedName string    `json:"fully_qualified_name"`
	NodeType           NodeType  `json:"node_type"`
	Language           Language  `json:"language"`
	Content            string    `json:"content,omitempty"`
	StartLine          int       `json:"start_line"` // 1-based, inclusive
	EndLine            int       `json:"end_line"`   // 1-based, inclusive
	Embedding          []float32 `json:"embedding,omitempty"`
	LastModified       time.Time `json:"last_modified"`
	TokenCount         int       `json:"token_count"`
	CharCount          int       `json:"char_count"`

	// SimilarityScore is populated on search results only, in [0, 1].
	SimilarityScore float32 `json:"similarity_score,omitempty"`
}

// IdentityKey returns the stable identity of the chunk across runs.
func (c *Chunk) IdentityKey() string {
	return c.FilePath + "::" + c.FullyQualifiedName
}

// ValidateChunk checks the structural invariants of a chunk.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.FilePath == "" {
		return fmt.Errorf("chunk FilePath is required")
	}
	if c.FullyQualifiedName == "" {
		return fmt.Errorf("chunk FullyQualifiedName is required")
	}
	if c.StartLine < 1 {
		return fmt.Errorf("chunk StartLine must be 1-based, got %d", c.StartLine)
	}
	if c.EndLine < c.StartLine {
		return fmt.Errorf("chunk EndLine %d precedes StartLine %d", c.EndLine, c.StartLine)
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("chunk Content cannot be empty")
	}
	return nil
}

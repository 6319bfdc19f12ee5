package chunker

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// identifierKinds are the node kinds accepted when falling back from the
// parser's named "name" field to a direct identifier-like child.
var identifierKinds = map[string]bool{
	"identifier":          true,
	"property_identifier": true,
	"field_identifier":    true,
	"type_identifier":     true,
	"method_identifier":   true,
	"package_identifier":  true,
}

// Extractor walks parse trees and emits structural chunks. It never touches
// the embedder, the store, or the filesystem: source text and tree in,
// chunks out.
type Extractor struct {
	registry *Registry
}

// NewExtractor creates an extractor backed by the given registry.
func NewExtractor(r *Registry) *Extractor {
	return &Extractor{registry: r}
}

// Extract parses src and returns one chunk per chunkable node. Nested nodes
// (a method inside a class) are extracted as independent chunks. An
// unavailable grammar or a failed parse yields zero chunks and no error.
func (e *Extractor) Extract(ctx context.Context, src []byte, lang domain.Language, filePath string) ([]domain.Chunk, error) {
	grammar := e.registry.Grammar(lang, filePath)
	if grammar == nil {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil || tree == nil {
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	kinds := e.registry.ChunkKinds(lang)
	namespace := namespacePrefix(root, src, lang)

	var chunks []domain.Chunk
	for _, node := range collectNodes(root, kinds) {
		if chunk, ok := e.buildChunk(node, src, lang, filePath, namespace); ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// collectNodes walks the tree pre-order with an explicit stack and returns
// every node whose kind is in the chunkable set.
func collectNodes(root *sitter.Node, kinds map[string]bool) []*sitter.Node {
	var found []*sitter.Node
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if kinds[node.Type()] {
			found = append(found, node)
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}
	return found
}

func (e *Extractor) buildChunk(node *sitter.Node, src []byte, lang domain.Language, filePath, namespace string) (domain.Chunk, bool) {
	content := node.Content(src)
	if strings.TrimSpace(content) == "" {
		// Parser artifact, not a real chunk.
		return domain.Chunk{}, false
	}

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	nodeType := MapNodeType(node.Type())
	name := nodeName(node, src)

	if lang == domain.LanguageGo && node.Type() == "type_declaration" {
		nodeType, name = classifyGoType(node, src)
	}

	fqn := name
	if namespace != "" && name != "" {
		fqn = namespace + "." + name
	}
	if fqn == "" {
		// Guarantee a non-empty identity for anonymous nodes.
		fqn = fmt.Sprintf("%s_%d", nodeType, startLine)
	}

	return domain.Chunk{
		FilePath:           filePath,
		FullyQualifiedName: fqn,
		NodeType:           nodeType,
		Language:           lang,
		Content:            content,
		StartLine:          startLine,
		EndLine:            endLine,
		CharCount:          len(content),
	}, true
}

// nodeName extracts a node's declared name: the grammar's "name" field when
// present, otherwise the first identifier-like direct child.
func nodeName(node *sitter.Node, src []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if identifierKinds[child.Type()] {
			return child.Content(src)
		}
	}
	return ""
}

// classifyGoType resolves a Go type_declaration to struct/interface and pulls
// the name from the inner type_spec.
func classifyGoType(node *sitter.Node, src []byte) (domain.NodeType, string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		spec := node.Child(i)
		if spec.Type() != "type_spec" {
			continue
		}
		name := ""
		if n := spec.ChildByFieldName("name"); n != nil {
			name = n.Content(src)
		}
		switch kind := spec.ChildByFieldName("type"); {
		case kind == nil:
			return domain.NodeTypeUnknown, name
		case kind.Type() == "struct_type":
			return domain.NodeTypeStruct, name
		case kind.Type() == "interface_type":
			return domain.NodeTypeInterface, name
		default:
			return domain.NodeTypeUnknown, name
		}
	}
	return domain.NodeTypeUnknown, ""
}

// namespacePrefix finds the enclosing namespace identifier for languages that
// declare one: the first namespace declaration for C#, the package clause for
// Go. Other languages have no per-file namespace prefix.
func namespacePrefix(root *sitter.Node, src []byte, lang domain.Language) string {
	switch lang {
	case domain.LanguageCSharp:
		kinds := map[string]bool{
			"namespace_declaration":             true,
			"file_scoped_namespace_declaration": true,
		}
		nodes := collectNodes(root, kinds)
		if len(nodes) == 0 {
			return ""
		}
		if name := nodes[0].ChildByFieldName("name"); name != nil {
			return name.Content(src)
		}
		return ""
	case domain.LanguageGo:
		for i := 0; i < int(root.ChildCount()); i++ {
			child := root.Child(i)
			if child.Type() != "package_clause" {
				continue
			}
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == "package_identifier" {
					return child.Child(j).Content(src)
				}
			}
		}
		return ""
	default:
		return ""
	}
}

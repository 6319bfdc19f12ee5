// Package chunker turns parsed source trees into structural code chunks.
package chunker

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// grammarEntry binds one file extension to a language and its grammar.
// TSX needs its own grammar even though it indexes as typescript.
type grammarEntry struct {
	language domain.Language
	grammar  *sitter.Language
}

// Registry maps file extensions to languages and grammars, and holds the
// per-language tables of chunkable node kinds.
type Registry struct {
	byExt      map[string]grammarEntry
	defaults   map[domain.Language]*sitter.Language
	chunkKinds map[domain.Language]map[string]bool
}

// NewRegistry builds a registry with every supported language registered.
func NewRegistry() *Registry {
	r := &Registry{
		byExt:      make(map[string]grammarEntry),
		defaults:   make(map[domain.Language]*sitter.Language),
		chunkKinds: make(map[domain.Language]map[string]bool),
	}

	r.register(domain.LanguageCSharp, csharp.GetLanguage(), []string{".cs"},
		[]string{
			"class_declaration",
			"interface_declaration",
			"struct_declaration",
			"record_declaration",
			"record_struct_declaration",
			"enum_declaration",
			"method_declaration",
			"constructor_declaration",
			"property_declaration",
			"field_declaration",
			"event_declaration",
			"delegate_declaration",
		})

	r.register(domain.LanguageJavaScript, javascript.GetLanguage(),
		[]string{".js", ".jsx", ".mjs", ".cjs"},
		[]string{
			"class_declaration",
			"function_declaration",
			"method_definition",
			"arrow_function",
			"generator_function_declaration",
		})

	r.register(domain.LanguageTypeScript, typescript.GetLanguage(), []string{".ts"},
		[]string{
			"class_declaration",
			"interface_declaration",
			"enum_declaration",
			"function_declaration",
			"method_definition",
			"arrow_function",
			"generator_function_declaration",
		})
	r.byExt[".tsx"] = grammarEntry{language: domain.LanguageTypeScript, grammar: tsx.GetLanguage()}

	r.register(domain.LanguagePython, python.GetLanguage(), []string{".py", ".pyi"},
		[]string{
			"class_definition",
			"function_definition",
			"async_function_definition",
		})

	r.register(domain.LanguageGo, golang.GetLanguage(), []string{".go"},
		[]string{
			"function_declaration",
			"method_declaration",
			"type_declaration",
		})

	return r
}

func (r *Registry) register(lang domain.Language, grammar *sitter.Language, exts, kinds []string) {
	r.defaults[lang] = grammar
	for _, ext := range exts {
		r.byExt[ext] = grammarEntry{language: lang, grammar: grammar}
	}
	kindSet := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}
	r.chunkKinds[lang] = kindSet
}

// DetectLanguage returns the language for a file path based on its extension.
func (r *Registry) DetectLanguage(path string) (domain.Language, bool) {
	entry, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", false
	}
	return entry.language, true
}

// Grammar returns the grammar to parse the given file with. The extension
// wins over the language default so .tsx files get the TSX grammar.
func (r *Registry) Grammar(lang domain.Language, path string) *sitter.Language {
	if entry, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok && entry.language == lang {
		return entry.grammar
	}
	return r.defaults[lang]
}

// ChunkKinds returns the set of chunkable parser node kinds for a language.
func (r *Registry) ChunkKinds(lang domain.Language) map[string]bool {
	return r.chunkKinds[lang]
}

// Extensions returns the extension-to-language map for the requested
// languages, or for all registered languages when langs is empty.
func (r *Registry) Extensions(langs ...domain.Language) map[string]domain.Language {
	want := make(map[domain.Language]bool, len(langs))
	for _, l := range langs {
		want[l] = true
	}
	out := make(map[string]domain.Language)
	for ext, entry := range r.byExt {
		if len(langs) == 0 || want[entry.language] {
			out[ext] = entry.language
		}
	}
	return out
}

// nodeTypeByKind maps parser node kinds onto the shared NodeType set.
var nodeTypeByKind = map[string]domain.NodeType{
	"class_declaration":                 domain.NodeTypeClass,
	"class_definition":                  domain.NodeTypeClass,
	"interface_declaration":             domain.NodeTypeInterface,
	"struct_declaration":                domain.NodeTypeStruct,
	"record_declaration":                domain.NodeTypeRecord,
	"record_struct_declaration":         domain.NodeTypeRecord,
	"enum_declaration":                  domain.NodeTypeEnum,
	"method_declaration":                domain.NodeTypeMethod,
	"method_definition":                 domain.NodeTypeMethod,
	"constructor_declaration":           domain.NodeTypeConstructor,
	"property_declaration":              domain.NodeTypeProperty,
	"field_declaration":                 domain.NodeTypeField,
	"event_declaration":                 domain.NodeTypeEvent,
	"delegate_declaration":              domain.NodeTypeDelegate,
	"namespace_declaration":             domain.NodeTypeNamespace,
	"function_declaration":              domain.NodeTypeFunction,
	"function_definition":               domain.NodeTypeFunction,
	"async_function_definition":         domain.NodeTypeFunction,
	"generator_function_declaration":    domain.NodeTypeFunction,
	"arrow_function":                    domain.NodeTypeArrowFunction,
	"file_scoped_namespace_declaration": domain.NodeTypeNamespace,
}

// MapNodeType classifies a parser node kind, falling back to unknown.
func MapNodeType(kind string) domain.NodeType {
	if nt, ok := nodeTypeByKind[kind]; ok {
		return nt
	}
	return domain.NodeTypeUnknown
}

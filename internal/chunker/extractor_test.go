package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/codelens/internal/domain"
)

func extract(t *testing.T, src string, lang domain.Language, path string) []domain.Chunk {
	t.Helper()
	e := NewExtractor(NewRegistry())
	chunks, err := e.Extract(context.Background(), []byte(src), lang, path)
	require.NoError(t, err)
	return chunks
}

func findChunk(chunks []domain.Chunk, fqn string) *domain.Chunk {
	for i := range chunks {
		if chunks[i].FullyQualifiedName == fqn {
			return &chunks[i]
		}
	}
	return nil
}

func TestExtract_Python(t *testing.T) {
	src := `class UserService:
    def get_user(self, user_id):
        return self.repo.get(user_id)

def helper():
    pass
`
	chunks := extract(t, src, domain.LanguagePython, "app/service.py")
	require.Len(t, chunks, 3)

	cls := findChunk(chunks, "UserService")
	require.NotNil(t, cls)
	assert.Equal(t, domain.NodeTypeClass, cls.NodeType)
	assert.Equal(t, 1, cls.StartLine)
	assert.Equal(t, 3, cls.EndLine)
	assert.Equal(t, domain.LanguagePython, cls.Language)
	assert.Equal(t, "app/service.py", cls.FilePath)
	assert.Contains(t, cls.Content, "class UserService")

	// Methods are extracted as independent chunks nested inside the class
	method := findChunk(chunks, "get_user")
	require.NotNil(t, method)
	assert.Equal(t, domain.NodeTypeFunction, method.NodeType)
	assert.Equal(t, 2, method.StartLine)

	fn := findChunk(chunks, "helper")
	require.NotNil(t, fn)
	assert.Equal(t, 5, fn.StartLine)
}

func TestExtract_CSharp_NamespaceQualifiesNames(t *testing.T) {
	src := `namespace Acme.Billing
{
    public class Invoice
    {
        public int Id { get; set; }

        public void Pay() { }
    }
}
`
	chunks := extract(t, src, domain.LanguageCSharp, "Billing/Invoice.cs")

	cls := findChunk(chunks, "Acme.Billing.Invoice")
	require.NotNil(t, cls)
	assert.Equal(t, domain.NodeTypeClass, cls.NodeType)

	prop := findChunk(chunks, "Acme.Billing.Id")
	require.NotNil(t, prop)
	assert.Equal(t, domain.NodeTypeProperty, prop.NodeType)

	method := findChunk(chunks, "Acme.Billing.Pay")
	require.NotNil(t, method)
	assert.Equal(t, domain.NodeTypeMethod, method.NodeType)
}

func TestExtract_CSharp_NoNamespace(t *testing.T) {
	src := `public class Standalone
{
    public void Run() { }
}
`
	chunks := extract(t, src, domain.LanguageCSharp, "Standalone.cs")

	cls := findChunk(chunks, "Standalone")
	require.NotNil(t, cls)
	assert.Equal(t, domain.NodeTypeClass, cls.NodeType)
}

func TestExtract_Go(t *testing.T) {
	src := `package mathx

type Adder interface {
	Add(a, b int) int
}

type Calc struct {
	total int
}

func (c *Calc) Add(a, b int) int {
	return a + b
}

func Sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}
`
	chunks := extract(t, src, domain.LanguageGo, "mathx/calc.go")

	iface := findChunk(chunks, "mathx.Adder")
	require.NotNil(t, iface)
	assert.Equal(t, domain.NodeTypeInterface, iface.NodeType)

	st := findChunk(chunks, "mathx.Calc")
	require.NotNil(t, st)
	assert.Equal(t, domain.NodeTypeStruct, st.NodeType)

	method := findChunk(chunks, "mathx.Add")
	require.NotNil(t, method)
	assert.Equal(t, domain.NodeTypeMethod, method.NodeType)

	fn := findChunk(chunks, "mathx.Sum")
	require.NotNil(t, fn)
	assert.Equal(t, domain.NodeTypeFunction, fn.NodeType)
	assert.Equal(t, 15, fn.StartLine)
	assert.Equal(t, 21, fn.EndLine)
}

func TestExtract_TypeScript(t *testing.T) {
	src := `interface Shape {
  area(): number;
}

class Circle implements Shape {
  area(): number {
    return 1;
  }
}

enum Color {
  Red,
}

function render(): void {}
`
	chunks := extract(t, src, domain.LanguageTypeScript, "src/shapes.ts")

	assert.NotNil(t, findChunk(chunks, "Shape"))
	assert.NotNil(t, findChunk(chunks, "Circle"))
	assert.NotNil(t, findChunk(chunks, "Color"))
	assert.NotNil(t, findChunk(chunks, "render"))

	area := findChunk(chunks, "area")
	require.NotNil(t, area)
	assert.Equal(t, domain.NodeTypeMethod, area.NodeType)
}

func TestExtract_AnonymousArrowFunctionGetsFallbackName(t *testing.T) {
	src := `const square = (x) => x * x;
`
	chunks := extract(t, src, domain.LanguageJavaScript, "src/util.js")
	require.Len(t, chunks, 1)

	assert.Equal(t, domain.NodeTypeArrowFunction, chunks[0].NodeType)
	assert.True(t, strings.HasPrefix(chunks[0].FullyQualifiedName, "arrow_function_"),
		"expected fallback name, got %q", chunks[0].FullyQualifiedName)
	assert.Equal(t, 1, chunks[0].StartLine)
}

func TestExtract_CharCountMatchesContent(t *testing.T) {
	src := `def tiny():
    pass
`
	chunks := extract(t, src, domain.LanguagePython, "tiny.py")
	require.Len(t, chunks, 1)
	assert.Equal(t, len(chunks[0].Content), chunks[0].CharCount)
}

func TestExtract_UnknownLanguageYieldsNothing(t *testing.T) {
	e := NewExtractor(NewRegistry())
	chunks, err := e.Extract(context.Background(), []byte("hello"), domain.Language("cobol"), "x.cbl")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestExtract_EmptySource(t *testing.T) {
	chunks := extract(t, "", domain.LanguagePython, "empty.py")
	assert.Empty(t, chunks)
}

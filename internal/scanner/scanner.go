package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// suiteEmbed marks the testify base type; embedding it qualifies a struct as
// a suite even before it has any test methods.
const suiteEmbed = "suite.Suite"

// Scanner walks a source tree and builds the metadata index that backs the
// element.Provider contract. Only _test.go files are parsed: that is where
// suites and their methods live.
type Scanner struct {
	parser  *sitter.Parser
	query   *sitter.Query
	ignored []string
}

// structDecl is a struct type as it appears in one file: its name and the
// type names of its embedded fields.
type structDecl struct {
	name     string
	embedded []string
	file     string
	order    int
}

// methodDecl is a method declaration keyed by its receiver's base type.
type methodDecl struct {
	receiver string
	name     string
	order    int
}

// fileFacts is everything the scanner pulls out of a single parsed file.
type fileFacts struct {
	path    string
	pkg     string
	structs []structDecl
	methods []methodDecl
}

// NewScanner creates a scanner for Go sources. Directories whose name is in
// ignored are skipped during the walk; with none given, a default set of
// tool and dependency directories is used.
func NewScanner(ignored ...string) (*Scanner, error) {
	lang := golang.GetLanguage()
	query, err := sitter.NewQuery([]byte(`
		(package_clause (package_identifier) @pkg)
		(type_spec name: (type_identifier) type: (struct_type)) @struct
		(method_declaration) @method
	`), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	if len(ignored) == 0 {
		ignored = []string{".git", "vendor", "node_modules", "testdata"}
	}

	return &Scanner{
		parser:  parser,
		query:   query,
		ignored: ignored,
	}, nil
}

// Scan walks root, parses every test file, and returns the finished index.
func (s *Scanner) Scan(root string) (*Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	idx := newIndex(absRoot)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range s.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		facts, err := s.parseFile(path)
		if err != nil {
			// Skip unparseable files instead of failing the whole scan.
			return nil
		}

		idx.addFile(facts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	idx.classify()
	return idx, nil
}

// parseFile extracts package, struct and method facts from one test file.
func (s *Scanner) parseFile(path string) (*fileFacts, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	tree, err := s.parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	facts := &fileFacts{path: path}
	order := 0

	qc := sitter.NewQueryCursor()
	qc.Exec(s.query, tree.RootNode())
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			switch s.query.CaptureNameForId(c.Index) {
			case "pkg":
				facts.pkg = c.Node.Content(sourceCode)
			case "struct":
				if decl, ok := extractStruct(c.Node, sourceCode); ok {
					decl.file = path
					decl.order = order
					order++
					facts.structs = append(facts.structs, decl)
				}
			case "method":
				if decl, ok := extractMethod(c.Node, sourceCode); ok {
					decl.order = order
					order++
					facts.methods = append(facts.methods, decl)
				}
			}
		}
	}

	return facts, nil
}

// extractStruct reads a struct type_spec: its name plus the type names of
// embedded fields (field declarations without their own identifiers).
func extractStruct(node *sitter.Node, sourceCode []byte) (structDecl, bool) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return structDecl{}, false
	}

	decl := structDecl{name: nameNode.Content(sourceCode)}

	var fieldList *sitter.Node
	for i := 0; i < int(typeNode.ChildCount()); i++ {
		child := typeNode.Child(i)
		if child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return decl, true
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}

		named := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			if fieldDecl.NamedChild(j).Type() == "field_identifier" {
				named = true
				break
			}
		}
		if named {
			continue
		}

		typeField := fieldDecl.ChildByFieldName("type")
		if typeField == nil {
			continue
		}
		embedded := strings.TrimPrefix(typeField.Content(sourceCode), "*")
		decl.embedded = append(decl.embedded, embedded)
	}

	return decl, true
}

// extractMethod reads a method declaration: its name and the base type of
// its receiver.
func extractMethod(node *sitter.Node, sourceCode []byte) (methodDecl, bool) {
	nameNode := node.ChildByFieldName("name")
	recvNode := node.ChildByFieldName("receiver")
	if nameNode == nil || recvNode == nil {
		return methodDecl{}, false
	}

	var receiver string
	for i := 0; i < int(recvNode.NamedChildCount()); i++ {
		param := recvNode.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeField := param.ChildByFieldName("type")
		if typeField == nil {
			continue
		}
		receiver = strings.TrimPrefix(typeField.Content(sourceCode), "*")
		break
	}
	if receiver == "" {
		return methodDecl{}, false
	}

	return methodDecl{receiver: receiver, name: nameNode.Content(sourceCode)}, true
}

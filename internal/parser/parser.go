// Package parser extracts import and export records from a single
// TypeScript or JavaScript source file using tree-sitter. Each parse is
// independent: no file references any other, and specifier-to-file
// resolution is deferred to the graph builder.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultExtensions is the extension allow-list used when the caller does
// not supply one.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

// languageFor selects a tree-sitter grammar by file extension.
func languageFor(path string) (*sitter.Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return tsx.GetLanguage(), true
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage(), true
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage(), true
	}
	return nil, false
}

// Parser parses TS/JS sources. Each ParseFile call creates its own
// tree-sitter parser, so a single Parser is safe for concurrent use.
type Parser struct{}

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

// ParseFile parses one source file and returns its import and export
// records. An unsupported extension or a tree-sitter failure is an error;
// the caller excludes the file from the graph and continues.
func (p *Parser) ParseFile(ctx context.Context, path string, content []byte) (*FileResult, error) {
	lang, ok := languageFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported extension: %s", path)
	}

	tsParser := sitter.NewParser()
	defer tsParser.Close()
	tsParser.SetLanguage(lang)

	tree, err := tsParser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned no root node")
	}

	ext := &extractor{src: content, result: &FileResult{Path: path}, bindings: map[string]bool{}}
	ext.walkTopLevel(root)
	ext.walkCalls(root)
	return ext.result, nil
}

// extractor accumulates records for one file. bindings tracks local names
// bound by import statements, used for re-export detection.
type extractor struct {
	src      []byte
	result   *FileResult
	bindings map[string]bool
}

func (e *extractor) text(n *sitter.Node) string {
	return string(e.src[n.StartByte():n.EndByte()])
}

func pos(n *sitter.Node) Position {
	return Position{Line: int(n.StartPoint().Row), Col: int(n.StartPoint().Column)}
}

// walkTopLevel visits the program's direct children: static imports and
// every export form. Nested structures are only visited by walkCalls.
func (e *extractor) walkTopLevel(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			e.importStatement(child)
		case "export_statement":
			e.exportStatement(child)
		}
	}
}

// newImport classifies a specifier as internal or external and normalizes
// scoped package names so usage is tracked per package, not per subpath.
func newImport(specifier string, at Position) ImportRecord {
	rec := ImportRecord{Specifier: specifier, Pos: at}
	if strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/") {
		rec.Internal = true
		return rec
	}
	rec.Package = PackageName(specifier)
	return rec
}

// PackageName reduces an external specifier to its package name:
// "@scope/pkg/sub" -> "@scope/pkg", "lodash/fp" -> "lodash".
func PackageName(specifier string) string {
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// importStatement handles a static import declaration.
func (e *extractor) importStatement(node *sitter.Node) {
	var specifier string
	var names []string
	typeOnly := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type":
			typeOnly = true
		case "import_clause":
			names = e.importClause(child)
		case "string":
			specifier = e.stringContent(child)
		}
	}
	if specifier == "" {
		return
	}

	rec := newImport(specifier, pos(node))
	rec.Names = names
	rec.TypeOnly = typeOnly
	e.result.Imports = append(e.result.Imports, rec)
}

// importClause returns the identifier names pulled from the target and
// registers the local bindings they introduce.
func (e *extractor) importClause(node *sitter.Node) []string {
	var names []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			// Default import: the pulled name is the target's default.
			names = append(names, DefaultName)
			e.bindings[e.text(child)] = true
		case "namespace_import":
			names = append(names, NamespaceAll)
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); gc.Type() == "identifier" {
					e.bindings[e.text(gc)] = true
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() != "import_specifier" {
					continue
				}
				name, alias := e.specifierNames(gc)
				if name == "" {
					continue
				}
				names = append(names, name)
				if alias != "" {
					e.bindings[alias] = true
				} else {
					e.bindings[name] = true
				}
			}
		}
	}
	return names
}

// specifierNames returns (exported name, local alias) for an
// import_specifier or export_specifier node. alias is empty without "as".
func (e *extractor) specifierNames(node *sitter.Node) (string, string) {
	var name, alias string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" || child.Type() == "property_identifier" {
			if name == "" {
				name = e.text(child)
			} else {
				alias = e.text(child)
			}
		}
	}
	return name, alias
}

// exportStatement handles every export form: declarations, default exports,
// brace lists, and re-exports with a source module.
func (e *extractor) exportStatement(node *sitter.Node) {
	var source string
	var clause *sitter.Node
	var nsExport *sitter.Node
	starExport := false
	isDefault := false
	typeOnly := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "default":
			isDefault = true
		case "type":
			typeOnly = true
		case "*":
			starExport = true
		case "export_clause":
			clause = child
		case "namespace_export":
			nsExport = child
		case "string":
			source = e.stringContent(child)
		}
	}

	if source != "" {
		e.reExportFrom(node, source, clause, nsExport, starExport, typeOnly)
		return
	}

	if clause != nil {
		// Local brace export: export { A, B as C }. Re-export when the name
		// was bound by an import in this file.
		for i := 0; i < int(clause.ChildCount()); i++ {
			spec := clause.Child(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			name, alias := e.specifierNames(spec)
			if name == "" {
				continue
			}
			exported := name
			if alias != "" {
				exported = alias
			}
			e.result.Exports = append(e.result.Exports, ExportRecord{
				Name:     exported,
				Kind:     KindUnknown,
				ReExport: e.bindings[name],
				Pos:      pos(spec),
			})
		}
		return
	}

	doc := e.docSummary(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_declaration", "generator_function_declaration":
			e.functionExport(child, isDefault, doc)
		case "class_declaration", "abstract_class_declaration":
			e.classExport(child, isDefault, doc)
		case "interface_declaration":
			e.namedTypeExport(child, KindInterface, "interface", doc)
		case "type_alias_declaration":
			e.namedTypeExport(child, KindType, "type", doc)
		case "enum_declaration":
			e.enumExport(child, doc)
		case "lexical_declaration", "variable_declaration":
			e.variableExports(child, doc)
		case "identifier":
			// export default someIdentifier;
			if isDefault {
				name := e.text(child)
				e.result.Exports = append(e.result.Exports, ExportRecord{
					Name:     name,
					Kind:     KindDefault,
					Default:  true,
					ReExport: e.bindings[name],
					Doc:      doc,
					Pos:      pos(child),
				})
			}
		default:
			// export default <expression>: an anonymous default export.
			if isDefault && child.IsNamed() && child.Type() != "comment" {
				e.result.Exports = append(e.result.Exports, ExportRecord{
					Name:    DefaultName,
					Kind:    KindDefault,
					Default: true,
					Doc:     doc,
					Pos:     pos(child),
				})
			}
		}
	}
}

// reExportFrom handles export ... from "module": records the import edge and
// the re-exported names.
func (e *extractor) reExportFrom(node *sitter.Node, source string, clause, nsExport *sitter.Node, star, typeOnly bool) {
	rec := newImport(source, pos(node))
	rec.TypeOnly = typeOnly

	switch {
	case clause != nil:
		for i := 0; i < int(clause.ChildCount()); i++ {
			spec := clause.Child(i)
			if spec.Type() != "export_specifier" {
				continue
			}
			name, alias := e.specifierNames(spec)
			if name == "" {
				continue
			}
			rec.Names = append(rec.Names, name)
			exported := name
			if alias != "" {
				exported = alias
			}
			e.result.Exports = append(e.result.Exports, ExportRecord{
				Name:     exported,
				Kind:     KindUnknown,
				Default:  exported == DefaultName,
				ReExport: true,
				Pos:      pos(spec),
			})
		}
	case nsExport != nil:
		// export * as ns from "module"
		rec.Names = append(rec.Names, NamespaceAll)
		for i := 0; i < int(nsExport.ChildCount()); i++ {
			if gc := nsExport.Child(i); gc.Type() == "identifier" {
				e.result.Exports = append(e.result.Exports, ExportRecord{
					Name:     e.text(gc),
					Kind:     KindUnknown,
					ReExport: true,
					Pos:      pos(gc),
				})
			}
		}
	case star:
		// export * from "module": names are unknowable without the target's
		// export table, so only the edge is recorded.
		rec.Names = append(rec.Names, NamespaceAll)
	}

	e.result.Imports = append(e.result.Imports, rec)
}

func (e *extractor) functionExport(node *sitter.Node, isDefault bool, doc string) {
	var name, params, ret string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = e.text(child)
		case "formal_parameters":
			params = e.text(child)
		case "type_annotation":
			ret = e.typeAnnotation(child)
		}
	}
	if name == "" {
		if !isDefault {
			return
		}
		name = DefaultName
	}
	sig := "function " + name + params
	if ret != "" {
		sig += ": " + ret
	}
	kind := KindFunction
	if isDefault {
		kind = KindDefault
	}
	e.result.Exports = append(e.result.Exports, ExportRecord{
		Name: name, Kind: kind, Default: isDefault,
		Doc: doc, Signature: sig, Pos: pos(node),
	})
}

func (e *extractor) classExport(node *sitter.Node, isDefault bool, doc string) {
	var name string
	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier", "identifier":
			if name == "" {
				name = e.text(child)
			}
		case "class_body":
			body = child
		}
	}
	if name == "" {
		if !isDefault {
			return
		}
		name = DefaultName
	}
	kind := KindClass
	if isDefault {
		kind = KindDefault
	}
	rec := ExportRecord{
		Name: name, Kind: kind, Default: isDefault,
		Doc: doc, Signature: "class " + name, Pos: pos(node),
	}
	if body != nil {
		rec.Members = e.classMembers(body)
	}
	e.result.Exports = append(e.result.Exports, rec)
}

// classMembers collects methods and fields with visibility and static flags.
func (e *extractor) classMembers(body *sitter.Node) []Member {
	var members []Member
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		var kind string
		switch child.Type() {
		case "method_definition":
			kind = "method"
		case "public_field_definition", "field_definition":
			kind = "field"
		default:
			continue
		}
		m := Member{Kind: kind, Visibility: "public"}
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "accessibility_modifier":
				m.Visibility = e.text(gc)
			case "static":
				m.Static = true
			case "property_identifier":
				m.Name = e.text(gc)
			}
		}
		if m.Name != "" {
			members = append(members, m)
		}
	}
	return members
}

func (e *extractor) namedTypeExport(node *sitter.Node, kind ExportKind, keyword, doc string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "type_identifier" || child.Type() == "identifier" {
			name := e.text(child)
			e.result.Exports = append(e.result.Exports, ExportRecord{
				Name: name, Kind: kind,
				Doc: doc, Signature: keyword + " " + name, Pos: pos(node),
			})
			return
		}
	}
}

// enumExport records the enum and its members; members behave as constant
// exports of the parent name.
func (e *extractor) enumExport(node *sitter.Node, doc string) {
	var name string
	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = e.text(child)
		case "enum_body":
			body = child
		}
	}
	if name == "" {
		return
	}
	rec := ExportRecord{
		Name: name, Kind: KindEnum,
		Doc: doc, Signature: "enum " + name, Pos: pos(node),
	}
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			child := body.Child(i)
			switch child.Type() {
			case "enum_assignment":
				for j := 0; j < int(child.ChildCount()); j++ {
					if gc := child.Child(j); gc.Type() == "property_identifier" {
						rec.Members = append(rec.Members, Member{Name: e.text(gc), Kind: "enumMember"})
					}
				}
			case "property_identifier":
				rec.Members = append(rec.Members, Member{Name: e.text(child), Kind: "enumMember"})
			}
		}
	}
	e.result.Exports = append(e.result.Exports, rec)
}

// variableExports handles export const/let/var, one record per declarator.
func (e *extractor) variableExports(node *sitter.Node, doc string) {
	declKind := KindVariable
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "const":
			declKind = KindConst
		case "variable_declarator":
			var name, typeStr string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier":
					if name == "" {
						name = e.text(gc)
					}
				case "type_annotation":
					typeStr = e.typeAnnotation(gc)
				}
			}
			if name == "" {
				continue
			}
			sig := string(declKind) + " " + name
			if typeStr != "" {
				sig += ": " + typeStr
			}
			e.result.Exports = append(e.result.Exports, ExportRecord{
				Name: name, Kind: declKind,
				Doc: doc, Signature: sig, Pos: pos(child),
			})
		}
	}
}

// walkCalls scans the whole tree for dynamic import("...") and require("...")
// calls with literal string arguments. Static declarations at the top level
// are already handled, so only call expressions matter here.
func (e *extractor) walkCalls(node *sitter.Node) {
	if node.Type() == "call_expression" {
		e.callExpression(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		e.walkCalls(node.Child(i))
	}
}

func (e *extractor) callExpression(node *sitter.Node) {
	fn := node.Child(0)
	if fn == nil {
		return
	}
	isImport := fn.Type() == "import"
	isRequire := (fn.Type() == "identifier") && e.text(fn) == "require"
	if !isImport && !isRequire {
		return
	}

	specifier := ""
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "arguments" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			if arg := child.Child(j); arg.Type() == "string" {
				specifier = e.stringContent(arg)
				break
			}
		}
	}
	if specifier == "" {
		return // non-literal argument, nothing static to record
	}

	rec := newImport(specifier, pos(node))
	rec.Dynamic = isImport
	rec.Names = e.callBindingNames(node)
	e.result.Imports = append(e.result.Imports, rec)
}

// callBindingNames inspects the declarator binding a require/import() call:
// an identifier binding reaches the whole module, an object pattern pulls
// the destructured names.
func (e *extractor) callBindingNames(call *sitter.Node) []string {
	parent := call.Parent()
	for parent != nil && parent.Type() == "await_expression" {
		parent = parent.Parent()
	}
	if parent == nil || parent.Type() != "variable_declarator" {
		return nil
	}
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		switch child.Type() {
		case "identifier":
			e.bindings[e.text(child)] = true
			return []string{NamespaceAll}
		case "object_pattern":
			var names []string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				if gc.Type() == "shorthand_property_identifier_pattern" {
					name := e.text(gc)
					names = append(names, name)
					e.bindings[name] = true
				}
			}
			return names
		}
	}
	return nil
}

func (e *extractor) typeAnnotation(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() != ":" {
			return e.text(child)
		}
	}
	return ""
}

// stringContent returns a string literal's text without quotes.
func (e *extractor) stringContent(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == "string_fragment" {
			return e.text(child)
		}
	}
	return strings.Trim(e.text(node), `"'`)
}

// docSummary returns the first text line of a JSDoc comment immediately
// preceding an export statement.
func (e *extractor) docSummary(node *sitter.Node) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	comment := e.text(prev)
	if !strings.HasPrefix(comment, "/**") {
		return ""
	}
	comment = strings.TrimSuffix(strings.TrimPrefix(comment, "/**"), "*/")
	for _, line := range strings.Split(comment, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*"))
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "@") {
			return line
		}
	}
	return ""
}

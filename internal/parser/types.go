package parser

// Position is a 0-based source location, matching tree-sitter's row/column
// convention.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Sentinel identifier names used in ImportRecord.Names.
const (
	// NamespaceAll marks a namespace import (import * as ns), which
	// statically reaches every export of the target.
	NamespaceAll = "*"

	// DefaultName marks a default import (import foo from "x").
	DefaultName = "default"
)

// ImportRecord is one import mechanism occurrence in a single file: a static
// import declaration, a dynamic import("...") call, or a require("...") call.
// Resolution of internal specifiers to files is deferred to the graph
// builder; ResolvedPath stays empty until then.
type ImportRecord struct {
	// Specifier is the module text exactly as written.
	Specifier string `json:"specifier"`

	// Internal is true when the specifier starts with "." or "/".
	Internal bool `json:"internal"`

	// Package is the normalized external package name
	// ("@scope/pkg/sub" -> "@scope/pkg"). Empty for internal imports.
	Package string `json:"package,omitempty"`

	// ResolvedPath is the absolute path of the target file, filled in by the
	// graph builder for internal imports that resolve.
	ResolvedPath string `json:"resolvedPath,omitempty"`

	// Names lists the identifiers pulled from the target, including the
	// NamespaceAll and DefaultName sentinels.
	Names []string `json:"names,omitempty"`

	TypeOnly bool     `json:"typeOnly,omitempty"`
	Dynamic  bool     `json:"dynamic,omitempty"`
	Pos      Position `json:"pos"`
}

// ExportKind is the symbol-kind taxonomy for exported declarations.
type ExportKind string

const (
	KindFunction  ExportKind = "function"
	KindClass     ExportKind = "class"
	KindInterface ExportKind = "interface"
	KindType      ExportKind = "type"
	KindEnum      ExportKind = "enum"
	KindConst     ExportKind = "const"
	KindVariable  ExportKind = "variable"
	KindDefault   ExportKind = "default"
	KindUnknown   ExportKind = "unknown"
)

// Member is one class or enum member on an exported declaration.
type Member struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"` // method, field, enumMember
	Visibility string `json:"visibility,omitempty"`
	Static     bool   `json:"static,omitempty"`
}

// ExportRecord is one externally visible symbol of a single file.
type ExportRecord struct {
	Name string     `json:"name"`
	Kind ExportKind `json:"kind"`

	// Default is true for the file's default export.
	Default bool `json:"default,omitempty"`

	// ReExport is true when the exported identifier is itself imported into
	// this file (export { X } from "./y", or import-then-export).
	ReExport bool `json:"reExport,omitempty"`

	Members   []Member `json:"members,omitempty"`
	Doc       string   `json:"doc,omitempty"`
	Signature string   `json:"signature,omitempty"`
	Pos       Position `json:"pos"`
}

// FileResult is the complete single-file parse output. It references no
// other file: cross-file resolution belongs to the graph builder.
type FileResult struct {
	Path    string
	Imports []ImportRecord
	Exports []ExportRecord
}

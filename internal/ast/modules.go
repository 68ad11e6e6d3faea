package ast

// ImportSpecifier covers the three import-clause shapes:
//
//	import Default from "m"             -> Default != nil
//	import * as ns from "m"             -> Namespace != nil
//	import { a, b as c } from "m"       -> Named, each {Imported, Local}
type ImportSpecifier struct {
	Imported string // source-side name; "" for default/namespace
	Local    string // binding name introduced locally
}

type ImportDeclaration struct {
	Base
	Default   string // local name for default import, "" if none
	Namespace string // local name for `* as ns`, "" if none
	Named     []ImportSpecifier
	Source    string
}

func (*ImportDeclaration) stmtNode() {}

// ExportNamedDeclaration covers:
//
//	export const x = 1
//	export function f(){}
//	export { a, b as c }
//	export { a, b as c } from "m"
type ExportNamedDeclaration struct {
	Base
	Declaration Statement // non-nil for `export <decl>`, nil for `export { ... }`
	Specifiers  []ExportSpecifier
	Source      string // "" unless this is a re-export `from "m"`
}

func (*ExportNamedDeclaration) stmtNode() {}

type ExportSpecifier struct {
	Local    string
	Exported string
}

type ExportDefaultDeclaration struct {
	Base
	Declaration Node // Expression, *FunctionDeclaration, or *ClassDeclaration
}

func (*ExportDefaultDeclaration) stmtNode() {}

// ExportAllDeclaration covers `export * from "m"` (Exported == "") and
// `export * as ns from "m"` (Exported == "ns").
type ExportAllDeclaration struct {
	Base
	Exported string
	Source   string
}

func (*ExportAllDeclaration) stmtNode() {}

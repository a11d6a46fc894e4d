// Package scanner implements the recognized source grammars for store
// navigation.
//
// Three grammars are recognized, all as single-line pattern matches over raw
// text:
//
//	export (const|let|var) <identifier> =     store declaration
//	import { a, b as c, ... } from "<spec>"   named import
//	this.<identifier>                         property access
//
// The scanner is intentionally not a parser. It can false-match inside
// string literals and comments; that is a documented, accepted limitation of
// the contract, and downstream false-positive suppression (a property access
// only counts when a verified store import of the same name exists in the
// file) keeps results usable. Reimplementations must preserve these exact
// grammars rather than silently broadening to full-language parsing.
//
// All spans are reported as 1-based line/column positions counting bytes.
package scanner

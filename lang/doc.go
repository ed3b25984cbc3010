// Package lang compiles and renders leaf templates.
//
// A template is literal text interleaved with tags. Compilation runs in
// three stages, each usable on its own:
//
//   - [Lex] splits source into raw text spans, tag openers, and the tokens
//     of each parenthesized parameter list.
//   - [Parse] flattens the tokens into an [AST]: an arena of [Syntax]
//     instructions grouped into scope tables addressed by index.
//   - [AST.Inline] and [AST.InlineRaw] link other templates and raw content
//     into an AST, discharging its outstanding dependencies.
//
// A resolved AST is rendered by a [Serializer] against a context of [Data]
// values. Resolved ASTs are never modified while rendering and may be
// shared across goroutines.
//
// # Syntax
//
// Informal EBNF:
//
//	Template    → (Raw | Tag)*
//	Tag         → '#' Name? Params? ':'?
//	Params      → '(' (Param (',' Param)*)? ')'
//	Param       → (Label ':')? Expression
//	Expression  → Identifier '=' Ternary | Ternary
//	Ternary     → Binary ('?' Ternary ':' Ternary)?
//	Binary      → Unary (BinaryOp Unary)*
//	Unary       → ('!' | '-') Unary | Postfix
//	Postfix     → Primary ('.' Identifier Args? | '[' Ternary ']')*
//	Primary     → Literal | Identifier Args? | '$' Identifier | '(' Ternary ')'
//	            | '[' ']' | '[' ':' ']' | '[' Ternary (',' Ternary)* ']'
//	            | '[' Ternary ':' Ternary (',' Ternary ':' Ternary)* ']'
//
// Binary operators bind, loosest first: ??, ||, &&, == !=, < <= > >=,
// + -, and * / %.
//
// Inside a parameter list, '#' opens a comment that runs to the next '#'.
// Outside of tags, "\#" writes a literal '#'.
//
// # Tags
//
//	#(expr)                        interpolate
//	#name(args)                    interpolate a function call
//	#if(c): … #elseif(c): … #else: … #endif
//	#for(v in xs): … #endfor       also _ and (k, v) bindings
//	#while(c): … #endwhile
//	#repeat(while: c): … #endrepeat
//	#define(name): … #enddefine   or #define(name, value)
//	#evaluate(name)                or #evaluate(name ?? fallback)
//	#export(name): … #endexport   or #export(name, value)
//	#import(name)                  or #import(name): default #endimport
//	#extend("base")
//	#inline("file", as: raw)       as: leaf is the default
//
// # Example
//
//	#export(title, "Welcome")
//	#extend("base")
//
// where base holds:
//
//	<h1>#import(title)</h1>
//	#for((i, name) in names):#(i): #(name.uppercased())
//	#endfor
package lang

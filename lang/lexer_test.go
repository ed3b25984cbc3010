package lang

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"
)

// kinds returns the kinds of toks with whitespace removed.
func kinds(toks []Token) []TokenKind {
	var out []TokenKind

	for _, tok := range toks {
		if tok.Kind != TokenWhitespace {
			out = append(out, tok.Kind)
		}
	}

	return out
}

func TestLex_Tokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenKind
	}{
		{
			name:  "raw only",
			input: "hello, world",
			want:  []TokenKind{TokenRaw},
		},
		{
			name:  "anonymous tag",
			input: "a #(x) b",
			want: []TokenKind{
				TokenRaw, TokenTag, TokenLParen, TokenIdent, TokenRParen, TokenRaw,
			},
		},
		{
			name:  "block tag",
			input: "#if(a == 1):yes#endif",
			want: []TokenKind{
				TokenTag, TokenLParen, TokenIdent, TokenOperator, TokenInt,
				TokenRParen, TokenRaw, TokenTag,
			},
		},
		{
			name:  "escaped hash",
			input: `\#notatag`,
			want:  []TokenKind{TokenRaw},
		},
		{
			name:  "lone hash",
			input: "# 1",
			want:  []TokenKind{TokenRaw},
		},
		{
			name:  "hash before multibyte rune",
			input: "Price #— ten",
			want:  []TokenKind{TokenRaw},
		},
		{
			name:  "multibyte tag name",
			input: "#été",
			want:  []TokenKind{TokenTag},
		},
		{
			name:  "literals",
			input: `#(["a": true, "b": nil, "c": 1.5])`,
			want: []TokenKind{
				TokenTag, TokenLParen, TokenLBracket,
				TokenString, TokenColon, TokenBool, TokenComma,
				TokenString, TokenColon, TokenNil, TokenComma,
				TokenString, TokenColon, TokenFloat,
				TokenRBracket, TokenRParen,
			},
		},
		{
			name:  "external scope",
			input: "#($context.name)",
			want: []TokenKind{
				TokenTag, TokenLParen, TokenScope, TokenOperator, TokenIdent,
				TokenRParen,
			},
		},
		{
			name:  "comment inside params",
			input: "#(a # the left side # + b)",
			want: []TokenKind{
				TokenTag, TokenLParen, TokenIdent, TokenOperator, TokenIdent,
				TokenRParen,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(context.Background(), "test", tt.input)
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}

			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLex_BlockColon(t *testing.T) {
	tests := []struct {
		name  string
		input string
		block bool
		raw   string
	}{
		{name: "if opens block", input: "#if(x):", block: true},
		{name: "else opens block", input: "#else:", block: true},
		{name: "expression keeps colon", input: "#(index): x", raw: ": x"},
		{name: "function keeps colon", input: "#count(x):", raw: ":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(context.Background(), "test", tt.input)
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}

			if toks[0].Kind != TokenTag {
				t.Fatalf("first token is %s, want tag", toks[0].Kind)
			}

			if toks[0].Block != tt.block {
				t.Errorf("Block = %v, want %v", toks[0].Block, tt.block)
			}

			last := toks[len(toks)-1]
			if tt.raw != "" && (last.Kind != TokenRaw || last.Text != tt.raw) {
				t.Errorf("last token = %s, want raw(%q)", last, tt.raw)
			}
		})
	}
}

func TestLex_RawHash(t *testing.T) {
	tests := []string{
		"Price #— ten",
		"#€5",
		"a #\u00a0b",
		"trailing #",
		"#",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			toks, err := Lex(context.Background(), "test", input)
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}

			if len(toks) != 1 || toks[0].Kind != TokenRaw || toks[0].Text != input {
				t.Errorf("got %v, want raw(%q)", toks, input)
			}
		})
	}
}

func TestLex_WhitespaceInParams(t *testing.T) {
	toks, err := Lex(context.Background(), "test", "a  #if( x == 1 ):  b\n#endif")
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}

	depth := 0

	for _, tok := range toks {
		switch tok.Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
		case TokenWhitespace:
			if depth == 0 {
				t.Errorf("whitespace %s outside a parameter list", tok)
			}
		}
	}

	var raw []string

	for _, tok := range toks {
		if tok.Kind == TokenRaw {
			raw = append(raw, tok.Text)
		}
	}

	if want := []string{"a  ", "  b\n"}; !slices.Equal(raw, want) {
		t.Errorf("raw = %q, want %q", raw, want)
	}
}

func TestLex_Numbers(t *testing.T) {
	tests := []struct {
		input   string
		isFloat bool
		i       int64
		f       float64
	}{
		{input: "42", i: 42},
		{input: "0b0101010", i: 42},
		{input: "0o052", i: 42},
		{input: "0x02A", i: 42},
		{input: "0_042", i: 42},
		{input: "1_000_000", i: 1000000},
		{input: "0_042.0", isFloat: true, f: 42},
		{input: "0x02A.0", isFloat: true, f: 42},
		{input: "0x1.8", isFloat: true, f: 1.5},
		{input: "0b1.1", isFloat: true, f: 1.5},
		{input: "3.25", isFloat: true, f: 3.25},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Lex(context.Background(), "test", "#("+tt.input+")")
			if err != nil {
				t.Fatalf("lex error: %v", err)
			}

			tok := toks[2]

			if tt.isFloat {
				if tok.Kind != TokenFloat || tok.Float != tt.f {
					t.Errorf("got %s, want float(%v)", tok, tt.f)
				}

				return
			}

			if tok.Kind != TokenInt || tok.Int != tt.i {
				t.Errorf("got %s, want int(%d)", tok, tt.i)
			}
		})
	}
}

func TestLex_Strings(t *testing.T) {
	toks, err := Lex(context.Background(), "test", `#("a\"b\\c\#d\ne")`)
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}

	want := "a\"b\\c#d\ne"
	if toks[2].Kind != TokenString || toks[2].Text != want {
		t.Errorf("got %s, want string(%q)", toks[2], want)
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Error
	}{
		{name: "unterminated string", input: `#("abc)`, want: ErrUnterminatedString},
		{name: "unterminated comment", input: "#(a # never closed)", want: ErrUnterminatedComment},
		{name: "invalid number", input: "#(12abc)", want: ErrInvalidNumber},
		{name: "empty radix", input: "#(0x)", want: ErrInvalidNumber},
		{name: "unclosed paren", input: "#(a + (b)", want: ErrUnbalancedDelimiter},
		{name: "mismatched bracket", input: "#(a[0)]", want: ErrUnbalancedDelimiter},
		{name: "invalid escape", input: `#("\q")`, want: ErrInvalidEscape},
		{name: "unexpected character", input: "#(a @ b)", want: ErrUnexpectedCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(context.Background(), "test", tt.input)
			if err == nil {
				t.Fatal("expected error")
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}

			if !errors.Is(err, ErrLex) {
				t.Errorf("error %v is not a lex error", err)
			}

			var e *Error
			if !errors.As(err, &e) || e.Position().IsZero() {
				t.Errorf("error %v has no position", err)
			}
		})
	}
}

func TestLex_Positions(t *testing.T) {
	toks, err := Lex(context.Background(), "test", "line one\n  #(x)")
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}

	tag := toks[1]
	if tag.Pos.Line != 2 || tag.Pos.Column != 3 || tag.Pos.Offset != 11 {
		t.Errorf("tag position = %+v, want line 2 column 3 offset 11", tag.Pos)
	}
}

// FuzzLex checks that the lexer never panics and that raw text round-trips
// for sources without tags.
func FuzzLex(f *testing.F) {
	f.Add("plain text")
	f.Add("#(x + 1)")
	f.Add("#for(x in xs):#(x)#endfor")
	f.Add(`#("str\"ing")`)
	f.Add("#(0x1F.8 + 0b1_0)")
	f.Add("#(a # comment # b)")
	f.Add(`\#escaped`)

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("lexer panicked on input %q: %v", input, r)
			}
		}()

		toks, err := Lex(context.Background(), "fuzz", input)
		if err != nil {
			return
		}

		if !strings.ContainsRune(input, '#') {
			var sb strings.Builder
			for _, tok := range toks {
				sb.WriteString(tok.Text)
			}

			if sb.String() != input {
				t.Errorf("raw text %q does not match input %q", sb.String(), input)
			}
		}
	})
}

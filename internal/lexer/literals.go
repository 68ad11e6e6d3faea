package lexer

import (
	"strings"
	"unicode"

	"github.com/asynkron/jsengine/internal/token"
)

// readNumber scans decimal, hex (0x), octal (0o), binary (0b), legacy octal
// (sloppy mode, e.g. 0755), numeric separators (1_000), and the BigInt
// suffix 'n'. The literal text (minus trailing 'n') is returned verbatim;
// the parser/evaluator perform the actual numeric conversion so that
// semantics stay in one place.
func (l *Lexer) readNumber(start token.Position, newline bool) token.Token {
	var sb strings.Builder

	t := token.NUMBER

	writeDigits := func(valid func(rune) bool) {
		lastWasSep := false
		for valid(l.ch) || l.ch == '_' {
			if l.ch == '_' {
				if lastWasSep {
					l.addError("adjacent numeric separators", token.Span{Start: l.currentPos(), End: l.currentPos()}, "bad-separator")
				}
				lastWasSep = true
				l.readChar()
				continue
			}
			lastWasSep = false
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		writeDigits(isHexDigit)
	} else if l.ch == '0' && (l.peekChar() == 'o' || l.peekChar() == 'O') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		writeDigits(isOctalDigit)
	} else if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
		writeDigits(func(r rune) bool { return r == '0' || r == '1' })
	} else if l.ch == '0' && isOctalDigit(l.peekChar()) {
		// Legacy octal literal, sloppy mode only; parser enforces the strict-mode early error.
		sb.WriteRune(l.ch)
		l.readChar()
		writeDigits(isOctalDigit)
	} else {
		writeDigits(unicode.IsDigit)
		if l.ch == '.' {
			sb.WriteRune(l.ch)
			l.readChar()
			writeDigits(unicode.IsDigit)
		}
		if l.ch == 'e' || l.ch == 'E' {
			sb.WriteRune(l.ch)
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				sb.WriteRune(l.ch)
				l.readChar()
			}
			writeDigits(unicode.IsDigit)
		}
	}

	if l.ch == 'n' {
		l.readChar()
		t = token.BIGINT
	}

	if isIDStart(l.ch) {
		l.addError("identifier starts immediately after numeric literal", token.Span{Start: l.currentPos(), End: l.currentPos()}, "number-ident-adjacent")
	}

	return l.emit(t, sb.String(), start, newline)
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isOctalDigit(r rune) bool { return r >= '0' && r <= '7' }

// readString scans a single- or double-quoted string literal, processing
// the full ECMA-262 escape set (\n \t \xHH \uHHHH \u{H...} \0, line
// continuation via backslash-newline, octal escapes in sloppy mode).
func (l *Lexer) readString(start token.Position, newline bool) token.Token {
	quote := l.ch
	l.readChar()
	var sb strings.Builder
	for {
		if l.ch == 0 {
			l.addError("unterminated string literal", token.Span{Start: start, End: l.currentPos()}, "unterminated-string")
			break
		}
		if l.ch == quote {
			l.readChar()
			break
		}
		if isLineTerminator(l.ch) && l.ch != ' ' && l.ch != ' ' {
			l.addError("unterminated string literal", token.Span{Start: start, End: l.currentPos()}, "unterminated-string")
			break
		}
		if l.ch == '\\' {
			l.readChar()
			l.readEscapeInto(&sb)
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return l.emit(token.STRING, sb.String(), start, newline)
}

// readEscapeInto decodes one escape sequence (the leading backslash has
// already been consumed) and appends its value to sb.
func (l *Lexer) readEscapeInto(sb *strings.Builder) {
	switch l.ch {
	case 'n':
		sb.WriteByte('\n')
		l.readChar()
	case 't':
		sb.WriteByte('\t')
		l.readChar()
	case 'r':
		sb.WriteByte('\r')
		l.readChar()
	case 'b':
		sb.WriteByte('\b')
		l.readChar()
	case 'f':
		sb.WriteByte('\f')
		l.readChar()
	case 'v':
		sb.WriteByte('\v')
		l.readChar()
	case '0':
		if !unicode.IsDigit(l.peekChar()) {
			sb.WriteByte(0)
			l.readChar()
		} else {
			l.readOctalEscape(sb)
		}
	case '1', '2', '3', '4', '5', '6', '7':
		l.readOctalEscape(sb)
	case 'x':
		l.readChar()
		v := l.readHexDigits(2)
		sb.WriteRune(rune(v))
	case 'u':
		l.readChar()
		if l.ch == '{' {
			l.readChar()
			v := 0
			for l.ch != '}' && l.ch != 0 {
				v = v*16 + hexVal(l.ch)
				l.readChar()
			}
			l.readChar() // consume '}'
			if v > 0x10FFFF {
				l.addError("code point out of range", token.Span{Start: l.currentPos(), End: l.currentPos()}, "invalid-codepoint")
			}
			sb.WriteRune(rune(v))
		} else {
			v := l.readHexDigits(4)
			sb.WriteRune(rune(v))
		}
	case '\n':
		l.readChar() // line continuation: escaped newline contributes nothing
	case '\r':
		l.readChar()
		if l.ch == '\n' {
			l.readChar()
		}
	case ' ', ' ':
		l.readChar()
	default:
		sb.WriteRune(l.ch)
		l.readChar()
	}
}

func (l *Lexer) readOctalEscape(sb *strings.Builder) {
	v := 0
	n := 0
	max := 3
	if l.ch >= '4' {
		max = 2
	}
	for n < max && isOctalDigit(l.ch) {
		v = v*8 + int(l.ch-'0')
		l.readChar()
		n++
	}
	sb.WriteRune(rune(v))
}

func (l *Lexer) readHexDigits(n int) int {
	v := 0
	for i := 0; i < n; i++ {
		if !isHexDigit(l.ch) {
			l.addError("invalid hex escape", token.Span{Start: l.currentPos(), End: l.currentPos()}, "invalid-hex-escape")
			break
		}
		v = v*16 + hexVal(l.ch)
		l.readChar()
	}
	return v
}

func hexVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return 0
}

// readTemplate scans a template literal. If full is true, it starts right
// after the opening backtick and scans through either a closing backtick
// (NoSubstitutionTemplate / tail) or an unescaped "${" (head/middle),
// emitting TEMPLATE_STRING with Literal holding "cooked\x00raw\x00kind"
// where kind is one of "full", "head", "middle", "tail" so the parser can
// tell template segments apart without re-lexing.
func (l *Lexer) readTemplate(start token.Position, newline bool, full bool) token.Token {
	if full {
		l.readChar() // consume opening `
	}
	var cooked, raw strings.Builder
	kind := "full"
	if !full {
		kind = "tail"
	}
	for {
		if l.ch == 0 {
			l.addError("unterminated template literal", token.Span{Start: start, End: l.currentPos()}, "unterminated-template")
			break
		}
		if l.ch == '`' {
			l.readChar()
			break
		}
		if l.ch == '$' && l.peekChar() == '{' {
			l.readChar()
			l.readChar()
			if full {
				kind = "head"
			} else {
				kind = "middle"
			}
			break
		}
		if l.ch == '\\' {
			raw.WriteRune(l.ch)
			l.readChar()
			l.readEscapeIntoTracked(&cooked, &raw)
			continue
		}
		if l.ch == '\r' {
			cooked.WriteByte('\n')
			raw.WriteByte('\n')
			l.readChar()
			if l.ch == '\n' {
				l.readChar()
			}
			continue
		}
		cooked.WriteRune(l.ch)
		raw.WriteRune(l.ch)
		l.readChar()
	}
	lit := cooked.String() + "\x00" + raw.String() + "\x00" + kind
	return l.emit(token.TEMPLATE_STRING, lit, start, newline)
}

// readEscapeIntoTracked mirrors readEscapeInto but also appends the escape's
// raw (unprocessed) characters to raw, needed for tagged templates' `.raw`.
func (l *Lexer) readEscapeIntoTracked(cooked, raw *strings.Builder) {
	before := l.pos
	l.readEscapeInto(cooked)
	// Re-slice the already-consumed raw text (the caller advanced ch via
	// readEscapeInto); recover it from input[before:l.pos] conservatively.
	if before <= l.pos && l.pos <= len(l.input) {
		raw.WriteString(l.input[before:l.pos])
	}
}

// ScanTemplateContinuation resumes scanning a template literal after a `}`
// that closed a `${...}` substitution; the parser calls this instead of
// Next() at that point.
func (l *Lexer) ScanTemplateContinuation(start token.Position, newline bool) token.Token {
	return l.readTemplate(start, newline, false)
}

// tryReadRegex attempts to scan a RegExp literal starting at the current
// '/'. It returns ok=false (without consuming input) only in pathological
// cases; otherwise it always consumes through the closing '/' and flags.
func (l *Lexer) tryReadRegex(start token.Position, newline bool) (token.Token, bool) {
	save := l.snapshot()
	l.readChar() // consume opening '/'
	var body strings.Builder
	inClass := false
	for {
		if l.ch == 0 || isLineTerminator(l.ch) {
			l.restore(save)
			return token.Token{}, false
		}
		if l.ch == '\\' {
			body.WriteRune(l.ch)
			l.readChar()
			if l.ch == 0 || isLineTerminator(l.ch) {
				l.restore(save)
				return token.Token{}, false
			}
			body.WriteRune(l.ch)
			l.readChar()
			continue
		}
		if l.ch == '[' {
			inClass = true
		} else if l.ch == ']' {
			inClass = false
		} else if l.ch == '/' && !inClass {
			l.readChar()
			break
		}
		body.WriteRune(l.ch)
		l.readChar()
	}
	var flags strings.Builder
	for isIDContinue(l.ch) {
		flags.WriteRune(l.ch)
		l.readChar()
	}
	lit := body.String() + "\x00" + flags.String()
	return l.emit(token.REGEXP, lit, start, newline), true
}

type lexSnapshot struct {
	pos, readPos, line, col int
	ch                       rune
}

func (l *Lexer) snapshot() lexSnapshot {
	return lexSnapshot{l.pos, l.readPos, l.line, l.col, l.ch}
}

func (l *Lexer) restore(s lexSnapshot) {
	l.pos, l.readPos, l.line, l.col, l.ch = s.pos, s.readPos, s.line, s.col, s.ch
}

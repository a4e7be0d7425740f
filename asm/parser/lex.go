package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.creack.net/chip8/op"
)

type stateFn func(*lexer) stateFn

const eof = -1

type itemType int

const (
	itemError itemType = iota // Value is the error message.
	itemNewline
	itemIdentifier // Mnemonic, register, keyword or label reference.
	itemNumber
	itemComment
	itemRawString // Quoted string, quotes included.
	itemLabel     // Label definition, colon stripped.
	itemComa
	itemDirective
	itemEOF
)

var itemNames = map[itemType]string{
	itemError:      "<error>",
	itemNewline:    "<newline>",
	itemIdentifier: "<identifier>",
	itemNumber:     "<number>",
	itemComment:    "<comment>",
	itemRawString:  "<raw string>",
	itemLabel:      "<label>",
	itemComa:       "<coma>",
	itemDirective:  "<directive>",
	itemEOF:        "<eof>",
}

func (it itemType) String() string {
	if s, ok := itemNames[it]; ok {
		return s
	}
	return fmt.Sprintf("<unknown token %d>", it)
}

// isEOL reports whether the item terminates a statement.
// A comment swallows its newline.
func (it itemType) isEOL() bool {
	return it == itemNewline || it == itemEOF || it == itemComment
}

type item struct {
	typ  itemType
	pos  Pos // Byte offset in the input.
	val  string
	line int
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	case itemNewline:
		return `'\n'`
	}
	return fmt.Sprintf("%s %.10q", i.typ, i.val)
}

type Pos int

// Both cases are accepted, the parser folds them.
var (
	labelChars     = op.LabelChars + strings.ToUpper(op.LabelChars)
	directiveChars = op.DirectiveChars + strings.ToUpper(op.DirectiveChars)
)

const (
	blanks    = " \t\r"
	decDigits = "0123456789_"
	hexDigits = "0123456789abcdefABCDEF_"
	octDigits = "01234567_"
	binDigits = "01_"
)

// lexer produces one item per nextItem call.
type lexer struct {
	name      string
	input     string
	start     Pos // First byte of the pending item.
	pos       Pos // Next byte to read.
	width     Pos // Size of the last rune read, 0 when nothing can be backed up.
	line      int // Line of pos.
	startLine int // Line of start.
	out       item
}

// NewLexer creates a new scanner for the input string.
func NewLexer(name, input string) *lexer {
	return &lexer{
		name:      name,
		input:     input,
		line:      1,
		startLine: 1,
	}
}

// nextItem runs the state machine until an item is produced.
func (l *lexer) nextItem() item {
	for state := lexAny; state != nil; {
		state = state(l)
	}
	return l.out
}

func (l *lexer) next() rune {
	if int(l.pos) >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = Pos(w)
	l.pos += l.width
	if r == '\n' {
		l.line++
	}
	return r
}

// backup undoes the last next. Only one level.
func (l *lexer) backup() {
	l.pos -= l.width
	if l.width == 1 && l.input[l.pos] == '\n' {
		l.line--
	}
	l.width = 0
}

func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *lexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *lexer) acceptRun(valid string) bool {
	n := 0
	for strings.ContainsRune(valid, l.next()) {
		n++
	}
	l.backup()
	return n > 0
}

// skip drops the pending text.
func (l *lexer) skip() {
	l.start = l.pos
	l.startLine = l.line
}

func (l *lexer) pending(t itemType) item {
	i := item{typ: t, pos: l.start, val: l.input[l.start:l.pos], line: l.startLine}
	l.skip()
	return i
}

func (l *lexer) produce(t itemType) stateFn {
	l.out = l.pending(t)
	return nil
}

// fail produces an error item and drops the rest of the input.
func (l *lexer) fail(format string, args ...any) stateFn {
	l.out = item{typ: itemError, pos: l.start, val: fmt.Sprintf(format, args...), line: l.startLine}
	l.input = ""
	l.start, l.pos, l.width = 0, 0, 0
	return nil
}

func lexAny(l *lexer) stateFn {
	l.acceptRun(blanks)
	l.skip()
	switch r := l.peek(); {
	case r == eof:
		return l.produce(itemEOF)
	case r == '\n':
		// Blank lines collapse into one newline, trailing ones into EOF.
		l.acceptRun(blanks + "\n")
		l.skip()
		if l.peek() == eof {
			return l.produce(itemEOF)
		}
		return l.produce(itemNewline)
	case r == op.SeparatorChar:
		l.next()
		return l.produce(itemComa)
	case r == op.DirectiveChar:
		return lexDirective
	case r == '"':
		return lexString
	case r == op.IndirectOpen:
		return lexIndirect
	case '0' <= r && r <= '9':
		return lexNumber
	case strings.ContainsRune(op.CommentChars, r):
		return lexComment
	case strings.ContainsRune(labelChars, r):
		return lexIdentifier
	default:
		return l.fail("unexpected character %c", r)
	}
}

func lexNumber(l *lexer) stateFn {
	digits := decDigits
	if l.accept("0") {
		switch {
		case l.accept("xX"):
			digits = hexDigits
		case l.accept("oO"):
			digits = octDigits
		case l.accept("bB"):
			digits = binDigits
		}
	}
	l.acceptRun(digits)
	if strings.ContainsRune(labelChars, l.peek()) {
		l.next()
		return l.fail("bad number syntax: %q", l.input[l.start:l.pos])
	}
	return l.produce(itemNumber)
}

// lexIdentifier scans a name. Followed by a colon, it defines a label.
func lexIdentifier(l *lexer) stateFn {
	l.acceptRun(labelChars)
	if l.peek() != op.LabelChar {
		return l.produce(itemIdentifier)
	}
	l.out = l.pending(itemLabel)
	l.next()
	l.skip()
	return nil
}

// lexIndirect scans `[I]`, blanks allowed inside, as a single identifier.
func lexIndirect(l *lexer) stateFn {
	l.next()
	l.acceptRun(" \t")
	l.acceptRun(labelChars)
	l.acceptRun(" \t")
	if !l.accept(string(op.IndirectClose)) {
		return l.fail("missing closing %c", op.IndirectClose)
	}
	i := l.pending(itemIdentifier)
	i.val = strings.Join(strings.Fields(i.val), "")
	l.out = i
	return nil
}

func lexComment(l *lexer) stateFn {
	for r := l.next(); r != eof && r != '\n'; r = l.next() {
	}
	i := l.pending(itemComment)
	i.val = strings.TrimSpace(i.val)
	l.out = i
	return nil
}

func lexString(l *lexer) stateFn {
	l.next()
	for {
		switch l.next() {
		case eof, '\n':
			return l.fail("missing closing quote")
		case '\\':
			l.next()
		case '"':
			return l.produce(itemRawString)
		}
	}
}

func lexDirective(l *lexer) stateFn {
	l.next()
	if !l.acceptRun(directiveChars) {
		return l.fail("missing directive name")
	}
	return l.produce(itemDirective)
}

package chip8

import (
	"fmt"
	"strconv"
	"strings"
)

/// Type for scanned tokens.
///
type tokenType uint

/// Lexical assembly tokens.
///
const (
	TOKEN_END tokenType = iota
	TOKEN_CHAR
	TOKEN_LABEL
	TOKEN_REF
	TOKEN_INSTRUCTION
	TOKEN_INDIRECT
	TOKEN_OPERAND
	TOKEN_V
	TOKEN_I
	TOKEN_B
	TOKEN_F
	TOKEN_K
	TOKEN_DT
	TOKEN_ST
	TOKEN_LIT
	TOKEN_TEXT
	TOKEN_EQU
	TOKEN_VAR
)

/// A parsed, lexical token.
///
type token struct {
	typ tokenType

	// tokens can have an optional value associated with them
	val interface{}
}

/// Assembler token scanner for one source line. Lexical errors panic
/// and are collected by Assemble.
///
type tokenScanner struct {
	bytes []byte

	// scan position
	pos int
}

/// Reads the next token from a scanner. Returns the token.
///
func (s *tokenScanner) scanToken() token {
	for len(s.bytes) > s.pos && s.bytes[s.pos] < 33 {
		s.pos++
	}

	// line exhausted
	if len(s.bytes) <= s.pos {
		return token{typ: TOKEN_END}
	}

	c := s.bytes[s.pos]

	switch {
	case c == ';':
		return s.scanToEnd()
	case c == '.' && s.pos == 0:
		return s.scanLabel()
	case c == '[' && s.pos > 0:
		return s.scanIndirection()
	case c == ',' && s.pos > 0:
		return s.scanOperand()
	case c == '#' && s.pos > 0:
		return s.scanHexLit()
	case c == '$' && s.pos > 0:
		return s.scanBinLit()
	case c == '-' && s.pos > 0:
		return s.scanDecLit()
	case c >= '0' && c <= '9' && s.pos > 0:
		return s.scanDecLit()
	case isLetter(c) && s.pos > 0:
		return s.scanIdentifier()
	case (c == '"' || c == '\'') && s.pos > 0:
		return s.scanString(c)
	}

	if s.pos == 0 {
		panic("expected .label")
	}

	return s.scanChar()
}

/// Scan a list of comma-separated tokens.
///
func (s *tokenScanner) scanOperands() []token {
	tokens := make([]token, 0, 3)

	for t := s.scanToken(); t.typ != TOKEN_END; {
		tokens = append(tokens, t)

		// get another token, are we at the end?
		if t = s.scanToken(); t.typ != TOKEN_OPERAND {
			if t.typ == TOKEN_END {
				break
			}

			panic("unexpected token")
		}

		// expand the operand
		t = t.val.(token)
	}

	return tokens
}

/// Scan a single character.
///
func (s *tokenScanner) scanChar() token {
	i := s.pos

	s.pos++

	return token{typ: TOKEN_CHAR, val: s.bytes[i]}
}

/// Scan to the end of the input and return.
///
func (s *tokenScanner) scanToEnd() token {
	s.pos = len(s.bytes)

	return token{typ: TOKEN_END}
}

/// Scan a comma-separated operand token.
///
func (s *tokenScanner) scanOperand() token {
	s.pos++

	t := s.scanToken()

	// make sure there was an operand
	if t.typ == TOKEN_END {
		panic("expected operand")
	}

	return token{typ: TOKEN_OPERAND, val: t}
}

/// Scan a label, which is a specific type of identifier.
///
func (s *tokenScanner) scanLabel() token {
	s.pos++

	if s.pos < len(s.bytes) && isLetter(s.bytes[s.pos]) {
		if id := s.scanIdentifier(); id.typ == TOKEN_REF {
			return token{typ: TOKEN_LABEL, val: id.val}
		}
	}

	panic("expected label")
}

/// Scan an identifier: instruction, register, directive, or label
/// reference. Identifiers are case-insensitive.
///
func (s *tokenScanner) scanIdentifier() token {
	i := s.pos

	for ; s.pos < len(s.bytes); s.pos++ {
		c := s.bytes[s.pos]

		if !isLetter(c) && (c < '0' || c > '9') && c != '_' {
			break
		}
	}

	id := strings.ToUpper(string(s.bytes[i:s.pos]))

	// v-registers
	if len(id) == 2 && id[0] == 'V' {
		if n := strings.IndexByte("0123456789ABCDEF", id[1]); n >= 0 {
			return token{typ: TOKEN_V, val: n}
		}
	}

	switch id {
	case "I":
		return token{typ: TOKEN_I}
	case "B":
		return token{typ: TOKEN_B}
	case "F":
		return token{typ: TOKEN_F}
	case "K":
		return token{typ: TOKEN_K}
	case "D", "DT":
		return token{typ: TOKEN_DT}
	case "S", "ST":
		return token{typ: TOKEN_ST}
	case "EQU":
		return token{typ: TOKEN_EQU}
	case "VAR":
		return token{typ: TOKEN_VAR}
	case "CLS", "RET", "SYS", "JP", "CALL", "SE", "SNE", "SKP", "SKNP",
		"LD", "OR", "AND", "XOR", "ADD", "SUB", "SUBN", "SHR", "SHL",
		"RND", "DRW", "BYTE", "WORD", "ALIGN", "PAD":
		return token{typ: TOKEN_INSTRUCTION, val: id}
	}

	return token{typ: TOKEN_REF, val: id}
}

/// Scan an indirect operand: [I].
///
func (s *tokenScanner) scanIndirection() token {
	s.pos++

	t := s.scanToken()

	// the next token should close the indirection
	if c := s.scanToken(); c.typ != TOKEN_CHAR || c.val.(byte) != ']' {
		panic("illegal indirection")
	}

	return token{typ: TOKEN_INDIRECT, val: t}
}

/// Scan a decimal literal.
///
func (s *tokenScanner) scanDecLit() token {
	i := s.pos

	// skip a unary minus negation
	if s.bytes[i] == '-' {
		s.pos++
	}

	for ; s.pos < len(s.bytes); s.pos++ {
		if strings.IndexByte("0123456789", s.bytes[s.pos]) < 0 {
			break
		}
	}

	if n, err := strconv.ParseInt(string(s.bytes[i:s.pos]), 10, 32); err == nil {
		return token{typ: TOKEN_LIT, val: int(n)}
	}

	panic(fmt.Errorf("illegal decimal value: %s", string(s.bytes[i:s.pos])))
}

/// Scan a hexadecimal literal: #200.
///
func (s *tokenScanner) scanHexLit() token {
	i := s.pos

	for s.pos++; s.pos < len(s.bytes); s.pos++ {
		if strings.IndexByte("0123456789ABCDEFabcdef", s.bytes[s.pos]) < 0 {
			break
		}
	}

	if n, err := strconv.ParseInt(string(s.bytes[i+1:s.pos]), 16, 32); err == nil {
		return token{typ: TOKEN_LIT, val: int(n)}
	}

	panic(fmt.Errorf("illegal hex value: %s", string(s.bytes[i:s.pos])))
}

/// Scan a binary literal: $11010010, with '.' allowed for 0.
///
func (s *tokenScanner) scanBinLit() token {
	i := s.pos

	for s.pos++; s.pos < len(s.bytes); s.pos++ {
		if strings.IndexByte(".01", s.bytes[s.pos]) < 0 {
			break
		}
	}

	v := strings.ReplaceAll(string(s.bytes[i+1:s.pos]), ".", "0")

	if n, err := strconv.ParseInt(v, 2, 32); err == nil {
		return token{typ: TOKEN_LIT, val: int(n)}
	}

	panic(fmt.Errorf("illegal binary value: %s", string(s.bytes[i:s.pos])))
}

/// Scan a quoted string. Text keeps its case.
///
func (s *tokenScanner) scanString(term byte) token {
	s.pos++

	i := s.pos

	for s.pos < len(s.bytes) && s.bytes[s.pos] != term {
		s.pos++
	}

	if s.pos >= len(s.bytes) {
		panic("unterminated string")
	}

	text := string(s.bytes[i:s.pos])

	// skip the closing quote
	s.pos++

	return token{typ: TOKEN_TEXT, val: text}
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

package venuefile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// DartOptions controls the generated Dart source.
type DartOptions struct {
	// Variable is the name of the top-level list. Defaults to indoorGymsData.
	Variable string
	// Header lines are written as // comments above the declaration.
	Header []string
}

// DefaultDartHeader is the attribution block the mobile app expects.
var DefaultDartHeader = []string{
	"AUTO-GENERATED FILE - DO NOT EDIT MANUALLY",
	"Generated from OpenStreetMap data",
	"Attribution: © OpenStreetMap contributors (ODbL)",
	"Contains: Indoor basketball venues (schools, athletic clubs, rec centers)",
}

const defaultDartVariable = "indoorGymsData"

// EncodeDart writes records as a Dart `final List<Map<String, dynamic>>`
// literal, one map per record.
func EncodeDart(w io.Writer, records []venue.Record, opts DartOptions) error {
	variable := opts.Variable
	if variable == "" {
		variable = defaultDartVariable
	}
	header := opts.Header
	if header == nil {
		header = DefaultDartHeader
	}

	bw := bufio.NewWriter(w)
	for _, line := range header {
		fmt.Fprintf(bw, "// %s\n", line)
	}
	if len(header) > 0 {
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw, "/// Basketball venue data from OpenStreetMap\n")
	fmt.Fprintf(bw, "final List<Map<String, dynamic>> %s = [\n", variable)

	for _, r := range records {
		bw.WriteString("  {\n")
		fmt.Fprintf(bw, "    'id': %s,\n", dartString(r.ID))
		fmt.Fprintf(bw, "    'name': %s,\n", dartString(r.Name))
		fmt.Fprintf(bw, "    'lat': %s,\n", dartDouble(r.Lat))
		fmt.Fprintf(bw, "    'lng': %s,\n", dartDouble(r.Lng))
		if r.Category != "" {
			fmt.Fprintf(bw, "    'category': %s,\n", dartString(string(r.Category)))
		}
		fmt.Fprintf(bw, "    'indoor': %t,\n", r.Indoor)

		keys := make([]string, 0, len(r.Extra))
		for k := range r.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(bw, "    %s: %s,\n", dartString(k), dartValue(r.Extra[k]))
		}
		bw.WriteString("  },\n")
	}
	bw.WriteString("];\n")

	return eris.Wrap(bw.Flush(), "venuefile: write dart")
}

// dartString quotes s as a single-quoted Dart literal. $ is escaped because
// Dart interpolates it inside strings.
func dartString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '$':
			b.WriteString(`\$`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// dartDouble always includes a decimal point so the value is typed double.
func dartDouble(f *float64) string {
	if f == nil {
		return "null"
	}
	s := strconv.FormatFloat(*f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// dartValue renders an extra field. JSON strings become Dart strings; every
// other JSON value is already a valid Dart literal.
func dartValue(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return dartString(s)
	}
	return string(raw)
}

// DecodeDart parses the first list-of-maps literal assigned in a Dart source
// file. Keys are string literals and values may be strings (either quote
// style), numbers, booleans, null, or nested lists and maps.
func DecodeDart(r io.Reader) ([]venue.Record, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "venuefile: read dart")
	}

	p := &dartParser{lex: dartLexer{src: src, line: 1}}
	p.next()

	// Skip the declaration up to `= [`.
	for {
		if p.tok.kind == tokEOF {
			return nil, eris.New("venuefile: dart: no list literal found")
		}
		if p.tok.kind == tokPunct && p.tok.text == "=" {
			p.next()
			if p.tok.kind == tokPunct && p.tok.text == "[" {
				break
			}
			continue
		}
		p.next()
	}

	list, err := p.parseList()
	if err != nil {
		return nil, eris.Wrap(err, "venuefile: dart")
	}

	records := make([]venue.Record, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, eris.Errorf("venuefile: dart entry %d is not a map", i)
		}
		rec, err := recordFromDart(m)
		if err != nil {
			return nil, eris.Wrapf(err, "venuefile: dart entry %d", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromDart(m map[string]any) (venue.Record, error) {
	var rec venue.Record
	for key, val := range m {
		switch key {
		case fieldID:
			switch v := val.(type) {
			case string:
				rec.ID = v
			case json.Number:
				rec.ID = v.String()
			case nil:
			default:
				return rec, eris.Errorf("field %q has type %T", key, val)
			}
		case fieldName, fieldCategory:
			s, ok := val.(string)
			if !ok && val != nil {
				return rec, eris.Errorf("field %q has type %T", key, val)
			}
			if key == fieldName {
				rec.Name = s
			} else {
				rec.Category = venue.Category(s)
			}
		case fieldLat, fieldLng:
			var f *float64
			switch v := val.(type) {
			case json.Number:
				x, err := v.Float64()
				if err != nil {
					return rec, eris.Wrapf(err, "field %q", key)
				}
				f = &x
			case nil:
			default:
				return rec, eris.Errorf("field %q has type %T", key, val)
			}
			if key == fieldLat {
				rec.Lat = f
			} else {
				rec.Lng = f
			}
		case fieldIndoor:
			b, ok := val.(bool)
			if !ok && val != nil {
				return rec, eris.Errorf("field %q has type %T", key, val)
			}
			rec.Indoor = b
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				return rec, eris.Wrapf(err, "field %q", key)
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[key] = raw
		}
	}
	return rec, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPunct
	tokString
	tokNumber
	tokIdent
)

type token struct {
	kind tokenKind
	text string
	line int
}

type dartLexer struct {
	src  []byte
	pos  int
	line int
}

func (l *dartLexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*':
			l.pos += 2
			for l.pos+1 < len(l.src) && (l.src[l.pos] != '*' || l.src[l.pos+1] != '/') {
				if l.src[l.pos] == '\n' {
					l.line++
				}
				l.pos++
			}
			l.pos += 2
		default:
			return
		}
	}
}

func (l *dartLexer) next() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == '-' || c == '.' || (c >= '0' && c <= '9'):
		start := l.pos
		l.pos++
		for l.pos < len(l.src) && strings.IndexByte("0123456789.eE+-", l.src[l.pos]) >= 0 {
			l.pos++
		}
		return token{kind: tokNumber, text: string(l.src[start:l.pos]), line: l.line}, nil
	case c == '_' || isLetter(c):
		start := l.pos
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), line: l.line}, nil
	default:
		l.pos++
		return token{kind: tokPunct, text: string(c), line: l.line}, nil
	}
}

func (l *dartLexer) lexString(quote byte) (token, error) {
	line := l.line
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, eris.Errorf("line %d: unterminated string", line)
		}
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, text: b.String(), line: line}, nil
		case '\n':
			return token{}, eris.Errorf("line %d: newline in string", line)
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, eris.Errorf("line %d: unterminated escape", line)
			}
			l.pos++
			switch e := l.src[l.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

type dartParser struct {
	lex dartLexer
	tok token
	err error
}

func (p *dartParser) next() {
	if p.err != nil {
		p.tok = token{kind: tokEOF}
		return
	}
	p.tok, p.err = p.lex.next()
}

func (p *dartParser) punct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *dartParser) errorf(format string, args ...any) error {
	if p.err != nil {
		return p.err
	}
	return eris.Errorf("line %d: %s", p.tok.line, fmt.Sprintf(format, args...))
}

// parseList expects the current token to be '['.
func (p *dartParser) parseList() ([]any, error) {
	p.next()
	var out []any
	for {
		if p.punct("]") {
			p.next()
			return out, nil
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.punct(",") {
			p.next()
		} else if !p.punct("]") {
			return nil, p.errorf("expected , or ] in list, got %q", p.tok.text)
		}
	}
}

// parseMap expects the current token to be '{'.
func (p *dartParser) parseMap() (map[string]any, error) {
	p.next()
	out := make(map[string]any)
	for {
		if p.punct("}") {
			p.next()
			return out, nil
		}
		if p.tok.kind != tokString {
			return nil, p.errorf("expected string key, got %q", p.tok.text)
		}
		key := p.tok.text
		p.next()
		if !p.punct(":") {
			return nil, p.errorf("expected : after key %q", key)
		}
		p.next()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = v
		if p.punct(",") {
			p.next()
		} else if !p.punct("}") {
			return nil, p.errorf("expected , or } in map, got %q", p.tok.text)
		}
	}
}

func (p *dartParser) parseValue() (any, error) {
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		p.next()
		// Adjacent string literals concatenate.
		for p.tok.kind == tokString {
			s += p.tok.text
			p.next()
		}
		return s, nil
	case tokNumber:
		text := p.tok.text
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("bad number %q", text)
		}
		if strings.HasPrefix(strings.TrimPrefix(text, "-"), ".") {
			text = strconv.FormatFloat(f, 'f', -1, 64)
		}
		p.next()
		return json.Number(text), nil
	case tokIdent:
		text := p.tok.text
		p.next()
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return nil, p.errorf("unexpected identifier %q", text)
	case tokPunct:
		switch p.tok.text {
		case "[":
			return p.parseList()
		case "{":
			return p.parseMap()
		}
	}
	return nil, p.errorf("unexpected token %q", p.tok.text)
}

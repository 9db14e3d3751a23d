// Package psl is the front end for the Prisma schema language: it parses
// schema text into a schema.Schema and renders one back into canonical
// text.
package psl

import (
	"fmt"

	"github.com/tordrt/prismacase/internal/schema"
)

type parser struct {
	toks []token
	pos  int

	docs     []string
	comments []string
	// inner collects comments found inside argument lists and arrays.
	inner []string
}

// Parse parses schema text. Any syntax error aborts with a *ParseError and
// no partial result.
func Parse(src string) (*schema.Schema, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	s, err := p.parseSchema()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+offset]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) *ParseError {
	return newParseError(tok.line, tok.column, format, args...)
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func describe(tok token) string {
	switch tok.kind {
	case tokIdent:
		return fmt.Sprintf("%q", tok.text)
	case tokString:
		return fmt.Sprintf("string %q", tok.text)
	case tokNumber:
		return "number " + tok.text
	}
	return tok.kind.String()
}

// skipTrivia consumes newlines and buffers comments for the next element.
func (p *parser) skipTrivia() {
	for {
		switch tok := p.peek(); tok.kind {
		case tokNewline:
			p.next()
		case tokComment:
			p.comments = append(p.comments, tok.text)
			p.next()
		case tokDocComment:
			p.docs = append(p.docs, tok.text)
			p.next()
		default:
			return
		}
	}
}

// skipNewlines is used inside argument lists where line breaks carry no
// meaning. Comments are kept for the enclosing attribute or property.
func (p *parser) skipNewlines() {
	for {
		switch tok := p.peek(); tok.kind {
		case tokNewline:
			p.next()
		case tokComment:
			p.inner = append(p.inner, tok.text)
			p.next()
		case tokDocComment:
			p.inner = append(p.inner, "/"+tok.text)
			p.next()
		default:
			return
		}
	}
}

func (p *parser) takeInner() []string {
	inner := p.inner
	p.inner = nil
	return inner
}

func (p *parser) takeComments() (comments, docs []string) {
	comments, docs = p.comments, p.docs
	p.comments, p.docs = nil, nil
	return comments, docs
}

// takeAllComments merges buffered doc comments into plain comment lines.
func (p *parser) takeAllComments() []string {
	comments, docs := p.takeComments()
	for _, d := range docs {
		comments = append(comments, "/"+d)
	}
	return comments
}

func (p *parser) parseSchema() (*schema.Schema, error) {
	s := &schema.Schema{}
	for {
		p.skipTrivia()
		tok := p.peek()
		if tok.kind == tokEOF {
			s.Comments = p.takeAllComments()
			return s, nil
		}
		if tok.kind != tokIdent {
			return nil, p.errorf(tok, "expected a block declaration, found %s", describe(tok))
		}

		switch tok.text {
		case "datasource", "generator":
			block, err := p.parseConfigBlock()
			if err != nil {
				return nil, err
			}
			s.Config.Blocks = append(s.Config.Blocks, block)
		case "model", "view":
			model, err := p.parseModel()
			if err != nil {
				return nil, err
			}
			s.Datamodel.Blocks = append(s.Datamodel.Blocks, model)
		case "enum":
			enum, err := p.parseEnum()
			if err != nil {
				return nil, err
			}
			s.Datamodel.Blocks = append(s.Datamodel.Blocks, enum)
		case "type":
			ct, err := p.parseCompositeType()
			if err != nil {
				return nil, err
			}
			s.Datamodel.Blocks = append(s.Datamodel.Blocks, ct)
		default:
			return nil, p.errorf(tok, "unknown block type %q", tok.text)
		}
	}
}

// parseBlockHeader consumes `keyword Name {` and returns the name.
func (p *parser) parseBlockHeader() (token, string, error) {
	keyword := p.next()
	name, err := p.expect(tokIdent)
	if err != nil {
		return keyword, "", err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return keyword, "", err
	}
	if err := p.endOfLine(); err != nil {
		return keyword, "", err
	}
	return keyword, name.text, nil
}

// endOfLine accepts a newline, or a following closing brace or EOF without consuming them.
func (p *parser) endOfLine() error {
	tok := p.peek()
	switch tok.kind {
	case tokNewline:
		p.next()
		return nil
	case tokRBrace, tokEOF:
		return nil
	case tokComment, tokDocComment:
		return nil
	}
	return p.errorf(tok, "expected end of line, found %s", describe(tok))
}

// trailingComment consumes a comment on the current line, if any.
func (p *parser) trailingComment() string {
	c := p.peekTrailingComment()
	if c != "" {
		p.next()
	}
	return c
}

func (p *parser) peekTrailingComment() string {
	switch tok := p.peek(); tok.kind {
	case tokComment:
		return tok.text
	case tokDocComment:
		return "/" + tok.text
	}
	return ""
}

func (p *parser) parseConfigBlock() (*schema.ConfigBlock, error) {
	comments := p.takeAllComments()
	keyword, name, err := p.parseBlockHeader()
	if err != nil {
		return nil, err
	}
	block := &schema.ConfigBlock{
		Kind:     schema.ConfigBlockKind(keyword.text),
		Name:     name,
		Comments: comments,
	}

	for {
		p.skipTrivia()
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			block.TrailingComments = p.takeAllComments()
			return block, nil
		case tokIdent:
			prop := &schema.Property{Key: tok.text, Comments: p.takeAllComments()}
			p.next()
			if _, err := p.expect(tokEquals); err != nil {
				return nil, err
			}
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			prop.Value = value
			prop.Comments = append(prop.Comments, p.takeInner()...)
			if c := p.trailingComment(); c != "" {
				prop.Comments = append(prop.Comments, c)
			}
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
			block.Properties = append(block.Properties, prop)
		default:
			return nil, p.errorf(tok, "expected a property or '}' in %s %q, found %s", keyword.text, name, describe(tok))
		}
	}
}

func (p *parser) parseModel() (*schema.Model, error) {
	comments, docs := p.takeComments()
	keyword, name, err := p.parseBlockHeader()
	if err != nil {
		return nil, err
	}
	model := &schema.Model{
		Kind:          schema.ModelKind(keyword.text),
		Name:          name,
		Comments:      comments,
		Documentation: docs,
	}

	for {
		p.skipTrivia()
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			model.TrailingComments = p.takeAllComments()
			return model, nil
		case tokAtAt:
			attrComments := p.takeAllComments()
			attr, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			attr.Comments = append(attrComments, attr.Comments...)
			attr.TrailingComment = p.peekTrailingComment()
			if err := p.liftModelAttribute(model, attr); err != nil {
				return nil, err
			}
			p.trailingComment()
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
		case tokIdent:
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			model.Fields = append(model.Fields, field)
		default:
			return nil, p.errorf(tok, "expected a field, block attribute or '}' in %s %q, found %s", keyword.text, name, describe(tok))
		}
	}
}

func (p *parser) parseField() (*schema.Field, error) {
	comments, docs := p.takeComments()
	name := p.next()
	field := &schema.Field{Name: name.text, Comments: comments, Documentation: docs}

	typeTok, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	field.Type.Name = typeTok.text
	if typeTok.text == "Unsupported" && p.peek().kind == tokLParen {
		p.next()
		raw, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		field.Type.Name = raw.text
		field.Type.Unsupported = true
	}

	switch p.peek().kind {
	case tokQuestion:
		p.next()
		field.Type.Arity = schema.Optional
	case tokLBracket:
		p.next()
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		field.Type.Arity = schema.List
	}

	for p.peek().kind == tokAt {
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		field.Comments = append(field.Comments, attr.Comments...)
		attr.Comments = nil
		if attr.Name == "map" {
			dbName, err := p.mapValue(attr)
			if err != nil {
				return nil, err
			}
			field.DatabaseName = &dbName
			continue
		}
		field.Attributes = append(field.Attributes, attr)
	}

	field.TrailingComment = p.trailingComment()
	if err := p.endOfLine(); err != nil {
		return nil, err
	}
	return field, nil
}

func (p *parser) parseEnum() (*schema.Enum, error) {
	comments, docs := p.takeComments()
	_, name, err := p.parseBlockHeader()
	if err != nil {
		return nil, err
	}
	enum := &schema.Enum{Name: name, Comments: comments, Documentation: docs}

	for {
		p.skipTrivia()
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			enum.TrailingComments = p.takeAllComments()
			return enum, nil
		case tokAtAt:
			attrComments := p.takeAllComments()
			attr, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			attr.Comments = append(attrComments, attr.Comments...)
			attr.TrailingComment = p.peekTrailingComment()
			if attr.Name == "map" {
				dbName, err := p.mapValue(attr)
				if err != nil {
					return nil, err
				}
				enum.DatabaseName = &dbName
				enum.MapComments = attr.Comments
				enum.MapTrailingComment = attr.TrailingComment
			} else {
				enum.Attributes = append(enum.Attributes, attr)
			}
			p.trailingComment()
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
		case tokIdent:
			comments, docs := p.takeComments()
			value := &schema.EnumValue{Name: tok.text, Comments: comments, Documentation: docs}
			p.next()
			for p.peek().kind == tokAt {
				attr, err := p.parseAttribute()
				if err != nil {
					return nil, err
				}
				value.Comments = append(value.Comments, attr.Comments...)
				attr.Comments = nil
				if attr.Name == "map" {
					dbName, err := p.mapValue(attr)
					if err != nil {
						return nil, err
					}
					value.DatabaseName = &dbName
					continue
				}
				value.Attributes = append(value.Attributes, attr)
			}
			value.TrailingComment = p.trailingComment()
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
			enum.Values = append(enum.Values, value)
		default:
			return nil, p.errorf(tok, "expected an enum value or '}' in enum %q, found %s", name, describe(tok))
		}
	}
}

func (p *parser) parseCompositeType() (*schema.CompositeType, error) {
	comments, docs := p.takeComments()
	_, name, err := p.parseBlockHeader()
	if err != nil {
		return nil, err
	}
	ct := &schema.CompositeType{Name: name, Comments: comments, Documentation: docs}

	for {
		p.skipTrivia()
		tok := p.peek()
		switch tok.kind {
		case tokRBrace:
			p.next()
			ct.TrailingComments = p.takeAllComments()
			return ct, nil
		case tokAtAt:
			attrComments := p.takeAllComments()
			attr, err := p.parseAttribute()
			if err != nil {
				return nil, err
			}
			attr.Comments = append(attrComments, attr.Comments...)
			attr.TrailingComment = p.trailingComment()
			ct.Attributes = append(ct.Attributes, attr)
			if err := p.endOfLine(); err != nil {
				return nil, err
			}
		case tokIdent:
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			ct.Fields = append(ct.Fields, field)
		default:
			return nil, p.errorf(tok, "expected a field or '}' in type %q, found %s", name, describe(tok))
		}
	}
}

// parseAttribute parses @name(args) or @@name(args); the current token is @ or @@.
func (p *parser) parseAttribute() (*schema.Attribute, error) {
	p.next()
	first, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	attr := &schema.Attribute{Name: first.text}
	for p.peek().kind == tokDot {
		p.next()
		part, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		attr.Name += "." + part.text
	}
	if p.peek().kind == tokLParen {
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		attr.Arguments = args
		attr.Parens = true
	}
	attr.Comments = p.takeInner()
	return attr, nil
}

// parseArguments parses a parenthesized, comma separated argument list.
func (p *parser) parseArguments() ([]*schema.Argument, error) {
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []*schema.Argument
	for {
		p.skipNewlines()
		if p.peek().kind == tokRParen {
			p.next()
			return args, nil
		}

		arg := &schema.Argument{}
		if p.peek().kind == tokIdent && p.peekAt(1).kind == tokColon {
			arg.Name = p.next().text
			p.next()
			p.skipNewlines()
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arg.Value = value
		args = append(args, arg)

		p.skipNewlines()
		switch tok := p.peek(); tok.kind {
		case tokComma:
			p.next()
		case tokRParen:
		default:
			return nil, p.errorf(tok, "expected ',' or ')' in argument list, found %s", describe(tok))
		}
	}
}

func (p *parser) parseExpr() (schema.Expr, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		str := &schema.StringValue{Value: tok.text}
		if tok.raw != stringEscaper.Replace(tok.text) {
			str.Raw = tok.raw
		}
		return str, nil
	case tokNumber:
		return &schema.NumberValue{Raw: tok.text}, nil
	case tokIdent:
		name := tok.text
		for p.peek().kind == tokDot && p.peekAt(1).kind == tokIdent {
			p.next()
			name += "." + p.next().text
		}
		if p.peek().kind == tokLParen {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return &schema.FunctionValue{Name: name, Arguments: args}, nil
		}
		return &schema.ConstantValue{Name: name}, nil
	case tokLBracket:
		arr := &schema.ArrayValue{}
		for {
			p.skipNewlines()
			if p.peek().kind == tokRBracket {
				p.next()
				return arr, nil
			}
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, elem)
			p.skipNewlines()
			switch next := p.peek(); next.kind {
			case tokComma:
				p.next()
			case tokRBracket:
			default:
				return nil, p.errorf(next, "expected ',' or ']' in list, found %s", describe(next))
			}
		}
	}
	return nil, p.errorf(tok, "expected a value, found %s", describe(tok))
}

// mapValue extracts the name from @map("x"), @@map("x") or @map(name: "x").
func (p *parser) mapValue(attr *schema.Attribute) (string, error) {
	for _, arg := range attr.Arguments {
		if arg.Name != "" && arg.Name != "name" {
			continue
		}
		if s, ok := arg.Value.(*schema.StringValue); ok {
			return s.Value, nil
		}
	}
	tok := p.toks[p.pos-1]
	return "", p.errorf(tok, "@%s expects a string argument", attr.Name)
}

// liftModelAttribute stores @@map and the index family in typed form.
// The attribute's comments move along with it.
func (p *parser) liftModelAttribute(model *schema.Model, attr *schema.Attribute) error {
	switch attr.Name {
	case "map":
		dbName, err := p.mapValue(attr)
		if err != nil {
			return err
		}
		model.DatabaseName = &dbName
		model.MapComments = attr.Comments
		model.MapTrailingComment = attr.TrailingComment
		return nil
	case "id", "unique", "index", "fulltext":
		idx, err := p.buildIndex(attr)
		if err != nil {
			return err
		}
		idx.Comments = attr.Comments
		idx.TrailingComment = attr.TrailingComment
		model.Indexes = append(model.Indexes, idx)
		return nil
	}
	model.Attributes = append(model.Attributes, attr)
	return nil
}

func (p *parser) buildIndex(attr *schema.Attribute) (*schema.Index, error) {
	idx := &schema.Index{Kind: schema.IndexKind(attr.Name)}
	tok := p.toks[p.pos-1]
	seenFields := false

	for _, arg := range attr.Arguments {
		switch {
		case (arg.Name == "" || arg.Name == "fields") && !seenFields:
			arr, ok := arg.Value.(*schema.ArrayValue)
			if !ok {
				return nil, p.errorf(tok, "@@%s expects a list of fields", attr.Name)
			}
			for _, elem := range arr.Elements {
				switch v := elem.(type) {
				case *schema.ConstantValue:
					idx.Fields = append(idx.Fields, &schema.IndexField{Name: v.Name})
				case *schema.FunctionValue:
					idx.Fields = append(idx.Fields, &schema.IndexField{Name: v.Name, Arguments: v.Arguments})
				default:
					return nil, p.errorf(tok, "@@%s expects field names in its field list", attr.Name)
				}
			}
			seenFields = true
		case arg.Name == "name" || arg.Name == "map":
			s, ok := arg.Value.(*schema.StringValue)
			if !ok {
				return nil, p.errorf(tok, "@@%s %s: expects a string", attr.Name, arg.Name)
			}
			value := s.Value
			if arg.Name == "name" {
				idx.Name = &value
			} else {
				idx.DBName = &value
			}
		default:
			idx.Arguments = append(idx.Arguments, arg)
		}
	}

	if !seenFields {
		return nil, p.errorf(tok, "@@%s requires a list of fields", attr.Name)
	}
	return idx, nil
}

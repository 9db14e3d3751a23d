package schema

// Expr is a value appearing in a property or attribute argument
type Expr interface {
	exprNode()
}

// StringValue is a quoted string literal. Value holds the unescaped text.
type StringValue struct {
	Value string
	// Raw is the source spelling between the quotes when it differs from the
	// canonical escaping of Value, e.g. \u00e9. It is used only while it
	// still decodes to Value.
	Raw string
}

// NumberValue is a numeric literal kept in its source spelling
type NumberValue struct {
	Raw string
}

// ConstantValue is a bare identifier such as true, Desc, Cascade or a field name
type ConstantValue struct {
	Name string
}

// FunctionValue is a call such as now(), env("URL") or dbgenerated("...")
type FunctionValue struct {
	Name      string
	Arguments []*Argument
}

// ArrayValue is a bracketed list of expressions
type ArrayValue struct {
	Elements []Expr
}

func (*StringValue) exprNode()   {}
func (*NumberValue) exprNode()   {}
func (*ConstantValue) exprNode() {}
func (*FunctionValue) exprNode() {}
func (*ArrayValue) exprNode()    {}

// Str builds a StringValue
func Str(s string) *StringValue {
	return &StringValue{Value: s}
}

// Const builds a ConstantValue
func Const(name string) *ConstantValue {
	return &ConstantValue{Name: name}
}

// Func builds a FunctionValue with positional arguments
func Func(name string, args ...Expr) *FunctionValue {
	fn := &FunctionValue{Name: name}
	for _, a := range args {
		fn.Arguments = append(fn.Arguments, &Argument{Value: a})
	}
	return fn
}

// Array builds an ArrayValue
func Array(elems ...Expr) *ArrayValue {
	return &ArrayValue{Elements: elems}
}

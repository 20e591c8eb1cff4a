package ast

import (
	"encoding/json"
	"fmt"
)

// Decode parses a JSON-serialized AST module (§6.1-AMBIENT) into a
// *Module. Each node is a JSON object discriminated by a "kind"
// field; this is the repository's stand-in for "a type-checked AST
// arrives from upstream" in the absence of the (out-of-scope) parser.
func Decode(data []byte) (*Module, error) {
	var raw struct {
		Decls []json.RawMessage `json:"decls"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: decode module: %w", err)
	}
	m := &Module{}
	for _, rd := range raw.Decls {
		d, err := decodeDecl(rd)
		if err != nil {
			return nil, err
		}
		m.Decls = append(m.Decls, d)
	}
	return m, nil
}

type node struct {
	Kind string          `json:"kind"`
	Pos  Pos             `json:"pos"`
	Raw  json.RawMessage `json:"-"`
}

func peekKind(data json.RawMessage) (string, error) {
	var n struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.Kind, nil
}

func decodeDecl(data json.RawMessage) (Decl, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "fn":
		var d struct {
			Pos        Pos      `json:"pos"`
			Name       string   `json:"name"`
			Params     []Param  `json:"params"`
			ReturnType TypeNode `json:"return_type"`
			Effects    []string `json:"effects"`
			Body       []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		body, err := decodeStmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &FnDecl{base: base{d.Pos}, Name: d.Name, Params: d.Params,
			ReturnType: d.ReturnType, Effects: d.Effects, Body: body}, nil
	case "struct":
		var d struct {
			Pos    Pos        `json:"pos"`
			Name   string     `json:"name"`
			Fields []FieldDef `json:"fields"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return &StructDecl{base: base{d.Pos}, Name: d.Name, Fields: d.Fields}, nil
	case "enum":
		var d struct {
			Pos      Pos              `json:"pos"`
			Name     string           `json:"name"`
			Variants []EnumVariantDef `json:"variants"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return &EnumDecl{base: base{d.Pos}, Name: d.Name, Variants: d.Variants}, nil
	case "type_alias":
		var d struct {
			Pos  Pos      `json:"pos"`
			Name string   `json:"name"`
			Type TypeNode `json:"type"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return &TypeAliasDecl{base: base{d.Pos}, Name: d.Name, Type: d.Type}, nil
	case "use":
		var d struct {
			Pos  Pos      `json:"pos"`
			Path []string `json:"path"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return &UseDecl{base: base{d.Pos}, Path: d.Path}, nil
	case "foreign":
		var d struct {
			Pos        Pos      `json:"pos"`
			Name       string   `json:"name"`
			Params     []Param  `json:"params"`
			ReturnType TypeNode `json:"return_type"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return &ForeignDecl{base: base{d.Pos}, Name: d.Name, Params: d.Params, ReturnType: d.ReturnType}, nil
	case "impl":
		var d struct {
			Pos        Pos               `json:"pos"`
			TargetType string            `json:"target_type"`
			Methods    []json.RawMessage `json:"methods"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		impl := &ImplDecl{base: base{d.Pos}, TargetType: d.TargetType}
		for _, rm := range d.Methods {
			md, err := decodeDecl(rm)
			if err != nil {
				return nil, err
			}
			fn, ok := md.(*FnDecl)
			if !ok {
				return nil, fmt.Errorf("ast: impl method must be kind \"fn\"")
			}
			impl.Methods = append(impl.Methods, fn)
		}
		return impl, nil
	default:
		return nil, fmt.Errorf("ast: unknown decl kind %q", kind)
	}
}

func decodeStmts(raws []json.RawMessage) ([]Stmt, error) {
	out := make([]Stmt, 0, len(raws))
	for _, r := range raws {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeStmt(data json.RawMessage) (Stmt, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "expr":
		var d struct {
			Pos  Pos             `json:"pos"`
			Expr json.RawMessage `json:"expr"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		e, err := decodeExpr(d.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{base: base{d.Pos}, Expr: e}, nil
	case "let":
		var d struct {
			Pos     Pos             `json:"pos"`
			Name    string          `json:"name"`
			Type    *TypeNode       `json:"type"`
			Value   json.RawMessage `json:"value"`
			Mutable bool            `json:"mutable"`
			Const   bool            `json:"const"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		v, err := decodeExpr(d.Value)
		if err != nil {
			return nil, err
		}
		var tn TypeNode
		if d.Type != nil {
			tn = *d.Type
		}
		return &LetStmt{base: base{d.Pos}, Name: d.Name, Type: tn, Value: v,
			Mutable: d.Mutable, IsConst: d.Const}, nil
	case "assign":
		var d struct {
			Pos    Pos             `json:"pos"`
			Target json.RawMessage `json:"target"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		target, err := decodeExpr(d.Target)
		if err != nil {
			return nil, err
		}
		value, err := decodeExpr(d.Value)
		if err != nil {
			return nil, err
		}
		return &AssignStmt{base: base{d.Pos}, Target: target, Value: value}, nil
	case "return":
		var d struct {
			Pos   Pos             `json:"pos"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		var v Expr
		if len(d.Value) > 0 {
			v, err = decodeExpr(d.Value)
			if err != nil {
				return nil, err
			}
		}
		return &ReturnStmt{base: base{d.Pos}, Value: v}, nil
	case "break":
		var d struct{ Pos Pos }
		json.Unmarshal(data, &d)
		return &BreakStmt{base{d.Pos}}, nil
	case "continue":
		var d struct{ Pos Pos }
		json.Unmarshal(data, &d)
		return &ContinueStmt{base{d.Pos}}, nil
	case "for":
		var d struct {
			Pos  Pos               `json:"pos"`
			Var  string            `json:"var"`
			Iter json.RawMessage   `json:"iter"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		iter, err := decodeExpr(d.Iter)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &ForStmt{base: base{d.Pos}, Var: d.Var, Iter: iter, Body: body}, nil
	case "while":
		var d struct {
			Pos  Pos               `json:"pos"`
			Cond json.RawMessage   `json:"cond"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		cond, err := decodeExpr(d.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{base: base{d.Pos}, Cond: cond, Body: body}, nil
	case "persist":
		var d struct {
			Pos  Pos               `json:"pos"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		body, err := decodeStmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &PersistStmt{base: base{d.Pos}, Body: body}, nil
	case "aether":
		var d struct {
			Pos  Pos               `json:"pos"`
			Body []json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		body, err := decodeStmts(d.Body)
		if err != nil {
			return nil, err
		}
		return &AetherStmt{base: base{d.Pos}, Body: body}, nil
	case "recover":
		var d struct {
			Pos     Pos               `json:"pos"`
			Try     []json.RawMessage `json:"try"`
			Recover []json.RawMessage `json:"recover"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		tryB, err := decodeStmts(d.Try)
		if err != nil {
			return nil, err
		}
		recB, err := decodeStmts(d.Recover)
		if err != nil {
			return nil, err
		}
		return &RecoverStmt{base: base{d.Pos}, Try: tryB, Recover: recB}, nil
	default:
		return nil, fmt.Errorf("ast: unknown stmt kind %q", kind)
	}
}

func decodeExpr(data json.RawMessage) (Expr, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("ast: missing expression")
	}
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "int":
		var d struct {
			Pos    Pos    `json:"pos"`
			Value  int64  `json:"value"`
			Suffix string `json:"suffix"`
		}
		json.Unmarshal(data, &d)
		return &IntLiteral{base: base{d.Pos}, Value: d.Value, Suffix: d.Suffix}, nil
	case "float":
		var d struct {
			Pos    Pos     `json:"pos"`
			Value  float64 `json:"value"`
			Suffix string  `json:"suffix"`
		}
		json.Unmarshal(data, &d)
		return &FloatLiteral{base: base{d.Pos}, Value: d.Value, Suffix: d.Suffix}, nil
	case "bool":
		var d struct {
			Pos   Pos  `json:"pos"`
			Value bool `json:"value"`
		}
		json.Unmarshal(data, &d)
		return &BoolLiteral{base: base{d.Pos}, Value: d.Value}, nil
	case "string":
		var d struct {
			Pos   Pos    `json:"pos"`
			Value string `json:"value"`
		}
		json.Unmarshal(data, &d)
		return &StringLiteral{base: base{d.Pos}, Value: d.Value}, nil
	case "void":
		var d struct {
			Pos        Pos      `json:"pos"`
			TargetType TypeNode `json:"target_type"`
		}
		json.Unmarshal(data, &d)
		return &VoidLiteral{base: base{d.Pos}, TargetType: d.TargetType}, nil
	case "ident":
		var d struct {
			Pos  Pos    `json:"pos"`
			Name string `json:"name"`
		}
		json.Unmarshal(data, &d)
		return &Ident{base: base{d.Pos}, Name: d.Name}, nil
	case "self":
		var d struct{ Pos Pos }
		json.Unmarshal(data, &d)
		return &SelfExpr{base{d.Pos}}, nil
	case "binary":
		var d struct {
			Pos   Pos             `json:"pos"`
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		json.Unmarshal(data, &d)
		l, err := decodeExpr(d.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(d.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{base: base{d.Pos}, Op: d.Op, Left: l, Right: r}, nil
	case "unary":
		var d struct {
			Pos     Pos             `json:"pos"`
			Op      string          `json:"op"`
			Operand json.RawMessage `json:"operand"`
		}
		json.Unmarshal(data, &d)
		o, err := decodeExpr(d.Operand)
		if err != nil {
			return nil, err
		}
		return &Unary{base: base{d.Pos}, Op: d.Op, Operand: o}, nil
	case "propagate":
		e, pos, err := decodeWrapped(data)
		if err != nil {
			return nil, err
		}
		return &Propagate{base: base{pos}, Operand: e}, nil
	case "assert":
		e, pos, err := decodeWrapped(data)
		if err != nil {
			return nil, err
		}
		return &Assert{base: base{pos}, Operand: e}, nil
	case "coalesce":
		var d struct {
			Pos     Pos             `json:"pos"`
			Operand json.RawMessage `json:"operand"`
			Default json.RawMessage `json:"default"`
		}
		json.Unmarshal(data, &d)
		o, err := decodeExpr(d.Operand)
		if err != nil {
			return nil, err
		}
		def, err := decodeExpr(d.Default)
		if err != nil {
			return nil, err
		}
		return &Coalesce{base: base{d.Pos}, Operand: o, Default: def}, nil
	case "call":
		var d struct {
			Pos    Pos               `json:"pos"`
			Callee json.RawMessage   `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		json.Unmarshal(data, &d)
		callee, err := decodeExpr(d.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &Call{base: base{d.Pos}, Callee: callee, Args: args}, nil
	case "method_call":
		var d struct {
			Pos      Pos               `json:"pos"`
			Receiver json.RawMessage   `json:"receiver"`
			Method   string            `json:"method"`
			Args     []json.RawMessage `json:"args"`
		}
		json.Unmarshal(data, &d)
		recv, err := decodeExpr(d.Receiver)
		if err != nil {
			return nil, err
		}
		args, err := decodeExprs(d.Args)
		if err != nil {
			return nil, err
		}
		return &MethodCall{base: base{d.Pos}, Receiver: recv, Method: d.Method, Args: args}, nil
	case "field":
		var d struct {
			Pos    Pos             `json:"pos"`
			Object json.RawMessage `json:"object"`
			Name   string          `json:"name"`
		}
		json.Unmarshal(data, &d)
		obj, err := decodeExpr(d.Object)
		if err != nil {
			return nil, err
		}
		return &Field{base: base{d.Pos}, Object: obj, Name: d.Name}, nil
	case "index":
		var d struct {
			Pos    Pos             `json:"pos"`
			Object json.RawMessage `json:"object"`
			Index  json.RawMessage `json:"index"`
		}
		json.Unmarshal(data, &d)
		obj, err := decodeExpr(d.Object)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(d.Index)
		if err != nil {
			return nil, err
		}
		return &Index{base: base{d.Pos}, Object: obj, Idx: idx}, nil
	case "block":
		var d struct {
			Pos   Pos               `json:"pos"`
			Stmts []json.RawMessage `json:"stmts"`
			Tail  json.RawMessage   `json:"tail"`
		}
		json.Unmarshal(data, &d)
		stmts, err := decodeStmts(d.Stmts)
		if err != nil {
			return nil, err
		}
		var tail Expr
		if len(d.Tail) > 0 {
			tail, err = decodeExpr(d.Tail)
			if err != nil {
				return nil, err
			}
		}
		return &BlockExpr{base: base{d.Pos}, Stmts: stmts, Tail: tail}, nil
	case "if":
		var d struct {
			Pos  Pos             `json:"pos"`
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		json.Unmarshal(data, &d)
		cond, err := decodeExpr(d.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeExpr(d.Then)
		if err != nil {
			return nil, err
		}
		var els Expr
		if len(d.Else) > 0 {
			els, err = decodeExpr(d.Else)
			if err != nil {
				return nil, err
			}
		}
		return &IfExpr{base: base{d.Pos}, Cond: cond, Then: then, Else: els}, nil
	case "array":
		var d struct {
			Pos      Pos               `json:"pos"`
			Elements []json.RawMessage `json:"elements"`
		}
		json.Unmarshal(data, &d)
		elems, err := decodeExprs(d.Elements)
		if err != nil {
			return nil, err
		}
		return &ArrayExpr{base: base{d.Pos}, Elements: elems}, nil
	case "struct_init":
		var d struct {
			Pos        Pos    `json:"pos"`
			StructName string `json:"struct_name"`
			Fields     []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"fields"`
		}
		json.Unmarshal(data, &d)
		init := &StructInit{base: base{d.Pos}, StructName: d.StructName}
		for _, f := range d.Fields {
			v, err := decodeExpr(f.Value)
			if err != nil {
				return nil, err
			}
			init.Fields = append(init.Fields, FieldInit{Name: f.Name, Value: v})
		}
		return init, nil
	case "cast":
		var d struct {
			Pos     Pos             `json:"pos"`
			Operand json.RawMessage `json:"operand"`
			Target  TypeNode        `json:"target"`
		}
		json.Unmarshal(data, &d)
		o, err := decodeExpr(d.Operand)
		if err != nil {
			return nil, err
		}
		return &Cast{base: base{d.Pos}, Operand: o, Target: d.Target}, nil
	case "range":
		var d struct {
			Pos       Pos             `json:"pos"`
			Start     json.RawMessage `json:"start"`
			End       json.RawMessage `json:"end"`
			Inclusive bool            `json:"inclusive"`
		}
		json.Unmarshal(data, &d)
		start, err := decodeExpr(d.Start)
		if err != nil {
			return nil, err
		}
		end, err := decodeExpr(d.End)
		if err != nil {
			return nil, err
		}
		return &Range{base: base{d.Pos}, Start: start, End: end, Inclusive: d.Inclusive}, nil
	case "closure":
		var d struct {
			Pos    Pos             `json:"pos"`
			Params []ClosureParam  `json:"params"`
			Body   json.RawMessage `json:"body"`
		}
		json.Unmarshal(data, &d)
		body, err := decodeExpr(d.Body)
		if err != nil {
			return nil, err
		}
		return &Closure{base: base{d.Pos}, Params: d.Params, Body: body}, nil
	default:
		return nil, fmt.Errorf("ast: unknown expr kind %q", kind)
	}
}

func decodeWrapped(data json.RawMessage) (Expr, Pos, error) {
	var d struct {
		Pos     Pos             `json:"pos"`
		Operand json.RawMessage `json:"operand"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, Pos{}, err
	}
	e, err := decodeExpr(d.Operand)
	return e, d.Pos, err
}

func decodeExprs(raws []json.RawMessage) ([]Expr, error) {
	out := make([]Expr, 0, len(raws))
	for _, r := range raws {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

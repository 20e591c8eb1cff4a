package lowering

import (
	"seraphim/internal/ast"
	"seraphim/internal/types"
)

// ResolveType maps a surface ast.TypeNode to a *types.Type, resolving
// Named/Path references against the struct/enum registries populated
// by RegisterDecls. Unknown names resolve to types.Void_() without
// recording a diagnostic — the (out-of-scope) type checker is assumed
// to have already rejected genuinely malformed programs; this is
// lowering's own defensive fallback so a bad name never panics the pass.
func (c *Context) ResolveType(tn ast.TypeNode) *types.Type {
	switch tn.Kind {
	case ast.TNPrimitive:
		return primitiveByName(tn.Name)
	case ast.TNNamed, ast.TNPath:
		if t, ok := c.StructTypes[tn.Name]; ok {
			return t
		}
		if t, ok := c.EnumVariantType[tn.Name]; ok {
			return t
		}
		return types.Void_()
	case ast.TNArray:
		return types.ArrayOf(c.ResolveType(*tn.Elem), tn.Length)
	case ast.TNSlice:
		return types.SliceOf(c.ResolveType(*tn.Elem))
	case ast.TNPointer, ast.TNRef, ast.TNMutRef:
		return types.PointerTo(c.ResolveType(*tn.Elem))
	case ast.TNSubstrateRef:
		return types.SubstrateT()
	case ast.TNVoidable:
		return types.VoidableOf(c.ResolveType(*tn.Elem))
	case ast.TNTuple:
		fields := make([]*types.Type, len(tn.Elems))
		names := make([]string, len(tn.Elems))
		for i, e := range tn.Elems {
			fields[i] = c.ResolveType(e)
			names[i] = tupleFieldName(i)
		}
		return types.NewStruct("", names, fields)
	case ast.TNFn:
		params := make([]*types.Type, len(tn.Params))
		for i, p := range tn.Params {
			params[i] = c.ResolveType(p)
		}
		var ret *types.Type
		if tn.Ret != nil {
			ret = c.ResolveType(*tn.Ret)
		} else {
			ret = types.Void_()
		}
		return types.NewFunction(ret, params, effectsFromNames(tn.Effects))
	default:
		return types.Void_()
	}
}

func tupleFieldName(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	// tuples with >= 10 elements are vanishingly rare in practice; fall
	// back to a stable multi-digit name rather than a lookup table.
	s := []byte{}
	n := i
	for n > 0 {
		s = append([]byte{digits[n%10]}, s...)
		n /= 10
	}
	return string(s)
}

func primitiveByName(name string) *types.Type {
	switch name {
	case "void":
		return types.Void_()
	case "bool":
		return types.BoolT()
	case "i8":
		return types.I8T()
	case "i16":
		return types.I16T()
	case "i32":
		return types.I32T()
	case "i64":
		return types.I64T()
	case "u8":
		return types.U8T()
	case "u16":
		return types.U16T()
	case "u32":
		return types.U32T()
	case "u64":
		return types.U64T()
	case "scalar":
		return types.ScalarT()
	case "dual":
		return types.DualT()
	case "galactic":
		return types.GalacticT()
	case "capability":
		return types.CapabilityT()
	case "substrate":
		return types.SubstrateT()
	case "str":
		return types.StrT()
	default:
		return types.Void_()
	}
}

func effectsFromNames(names []string) types.Effect {
	var acc types.Effect
	for _, n := range names {
		switch n {
		case "READ":
			acc |= types.EffRead
		case "WRITE":
			acc |= types.EffWrite
		case "ALLOC":
			acc |= types.EffAlloc
		case "VOID":
			acc |= types.EffVoid
		case "PANIC":
			acc |= types.EffPanic
		case "PERSIST":
			acc |= types.EffPersist
		case "NETWORK":
			acc |= types.EffNetwork
		case "IO":
			acc |= types.EffIO
		}
	}
	return acc
}

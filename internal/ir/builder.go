package ir

import "seraphim/internal/types"

// Builder is the single cursor C2 describes: it holds {module,
// function, block, insert_point} and every build_<op> routine funnels
// through emit/materialize, mirroring the teacher's StmtCompiler
// emitOp/emitByte single-point-of-emission pattern.
type Builder struct {
	Module      *Module
	Function    *Function
	Block       *Block
	insertPoint *Instruction // nil means append at end

	Const ConstFactory
}

// NewBuilder creates a builder with no function/block positioned yet;
// call SetFunction then Position before emitting.
func NewBuilder(m *Module) *Builder {
	return &Builder{Module: m}
}

// SetFunction points the builder at fn, with no block selected.
func (b *Builder) SetFunction(fn *Function) {
	b.Function = fn
	b.Block = nil
	b.insertPoint = nil
}

// Position sets the builder's cursor to block, appending subsequent
// instructions at its end (insert_point = NULL per §4.2).
func (b *Builder) Position(block *Block) {
	b.Block = block
	b.insertPoint = nil
}

// PositionBefore sets the cursor so subsequent instructions are linked
// immediately before point, still within block.
func (b *Builder) PositionBefore(block *Block, point *Instruction) {
	b.Block = block
	b.insertPoint = point
}

func (b *Builder) emit(instr *Instruction) *Instruction {
	b.Block.InsertBefore(instr, b.insertPoint)
	return instr
}

func (b *Builder) materializeResult(t *types.Type) *Value {
	return &Value{Kind: VregKind, Type: t, ID: b.Function.NextVregID(), MayBeVoid: No}
}

// --- arithmetic / bitwise ---------------------------------------------------

func (b *Builder) binOp(opc Opcode, lhs, rhs *Value, resultType *types.Type) *Value {
	res := b.materializeResult(resultType)
	res.MayBeVoid = Join(lhs.MayBeVoid, rhs.MayBeVoid)
	effects := BaseEffects(opc)
	if opc == OpDiv || opc == OpMod {
		// "Division/modulo always yield MAYBE" — §3.2 — regardless of
		// the operand join result.
		res.MayBeVoid = Maybe
	}
	instr := &Instruction{Opcode: opc, Result: res, Operands: []*Value{lhs, rhs},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: effects}
	b.emit(instr)
	return res
}

func (b *Builder) BuildAdd(lhs, rhs *Value) *Value { return b.binOp(OpAdd, lhs, rhs, lhs.Type) }
func (b *Builder) BuildSub(lhs, rhs *Value) *Value { return b.binOp(OpSub, lhs, rhs, lhs.Type) }
func (b *Builder) BuildMul(lhs, rhs *Value) *Value { return b.binOp(OpMul, lhs, rhs, lhs.Type) }
func (b *Builder) BuildDiv(lhs, rhs *Value) *Value { return b.binOp(OpDiv, lhs, rhs, lhs.Type) }
func (b *Builder) BuildMod(lhs, rhs *Value) *Value { return b.binOp(OpMod, lhs, rhs, lhs.Type) }

func (b *Builder) BuildAnd(lhs, rhs *Value) *Value { return b.binOp(OpAnd, lhs, rhs, lhs.Type) }
func (b *Builder) BuildOr(lhs, rhs *Value) *Value  { return b.binOp(OpOr, lhs, rhs, lhs.Type) }
func (b *Builder) BuildXor(lhs, rhs *Value) *Value { return b.binOp(OpXor, lhs, rhs, lhs.Type) }
func (b *Builder) BuildShl(lhs, rhs *Value) *Value { return b.binOp(OpShl, lhs, rhs, lhs.Type) }
func (b *Builder) BuildShr(lhs, rhs *Value) *Value { return b.binOp(OpShr, lhs, rhs, lhs.Type) }
func (b *Builder) BuildSar(lhs, rhs *Value) *Value { return b.binOp(OpSar, lhs, rhs, lhs.Type) }

func (b *Builder) unOp(opc Opcode, v *Value, resultType *types.Type) *Value {
	res := b.materializeResult(resultType)
	res.MayBeVoid = v.MayBeVoid
	instr := &Instruction{Opcode: opc, Result: res, Operands: []*Value{v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(opc)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildNeg(v *Value) *Value { return b.unOp(OpNeg, v, v.Type) }
func (b *Builder) BuildNot(v *Value) *Value { return b.unOp(OpNot, v, v.Type) }

// --- compare -----------------------------------------------------------------

func (b *Builder) cmp(opc Opcode, lhs, rhs *Value) *Value {
	return b.binOp(opc, lhs, rhs, types.BoolT())
}

func (b *Builder) BuildEq(lhs, rhs *Value) *Value { return b.cmp(OpEq, lhs, rhs) }
func (b *Builder) BuildNe(lhs, rhs *Value) *Value { return b.cmp(OpNe, lhs, rhs) }
func (b *Builder) BuildLt(lhs, rhs *Value) *Value { return b.cmp(OpLt, lhs, rhs) }
func (b *Builder) BuildLe(lhs, rhs *Value) *Value { return b.cmp(OpLe, lhs, rhs) }
func (b *Builder) BuildGt(lhs, rhs *Value) *Value { return b.cmp(OpGt, lhs, rhs) }
func (b *Builder) BuildGe(lhs, rhs *Value) *Value { return b.cmp(OpGe, lhs, rhs) }

// --- conversion ---------------------------------------------------------------

func (b *Builder) convert(opc Opcode, v *Value, to *types.Type) *Value {
	res := b.materializeResult(to)
	res.MayBeVoid = v.MayBeVoid
	instr := &Instruction{Opcode: opc, Result: res, Operands: []*Value{v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(opc)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildTrunc(v *Value, to *types.Type) *Value   { return b.convert(OpTrunc, v, to) }
func (b *Builder) BuildZext(v *Value, to *types.Type) *Value    { return b.convert(OpZext, v, to) }
func (b *Builder) BuildSext(v *Value, to *types.Type) *Value    { return b.convert(OpSext, v, to) }
func (b *Builder) BuildBitcast(v *Value, to *types.Type) *Value { return b.convert(OpBitcast, v, to) }

// --- VOID ----------------------------------------------------------------------

// BuildVoidTest emits void.test, producing a bool result classifying
// whether v is the VOID sentinel.
func (b *Builder) BuildVoidTest(v *Value) *Value {
	res := b.materializeResult(types.BoolT())
	instr := &Instruction{Opcode: OpVoidTest, Result: res, Operands: []*Value{v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpVoidTest)}
	b.emit(instr)
	return res
}

// forciblyNo implements the §3.2 rule that void.prop and void.assert
// "forcibly set NO on their result".
func (b *Builder) forciblyNo(opc Opcode, v *Value) *Value {
	res := b.materializeResult(v.Type)
	res.MayBeVoid = No
	instr := &Instruction{Opcode: opc, Result: res, Operands: []*Value{v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(opc)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildVoidProp(v *Value) *Value   { return b.forciblyNo(OpVoidProp, v) }
func (b *Builder) BuildVoidAssert(v *Value) *Value { return b.forciblyNo(OpVoidAssert, v) }

// BuildVoidCoalesce emits void.coalesce(v, fallback); "result's
// may_be_void inherits from default" per §4.3.
func (b *Builder) BuildVoidCoalesce(v, fallback *Value) *Value {
	res := b.materializeResult(fallback.Type)
	res.MayBeVoid = fallback.MayBeVoid
	instr := &Instruction{Opcode: OpVoidCoalesce, Result: res, Operands: []*Value{v, fallback},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpVoidCoalesce)}
	b.emit(instr)
	return res
}

// --- capability ----------------------------------------------------------------

// BuildCapCreate emits cap.create(base, length, permissions). No
// generation stamp is attached to the result here.
func (b *Builder) BuildCapCreate(base, length, permissions *Value) *Value {
	res := b.materializeResult(types.CapabilityT())
	res.MayBeVoid = Maybe // bounds/generation/permission violations yield VOID dynamically
	instr := &Instruction{Opcode: OpCapCreate, Result: res, Operands: []*Value{base, length, permissions},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpCapCreate)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildCapLoad(cap *Value, elemType *types.Type) *Value {
	res := b.materializeResult(elemType)
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpCapLoad, Result: res, Operands: []*Value{cap},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpCapLoad)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildCapStore(cap, v *Value) *Instruction {
	instr := &Instruction{Opcode: OpCapStore, Operands: []*Value{cap, v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpCapStore)}
	return b.emit(instr)
}

func (b *Builder) BuildCapRevoke(cap *Value) *Instruction {
	instr := &Instruction{Opcode: OpCapRevoke, Operands: []*Value{cap},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpCapRevoke)}
	return b.emit(instr)
}

// --- memory ----------------------------------------------------------------------

func (b *Builder) BuildAlloca(t *types.Type) *Value {
	res := b.materializeResult(types.PointerTo(t))
	instr := &Instruction{Opcode: OpAlloca, Result: res, Target1: InvalidBlock, Target2: InvalidBlock,
		Effects: BaseEffects(OpAlloca)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildLoad(ptr *Value, pointee *types.Type) *Value {
	res := b.materializeResult(pointee)
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpLoad, Result: res, Operands: []*Value{ptr},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpLoad)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildStore(ptr, v *Value) *Instruction {
	instr := &Instruction{Opcode: OpStore, Operands: []*Value{ptr, v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpStore)}
	return b.emit(instr)
}

// BuildGep computes the address of field/element index within a
// struct/array base pointer. elemType is the pointee's type; BuildGep
// itself types the result as PointerTo(elemType).
func (b *Builder) BuildGep(base *Value, index *Value, elemType *types.Type) *Value {
	res := b.materializeResult(types.PointerTo(elemType))
	res.MayBeVoid = Maybe // out-of-bounds gep is a VOID-producing capability violation
	instr := &Instruction{Opcode: OpGep, Result: res, Operands: []*Value{base, index},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpGep)}
	b.emit(instr)
	return res
}

// --- aggregate ----------------------------------------------------------------

func (b *Builder) BuildExtractField(agg *Value, index int, fieldType *types.Type) *Value {
	res := b.materializeResult(fieldType)
	res.MayBeVoid = agg.MayBeVoid
	res.IntPayload = int64(index)
	instr := &Instruction{Opcode: OpExtractField, Result: res, Operands: []*Value{agg},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpExtractField)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildInsertField(agg *Value, index int, v *Value) *Value {
	res := b.materializeResult(agg.Type)
	res.MayBeVoid = Join(agg.MayBeVoid, v.MayBeVoid)
	idxConst := b.Const.Int(types.I32T(), int64(index))
	instr := &Instruction{Opcode: OpInsertField, Result: res, Operands: []*Value{agg, idxConst, v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpInsertField)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildExtractElem(agg, index *Value, elemType *types.Type) *Value {
	res := b.materializeResult(elemType)
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpExtractElem, Result: res, Operands: []*Value{agg, index},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpExtractElem)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildInsertElem(agg, index, v *Value) *Value {
	res := b.materializeResult(agg.Type)
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpInsertElem, Result: res, Operands: []*Value{agg, index, v},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpInsertElem)}
	b.emit(instr)
	return res
}

// --- substrate ----------------------------------------------------------------

func (b *Builder) BuildSubstrateEnter(ctx *Value) *Value {
	res := b.materializeResult(types.SubstrateT())
	instr := &Instruction{Opcode: OpSubstrateEnter, Result: res, Operands: []*Value{ctx},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpSubstrateEnter)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildSubstrateExit(handle *Value) *Instruction {
	instr := &Instruction{Opcode: OpSubstrateExit, Operands: []*Value{handle},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpSubstrateExit)}
	return b.emit(instr)
}

func (b *Builder) BuildAtlasBegin() *Value {
	res := b.materializeResult(types.SubstrateT())
	instr := &Instruction{Opcode: OpAtlasBegin, Result: res, Target1: InvalidBlock, Target2: InvalidBlock,
		Effects: BaseEffects(OpAtlasBegin)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildAtlasCommit(tx *Value) *Instruction {
	instr := &Instruction{Opcode: OpAtlasCommit, Operands: []*Value{tx},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpAtlasCommit)}
	return b.emit(instr)
}

func (b *Builder) BuildAtlasRollback(tx *Value) *Instruction {
	instr := &Instruction{Opcode: OpAtlasRollback, Operands: []*Value{tx},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpAtlasRollback)}
	return b.emit(instr)
}

func (b *Builder) BuildAetherSync(payload *Value) *Value {
	res := b.materializeResult(types.VoidableOf(payload.Type))
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpAetherSync, Result: res, Operands: []*Value{payload},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpAetherSync)}
	b.emit(instr)
	return res
}

// --- galactic ----------------------------------------------------------------

func (b *Builder) BuildGalacticAdd(lhs, rhs *Value) *Value {
	return b.binOp(OpGalacticAdd, lhs, rhs, types.GalacticT())
}
func (b *Builder) BuildGalacticMul(lhs, rhs *Value) *Value {
	return b.binOp(OpGalacticMul, lhs, rhs, types.GalacticT())
}
func (b *Builder) BuildGalacticPredict(v *Value, dt *Value) *Value {
	res := b.materializeResult(types.GalacticT())
	res.MayBeVoid = Join(v.MayBeVoid, dt.MayBeVoid)
	instr := &Instruction{Opcode: OpGalacticPredict, Result: res, Operands: []*Value{v, dt},
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpGalacticPredict)}
	b.emit(instr)
	return res
}

// --- control flow ----------------------------------------------------------------

func (b *Builder) BuildJump(target BlockID) *Instruction {
	instr := &Instruction{Opcode: OpJump, Target1: target, Target2: InvalidBlock}
	return b.emit(instr)
}

func (b *Builder) BuildBranch(cond *Value, thenBlock, elseBlock BlockID) *Instruction {
	instr := &Instruction{Opcode: OpBranch, Operands: []*Value{cond}, Target1: thenBlock, Target2: elseBlock}
	return b.emit(instr)
}

func (b *Builder) BuildSwitch(v *Value, cases []SwitchCase, defaultBlock BlockID) *Instruction {
	instr := &Instruction{Opcode: OpSwitch, Operands: []*Value{v}, Target1: defaultBlock,
		Target2: InvalidBlock, SwitchCases: cases}
	return b.emit(instr)
}

// BuildCall emits a direct call; per §4.2, its effect mask is the
// callee's declared effect set (the lowering never invents effects of
// its own — §4.3).
func (b *Builder) BuildCall(callee *Function, args []*Value) *Value {
	res := b.materializeResult(callee.ReturnType)
	res.MayBeVoid = Maybe
	instr := &Instruction{Opcode: OpCall, Result: res, Operands: args, Callee: callee,
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: callee.DeclEffects}
	b.emit(instr)
	return res
}

// BuildCallIndirect emits a call through a function-pointer value;
// §4.2: "uses a conservative IO|VOID".
func (b *Builder) BuildCallIndirect(fnPtr *Value, args []*Value, retType *types.Type) *Value {
	res := b.materializeResult(retType)
	res.MayBeVoid = Maybe
	operands := append([]*Value{fnPtr}, args...)
	instr := &Instruction{Opcode: OpCallIndirect, Result: res, Operands: operands,
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpCallIndirect)}
	b.emit(instr)
	return res
}

// BuildSyscall emits a syscall instruction; args must have length <= 6
// per §4.2. Returns i64.
func (b *Builder) BuildSyscall(num *Value, args []*Value) *Value {
	if len(args) > 6 {
		panic("ir: syscall takes at most 6 arguments")
	}
	res := b.materializeResult(types.I64T())
	operands := append([]*Value{num}, args...)
	instr := &Instruction{Opcode: OpSyscall, Result: res, Operands: operands,
		Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpSyscall)}
	b.emit(instr)
	return res
}

func (b *Builder) BuildReturn(v *Value) *Instruction {
	var operands []*Value
	if v != nil {
		operands = []*Value{v}
	}
	instr := &Instruction{Opcode: OpReturn, Operands: operands, Target1: InvalidBlock, Target2: InvalidBlock}
	return b.emit(instr)
}

func (b *Builder) BuildUnreachable() *Instruction {
	instr := &Instruction{Opcode: OpUnreachable, Target1: InvalidBlock, Target2: InvalidBlock}
	return b.emit(instr)
}

func (b *Builder) BuildTrap() *Instruction {
	instr := &Instruction{Opcode: OpTrap, Target1: InvalidBlock, Target2: InvalidBlock, Effects: BaseEffects(OpTrap)}
	return b.emit(instr)
}

func (b *Builder) BuildNop() *Instruction {
	instr := &Instruction{Opcode: OpNop, Target1: InvalidBlock, Target2: InvalidBlock}
	return b.emit(instr)
}

package ppl

// A small type inferencer. It is consulted by the inliner and the algebraic
// simplifier solely to decide whether a rewrite is safe, e.g. whether a
// map/zip argument is a sequence of statically known size.

import (
	"strconv"

	"github.com/Tobias-Kohn/PyPPLCompiler/symbol"
)

// TypeKind enumerates the inferred type classes.
type TypeKind int

const (
	// UnknownType is the bottom of the lattice; no rewrite may rely on it.
	UnknownType TypeKind = iota
	// IntegerType is an integer scalar.
	IntegerType
	// FloatType is a floating-point scalar.
	FloatType
	// BoolType is a boolean scalar.
	BoolType
	// StringType is a string.
	StringType
	// SequenceType is a vector; Elem and Size refine it.
	SequenceType
	// DistributionType is a distribution object; Family refines it.
	DistributionType
)

// Type is an inferred node type.
type Type struct {
	Kind TypeKind
	// Elem is the element type of a sequence.
	Elem *Type
	// Size is the statically known length of a sequence, or -1.
	Size int
	// Family is the family of a distribution type.
	Family *DistFamily
}

var (
	unknownType = Type{Kind: UnknownType, Size: -1}
	integerType = Type{Kind: IntegerType, Size: -1}
	floatType   = Type{Kind: FloatType, Size: -1}
	boolType    = Type{Kind: BoolType, Size: -1}
	stringType  = Type{Kind: StringType, Size: -1}
)

func sequenceType(elem Type, size int) Type {
	e := elem
	return Type{Kind: SequenceType, Elem: &e, Size: size}
}

// IsScalarNumeric reports an integer or float scalar.
func (t Type) IsScalarNumeric() bool {
	return t.Kind == IntegerType || t.Kind == FloatType
}

func (t Type) String() string {
	switch t.Kind {
	case IntegerType:
		return "Integer"
	case FloatType:
		return "Float"
	case BoolType:
		return "Bool"
	case StringType:
		return "String"
	case SequenceType:
		s := "Sequence[" + t.Elem.String()
		if t.Size >= 0 {
			s += "," + strconv.Itoa(t.Size)
		}
		return s + "]"
	case DistributionType:
		return "Distribution[" + t.Family.Name + "]"
	}
	return "Unknown"
}

// unionType combines two types: the widest numeric type wins, sequences unify
// element-wise, anything else collapses to Unknown.
func unionType(a, b Type) Type {
	if a.Kind == b.Kind {
		switch a.Kind {
		case SequenceType:
			size := a.Size
			if b.Size != size {
				size = -1
			}
			return sequenceType(unionType(*a.Elem, *b.Elem), size)
		case DistributionType:
			if a.Family == b.Family {
				return a
			}
			return unknownType
		default:
			return a
		}
	}
	if a.IsScalarNumeric() && b.IsScalarNumeric() {
		return floatType
	}
	return unknownType
}

// typeEnv maps names to inferred types during a pass.
type typeEnv struct {
	parent *typeEnv
	vars   map[symbol.ID]Type
}

func newTypeEnv(parent *typeEnv) *typeEnv {
	return &typeEnv{parent: parent, vars: map[symbol.ID]Type{}}
}

func (e *typeEnv) define(name symbol.ID, t Type) { e.vars[name] = t }

func (e *typeEnv) lookup(name symbol.ID) (Type, bool) {
	for env := e; env != nil; env = env.parent {
		if t, ok := env.vars[name]; ok {
			return t, true
		}
	}
	return unknownType, false
}

// typeInferencer infers node types under an environment of definitions.
type typeInferencer struct {
	env *typeEnv
}

func newTypeInferencer() *typeInferencer {
	return &typeInferencer{env: newTypeEnv(nil)}
}

func valueType(v Value) Type {
	switch v.Kind {
	case IntValue:
		return integerType
	case FloatValue:
		return floatType
	case BoolValue:
		return boolType
	case StringValue:
		return stringType
	case VectorValue:
		elem := unknownType
		for i, e := range v.Elems {
			if i == 0 {
				elem = valueType(e)
			} else {
				elem = unionType(elem, valueType(e))
			}
		}
		return sequenceType(elem, len(v.Elems))
	}
	return unknownType
}

// infer returns the type of the node. It records def targets in the
// environment as a side effect so that later siblings see them.
func (ti *typeInferencer) infer(n ASTNode) Type {
	switch t := n.(type) {
	case *ASTLiteral:
		return valueType(t.Val)
	case *ASTValueVector:
		return valueType(NewVector(t.Values))
	case *ASTVector:
		elem := unknownType
		for i, item := range t.Items {
			it := ti.infer(item)
			if i == 0 {
				elem = it
			} else {
				elem = unionType(elem, it)
			}
		}
		return sequenceType(elem, len(t.Items))
	case *ASTSymbol:
		if typ, ok := ti.env.lookup(t.Name); ok {
			return typ
		}
		return unknownType
	case *ASTDef:
		typ := ti.infer(t.Value)
		ti.env.define(t.Name, typ)
		return typ
	case *ASTLet:
		typ := ti.infer(t.Source)
		saved := ti.env
		ti.env = newTypeEnv(saved)
		ti.env.define(t.Target, typ)
		result := ti.infer(t.Body)
		ti.env = saved
		return result
	case *ASTBody:
		result := unknownType
		for _, item := range t.Items {
			result = ti.infer(item)
		}
		return result
	case *ASTReturn:
		if t.Value == nil {
			return unknownType
		}
		return ti.infer(t.Value)
	case *ASTCond:
		ti.infer(t.Cond)
		thenType := ti.infer(t.Then)
		if t.Else == nil {
			return unionType(thenType, unknownType)
		}
		return unionType(thenType, ti.infer(t.Else))
	case *ASTSubscript:
		base := ti.infer(t.Base)
		ti.infer(t.Index)
		if base.Kind != SequenceType {
			return unknownType
		}
		if t.Column {
			// A column subscript of a matrix yields one element per row.
			if base.Elem.Kind == SequenceType {
				return sequenceType(*base.Elem.Elem, base.Size)
			}
			return unknownType
		}
		return *base.Elem
	case *ASTDist:
		for _, arg := range t.Args {
			ti.infer(arg)
		}
		return Type{Kind: DistributionType, Family: t.Family, Size: -1}
	case *ASTSample:
		dist := ti.infer(t.Dist)
		elem := unknownType
		if dist.Kind == DistributionType {
			if dist.Family.Continuous {
				elem = floatType
			} else {
				elem = integerType
			}
		}
		if t.Size != nil {
			if size := staticSampleSize(t.Size); size > 0 {
				return sequenceType(elem, size)
			}
			return sequenceType(elem, -1)
		}
		return elem
	case *ASTObserve:
		ti.infer(t.Dist)
		return ti.infer(t.Value)
	case *ASTBinary:
		return ti.inferBinary(t)
	case *ASTUnary:
		if t.Op == "not" {
			return boolType
		}
		return ti.infer(t.Operand)
	case *ASTCall:
		for _, arg := range t.Args {
			ti.infer(arg)
		}
		if fn, ok := t.Function.(*ASTSymbol); ok && fn.Name == symbol.Len {
			return integerType
		}
		return unknownType
	}
	return unknownType
}

func (ti *typeInferencer) inferBinary(n *ASTBinary) Type {
	lhs, rhs := ti.infer(n.LHS), ti.infer(n.RHS)
	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=", "and", "or":
		return boolType
	case "/":
		lhs, rhs = divisionType(lhs), divisionType(rhs)
	}
	// Scalar op sequence broadcasts to a sequence of the element type.
	if lhs.Kind == SequenceType && rhs.IsScalarNumeric() {
		return sequenceType(unionType(*lhs.Elem, rhs), lhs.Size)
	}
	if rhs.Kind == SequenceType && lhs.IsScalarNumeric() {
		return sequenceType(unionType(*rhs.Elem, lhs), rhs.Size)
	}
	return unionType(lhs, rhs)
}

// divisionType widens integers: true division always yields floats.
func divisionType(t Type) Type {
	if t.Kind == IntegerType {
		return floatType
	}
	if t.Kind == SequenceType {
		return sequenceType(divisionType(*t.Elem), t.Size)
	}
	return t
}

// staticSampleSize extracts a statically known sample size from the second
// argument of sample(): either an integer literal or a one-element vector.
func staticSampleSize(n ASTNode) int {
	v, ok := literalValue(n)
	if !ok {
		return -1
	}
	if v.Kind == VectorValue && len(v.Elems) == 1 {
		v = v.Elems[0]
	}
	if v.Kind == IntValue {
		return int(v.Int)
	}
	return -1
}

package ppl

// Constant folding over literal operands, shared by the raw and the
// algebraic simplifier. Arithmetic on literal vectors broadcasts
// element-wise, matching the vectorized surface semantics.

import "math"

func foldBinary(op string, lhs, rhs ASTNode) (Value, bool) {
	a, ok := literalValue(lhs)
	if !ok {
		return Value{}, false
	}
	b, ok := literalValue(rhs)
	if !ok {
		return Value{}, false
	}
	return evalBinary(op, a, b)
}

func foldUnary(op string, operand ASTNode) (Value, bool) {
	v, ok := literalValue(operand)
	if !ok {
		return Value{}, false
	}
	return evalUnary(op, v)
}

func evalBinary(op string, a, b Value) (Value, bool) {
	switch op {
	case "and":
		if a.AsBool() {
			return b, true
		}
		return a, true
	case "or":
		if a.AsBool() {
			return a, true
		}
		return b, true
	case "==":
		return NewBool(a.Equal(b)), true
	case "!=":
		return NewBool(!a.Equal(b)), true
	}

	// Element-wise broadcasting over literal vectors.
	if a.Kind == VectorValue || b.Kind == VectorValue {
		return evalBinaryVector(op, a, b)
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, false
	}

	switch op {
	case "<":
		return NewBool(a.AsFloat() < b.AsFloat()), true
	case "<=":
		return NewBool(a.AsFloat() <= b.AsFloat()), true
	case ">":
		return NewBool(a.AsFloat() > b.AsFloat()), true
	case ">=":
		return NewBool(a.AsFloat() >= b.AsFloat()), true
	}

	if a.Kind == IntValue && b.Kind == IntValue {
		switch op {
		case "+":
			return NewInt(a.Int + b.Int), true
		case "-":
			return NewInt(a.Int - b.Int), true
		case "*":
			return NewInt(a.Int * b.Int), true
		case "//":
			if b.Int == 0 {
				return Value{}, false
			}
			return NewInt(floorDivInt(a.Int, b.Int)), true
		case "%":
			if b.Int == 0 {
				return Value{}, false
			}
			return NewInt(a.Int - b.Int*floorDivInt(a.Int, b.Int)), true
		case "**":
			if b.Int >= 0 {
				r := int64(1)
				for i := int64(0); i < b.Int; i++ {
					r *= a.Int
				}
				return NewInt(r), true
			}
		}
	}

	x, y := a.AsFloat(), b.AsFloat()
	switch op {
	case "+":
		return NewFloat(x + y), true
	case "-":
		return NewFloat(x - y), true
	case "*":
		return NewFloat(x * y), true
	case "/":
		if y == 0 {
			return Value{}, false
		}
		return NewFloat(x / y), true
	case "//":
		if y == 0 {
			return Value{}, false
		}
		return NewFloat(math.Floor(x / y)), true
	case "%":
		if y == 0 {
			return Value{}, false
		}
		return NewFloat(x - y*math.Floor(x/y)), true
	case "**":
		return NewFloat(math.Pow(x, y)), true
	}
	return Value{}, false
}

func evalBinaryVector(op string, a, b Value) (Value, bool) {
	switch {
	case a.Kind == VectorValue && b.Kind == VectorValue:
		if len(a.Elems) != len(b.Elems) {
			return Value{}, false
		}
		elems := make([]Value, len(a.Elems))
		for i := range elems {
			v, ok := evalBinary(op, a.Elems[i], b.Elems[i])
			if !ok {
				return Value{}, false
			}
			elems[i] = v
		}
		return NewVector(elems), true
	case a.Kind == VectorValue:
		elems := make([]Value, len(a.Elems))
		for i := range elems {
			v, ok := evalBinary(op, a.Elems[i], b)
			if !ok {
				return Value{}, false
			}
			elems[i] = v
		}
		return NewVector(elems), true
	default:
		elems := make([]Value, len(b.Elems))
		for i := range elems {
			v, ok := evalBinary(op, a, b.Elems[i])
			if !ok {
				return Value{}, false
			}
			elems[i] = v
		}
		return NewVector(elems), true
	}
}

func evalUnary(op string, v Value) (Value, bool) {
	switch op {
	case "not":
		return NewBool(!v.AsBool()), true
	case "+":
		if v.IsNumeric() || v.Kind == VectorValue {
			return v, true
		}
	case "-":
		switch v.Kind {
		case IntValue:
			return NewInt(-v.Int), true
		case FloatValue:
			return NewFloat(-v.Float), true
		case VectorValue:
			elems := make([]Value, len(v.Elems))
			for i := range elems {
				e, ok := evalUnary(op, v.Elems[i])
				if !ok {
					return Value{}, false
				}
				elems[i] = e
			}
			return NewVector(elems), true
		}
	}
	return Value{}, false
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/pattern"
)

// compare evaluates op over the two operands. A non-empty problem string
// means the operands cannot be compared under op at all, which is its own
// failure rather than a false result.
func compare(op ast.Operator, left, right any) (ok bool, problem string) {
	switch op {
	case ast.OpEqual:
		return looseEqual(left, right), ""
	case ast.OpNotEqual:
		return !looseEqual(left, right), ""
	case ast.OpStrictEqual:
		return pattern.Equal(left, right), ""
	case ast.OpStrictNotEqual:
		return !pattern.Equal(left, right), ""
	case ast.OpLess:
		return compareOrdered(left, right, "<")
	case ast.OpLessOrEqual:
		return compareOrdered(left, right, "<=")
	case ast.OpGreater:
		return compareOrdered(left, right, ">")
	case ast.OpGreaterOrEqual:
		return compareOrdered(left, right, ">=")
	case ast.OpMatchRegex:
		return matchRegex(left, right)
	case ast.OpIn:
		return member(left, right)
	default:
		return false, fmt.Sprintf("unknown operator: %v", op)
	}
}

// looseEqual is the == comparator: deep equality first, then numeric
// coercion so 1 == 1.0 holds. The === pair uses pattern.Equal instead.
func looseEqual(left, right any) bool {
	if reflect.DeepEqual(left, right) {
		return true
	}
	leftNum, lOK := toFloat64(left)
	rightNum, rOK := toFloat64(right)
	return lOK && rOK && leftNum == rightNum
}

func compareOrdered(left, right any, op string) (bool, string) {
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return orderHolds(strings.Compare(ls, rs), op), ""
		}
	}

	leftNum, lOK := toFloat64(left)
	rightNum, rOK := toFloat64(right)
	if !lOK || !rOK {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", left, op, right)
	}

	switch {
	case leftNum < rightNum:
		return orderHolds(-1, op), ""
	case leftNum > rightNum:
		return orderHolds(1, op), ""
	default:
		return orderHolds(0, op), ""
	}
}

func orderHolds(cmp int, op string) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// matchRegex evaluates =~. The right operand may be a compiled
// *regexp.Regexp or a pattern string.
func matchRegex(left, right any) (bool, string) {
	subject, ok := left.(string)
	if !ok {
		return false, fmt.Sprintf("left operand of =~ must be a string, got %T", left)
	}

	switch re := right.(type) {
	case *regexp.Regexp:
		return re.MatchString(subject), ""
	case string:
		compiled, err := regexp.Compile(re)
		if err != nil {
			return false, fmt.Sprintf("invalid regex pattern: %v", err)
		}
		return compiled.MatchString(subject), ""
	default:
		return false, fmt.Sprintf("right operand of =~ must be a regex, got %T", right)
	}
}

// member evaluates `in`: element of a slice or array, key of a map.
func member(left, right any) (bool, string) {
	rv := reflect.ValueOf(right)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if looseEqual(left, rv.Index(i).Interface()) {
				return true, ""
			}
		}
		return false, ""
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if looseEqual(left, iter.Key().Interface()) {
				return true, ""
			}
		}
		return false, ""
	default:
		return false, fmt.Sprintf("right operand of 'in' must be a slice, array or map, got %T", right)
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

package pattern

import "reflect"

// Equal is the matcher's equality: same dynamic type and deep equality.
// There is no numeric coercion here; 1 and 1.0 are not equal. nil equals
// only nil.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

package action

import "reflect"

// ShallowEqual reports whether two option maps hold the same keys bound to
// the same values under Same. It is the effect memoization key: options
// are rebuilt on every render, so map identity alone would never match.
//
// A plain Go func value never equals anything, itself included, so options
// holding one are never equal. Wrap such callbacks in an action (New) or
// another pointer to give them an identity.
func ShallowEqual(a, b Options) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Same(av, bv) {
			return false
		}
	}
	return true
}

// Same is strict identity over dynamic values:
//
//   - comparable values (numbers, strings, structs of those) compare with ==
//   - pointers, maps, slices and channels compare by reference
//   - functions are never the same, closures carry no identity
//   - Value compares its payload with Same
func Same(x, y any) (same bool) {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	if vx, ok := x.(Value); ok {
		vy, ok := y.(Value)
		return ok && Same(vx.V, vy.V)
	}

	tx, ty := reflect.TypeOf(x), reflect.TypeOf(y)
	if tx != ty {
		return false
	}

	switch tx.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()
	case reflect.Slice:
		vx, vy := reflect.ValueOf(x), reflect.ValueOf(y)
		return vx.Len() == vy.Len() && vx.Pointer() == vy.Pointer()
	}

	if !tx.Comparable() {
		return false
	}
	// Structs holding interfaces are comparable by type but may still
	// panic on a non-comparable dynamic value.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return x == y
}

// Package instrument wraps operations with cross-cutting behavior that is
// persisted into a key-value store: invocation counting, call history and
// read-through expiring caching. Wrapped operations never see the store.
//
// Wrappers are plain higher-order functions. Composition order is explicit:
//
//	op = RecordHistory(store, "Cache.store", CountInvocations(store, "Cache.store", op))
//
// or, equivalently, with Chain listing wrappers from innermost to outermost:
//
//	op = Chain(op, Counted[A, R](store, id), Recorded[A, R](store, id))
package instrument

import "context"

// Op is a single-argument operation. Operations taking several positional
// arguments use a struct or slice as A.
type Op[A, R any] func(ctx context.Context, arg A) (R, error)

// Wrapper decorates an Op with extra behavior and returns an Op of the same shape.
type Wrapper[A, R any] func(Op[A, R]) Op[A, R]

// Chain applies wrappers to op in order, so wrappers[0] ends up innermost
// (closest to op) and the last wrapper runs first on each call.
func Chain[A, R any](op Op[A, R], wrappers ...Wrapper[A, R]) Op[A, R] {
	for _, wrap := range wrappers {
		op = wrap(op)
	}
	return op
}

// InputsKey is the list holding serialized arguments for identity.
func InputsKey(identity string) string {
	return identity + ":inputs"
}

// OutputsKey is the list holding serialized results for identity.
func OutputsKey(identity string) string {
	return identity + ":outputs"
}

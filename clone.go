package audobject

import "context"

// Clone deep-copies an object by serializing it and rebuilding the
// result, so the copy shares no pointers, slices or maps with the
// original. Options apply to both halves: WithOverride yields a copy
// with selected arguments replaced, which is the supported way to
// derive a variant configuration.
//
// The clone reports Reconstructed, like any decoded object.
func Clone(ctx context.Context, obj Object, opts ...Option) (Object, error) {
	d, err := ToDict(ctx, obj, opts...)
	if err != nil {
		return nil, err
	}
	return FromDict(ctx, d, opts...)
}

package xrabi

import "kinectxr/pkg/types"

// Enumerate implements the two-call enumeration idiom generically, reused by
// every enumeration function in internal/runtime:
//
//   - capacity == 0: write the true count to *count and return Success
//     without touching buf (buf may be nil).
//   - capacity != 0 and buf == nil: ValidationFailure.
//   - capacity != 0 and capacity < len(source): write the true count and
//     return SizeInsufficient.
//   - capacity != 0 and capacity >= len(source): copy source into buf,
//     write the true count, and return Success.
func Enumerate[T any](capacity uint32, count *uint32, buf []T, source []T) types.Result {
	n := uint32(len(source))
	if count != nil {
		*count = n
	}
	if capacity == 0 {
		return types.ResultSuccess
	}
	if buf == nil {
		return types.ResultValidationFailure
	}
	if capacity < n {
		return types.ResultSizeInsufficient
	}
	copy(buf, source)
	return types.ResultSuccess
}

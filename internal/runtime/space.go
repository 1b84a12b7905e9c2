package runtime

import (
	"sync"

	"kinectxr/pkg/types"
	"kinectxr/pkg/xrabi"
	"kinectxr/pkg/xrtypes"
)

// referenceSpaceTypes is the fixed, complete set enumerate_reference_spaces
// reports.
var referenceSpaceTypes = []xrtypes.ReferenceSpaceType{
	xrtypes.ReferenceSpaceView,
	xrtypes.ReferenceSpaceLocal,
	xrtypes.ReferenceSpaceStage,
}

// Space is a named reference frame bound to one Session. The sensor is
// stationary and reports identity pose only — the runtime never changes it,
// regardless of the pose offset supplied at creation.
type Space struct {
	mu sync.Mutex

	handle  types.Handle
	session types.Handle
	kind    xrtypes.ReferenceSpaceType
}

// EnumerateReferenceSpaces follows the two-call idiom over
// {View, Local, Stage}.
func (rt *Runtime) EnumerateReferenceSpaces(sessionHandle types.Handle, capacity uint32, count *uint32, buf []xrtypes.ReferenceSpaceType) types.Result {
	if !rt.sessions.IsValid(sessionHandle) {
		return types.ResultHandleInvalid
	}
	return xrabi.Enumerate(capacity, count, buf, referenceSpaceTypes)
}

// CreateReferenceSpace rejects any type outside {View, Local, Stage} with
// ReferenceSpaceUnsupported.
func (rt *Runtime) CreateReferenceSpace(sessionHandle types.Handle, info *xrtypes.ReferenceSpaceCreateInfo) (types.Handle, types.Result) {
	if r := xrabi.ValidateHead(info, xrabi.StructureTypeReferenceSpaceCreateInfo); r != types.ResultSuccess {
		return types.NullHandle, r
	}
	if !rt.sessions.IsValid(sessionHandle) {
		return types.NullHandle, types.ResultHandleInvalid
	}
	switch info.ReferenceSpaceType {
	case xrtypes.ReferenceSpaceView, xrtypes.ReferenceSpaceLocal, xrtypes.ReferenceSpaceStage:
	default:
		return types.NullHandle, types.ResultReferenceSpaceUnsupported
	}

	sp := &Space{session: sessionHandle, kind: info.ReferenceSpaceType}
	h := rt.spaces.Create(sp)
	sp.handle = h
	return h, types.ResultSuccess
}

// DestroySpace removes the space from its table.
func (rt *Runtime) DestroySpace(spaceHandle types.Handle) types.Result {
	if _, ok := rt.spaces.Delete(spaceHandle); !ok {
		return types.ResultHandleInvalid
	}
	return types.ResultSuccess
}

// LocateSpace reports this space's pose, which is always identity — the
// sensor is stationary and this runtime implements no 6-DoF tracker.
func (rt *Runtime) LocateSpace(spaceHandle types.Handle) (xrtypes.Pose, types.Result) {
	if !rt.spaces.IsValid(spaceHandle) {
		return xrtypes.Pose{}, types.ResultHandleInvalid
	}
	return xrtypes.IdentityPose, types.ResultSuccess
}

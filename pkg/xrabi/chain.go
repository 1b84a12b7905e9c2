// Package xrabi holds the loader<->runtime ABI plumbing: the structure-type
// tag every XR struct carries as its first field, the singly-linked `next`
// extension chain those structs form, and the two-call enumeration idiom
// every enumeration function in this module follows.
package xrabi

import "kinectxr/pkg/types"

// StructureType tags every XR struct with its concrete type, so chain
// walkers and argument validators never rely on struct position or size
// alone.
type StructureType uint32

const (
	StructureTypeUnknown StructureType = iota

	StructureTypeInstanceCreateInfo
	StructureTypeSystemGetInfo
	StructureTypeSystemProperties
	StructureTypeSessionCreateInfo
	StructureTypeGraphicsBindingOpaque
	StructureTypeReferenceSpaceCreateInfo
	StructureTypeSwapchainCreateInfo
	StructureTypeFrameWaitInfo
	StructureTypeFrameState
	StructureTypeFrameBeginInfo
	StructureTypeFrameEndInfo
	StructureTypeCompositionLayerProjection
	StructureTypeCompositionLayerDepthInfo
	StructureTypeEventDataBuffer
	StructureTypeEventDataSessionStateChanged
	StructureTypeLoaderInfo
	StructureTypeRuntimeRequest
)

func (t StructureType) String() string {
	switch t {
	case StructureTypeInstanceCreateInfo:
		return "InstanceCreateInfo"
	case StructureTypeSystemGetInfo:
		return "SystemGetInfo"
	case StructureTypeSystemProperties:
		return "SystemProperties"
	case StructureTypeSessionCreateInfo:
		return "SessionCreateInfo"
	case StructureTypeGraphicsBindingOpaque:
		return "GraphicsBindingOpaque"
	case StructureTypeReferenceSpaceCreateInfo:
		return "ReferenceSpaceCreateInfo"
	case StructureTypeSwapchainCreateInfo:
		return "SwapchainCreateInfo"
	case StructureTypeFrameWaitInfo:
		return "FrameWaitInfo"
	case StructureTypeFrameState:
		return "FrameState"
	case StructureTypeFrameBeginInfo:
		return "FrameBeginInfo"
	case StructureTypeFrameEndInfo:
		return "FrameEndInfo"
	case StructureTypeCompositionLayerProjection:
		return "CompositionLayerProjection"
	case StructureTypeCompositionLayerDepthInfo:
		return "CompositionLayerDepthInfo"
	case StructureTypeEventDataBuffer:
		return "EventDataBuffer"
	case StructureTypeEventDataSessionStateChanged:
		return "EventDataSessionStateChanged"
	case StructureTypeLoaderInfo:
		return "LoaderInfo"
	case StructureTypeRuntimeRequest:
		return "RuntimeRequest"
	default:
		return "Unknown"
	}
}

// ChainElement is implemented by every struct that can appear in a `next`
// extension chain, including the chain head itself.
type ChainElement interface {
	chainBase() *Base
}

// Base is the common header embedded as the first field of every chained
// struct: a type tag plus a pointer to the next element. Producers and
// consumers walk this chain by Type, never by assumed position — an unknown
// Type is skipped rather than rejected.
type Base struct {
	Type StructureType
	Next ChainElement
}

func (b *Base) chainBase() *Base { return b }

// Walk calls visit for every element in the chain starting at head,
// including head itself, until visit returns false or the chain ends.
func Walk(head ChainElement, visit func(ChainElement) bool) {
	for elem := head; elem != nil; {
		if !visit(elem) {
			return
		}
		elem = elem.chainBase().Next
	}
}

// FindInChain walks the chain starting at head looking for the first
// element of type want, type-asserting it to T. It returns ok=false if the
// chain has no matching element — unknown types encountered along the way
// are silently skipped, per the extension-chain-walking invariant.
func FindInChain[T ChainElement](head ChainElement, want StructureType) (result T, ok bool) {
	Walk(head, func(elem ChainElement) bool {
		if elem.chainBase().Type != want {
			return true
		}
		if typed, isT := elem.(T); isT {
			result = typed
			ok = true
		}
		return false
	})
	return result, ok
}

// ValidateHead checks that head is non-nil and tagged with want, the
// minimal check every ABI entry point performs on its primary argument
// before doing anything else.
func ValidateHead(head ChainElement, want StructureType) types.Result {
	if head == nil {
		return types.ResultValidationFailure
	}
	if head.chainBase().Type != want {
		return types.ResultValidationFailure
	}
	return types.ResultSuccess
}

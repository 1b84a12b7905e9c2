package xrabi

import "testing"

type depthInfo struct {
	Base
	SwapchainFormat int
}

type projectionLayer struct {
	Base
	DepthInfo *depthInfo
}

func TestFindInChainSkipsUnknown(t *testing.T) {
	unknown := &Base{Type: StructureTypeEventDataBuffer}
	depth := &depthInfo{Base: Base{Type: StructureTypeCompositionLayerDepthInfo}, SwapchainFormat: 13}
	unknown.Next = depth

	found, ok := FindInChain[*depthInfo](unknown, StructureTypeCompositionLayerDepthInfo)
	if !ok {
		t.Fatalf("expected to find depthInfo in chain")
	}
	if found.SwapchainFormat != 13 {
		t.Fatalf("got wrong element: %+v", found)
	}
}

func TestFindInChainMissing(t *testing.T) {
	layer := &projectionLayer{Base: Base{Type: StructureTypeCompositionLayerProjection}}
	_, ok := FindInChain[*depthInfo](layer, StructureTypeCompositionLayerDepthInfo)
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestEnumerateTwoCallIdiom(t *testing.T) {
	source := []int{1, 2, 3}

	var count uint32
	if r := Enumerate[int](0, &count, nil, source); r.Failed() || count != 3 {
		t.Fatalf("capacity=0: got result=%v count=%d", r, count)
	}

	count = 0
	buf := make([]int, 1)
	if r := Enumerate[int](1, &count, buf, source); r.String() != "SizeInsufficient" || count != 3 {
		t.Fatalf("capacity<n: got result=%v count=%d", r, count)
	}

	count = 0
	buf = make([]int, 3)
	if r := Enumerate[int](3, &count, buf, source); r.Failed() || count != 3 {
		t.Fatalf("capacity==n: got result=%v count=%d", r, count)
	}
	if buf[0] != 1 || buf[2] != 3 {
		t.Fatalf("buffer not filled: %+v", buf)
	}

	if r := Enumerate[int](2, &count, nil, source); r.String() != "ValidationFailure" {
		t.Fatalf("nil buf with nonzero capacity: got %v", r)
	}
}

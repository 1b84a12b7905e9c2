package types

import "fmt"

// Kind identifies which handle table a Handle belongs to. A Handle's value
// is only meaningful together with its Kind — the same uint64 minted for an
// Instance and a Session are unrelated values from unrelated counters.
type Kind uint8

const (
	KindInstance Kind = iota
	KindSession
	KindSpace
	KindSwapchain
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "Instance"
	case KindSession:
		return "Session"
	case KindSpace:
		return "Space"
	case KindSwapchain:
		return "Swapchain"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Handle is a typed, opaque 64-bit identifier. The zero value is the null
// handle: a reserved sentinel distinct from every live handle, since live
// handles are minted starting at 1.
type Handle uint64

// NullHandle is the reserved sentinel value. No successful create ever
// returns it.
const NullHandle Handle = 0

// Valid reports whether h is non-null. It does not consult any table — use
// the owning table's IsValid for a liveness check.
func (h Handle) Valid() bool { return h != NullHandle }

func (h Handle) String() string { return fmt.Sprintf("0x%016x", uint64(h)) }

// SystemID is a numeric system identifier, scoped to one Instance. It is not
// a Handle: systems are not independently destroyable and are not tracked in
// any handle table.
type SystemID uint64

// NullSystemID is the sentinel returned before any system has been minted
// for an instance.
const NullSystemID SystemID = 0

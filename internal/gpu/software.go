package gpu

import "sync"

// SoftwareBackend is a reference Backend that keeps uploaded bytes in host
// memory instead of handing them to a real graphics API. It is what --mock
// mode and the test suite bind sessions to; it never returns a null
// texture, so the "backend returned null" tolerance path is exercised
// separately by NullBackend.
type SoftwareBackend struct {
	mu      sync.Mutex
	nextID  uintptr
	storage map[Texture][]byte
}

func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{nextID: 1, storage: make(map[Texture][]byte)}
}

func (b *SoftwareBackend) DeviceFromQueue(queue uintptr) uintptr {
	// One synthetic device per queue value; queue 0 still yields a
	// non-null device since GraphicsDeviceInvalid is signaled on the
	// queue pointer, not the derived device.
	return queue ^ 0x5151
}

func (b *SoftwareBackend) CreateTexture(device uintptr, width, height uint32, format int64) Texture {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := Texture(b.nextID)
	b.nextID++
	b.storage[id] = nil
	return id
}

func (b *SoftwareBackend) ReleaseTexture(t Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.storage, t)
}

func (b *SoftwareBackend) Upload(t Texture, data []byte, bytesPerRow, width, height uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t == NullTexture {
		return false
	}
	if _, ok := b.storage[t]; !ok {
		return false
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	b.storage[t] = buf
	return true
}

// Contents returns a copy of the bytes most recently uploaded to t, for
// test assertions. ok is false if t is unknown or nothing was ever
// uploaded.
func (b *SoftwareBackend) Contents(t Texture) (data []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, exists := b.storage[t]
	if !exists || buf == nil {
		return nil, false
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, true
}

// NullBackend always returns NullTexture from CreateTexture, exercising the
// "backend returned null; store a null slot" tolerance path §4.D.5 calls
// out explicitly.
type NullBackend struct{}

func (NullBackend) DeviceFromQueue(queue uintptr) uintptr { return queue }
func (NullBackend) CreateTexture(uintptr, uint32, uint32, int64) Texture { return NullTexture }
func (NullBackend) ReleaseTexture(Texture)                              {}
func (NullBackend) Upload(Texture, []byte, uint32, uint32, uint32) bool { return false }

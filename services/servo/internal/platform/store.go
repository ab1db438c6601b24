package platform

import "sync"

// MemStore keeps the block in RAM. A nil or short image reads as failure.
type MemStore struct {
	mu    sync.Mutex
	data  []byte
	Fail  bool // when set, Write reports failure
	Reads int
}

func (s *MemStore) Read(buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	if len(s.data) < len(buf) {
		return false
	}
	copy(buf, s.data)
	return true
}

func (s *MemStore) Write(buf []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return false
	}
	s.data = append(s.data[:0], buf...)
	return true
}

// Bytes returns the stored image. Tests flip bits in it.
func (s *MemStore) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

package driver

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"blockfix/internal/project"
)

const defaultMemoSize = 4096

// Memo is the in-process counterpart of DiskCache: it remembers keys of
// files that needed no change during this process. Watch mode keeps one
// across batches. Safe for concurrent use.
type Memo struct {
	clean *lru.Cache[project.Digest, struct{}]
}

// NewMemo returns a memo holding up to size keys (0 = default).
func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		size = defaultMemoSize
	}
	c, err := lru.New[project.Digest, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &Memo{clean: c}, nil
}

func (m *Memo) has(key project.Digest) bool {
	if m == nil {
		return false
	}
	return m.clean.Contains(key)
}

func (m *Memo) add(key project.Digest) {
	if m == nil {
		return
	}
	m.clean.Add(key, struct{}{})
}

// Len reports how many clean keys are held.
func (m *Memo) Len() int {
	if m == nil {
		return 0
	}
	return m.clean.Len()
}

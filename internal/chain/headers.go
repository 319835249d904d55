package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kykchain/kyk/pkg/block"
	"github.com/kykchain/kyk/pkg/types"
)

// ErrChainLinkMismatch is returned when a header's previous-block hash
// does not equal the hash of the current tail.
var ErrChainLinkMismatch = errors.New("header does not link to chain tail")

// HeaderNode is one header in a HeaderChain. Its hash is computed once on
// append.
type HeaderNode struct {
	chain  *HeaderChain
	header block.Header
	hash   types.Hash
	height uint64
	prev   *HeaderNode
	next   *HeaderNode
}

// Header returns a copy of the node's header.
func (n *HeaderNode) Header() *block.Header {
	h := n.header
	return &h
}

// Hash returns the cached block hash.
func (n *HeaderNode) Hash() types.Hash { return n.hash }

// Height returns the node's position, counting the first header as 0.
func (n *HeaderNode) Height() uint64 { return n.height }

// Prev returns the parent node, or nil at the head.
func (n *HeaderNode) Prev() *HeaderNode {
	n.chain.mu.RLock()
	defer n.chain.mu.RUnlock()
	return n.prev
}

// Next returns the child node, or nil at the tail.
func (n *HeaderNode) Next() *HeaderNode {
	n.chain.mu.RLock()
	defer n.chain.mu.RUnlock()
	return n.next
}

// HeaderChain is a single linear history of block headers. Every header
// after the first must name the tail's hash as its parent. Only that link
// is checked: proof of work, timestamps and difficulty are not. A
// HeaderChain is safe for concurrent use.
type HeaderChain struct {
	mu     sync.RWMutex
	head   *HeaderNode
	tail   *HeaderNode
	length int
	byHash map[types.Hash]*HeaderNode
}

// NewHeaderChain returns an empty header chain.
func NewHeaderChain() *HeaderChain {
	return &HeaderChain{byHash: make(map[types.Hash]*HeaderNode)}
}

// Append links h after the tail and returns its node. The first header is
// always accepted. On ErrChainLinkMismatch the chain is left unchanged.
func (c *HeaderChain) Append(h *block.Header) (*HeaderNode, error) {
	if h == nil {
		return nil, block.ErrNilHeader
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkLink(h); err != nil {
		return nil, err
	}
	n := &HeaderNode{
		chain:  c,
		header: *h,
		hash:   h.Hash(),
		prev:   c.tail,
	}
	if c.tail == nil {
		c.head = n
	} else {
		n.height = c.tail.height + 1
		c.tail.next = n
	}
	c.tail = n
	c.length++
	c.byHash[n.hash] = n
	return n, nil
}

// Validate reports whether h could be appended now, without appending it.
func (c *HeaderChain) Validate(h *block.Header) error {
	if h == nil {
		return block.ErrNilHeader
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checkLink(h)
}

func (c *HeaderChain) checkLink(h *block.Header) error {
	if c.tail == nil {
		return nil
	}
	if h.PrevHash != c.tail.hash {
		return fmt.Errorf("%w: prev %s, tail %s", ErrChainLinkMismatch, h.PrevHash, c.tail.hash)
	}
	return nil
}

// removeTail unlinks the tail node. The ledger uses it to undo an append
// whose block could not be applied.
func (c *HeaderChain) removeTail(n *HeaderNode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil || c.tail != n {
		return false
	}
	c.tail = n.prev
	if c.tail == nil {
		c.head = nil
	} else {
		c.tail.next = nil
	}
	n.prev = nil
	delete(c.byHash, n.hash)
	c.length--
	return true
}

// Head returns the first node, or nil for an empty chain.
func (c *HeaderChain) Head() *HeaderNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head
}

// Tail returns the last node, or nil for an empty chain.
func (c *HeaderChain) Tail() *HeaderNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tail
}

// Len returns the number of headers.
func (c *HeaderChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.length
}

// TipHash returns the hash of the tail, or the zero hash when empty.
func (c *HeaderChain) TipHash() types.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tail == nil {
		return types.Hash{}
	}
	return c.tail.hash
}

// Find returns the node with the given block hash.
func (c *HeaderChain) Find(hash types.Hash) (*HeaderNode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.byHash[hash]
	return n, ok
}

// WalkToTail follows next links from n and returns the last node reached.
// It returns nil for a nil node.
func (c *HeaderChain) WalkToTail(n *HeaderNode) *HeaderNode {
	if n == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for n.next != nil {
		n = n.next
	}
	return n
}

// Headers returns up to limit headers starting at height from, in order.
// A limit of zero or less means no limit.
func (c *HeaderChain) Headers(from uint64, limit int) []*HeaderNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*HeaderNode
	for n := c.head; n != nil; n = n.next {
		if n.height < from {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, n)
	}
	return out
}

// Reset drops every node, leaving an empty chain. Nodes held by callers
// are unlinked.
func (c *HeaderChain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n := c.head; n != nil; {
		next := n.next
		n.prev, n.next = nil, nil
		n = next
	}
	c.head, c.tail = nil, nil
	c.length = 0
	c.byHash = make(map[types.Hash]*HeaderNode)
}

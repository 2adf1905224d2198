package cache

import (
	"fmt"
	"time"
)

// Pre and post conditions (Invariants) for list methods:
// * list owns nodes between sentinel.next and sentinel.prev.
// * {sentinel, all owned nodes} are correct circular doubly linked list.
// * all nodes owned by list have field node.owner equal to &list
// * list.size equal number of owned nodes.
// * detached nodes have nil prev, next and owner.
type list[K comparable] struct {
	size int

	// Fake node. Real nodes are between sentinel.next and sentinel.prev.
	// sentinel <-> node_0 <-> ... <-> node_(n-1) <-> sentinel
	// Such structure prevent nil checks in code.
	// sentinel.next is most lately pushed node.
	sentinel *node[K]
}

func newList[K comparable]() *list[K] {
	l := &list[K]{sentinel: &node[K]{}}
	link(l.sentinel, l.sentinel)
	return l
}

// pushFront links new node holding e right after sentinel.
// Node is allocated before any link changes, so on failure list is untouched.
func (l *list[K]) pushFront(e entry[K]) *node[K] {
	n := &node[K]{entry: e}
	first := l.sentinel.next
	link(l.sentinel, n)
	link(n, first)
	n.owner = l
	l.size++
	return n
}

// remove unlinks n. It is no-op for nil, detached or not owned node,
// so racing removals of same key are safe.
func (l *list[K]) remove(n *node[K]) bool {
	if n == nil || n.owner != l {
		return false
	}
	n.detach()
	l.size--
	return true
}

// front returns most lately pushed node, or nil if list is empty.
func (l *list[K]) front() *node[K] {
	if l.size == 0 {
		return nil
	}
	return l.sentinel.next
}

func (l *list[K]) popFront() (e entry[K], ok bool) {
	n := l.front()
	if n == nil {
		return
	}
	e = n.entry
	l.remove(n)
	return e, true
}

func (l *list[K]) head() *node[K]      { return l.sentinel.next }
func (l *list[K]) tail() *node[K]      { return l.sentinel.prev }
func (l *list[K]) end(n *node[K]) bool { return n == l.sentinel }
func (l *list[K]) empty() bool         { return l.size == 0 }

// keys returns keys from most to least recent. O(n), for sweeps and diagnostics.
func (l *list[K]) keys() []K {
	keys := make([]K, 0, l.size)
	for n := l.head(); !l.end(n); n = n.next {
		keys = append(keys, n.Key)
	}
	return keys
}

func (l *list[K]) String() string {
	return fmt.Sprintf("%v", l.keys())
}

// entry is immutable. Refresh creates new node with new entry.
type entry[K comparable] struct {
	Key    K
	Expiry time.Time
}

func (e entry[K]) expired(now time.Time) bool {
	return now.After(e.Expiry)
}

type node[K comparable] struct {
	entry[K]
	owner *list[K]
	prev  *node[K]
	next  *node[K]
}

func (n *node[K]) detach() {
	link(n.prev, n.next)
	n.prev = nil
	n.next = nil
	n.owner = nil
}

func (n *node[K]) attached() bool { return n.owner != nil }

func link[K comparable](a, b *node[K]) { a.next, b.prev = b, a }

func (n *node[K]) GoString() string {
	key := func(n *node[K]) interface{} {
		if n == nil {
			return nil
		}
		return n.Key
	}
	return fmt.Sprintf("{Key:%v, Expiry:%v, owner:%p, prev:%v, next:%v}",
		n.Key, n.Expiry.Format(time.RFC3339Nano), n.owner, key(n.prev), key(n.next))
}

var _ fmt.GoStringer = (*node[string])(nil)

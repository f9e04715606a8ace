package workload

import (
	"math"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// BST node layout: left *node, right *node, val int32 (padded to 24 bytes).
const (
	bstLeft     = 0
	bstRight    = ptrSize
	bstVal      = 2 * ptrSize
	bstNodeSize = 24
)

func init() {
	register(Workload{
		Name:        "bst_simple",
		Description: "inserts 10,000 random values into an unbalanced BST; no removals",
		Run:         bstSimple,
	})
	register(Workload{
		Name:        "bst_deletes",
		Description: "inserts 1,000 random bytes into a BST, deleting the subtree of every duplicate",
		Run:         bstDeletes,
	})
}

func newNode(a Allocator, val int32) alloc.Ptr {
	n := a.Malloc(bstNodeSize)
	storeInt(a, n, bstVal, val)
	storePtr(a, n, bstLeft, alloc.Nil)
	storePtr(a, n, bstRight, alloc.Nil)
	return n
}

func bstSimple(a Allocator) error {
	g := newLFG(0)
	root := alloc.Nil

	for range 10000 {
		val := g.next()
		if root == alloc.Nil {
			root = newNode(a, val)
			continue
		}
		cur := root
		for {
			side := bstRight
			if val <= loadInt(a, cur, bstVal) {
				side = bstLeft
			}
			child := loadPtr(a, cur, side)
			if child == alloc.Nil {
				storePtr(a, cur, side, newNode(a, val))
				break
			}
			cur = child
		}
	}
	if !validate(a, root, math.MinInt32, math.MaxInt32) {
		return ErrBSTViolated
	}
	return nil
}

func bstDeletes(a Allocator) error {
	g := newLFG(0xFF)
	root := alloc.Nil

	for range 1000 {
		root = insertOrDelete(a, root, g.next())
	}
	if !validate(a, root, math.MinInt32, math.MaxInt32) {
		return ErrBSTViolated
	}
	return nil
}

// insertOrDelete inserts val below root, or deletes the subtree rooted at an
// existing node holding val. It returns the new subtree root.
func insertOrDelete(a Allocator, root alloc.Ptr, val int32) alloc.Ptr {
	if root == alloc.Nil {
		return newNode(a, val)
	}
	switch rv := loadInt(a, root, bstVal); {
	case val == rv:
		deleteTree(a, root)
		return alloc.Nil
	case val < rv:
		storePtr(a, root, bstLeft, insertOrDelete(a, loadPtr(a, root, bstLeft), val))
	default:
		storePtr(a, root, bstRight, insertOrDelete(a, loadPtr(a, root, bstRight), val))
	}
	return root
}

func deleteTree(a Allocator, n alloc.Ptr) {
	if n == alloc.Nil {
		return
	}
	deleteTree(a, loadPtr(a, n, bstLeft))
	deleteTree(a, loadPtr(a, n, bstRight))
	a.Free(n)
}

func validate(a Allocator, n alloc.Ptr, lower, upper int32) bool {
	if n == alloc.Nil {
		return true
	}
	v := loadInt(a, n, bstVal)
	if v < lower || v > upper {
		return false
	}
	return validate(a, loadPtr(a, n, bstLeft), lower, v) &&
		validate(a, loadPtr(a, n, bstRight), v, upper)
}

package trie

import "bytes"

// lowerBoundNode returns the node holding the first entry with key >= k,
// or nil if none exists.
func lowerBoundNode(root *node, k []byte) *node {
	cur := root
	path := make([]*node, 1, len(k)+1)
	path[0] = cur
	for i := 0; i < len(k); i++ {
		b := k[i]
		child := cur.children[b]
		if child == nil {
			if c := firstChildFrom(cur, int(b)+1); c != nil {
				return leftmostPayload(c)
			}
			return ascendToNextSibling(path)
		}
		path = append(path, child)
		cur = child
	}
	if cur.hasPayload() {
		return cur
	}
	if c := leftmostPayload(cur); c != nil {
		return c
	}
	return ascendToNextSibling(path)
}

// upperBoundNode returns the node holding the first entry with key > k,
// or nil if none exists.
func upperBoundNode(root *node, k []byte) *node {
	n := lowerBoundNode(root, k)
	if n != nil && bytes.Equal(n.payload.key, k) {
		return successor(root, n)
	}
	return n
}

// reverseLowerBoundNode returns the node holding the last entry with
// key <= k, or nil if none exists.
func reverseLowerBoundNode(root *node, k []byte) *node {
	cur := root
	path := make([]*node, 1, len(k)+1)
	path[0] = cur
	for i := 0; i < len(k); i++ {
		b := k[i]
		child := cur.children[b]
		if child == nil {
			if c := lastChildUpTo(cur, int(b)-1); c != nil {
				return rightmostLeaf(c)
			}
			if cur.hasPayload() {
				return cur
			}
			return ascendToPrevSibling(path)
		}
		path = append(path, child)
		cur = child
	}
	if cur.hasPayload() {
		return cur
	}
	// cur matched the whole of k as a strict prefix without a payload:
	// every key extending it is > k, so none qualify here; fall back to
	// the predecessor of this position.
	return ascendToPrevSibling(path)
}

// reverseUpperBoundNode returns the node holding the last entry with
// key < k, or nil if none exists.
func reverseUpperBoundNode(root *node, k []byte) *node {
	n := reverseLowerBoundNode(root, k)
	if n != nil && bytes.Equal(n.payload.key, k) {
		return predecessor(root, n)
	}
	return n
}

package tree

// rotate turns the subtree rooted at n, whose balance is nonzero, toward its
// lighter side and returns the new subtree root. Balance factors are updated
// from the pivot's balance; a -2/+1 or +2/-1 shape gets a double rotation.
// The caller relinks the returned node into n's former parent.
func (t *Tree[K, V]) rotate(n Node) Node {
	nd := &t.nodes[n]
	var pivot, child Node

	if nd.balance < 0 {
		pivot = nd.right
		if nd.balance == -2 && t.nodes[pivot].balance == 1 {
			pivot = t.rotate(pivot)
		}
		pd := &t.nodes[pivot]

		child = pd.left
		nd.right = child
		pd.left = n

		if nd.balance == -2 {
			nd.balance = -1 - pd.balance
			if pd.balance == 0 {
				pd.balance = 1
			} else {
				pd.balance = 0
			}
		} else if pd.balance == 1 {
			nd.balance = 0
			pd.balance = 2
		} else {
			nd.balance = -pd.balance
			pd.balance = 1
		}
	} else {
		pivot = nd.left
		if nd.balance == 2 && t.nodes[pivot].balance == -1 {
			pivot = t.rotate(pivot)
		}
		pd := &t.nodes[pivot]

		child = pd.right
		nd.left = child
		pd.right = n

		if nd.balance == 2 {
			nd.balance = 1 - pd.balance
			if pd.balance == 0 {
				pd.balance = -1
			} else {
				pd.balance = 0
			}
		} else if pd.balance == -1 {
			nd.balance = 0
			pd.balance = -2
		} else {
			nd.balance = -pd.balance
			pd.balance = -1
		}
	}

	t.nodes[pivot].parent = nd.parent
	nd.parent = pivot
	if child != Nil {
		t.nodes[child].parent = n
	}
	return pivot
}

// rotateAt rotates the subtree at n and hooks the new subtree root into n's
// former parent, or makes it the tree root.
func (t *Tree[K, V]) rotateAt(n Node) Node {
	parent := t.nodes[n].parent
	pivot := t.rotate(n)
	switch {
	case parent == Nil:
		t.root = pivot
	case t.nodes[parent].left == n:
		t.nodes[parent].left = pivot
	default:
		t.nodes[parent].right = pivot
	}
	return pivot
}

// rebalanceInsert walks up from the parent of a freshly linked node. The walk
// stops once a subtree keeps its height or after a single rotation.
func (t *Tree[K, V]) rebalanceInsert(n Node) {
	if t.at(n).balance == 0 {
		return
	}

	child := n
	n = t.nodes[n].parent
	for n != Nil {
		nd := &t.nodes[n]
		if child == nd.left {
			nd.balance++
		} else {
			nd.balance--
		}

		if nd.balance == 0 {
			return
		}
		if nd.balance < -1 || nd.balance > 1 {
			t.rotateAt(n)
			return
		}

		child = n
		n = nd.parent
	}
}

// rebalanceRemove walks up from the parent of an unlinked node. A removal may
// need a rotation at every level; the walk stops once a subtree keeps its
// height.
func (t *Tree[K, V]) rebalanceRemove(n Node) {
	if n == Nil {
		return
	}

	balance := t.nodes[n].balance
	if balance < -1 || balance > 1 {
		n = t.rotateAt(n)
		balance = t.nodes[n].balance
	}
	if balance != 0 {
		return
	}

	child := n
	n = t.nodes[n].parent
	for n != Nil {
		if child == t.nodes[n].left {
			t.nodes[n].balance--
		} else {
			t.nodes[n].balance++
		}

		balance = t.nodes[n].balance
		if balance < -1 || balance > 1 {
			n = t.rotateAt(n)
			balance = t.nodes[n].balance
		}
		if balance != 0 {
			return
		}

		child = n
		n = t.nodes[n].parent
	}
}

package parser

// Visitor defines the interface for visiting syntax nodes
type Visitor interface {
	// Visit is called for each node in the tree
	// Return false to skip the node's children
	Visit(node *Node) bool
}

// Accept implements the visitor pattern for syntax nodes
func (n *Node) Accept(visitor Visitor) {
	if n == nil {
		return
	}

	if !visitor.Visit(n) {
		return
	}

	for _, child := range n.Children {
		child.Accept(visitor)
	}
}

// DepthFirstVisitor performs depth-first traversal with pre and post hooks.
// A pre hook returning false skips the subtree, post hook included.
type DepthFirstVisitor struct {
	preOrder  func(*Node) bool
	postOrder func(*Node)
}

// NewDepthFirstVisitor creates a depth-first visitor
func NewDepthFirstVisitor(preOrder func(*Node) bool, postOrder func(*Node)) *DepthFirstVisitor {
	return &DepthFirstVisitor{
		preOrder:  preOrder,
		postOrder: postOrder,
	}
}

// Visit implements the Visitor interface
func (v *DepthFirstVisitor) Visit(node *Node) bool {
	if v.preOrder != nil {
		if !v.preOrder(node) {
			return false
		}
	}

	for _, child := range node.Children {
		child.Accept(v)
	}

	if v.postOrder != nil {
		v.postOrder(node)
	}

	return false
}

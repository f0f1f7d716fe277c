package parser

import "fmt"

// C node types the analyzers look at.
const (
	NodeTranslationUnit = "translation_unit"
	NodeFunctionDef     = "function_definition"
	NodeCallExpression  = "call_expression"
	NodeSubscript       = "subscript_expression"
	NodeIdentifier      = "identifier"
	NodeFieldIdentifier = "field_identifier"
	NodeNumberLiteral   = "number_literal"
	NodeStringLiteral   = "string_literal"
	NodeCharLiteral     = "char_literal"
	NodeIfStatement     = "if_statement"
	NodeForStatement    = "for_statement"
	NodeWhileStatement  = "while_statement"
	NodeDoStatement     = "do_statement"
	NodeSwitchStatement = "switch_statement"
	NodeReturnStatement = "return_statement"
	NodeError           = "ERROR"
)

// Field names used for child lookup.
const (
	FieldFunction   = "function"
	FieldArguments  = "arguments"
	FieldDeclarator = "declarator"
	FieldBody       = "body"
	FieldType       = "type"
)

// Location represents the position of a node in the source code
type Location struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Node is a read-only copy of one tree-sitter node.
// Anonymous tokens such as "+" or ";" are kept so operator-level analyses can see them.
type Node struct {
	Type     string
	Text     string
	Field    string // field name under the parent, empty when the grammar assigns none
	Named    bool
	Missing  bool
	Children []*Node
	Parent   *Node
	Location Location
}

// NewNode creates a new node
func NewNode(nodeType string) *Node {
	return &Node{
		Type:     nodeType,
		Children: []*Node{},
	}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child != nil {
		child.Parent = n
		n.Children = append(n.Children, child)
	}
}

// ChildByField returns the first child stored under the given field name.
func (n *Node) ChildByField(field string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Field == field {
			return child
		}
	}
	return nil
}

// Callee returns the callee sub-node of a call_expression, or nil for other nodes.
func (n *Node) Callee() *Node {
	if n == nil || n.Type != NodeCallExpression {
		return nil
	}
	return n.ChildByField(FieldFunction)
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// String returns a string representation of the node
func (n *Node) String() string {
	if n.IsLeaf() && n.Text != "" && n.Text != n.Type {
		return fmt.Sprintf("%s(%s)", n.Type, n.Text)
	}
	return n.Type
}

// Walk traverses the tree depth-first in pre-order.
// Returning false from the visitor skips the node's children.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}
	if !visitor(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(visitor)
	}
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	size := 1
	for _, child := range n.Children {
		size += child.Size()
	}
	return size
}

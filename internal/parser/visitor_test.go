package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepthFirstVisitorPostOrder(t *testing.T) {
	root := buildSample()
	var pre, post []string
	root.Accept(NewDepthFirstVisitor(
		func(n *Node) bool {
			pre = append(pre, n.Type)
			return true
		},
		func(n *Node) {
			post = append(post, n.Type)
		},
	))
	assert.Equal(t, []string{NodeTranslationUnit, NodeFunctionDef, NodeCallExpression, NodeIdentifier, "argument_list"}, pre)
	assert.Equal(t, []string{NodeIdentifier, "argument_list", NodeCallExpression, NodeFunctionDef, NodeTranslationUnit}, post)
}

func TestDepthFirstVisitorSkipsSubtree(t *testing.T) {
	root := buildSample()
	var post []string
	root.Accept(NewDepthFirstVisitor(
		func(n *Node) bool { return n.Type != NodeCallExpression },
		func(n *Node) { post = append(post, n.Type) },
	))
	assert.Equal(t, []string{NodeFunctionDef, NodeTranslationUnit}, post)
}

func TestAcceptNilNode(t *testing.T) {
	var n *Node
	visited := false
	n.Accept(NewDepthFirstVisitor(func(*Node) bool {
		visited = true
		return true
	}, nil))
	assert.False(t, visited)
}

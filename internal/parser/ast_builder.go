package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Builder converts tree-sitter nodes into the package's Node tree
type Builder struct {
	source []byte
}

// NewBuilder creates a new builder over the given source
func NewBuilder(source []byte) *Builder {
	return &Builder{
		source: source,
	}
}

// Build converts the subtree rooted at tsNode. Returns nil for a nil input.
func (b *Builder) Build(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}
	return b.buildNode(tsNode, "")
}

func (b *Builder) buildNode(tsNode *sitter.Node, field string) *Node {
	start := tsNode.StartPoint()
	end := tsNode.EndPoint()

	node := &Node{
		Type:    tsNode.Type(),
		Text:    tsNode.Content(b.source),
		Field:   field,
		Named:   tsNode.IsNamed(),
		Missing: tsNode.IsMissing(),
		Location: Location{
			StartLine: int(start.Row) + 1,
			StartCol:  int(start.Column),
			EndLine:   int(end.Row) + 1,
			EndCol:    int(end.Column),
		},
	}

	childCount := int(tsNode.ChildCount())
	node.Children = make([]*Node, 0, childCount)
	for i := 0; i < childCount; i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		node.AddChild(b.buildNode(child, tsNode.FieldNameForChild(i)))
	}

	return node
}

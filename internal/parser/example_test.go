package parser_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ludo-technologies/simeval/internal/parser"
)

func ExampleParser_Parse() {
	p := parser.New()
	defer p.Close()

	source := []byte(`int add(int a, int b) {
    return a + b;
}`)

	result, err := p.Parse(context.Background(), source)
	if err != nil {
		log.Fatal(err)
	}

	functions := 0
	result.RootNode.Walk(func(n *parser.Node) bool {
		if n.Type == parser.NodeFunctionDef {
			functions++
		}
		return true
	})
	fmt.Printf("Found %d function(s)\n", functions)

	// Output: Found 1 function(s)
}

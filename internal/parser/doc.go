// Package parser provides C code parsing capabilities using tree-sitter.
//
// The package wraps the tree-sitter Go bindings with the C grammar and
// converts each parse into a plain Node tree that outlives the native tree.
// Parsers are not safe for concurrent use; a Pool hands one out per caller.
//
// Basic usage:
//
//	pool := parser.NewPool(parser.Options{Timeout: 5 * time.Second})
//	result, err := pool.Parse(ctx, []byte("int add(int a, int b) { return a + b; }"))
//	if err != nil {
//	    // Handle parsing error
//	}
//	// Use result.RootNode to traverse the tree
package parser

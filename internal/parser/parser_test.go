package parser

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	parser := New()
	if parser == nil {
		t.Fatal("New() returned nil")
	}
	if parser.parser == nil {
		t.Fatal("parser field is nil")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		strict     bool
		wantErr    bool
		wantErrors bool
	}{
		{
			name:   "simple function",
			source: `int add(int a, int b) { return a + b; }`,
		},
		{
			name: "function with control flow",
			source: `static int clamp(int v, int lo, int hi) {
    if (v < lo) return lo;
    for (int i = 0; i < 3; i++) { v += i; }
    while (v > hi) v--;
    return v;
}`,
		},
		{
			name:   "empty source",
			source: "",
		},
		{
			name:       "broken header is tolerated",
			source:     `int broken(int a { return a; }`,
			wantErrors: true,
		},
		{
			name:    "broken header in strict mode",
			source:  `int broken(int a { return a; }`,
			strict:  true,
			wantErr: true,
		},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewWithOptions(Options{Strict: tt.strict})
			result, err := parser.Parse(ctx, []byte(tt.source))

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSyntax))
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotNil(t, result.RootNode)
			assert.Equal(t, NodeTranslationUnit, result.RootNode.Type)
			assert.Equal(t, tt.source, string(result.SourceCode))
			assert.Equal(t, tt.wantErrors, result.HasErrors)
		})
	}
}

func TestParseCanceledContext(t *testing.T) {
	parser := NewWithOptions(Options{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.Parse(ctx, []byte("int x;"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCanceled))

	result, err := parser.Parse(context.Background(), []byte("int x;"))
	require.NoError(t, err)
	assert.NotNil(t, result.RootNode)
}

func TestParseTimeoutKeepsParserUsable(t *testing.T) {
	parser := NewWithOptions(Options{Timeout: time.Millisecond})
	defer parser.Close()

	source := strings.Repeat("int f(int a) { if (a) { return a + 1; } return 0; }\n", 40000)
	_, err := parser.Parse(context.Background(), []byte(source))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, parser.broken)

	result, err := parser.Parse(context.Background(), []byte(`int add(int a, int b) { return a + b; }`))
	require.NoError(t, err)
	assert.False(t, result.HasErrors)
	assert.Len(t, findByType(result.RootNode, NodeFunctionDef), 1)
}

func TestCalleeLookup(t *testing.T) {
	parser := New()
	result, err := parser.Parse(context.Background(), []byte(`void f(FILE *fp) { fputc(1, fp); }`))
	require.NoError(t, err)

	calls := findByType(result.RootNode, NodeCallExpression)
	require.Len(t, calls, 1)
	callee := calls[0].Callee()
	require.NotNil(t, callee)
	assert.Equal(t, NodeIdentifier, callee.Type)
	assert.Equal(t, "fputc", callee.Text)

	assert.Nil(t, result.RootNode.Callee(), "non-call nodes have no callee")
}

func TestAnonymousTokensKept(t *testing.T) {
	parser := New()
	result, err := parser.Parse(context.Background(), []byte(`int f(int a) { return a + 1; }`))
	require.NoError(t, err)

	plus := findByType(result.RootNode, "+")
	require.Len(t, plus, 1)
	assert.False(t, plus[0].Named)
	assert.Equal(t, "binary_expression", plus[0].Parent.Type)
}

func TestPoolParse(t *testing.T) {
	pool := NewPool(Options{Timeout: time.Second})
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := pool.Parse(context.Background(), []byte(`int f(void) { return 1; }`))
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
	assert.Equal(t, time.Second, pool.Options().Timeout)
}

func TestPoolParseWithCancelableContexts(t *testing.T) {
	pool := NewPool(Options{Timeout: time.Second})
	source := []byte(`int add(int a, int b) { return a + b; }`)

	parseOnce := func() error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_, err := pool.Parse(ctx, source)
		return err
	}

	for i := 0; i < 500; i++ {
		require.NoError(t, parseOnce(), "sequential parse %d", i)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16*50)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				errs <- parseOnce()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPoolReplacesBrokenParser(t *testing.T) {
	pool := NewPool(Options{Timeout: time.Second})
	// a parser without a language fails every parse
	pool.pool.New = func() any {
		return &Parser{parser: sitter.NewParser(), opts: pool.opts}
	}

	result, err := pool.Parse(context.Background(), []byte("int x;"))
	require.NoError(t, err)
	assert.NotNil(t, result.RootNode)

	broken := &Parser{parser: sitter.NewParser()}
	_, err = broken.Parse(context.Background(), []byte("int x;"))
	require.Error(t, err)
	assert.True(t, broken.broken)
	assert.False(t, errors.Is(err, ErrTimeout))
	pool.Put(broken)
}

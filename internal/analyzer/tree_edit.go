package analyzer

import (
	"github.com/ludo-technologies/simeval/internal/parser"
)

// DefaultTreeEditMaxNodes bounds the quadratic distance table. Larger trees
// are scored with the serialized approximation instead.
const DefaultTreeEditMaxNodes = 4000

// CostModel defines the cost of each edit operation on labels
type CostModel interface {
	Insert(label string) int
	Delete(label string) int
	Rename(from, to string) int
}

// UnitCostModel charges 1 for every operation and 0 for renaming to the same label
type UnitCostModel struct{}

func (UnitCostModel) Insert(string) int { return 1 }
func (UnitCostModel) Delete(string) int { return 1 }

func (UnitCostModel) Rename(from, to string) int {
	if from == to {
		return 0
	}
	return 1
}

// labelTree is a tree flattened into post-order arrays
type labelTree struct {
	labels   []string
	leftmost []int // index of the leftmost leaf descendant
	keyroots []int // ascending
}

func newLabelTree(root *parser.Node, canon *Canonicalizer) *labelTree {
	t := &labelTree{}
	if root == nil {
		return t
	}
	t.build(root, canon)

	// a keyroot is the highest node sharing its leftmost leaf
	last := make(map[int]int, len(t.labels))
	for i, l := range t.leftmost {
		last[l] = i
	}
	for i, l := range t.leftmost {
		if last[l] == i {
			t.keyroots = append(t.keyroots, i)
		}
	}
	return t
}

func (t *labelTree) build(root *parser.Node, canon *Canonicalizer) {
	// firsts holds the leftmost leaf index of each open ancestor, -1 until known
	var firsts []int
	root.Accept(parser.NewDepthFirstVisitor(
		func(*parser.Node) bool {
			firsts = append(firsts, -1)
			return true
		},
		func(n *parser.Node) {
			idx := len(t.labels)
			first := firsts[len(firsts)-1]
			firsts = firsts[:len(firsts)-1]
			if first < 0 {
				first = idx
			}
			t.labels = append(t.labels, canon.Label(n))
			t.leftmost = append(t.leftmost, first)
			if k := len(firsts); k > 0 && firsts[k-1] < 0 {
				firsts[k-1] = first
			}
		},
	))
}

func (t *labelTree) size() int { return len(t.labels) }

// TreeEditComparator computes an ordered tree edit distance over keyroots
// and scores 1 - dist/max(size1,size2,1).
type TreeEditComparator struct {
	canon    *Canonicalizer
	costs    CostModel
	maxNodes int
	fallback *SerializedComparator
}

// NewTreeEditComparator creates a tree edit comparator with unit costs
func NewTreeEditComparator(canon *Canonicalizer) *TreeEditComparator {
	return &TreeEditComparator{
		canon:    canon,
		costs:    UnitCostModel{},
		maxNodes: DefaultTreeEditMaxNodes,
		fallback: NewSerializedComparator(canon),
	}
}

// WithMaxNodes overrides the size above which the serialized approximation is used
func (c *TreeEditComparator) WithMaxNodes(n int) *TreeEditComparator {
	c.maxNodes = n
	return c
}

func (c *TreeEditComparator) Name() string { return "tree_edit" }

// Compare scores two trees
func (c *TreeEditComparator) Compare(a, b *parser.Node) float64 {
	if c.maxNodes > 0 && (a.Size() > c.maxNodes || b.Size() > c.maxNodes) {
		return c.fallback.Compare(a, b)
	}
	t1 := newLabelTree(a, c.canon)
	t2 := newLabelTree(b, c.canon)
	maxSize := max(t1.size(), t2.size(), 1)
	return clamp01(1.0 - float64(c.distance(t1, t2))/float64(maxSize))
}

// Distance returns the edit distance between two parsed trees
func (c *TreeEditComparator) Distance(a, b *parser.Node) int {
	return c.distance(newLabelTree(a, c.canon), newLabelTree(b, c.canon))
}

func (c *TreeEditComparator) distance(t1, t2 *labelTree) int {
	n1, n2 := t1.size(), t2.size()
	if n1 == 0 || n2 == 0 {
		cost := 0
		for _, l := range t1.labels {
			cost += c.costs.Delete(l)
		}
		for _, l := range t2.labels {
			cost += c.costs.Insert(l)
		}
		return cost
	}

	td := make([][]int, n1)
	for i := range td {
		td[i] = make([]int, n2)
	}
	// forest table reused across keyroot pairs
	fd := make([][]int, n1+1)
	for i := range fd {
		fd[i] = make([]int, n2+1)
	}

	for _, i := range t1.keyroots {
		for _, j := range t2.keyroots {
			c.forestDistance(t1, t2, i, j, td, fd)
		}
	}
	return td[n1-1][n2-1]
}

func (c *TreeEditComparator) forestDistance(t1, t2 *labelTree, i, j int, td, fd [][]int) {
	li, lj := t1.leftmost[i], t2.leftmost[j]
	ioff, joff := li-1, lj-1

	fd[0][0] = 0
	for x := li; x <= i; x++ {
		fd[x-ioff][0] = fd[x-1-ioff][0] + c.costs.Delete(t1.labels[x])
	}
	for y := lj; y <= j; y++ {
		fd[0][y-joff] = fd[0][y-1-joff] + c.costs.Insert(t2.labels[y])
	}

	for x := li; x <= i; x++ {
		for y := lj; y <= j; y++ {
			xi, yj := x-ioff, y-joff
			del := fd[xi-1][yj] + c.costs.Delete(t1.labels[x])
			ins := fd[xi][yj-1] + c.costs.Insert(t2.labels[y])

			if t1.leftmost[x] == li && t2.leftmost[y] == lj {
				ren := fd[xi-1][yj-1] + c.costs.Rename(t1.labels[x], t2.labels[y])
				fd[xi][yj] = min(del, ins, ren)
				td[x][y] = fd[xi][yj]
				continue
			}

			p, q := t1.leftmost[x]-1-ioff, t2.leftmost[y]-1-joff
			fd[xi][yj] = min(del, ins, fd[p][q]+td[x][y])
		}
	}
}

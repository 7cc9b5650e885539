package tracking

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// centre is a detection centre stored in the k-d tree. idx is the position
// of the detection within its frame, or -1 for query points.
type centre struct {
	x, y float64
	idx  int
}

func (c centre) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return c.x
	}
	return c.y
}

// Compare returns the signed distance of c from the plane passing through
// other and perpendicular to dimension d.
func (c centre) Compare(other kdtree.Comparable, d kdtree.Dim) float64 {
	return c.coord(d) - other.(centre).coord(d)
}

// Dims returns the number of dimensions.
func (c centre) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between c and other.
func (c centre) Distance(other kdtree.Comparable) float64 {
	o := other.(centre)
	dx, dy := c.x-o.x, c.y-o.y
	return dx*dx + dy*dy
}

// centres is a kdtree.Interface over detection centres.
type centres []centre

func (p centres) Index(i int) kdtree.Comparable { return p[i] }
func (p centres) Len() int                      { return len(p) }
func (p centres) Pivot(d kdtree.Dim) int        { return plane{dim: d, centres: p}.Pivot() }
func (p centres) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// plane sorts centres along one dimension for median partitioning.
type plane struct {
	dim kdtree.Dim
	centres
}

func (p plane) Less(i, j int) bool {
	return p.centres[i].coord(p.dim) < p.centres[j].coord(p.dim)
}
func (p plane) Swap(i, j int) { p.centres[i], p.centres[j] = p.centres[j], p.centres[i] }
func (p plane) Pivot() int    { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{dim: p.dim, centres: p.centres[start:end]}
}

// neighbourIndex answers fixed-radius queries over one frame's detections.
type neighbourIndex struct {
	tree   *kdtree.Tree
	radius float64
}

// newNeighbourIndex builds a k-d tree over pts. pts is reordered.
func newNeighbourIndex(pts centres, radius float64) *neighbourIndex {
	return &neighbourIndex{
		tree:   kdtree.New(pts, false),
		radius: radius,
	}
}

// within returns the detection indices whose centre lies at most radius from
// (x, y), with their squared distances.
func (n *neighbourIndex) within(x, y float64) (idx []int, dist2 []float64) {
	r2 := n.radius * n.radius
	// Widen the keeper by one ulp so points exactly on the radius survive
	// the tree's pruning; the exact test below decides.
	keep := kdtree.NewDistKeeper(math.Nextafter(r2, math.Inf(1)))
	n.tree.NearestSet(keep, centre{x: x, y: y, idx: -1})

	for _, cd := range keep.Heap {
		if cd.Comparable == nil || cd.Dist > r2 {
			continue
		}
		idx = append(idx, cd.Comparable.(centre).idx)
		dist2 = append(dist2, cd.Dist)
	}
	return idx, dist2
}

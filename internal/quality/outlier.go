package quality

import (
	"math"
	"math/rand"
	"sort"

	"neo-alexandria/internal/domain/shared"
)

const (
	contamination   = 0.10
	numTrees        = 100
	subsampleSize   = 256
)

type isolationTree struct {
	splitFeature int
	splitValue   float64
	left, right  *isolationTree
	size         int // for leaf nodes: remaining subsample size
	isLeaf       bool
}

// point is a standardized 5-dim feature vector plus the originating id.
type point struct {
	id       shared.ID
	features [5]float64
}

// OutlierReport names, for one resource, whether it was flagged and which
// dimensions triggered it.
type OutlierReport struct {
	ID      shared.ID
	Score   float64
	Outlier bool
	Reasons []string // dimension names below the 5th percentile
}

var dimensionNames = [5]string{"accuracy", "completeness", "consistency", "timeliness", "relevance"}

// DetectOutliers runs Isolation Forest (contamination=0.10) over the
// standardized 5-dim quality features of the given population (spec §4.8).
// A resource is an outlier if its isolation score < -0.5, or if any raw
// dimension falls below the population's 5th percentile.
func DetectOutliers(population map[shared.ID]Dimensions, rng *rand.Rand) []OutlierReport {
	if len(population) == 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	ids := make([]shared.ID, 0, len(population))
	raw := make(map[shared.ID][5]float64, len(population))
	for id, d := range population {
		ids = append(ids, id)
		raw[id] = [5]float64{d.Accuracy, d.Completeness, d.Consistency, d.Timeliness, d.Relevance}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] }) // deterministic iteration order

	standardized := standardize(ids, raw)
	points := make([]point, len(ids))
	for i, id := range ids {
		points[i] = point{id: id, features: standardized[id]}
	}

	forest := buildForest(points, rng)
	scores := make(map[shared.ID]float64, len(points))
	for _, p := range points {
		scores[p.id] = anomalyScore(forest, p, len(points))
	}

	offset := percentileOf(scoreValues(scores), contamination)
	percentiles5 := percentile5PerDimension(ids, raw)

	reports := make([]OutlierReport, 0, len(ids))
	for _, id := range ids {
		adjusted := scores[id] - offset
		var reasons []string
		for i, name := range dimensionNames {
			if raw[id][i] < percentiles5[i] {
				reasons = append(reasons, name)
			}
		}
		reports = append(reports, OutlierReport{
			ID:      id,
			Score:   adjusted,
			Outlier: adjusted < -0.5 || len(reasons) > 0,
			Reasons: reasons,
		})
	}
	return reports
}

func standardize(ids []shared.ID, raw map[shared.ID][5]float64) map[shared.ID][5]float64 {
	n := float64(len(ids))
	var mean, m2 [5]float64
	for _, id := range ids {
		for i := 0; i < 5; i++ {
			mean[i] += raw[id][i]
		}
	}
	for i := 0; i < 5; i++ {
		mean[i] /= n
	}
	for _, id := range ids {
		for i := 0; i < 5; i++ {
			diff := raw[id][i] - mean[i]
			m2[i] += diff * diff
		}
	}
	var std [5]float64
	for i := 0; i < 5; i++ {
		std[i] = math.Sqrt(m2[i] / n)
		if std[i] == 0 {
			std[i] = 1
		}
	}

	out := make(map[shared.ID][5]float64, len(ids))
	for _, id := range ids {
		var f [5]float64
		for i := 0; i < 5; i++ {
			f[i] = (raw[id][i] - mean[i]) / std[i]
		}
		out[id] = f
	}
	return out
}

func buildForest(points []point, rng *rand.Rand) []*isolationTree {
	size := subsampleSize
	if size > len(points) {
		size = len(points)
	}
	heightLimit := int(math.Ceil(math.Log2(float64(size))))

	trees := make([]*isolationTree, numTrees)
	for t := 0; t < numTrees; t++ {
		sample := subsample(points, size, rng)
		trees[t] = buildTree(sample, 0, heightLimit, rng)
	}
	return trees
}

func subsample(points []point, size int, rng *rand.Rand) []point {
	perm := rng.Perm(len(points))[:size]
	sample := make([]point, size)
	for i, idx := range perm {
		sample[i] = points[idx]
	}
	return sample
}

func buildTree(sample []point, depth, heightLimit int, rng *rand.Rand) *isolationTree {
	if depth >= heightLimit || len(sample) <= 1 {
		return &isolationTree{isLeaf: true, size: len(sample)}
	}

	feature := rng.Intn(5)
	min, max := sample[0].features[feature], sample[0].features[feature]
	for _, p := range sample {
		v := p.features[feature]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return &isolationTree{isLeaf: true, size: len(sample)}
	}
	splitValue := min + rng.Float64()*(max-min)

	var left, right []point
	for _, p := range sample {
		if p.features[feature] < splitValue {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isolationTree{isLeaf: true, size: len(sample)}
	}

	return &isolationTree{
		splitFeature: feature,
		splitValue:   splitValue,
		left:         buildTree(left, depth+1, heightLimit, rng),
		right:        buildTree(right, depth+1, heightLimit, rng),
	}
}

func pathLength(t *isolationTree, p point, depth int) float64 {
	if t.isLeaf {
		return float64(depth) + averagePathAdjustment(t.size)
	}
	if p.features[t.splitFeature] < t.splitValue {
		return pathLength(t.left, p, depth+1)
	}
	return pathLength(t.right, p, depth+1)
}

// averagePathAdjustment is sklearn's c(n): expected path length of an
// unsuccessful BST search, used to normalize leaf-node path length when a
// leaf still contains more than one point.
func averagePathAdjustment(n int) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(float64(n-1))+0.5772156649) - 2*float64(n-1)/float64(n)
}

func anomalyScore(forest []*isolationTree, p point, n int) float64 {
	var total float64
	for _, t := range forest {
		total += pathLength(t, p, 0)
	}
	avgPath := total / float64(len(forest))
	c := averagePathAdjustment(n)
	if c == 0 {
		c = 1
	}
	return -math.Pow(2, -avgPath/c)
}

func scoreValues(scores map[shared.ID]float64) []float64 {
	vals := make([]float64, 0, len(scores))
	for _, s := range scores {
		vals = append(vals, s)
	}
	sort.Float64s(vals)
	return vals
}

// percentileOf returns the value at the given fraction (0..1) of a sorted
// slice, using linear interpolation between ranks.
func percentileOf(sorted []float64, frac float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := frac * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac2 := pos - float64(lo)
	return sorted[lo]*(1-frac2) + sorted[hi]*frac2
}

func percentile5PerDimension(ids []shared.ID, raw map[shared.ID][5]float64) [5]float64 {
	var result [5]float64
	for i := 0; i < 5; i++ {
		vals := make([]float64, len(ids))
		for j, id := range ids {
			vals[j] = raw[id][i]
		}
		sort.Float64s(vals)
		result[i] = percentileOf(vals, 0.05)
	}
	return result
}

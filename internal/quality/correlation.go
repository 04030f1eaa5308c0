package quality

import (
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

// DefaultTopPairs is the number of ranked pairs kept by
// ComputeMissingCorrelation.
const DefaultTopPairs = 5

// PairScore is the co-missingness of two fields.
type PairScore struct {
	A            string  `json:"a" yaml:"a"`
	B            string  `json:"b" yaml:"b"`
	Score        float64 `json:"score" yaml:"score"`     // Jaccard, [0,1]
	Percent      float64 `json:"percent" yaml:"percent"` // Score*100
	Intersection int     `json:"intersection" yaml:"intersection"`
	Union        int     `json:"union" yaml:"union"`
}

// Correlation is the result of a co-missingness pass.
type Correlation struct {
	// BestPair is nil when fewer than two fields exist or no pair shares a
	// missing row.
	BestPair  *PairScore `json:"best_pair,omitempty" yaml:"best_pair,omitempty"`
	BestScore float64    `json:"best_score" yaml:"best_score"` // percent
	// TopPairs ranks pairs that share at least one missing row.
	TopPairs []PairScore `json:"top_pairs" yaml:"top_pairs"`
	Fields   []string    `json:"fields" yaml:"fields"`
	// Matrix holds the Jaccard score of every field pair; the diagonal is 1
	// for fields with at least one missing value. Nil without fields.
	Matrix *mat.SymDense `json:"-" yaml:"-"`
}

// Jaccard compares two missing-indicator vectors. The score is 0 when
// neither vector has a missing entry.
func Jaccard(a, b []bool) (score float64, intersection, union int) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] && b[i] {
			intersection++
		}
		if a[i] || b[i] {
			union++
		}
	}
	// tail of the longer vector only adds to the union
	for i := n; i < len(a); i++ {
		if a[i] {
			union++
		}
	}
	for i := n; i < len(b); i++ {
		if b[i] {
			union++
		}
	}
	if union == 0 {
		return 0, 0, 0
	}
	return float64(intersection) / float64(union), intersection, union
}

// ComputeMissingCorrelation scores every unordered field pair with Jaccard
// similarity of their missing rows and keeps the DefaultTopPairs best.
func ComputeMissingCorrelation(rows []dataset.Row, fields []string) Correlation {
	return ComputeMissingCorrelationTopK(rows, fields, DefaultTopPairs)
}

// ComputeMissingCorrelationTopK is ComputeMissingCorrelation keeping k
// ranked pairs; k <= 0 keeps DefaultTopPairs.
func ComputeMissingCorrelationTopK(rows []dataset.Row, fields []string, k int) Correlation {
	if k <= 0 {
		k = DefaultTopPairs
	}
	out := Correlation{Fields: fields, TopPairs: []PairScore{}}
	if len(fields) == 0 {
		return out
	}
	vecs := MissingIndicators(rows, fields)
	n := len(fields)
	out.Matrix = mat.NewSymDense(n, nil)
	pairs := make([]PairScore, 0, n*(n-1)/2)
	best := 0.0
	for i := 0; i < n; i++ {
		self, _, _ := Jaccard(vecs[i], vecs[i])
		out.Matrix.SetSym(i, i, self)
		for j := i + 1; j < n; j++ {
			score, inter, union := Jaccard(vecs[i], vecs[j])
			out.Matrix.SetSym(i, j, score)
			p := PairScore{
				A:            fields[i],
				B:            fields[j],
				Score:        score,
				Percent:      score * 100,
				Intersection: inter,
				Union:        union,
			}
			if score > best {
				best = score
				bp := p
				out.BestPair = &bp
				out.BestScore = p.Percent
			}
			if score > 0 {
				pairs = append(pairs, p)
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Score > pairs[b].Score })
	if len(pairs) > k {
		pairs = pairs[:k]
	}
	out.TopPairs = pairs
	return out
}

// Values returns the Jaccard matrix as nested slices in field order.
func (c Correlation) Values() [][]float64 {
	if c.Matrix == nil {
		return nil
	}
	n := c.Matrix.SymmetricDim()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = c.Matrix.At(i, j)
		}
	}
	return out
}

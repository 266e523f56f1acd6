package training

import (
	"math"
	"math/rand/v2"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const opSplit = "training.split"

// Split shuffles articles with seed and holds out testSize of them. With at
// least two articles both halves are non-empty. The input is not modified.
func Split(articles []domain.LabeledArticle, testSize float64, seed uint64) (train, test []domain.LabeledArticle, err error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, nil, errors.Ef(errors.KindInvalidInput, opSplit, "test size %v outside (0, 1)", testSize)
	}

	n := len(articles)
	if n < 2 {
		return nil, nil, errors.Ef(errors.KindInvalidInput, opSplit, "need at least 2 articles, got %d", n)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTest = min(max(nTest, 1), n-1)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	test = make([]domain.LabeledArticle, 0, nTest)
	train = make([]domain.LabeledArticle, 0, n-nTest)

	for k, idx := range order {
		if k < nTest {
			test = append(test, articles[idx])
		} else {
			train = append(train, articles[idx])
		}
	}

	return train, test, nil
}

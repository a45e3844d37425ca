package attribution

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexcite/core"
	"github.com/poiesic/lexcite/normalize"
)

// PairCitations holds the citations selected for one party pair.
type PairCitations struct {
	Pair       core.PartyPair
	Candidates []core.CitationCandidate
}

// fuzzyScore measures token overlap between two normalized names. Words of
// three or more letters are weighted by their length; when either name has
// none, the plain Jaccard ratio is used instead.
func fuzzyScore(a, b string) float64 {
	if a == b {
		return 1.0
	}
	words1 := wordSet(a)
	words2 := wordSet(b)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	var common, union int
	var commonWeight, weight1, weight2 int
	for w := range words1 {
		if len(w) > 2 {
			weight1 += len(w)
		}
		if words2[w] {
			common++
			if len(w) > 2 {
				commonWeight += len(w)
			}
		}
	}
	for w := range words2 {
		if len(w) > 2 {
			weight2 += len(w)
		}
	}
	union = len(words1) + len(words2) - common

	if weight1 == 0 || weight2 == 0 {
		return float64(common) / float64(union)
	}
	return (float64(commonWeight)/float64(weight1) + float64(commonWeight)/float64(weight2)) / 2
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// pairScore scores a judgment against a party pair: 1.0 for an exact match
// in either order, otherwise the weaker of the two names' best fuzzy scores,
// provided the names favour opposite sides. Zero means no match.
func pairScore(first, second, petitioner, respondent string) float64 {
	if (first == petitioner && second == respondent) || (first == respondent && second == petitioner) {
		return core.ExactMatchScore
	}

	firstPet, firstResp := fuzzyScore(first, petitioner), fuzzyScore(first, respondent)
	secondPet, secondResp := fuzzyScore(second, petitioner), fuzzyScore(second, respondent)

	firstIsPet := firstPet > firstResp
	secondIsPet := secondPet > secondResp
	if firstIsPet == secondIsPet {
		return 0
	}
	return min(max(firstPet, firstResp), max(secondPet, secondResp))
}

// matchPair scans every judgment once and returns the best-scoring candidate
// per judgment, in corpus order.
func (a *Attributor) matchPair(ctx context.Context, pair core.PartyPair) ([]core.CitationCandidate, error) {
	first := normalize.AttributionPartyName(pair.First)
	second := normalize.AttributionPartyName(pair.Second)
	if first == "" || second == "" {
		a.logger.Warn("skipping pair with empty name", "pair", pair.String())
		return nil, nil
	}

	best := make(map[string]int)
	var candidates []core.CitationCandidate
	for i, chunk := range a.index.Judgments() {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ext := chunk.ExternalID()
		petitioner, respondent := chunk.Meta(core.MetaPetitioner), chunk.Meta(core.MetaRespondent)
		if ext == "" || petitioner == "" || respondent == "" {
			continue
		}

		score := pairScore(first, second,
			normalize.AttributionPartyName(petitioner),
			normalize.AttributionPartyName(respondent))
		if score <= 0 {
			continue
		}

		if pos, seen := best[ext]; seen {
			if score > candidates[pos].MatchScore {
				candidates[pos] = core.CitationCandidateFromChunk(chunk, score)
			}
			continue
		}
		best[ext] = len(candidates)
		candidates = append(candidates, core.CitationCandidateFromChunk(chunk, score))
		a.logger.Debug("pair candidate", "pair", pair.String(), "external_id", ext, "score", score)
	}
	return candidates, nil
}

// selectCandidates keeps the candidates at or above strict, or failing that
// at or above relaxed, sorted by descending score and capped at limit.
func selectCandidates(candidates []core.CitationCandidate, strict, relaxed float64, limit int) []core.CitationCandidate {
	pick := func(threshold float64) []core.CitationCandidate {
		var out []core.CitationCandidate
		for _, c := range candidates {
			if c.MatchScore >= threshold {
				out = append(out, c)
			}
		}
		return out
	}

	selected := pick(strict)
	if len(selected) == 0 {
		selected = pick(relaxed)
	}
	slices.SortStableFunc(selected, func(x, y core.CitationCandidate) int {
		switch {
		case x.MatchScore > y.MatchScore:
			return -1
		case x.MatchScore < y.MatchScore:
			return 1
		}
		return 0
	})
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// pairResults collects per-pair results from pool workers.
type pairResults struct {
	mu      sync.Mutex
	results [][]core.CitationCandidate
}

func (r *pairResults) set(i int, candidates []core.CitationCandidate) {
	r.mu.Lock()
	r.results[i] = candidates
	r.mu.Unlock()
}

func (r *pairResults) snapshot(pairs []core.PartyPair) []PairCitations {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PairCitations
	for i, candidates := range r.results {
		if len(candidates) > 0 {
			out = append(out, PairCitations{Pair: pairs[i], Candidates: candidates})
		}
	}
	return out
}

// matchAll matches every pair on a pool of min(len(pairs), maxWorkers)
// workers. A failing or panicking pair is logged and contributes nothing.
// If ctx ends first, the pairs finished so far are returned with ctx's error
// and the remaining jobs are not waited for.
func (a *Attributor) matchAll(ctx context.Context, pairs []core.PartyPair) ([]PairCitations, error) {
	collected := &pairResults{results: make([][]core.CitationCandidate, len(pairs))}
	if len(pairs) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(min(len(pairs), a.maxWorkers))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, pair := range pairs {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("pair matching panicked",
						"pair", pair.String(),
						"err", fmt.Errorf("%w: %v", ErrMatchingFailed, r))
				}
			}()

			candidates, err := a.match(ctx, pair)
			if err != nil {
				a.logger.Warn("pair matching failed",
					"pair", pair.String(),
					"err", fmt.Errorf("%w: %w", ErrMatchingFailed, err))
				return
			}
			selected := selectCandidates(candidates, a.strictThreshold, a.relaxedThreshold, a.maxCandidates)
			a.logger.Info("pair matched",
				"pair", pair.String(),
				"candidates", len(candidates),
				"selected", len(selected))
			collected.set(i, selected)
		}
		if err := pool.Submit(job); err != nil {
			wg.Done()
			a.logger.Error("failed to submit pair matching job",
				"pair", pair.String(),
				"err", fmt.Errorf("%w: %w", ErrMatchingFailed, err))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return collected.snapshot(pairs), nil
	case <-ctx.Done():
		return collected.snapshot(pairs), ctx.Err()
	}
}

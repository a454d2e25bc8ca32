// Package relayer implements relayer scoring, filtering, and selection for
// Maximum-privacy transfers, plus the rolling health aggregate the selector
// maintains between updates.
//
// Scoring weighs success rate, latency, fee, and region affinity; health is
// tracked as an exponential moving average updated on each reported sample.
package relayer

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stealthpay/stealthcore/external"
	"github.com/stealthpay/stealthcore/stealtherr"
)

// regionBonus is added to a candidate's score when Criteria.Region matches
// the relayer's own region.
const regionBonus = 5.0

// latencyEMAWeight and successEMAWeight are the exponential-moving-average
// weights applied when merging in a new health sample.
const (
	latencyEMAWeight = 0.2
	successEMAWeight = 0.1
)

// Health is a relayer's rolling network-health sample.
type Health struct {
	LatencyMs   float64
	SuccessRate float64
	Online      bool
	LastSeen    time.Time
}

// Info is a relayer's full identity plus its current health. The embedded
// external.RelayerInfo is the minimal shape RelayerClient.Submit needs to
// address a submission; Info promotes its fields (ID, Endpoint, Region,
// FeeBps) so a Selector result can be passed straight to a RelayerClient.
type Info struct {
	external.RelayerInfo
	SupportedTokens [][32]byte
	Health          Health
}

// Criteria narrows the relayer pool before scoring/sampling. Token and
// MaxFeeBps filter candidates out; Region does not filter but adds
// regionBonus to a matching relayer's score in SelectBest; Amount is not
// consulted.
type Criteria struct {
	Token     *[32]byte
	Amount    *uint64
	MaxFeeBps *uint32
	Region    string
}

// Snapshot is the aggregate health view returned by HealthSnapshot.
type Snapshot struct {
	Total          int
	OnlineCount    int
	AvgLatencyMs   float64
	AvgSuccessRate float64
}

// Selector owns a pool of relayers and their health, serializing all writes
// on its own mutex: relayer health belongs to the Selector instance, and
// every writer goes through it rather than mutating shared state directly.
type Selector struct {
	mu        sync.Mutex
	relayers  map[string]Info
	rngSource *rand.Rand
}

// NewSelector builds a Selector seeded with an initial relayer pool.
func NewSelector(relayers []Info) *Selector {
	m := make(map[string]Info, len(relayers))
	for _, r := range relayers {
		m[r.ID] = r
	}
	return &Selector{
		relayers:  m,
		rngSource: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func matches(r Info, c Criteria) bool {
	if c.Token != nil {
		found := false
		for _, t := range r.SupportedTokens {
			if t == *c.Token {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.MaxFeeBps != nil && r.FeeBps > *c.MaxFeeBps {
		return false
	}
	return true
}

func (s *Selector) filtered(c Criteria) []Info {
	out := make([]Info, 0, len(s.relayers))
	for _, r := range s.relayers {
		if matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

func score(r Info, c Criteria) float64 {
	sc := r.Health.SuccessRate - r.Health.LatencyMs/100 - float64(r.FeeBps)
	if c.Region != "" && c.Region == r.Region {
		sc += regionBonus
	}
	return sc
}

// SelectBest returns the highest-scoring relayer satisfying criteria, ties
// broken by lower FeeBps then lexicographic ID.
func (s *Selector) SelectBest(c Criteria) (Info, error) {
	s.mu.Lock()
	candidates := s.filtered(c)
	s.mu.Unlock()

	if len(candidates) == 0 {
		return Info{}, stealtherr.New(stealtherr.InvalidInput, "relayer: no relayers satisfy the given criteria")
	}

	sort.Slice(candidates, func(i, j int) bool {
		si, sj := score(candidates[i], c), score(candidates[j], c)
		if si != sj {
			return si > sj
		}
		if candidates[i].FeeBps != candidates[j].FeeBps {
			return candidates[i].FeeBps < candidates[j].FeeBps
		}
		return candidates[i].ID < candidates[j].ID
	})

	return candidates[0], nil
}

// SelectRandom uniformly samples a relayer from the filtered set, so an
// observer cannot predict the choice. The Maximum-tier relay path in
// policy uses SelectBest, not this method.
func (s *Selector) SelectRandom(c Criteria) (Info, error) {
	s.mu.Lock()
	candidates := s.filtered(c)
	rng := s.rngSource
	s.mu.Unlock()

	if len(candidates) == 0 {
		return Info{}, stealtherr.New(stealtherr.InvalidInput, "relayer: no relayers satisfy the given criteria")
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates[rng.Intn(len(candidates))], nil
}

// HealthSnapshot aggregates the current pool's health.
func (s *Selector) HealthSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	snap.Total = len(s.relayers)
	if snap.Total == 0 {
		return snap
	}

	var latencySum, successSum float64
	for _, r := range s.relayers {
		if r.Health.Online {
			snap.OnlineCount++
		}
		latencySum += r.Health.LatencyMs
		successSum += r.Health.SuccessRate
	}
	snap.AvgLatencyMs = latencySum / float64(snap.Total)
	snap.AvgSuccessRate = successSum / float64(snap.Total)
	return snap
}

// UpdateHealth merges a new health sample into relayer id's rolling
// average using an exponential moving average: weight 0.2 for latency,
// 0.1 for success rate. Online and LastSeen are taken verbatim from sample.
func (s *Selector) UpdateHealth(id string, sample Health) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relayers[id]
	if !ok {
		return
	}

	r.Health.LatencyMs = ewma(r.Health.LatencyMs, sample.LatencyMs, latencyEMAWeight)
	r.Health.SuccessRate = ewma(r.Health.SuccessRate, sample.SuccessRate, successEMAWeight)
	r.Health.Online = sample.Online
	r.Health.LastSeen = sample.LastSeen
	s.relayers[id] = r
}

func ewma(prev, sample, weight float64) float64 {
	return weight*sample + (1-weight)*prev
}

// NewCorrelationID mints a fresh relayer request correlation ID, used by
// policy when building an external.RelayRequest.
func NewCorrelationID() string {
	return fmt.Sprintf("relay-%s", uuid.NewString())
}

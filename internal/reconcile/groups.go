package reconcile

import (
	"math"
	"sort"

	"github.com/tguerin/timekeep/internal/domain"
)

// QuantumMinutes is the quantization unit for group-level rounding: all
// reconciled group durations are multiples of a quarter hour before
// remainder distribution.
const QuantumMinutes = 15

// TaskGroup is the set of one date's sessions sharing a grouping key.
// Rebuilt on every reconciliation pass, never persisted.
type TaskGroup struct {
	Key           domain.GroupKey
	TaskTitle     string
	TaskType      string
	ActivityName  string
	ActivityValue string

	Sessions             []*domain.WorkSession
	OriginalTotalSeconds int
	AdjustedTotalSeconds int
	WasAdjusted          bool
}

// ActivityID returns the group's activity id, or nil when the group has no
// activity classifier.
func (g *TaskGroup) ActivityID() *int {
	if !g.Key.HasActivity {
		return nil
	}
	id := g.Key.ActivityID
	return &id
}

// BuildGroups partitions sessions into task groups keyed by
// (taskKey, activityId). Group order follows the first appearance of each
// key in the input, which keeps every later step deterministic.
func BuildGroups(sessions []*domain.WorkSession) []*TaskGroup {
	byKey := make(map[domain.GroupKey]*TaskGroup)
	var groups []*TaskGroup

	for _, s := range sessions {
		key := s.Key()
		g, ok := byKey[key]
		if !ok {
			g = &TaskGroup{
				Key:           key,
				TaskTitle:     s.TaskTitle,
				TaskType:      s.TaskType,
				ActivityName:  s.ActivityName,
				ActivityValue: s.ActivityValue,
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Sessions = append(g.Sessions, s)
		g.OriginalTotalSeconds += s.DurationSeconds
		g.AdjustedTotalSeconds += s.DurationSeconds
	}
	return groups
}

// roundToQuantum rounds minutes to the nearest multiple of QuantumMinutes.
func roundToQuantum(minutes float64) float64 {
	return math.Round(minutes/QuantumMinutes) * QuantumMinutes
}

// distributeRemainder walks the groups largest-first, round-robin, applying
// quantum-sized steps until the remaining difference is smaller than one
// quantum. A remainder below the quantum is accepted as residual error and
// not distributed further, even though that can leave the day up to
// QuantumMinutes-1 minutes off the cap. Steps that would push a group
// negative are skipped. Every group touched here counts as adjusted.
func distributeRemainder(groups []*TaskGroup, differenceMinutes float64) {
	if differenceMinutes == 0 || len(groups) == 0 {
		return
	}

	sorted := make([]*TaskGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AdjustedTotalSeconds > sorted[j].AdjustedTotalSeconds
	})

	remaining := differenceMinutes
	i := 0
	skipped := 0
	// A remainder below one quantum is accepted as residual, including on
	// entry, so the distributed steps stay quarter-hour multiples.
	for math.Abs(remaining) >= QuantumMinutes {
		g := sorted[i]

		// Floor at zero: a group too small to give up a quantum is skipped.
		// A full lap of skips means no group can absorb the step.
		if remaining < 0 && g.AdjustedTotalSeconds < QuantumMinutes*60 {
			skipped++
			if skipped >= len(sorted) {
				break
			}
			i = (i + 1) % len(sorted)
			continue
		}

		step := QuantumMinutes
		if remaining < 0 {
			step = -QuantumMinutes
		}
		g.AdjustedTotalSeconds += step * 60
		remaining -= float64(step)
		g.WasAdjusted = true

		skipped = 0
		i = (i + 1) % len(sorted)
	}
}

// splitAcrossSessions distributes totalSeconds over the group's sessions in
// proportion to each session's share of the original total; the last
// session absorbs the rounding remainder so the parts sum exactly. When the
// group's original total is zero the split is even instead.
func splitAcrossSessions(g *TaskGroup, totalSeconds int) []int {
	n := len(g.Sessions)
	parts := make([]int, n)
	if n == 0 {
		return parts
	}

	if g.OriginalTotalSeconds == 0 {
		per := int(math.Round(float64(totalSeconds) / float64(n)))
		remaining := totalSeconds
		for i := range parts {
			if i == n-1 {
				parts[i] = remaining
			} else {
				parts[i] = per
				remaining -= per
			}
		}
		return parts
	}

	remaining := totalSeconds
	for i, s := range g.Sessions {
		if i == n-1 {
			parts[i] = remaining
			break
		}
		share := float64(s.DurationSeconds) / float64(g.OriginalTotalSeconds)
		parts[i] = int(math.Round(float64(totalSeconds) * share))
		remaining -= parts[i]
	}
	return parts
}

// Package phases computes dependency phases for an epic's children: which
// tasks are workable now and which wait on siblings.
//
// Phase 0 holds tasks with no unresolved sibling blockers; phase N holds
// tasks blocked only by phases below N. Tasks in one phase can run in
// parallel.
package phases

import (
	"github.com/riordanpawley/azedarach/internal/domain"
)

// TaskPhaseInfo is one task's phase assignment.
type TaskPhaseInfo struct {
	Phase     int      // 0 = ready now
	BlockedBy []string // sibling ids gating this task (empty at phase 0)
}

// PhaseComputationResult is the full phase assignment for an epic.
type PhaseComputationResult struct {
	Phases      map[string]TaskPhaseInfo
	MaxPhase    int
	PhaseCounts map[int]int
}

// ComputeDependencyPhases assigns a phase to every id in childIDs via
// Kahn's algorithm over the sibling-only "blocks" edges found in tasks.
// A dependency cycle doesn't wedge the computation: every task still
// caught in the cycle lands in the current phase with its unresolved
// blockers recorded.
func ComputeDependencyPhases(childIDs map[string]bool, tasks map[string]domain.Task) PhaseComputationResult {
	blockers := siblingBlockers(childIDs, tasks)

	phases := make(map[string]TaskPhaseInfo)
	remaining := make(map[string]bool, len(childIDs))
	for id := range childIDs {
		remaining[id] = true
	}

	for phase := 0; len(remaining) > 0; phase++ {
		var ready []string
		for taskID := range remaining {
			if len(unresolved(blockers[taskID], remaining)) == 0 {
				ready = append(ready, taskID)
			}
		}

		if len(ready) == 0 {
			// Cycle: everything left blocks something else that's left.
			for taskID := range remaining {
				phases[taskID] = TaskPhaseInfo{
					Phase:     phase,
					BlockedBy: unresolved(blockers[taskID], remaining),
				}
			}
			break
		}

		for _, taskID := range ready {
			phases[taskID] = TaskPhaseInfo{Phase: phase, BlockedBy: blockers[taskID]}
			delete(remaining, taskID)
		}
	}

	counts := make(map[int]int)
	maxPhase := 0
	for _, info := range phases {
		counts[info.Phase]++
		maxPhase = max(maxPhase, info.Phase)
	}

	return PhaseComputationResult{Phases: phases, MaxPhase: maxPhase, PhaseCounts: counts}
}

// siblingBlockers maps each child to the siblings whose "blocks" edges
// gate it; dependencies pointing outside the sibling set are ignored.
func siblingBlockers(childIDs map[string]bool, tasks map[string]domain.Task) map[string][]string {
	blockers := make(map[string][]string, len(childIDs))
	for childID := range childIDs {
		blockers[childID] = []string{}

		task, exists := tasks[childID]
		if !exists {
			continue
		}
		for _, dep := range task.Dependencies {
			if dep.Type == domain.DependencyBlocks && childIDs[dep.ID] {
				blockers[childID] = append(blockers[childID], dep.ID)
			}
		}
	}
	return blockers
}

func unresolved(blockers []string, remaining map[string]bool) []string {
	out := []string{}
	for _, b := range blockers {
		if remaining[b] {
			out = append(out, b)
		}
	}
	return out
}

package phases

import (
	"testing"

	"github.com/riordanpawley/azedarach/internal/domain"
)

func idSet(ids ...string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func task(id string, blockedBy ...string) domain.Task {
	t := domain.Task{ID: id, Title: "Task " + id}
	for _, b := range blockedBy {
		t.Dependencies = append(t.Dependencies, domain.Dependency{ID: b, Type: domain.DependencyBlocks})
	}
	return t
}

func taskMap(tasks ...domain.Task) map[string]domain.Task {
	m := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}

func TestComputeDependencyPhases_NoDependencies(t *testing.T) {
	result := ComputeDependencyPhases(
		idSet("a", "b", "c"),
		taskMap(task("a"), task("b"), task("c")),
	)

	if result.MaxPhase != 0 {
		t.Errorf("MaxPhase = %d, want 0", result.MaxPhase)
	}
	if result.PhaseCounts[0] != 3 {
		t.Errorf("phase 0 count = %d, want 3", result.PhaseCounts[0])
	}
	for id, info := range result.Phases {
		if info.Phase != 0 {
			t.Errorf("%s assigned phase %d, want 0", id, info.Phase)
		}
	}
}

func TestComputeDependencyPhases_LinearChain(t *testing.T) {
	// a <- b <- c
	result := ComputeDependencyPhases(
		idSet("a", "b", "c"),
		taskMap(task("a"), task("b", "a"), task("c", "b")),
	)

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, phase := range want {
		if got := result.Phases[id].Phase; got != phase {
			t.Errorf("%s phase = %d, want %d", id, got, phase)
		}
	}
	if result.MaxPhase != 2 {
		t.Errorf("MaxPhase = %d, want 2", result.MaxPhase)
	}
}

func TestComputeDependencyPhases_Diamond(t *testing.T) {
	// b and c both wait on a; d waits on both.
	result := ComputeDependencyPhases(
		idSet("a", "b", "c", "d"),
		taskMap(task("a"), task("b", "a"), task("c", "a"), task("d", "b", "c")),
	)

	if result.Phases["b"].Phase != 1 || result.Phases["c"].Phase != 1 {
		t.Errorf("b/c should share phase 1: b=%d c=%d", result.Phases["b"].Phase, result.Phases["c"].Phase)
	}
	if result.Phases["d"].Phase != 2 {
		t.Errorf("d phase = %d, want 2", result.Phases["d"].Phase)
	}
	if result.PhaseCounts[1] != 2 {
		t.Errorf("phase 1 count = %d, want 2", result.PhaseCounts[1])
	}
}

func TestComputeDependencyPhases_RecordsBlockers(t *testing.T) {
	result := ComputeDependencyPhases(
		idSet("a", "b"),
		taskMap(task("a"), task("b", "a")),
	)

	blockers := result.Phases["b"].BlockedBy
	if len(blockers) != 1 || blockers[0] != "a" {
		t.Errorf("b.BlockedBy = %v, want [a]", blockers)
	}
	if len(result.Phases["a"].BlockedBy) != 0 {
		t.Errorf("a.BlockedBy = %v, want empty", result.Phases["a"].BlockedBy)
	}
}

func TestComputeDependencyPhases_IgnoresOutsideDeps(t *testing.T) {
	// b depends on a bead outside the sibling set; it is still ready.
	result := ComputeDependencyPhases(
		idSet("a", "b"),
		taskMap(task("a"), task("b", "az-elsewhere")),
	)

	if result.Phases["b"].Phase != 0 {
		t.Errorf("dep outside the epic must not block: phase = %d", result.Phases["b"].Phase)
	}
}

func TestComputeDependencyPhases_IgnoresNonBlockingDeps(t *testing.T) {
	related := domain.Task{ID: "b", Dependencies: []domain.Dependency{
		{ID: "a", Type: domain.DependencyRelated},
	}}
	result := ComputeDependencyPhases(
		idSet("a", "b"),
		taskMap(task("a"), related),
	)

	if result.Phases["b"].Phase != 0 {
		t.Errorf("related dep must not block: phase = %d", result.Phases["b"].Phase)
	}
}

func TestComputeDependencyPhases_CycleTerminates(t *testing.T) {
	// a <-> b plus a clean task c.
	result := ComputeDependencyPhases(
		idSet("a", "b", "c"),
		taskMap(task("a", "b"), task("b", "a"), task("c")),
	)

	if len(result.Phases) != 3 {
		t.Fatalf("every task gets a phase even in a cycle, got %d", len(result.Phases))
	}
	if result.Phases["c"].Phase != 0 {
		t.Errorf("c phase = %d, want 0", result.Phases["c"].Phase)
	}
	// The cycle members land together one phase up, blockers recorded.
	if result.Phases["a"].Phase != 1 || result.Phases["b"].Phase != 1 {
		t.Errorf("cycle members at phases a=%d b=%d, want 1/1", result.Phases["a"].Phase, result.Phases["b"].Phase)
	}
	if len(result.Phases["a"].BlockedBy) == 0 {
		t.Error("cycle members keep their unresolved blockers")
	}
}

func TestComputeDependencyPhases_MissingTaskData(t *testing.T) {
	// An id in the set with no task record is treated as unblocked.
	result := ComputeDependencyPhases(idSet("ghost"), taskMap())

	if result.Phases["ghost"].Phase != 0 {
		t.Errorf("ghost phase = %d, want 0", result.Phases["ghost"].Phase)
	}
}

func TestComputeDependencyPhases_Empty(t *testing.T) {
	result := ComputeDependencyPhases(idSet(), taskMap())
	if len(result.Phases) != 0 || result.MaxPhase != 0 {
		t.Errorf("empty input should produce empty result, got %+v", result)
	}
}

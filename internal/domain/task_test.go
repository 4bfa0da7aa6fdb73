package domain

import "testing"

func TestStatus_Column(t *testing.T) {
	cases := map[Status]int{
		StatusOpen:        0,
		StatusInProgress:  1,
		StatusBlocked:     2,
		StatusClosed:      3,
		Status("unknown"): 0,
	}
	for status, want := range cases {
		if got := status.Column(); got != want {
			t.Errorf("%s.Column() = %d, want %d", status, got, want)
		}
	}
}

func TestPriority_String(t *testing.T) {
	for i, want := range []string{"P0", "P1", "P2", "P3", "P4"} {
		if got := Priority(i).String(); got != want {
			t.Errorf("Priority(%d).String() = %q, want %q", i, got, want)
		}
	}
}

func TestTaskType_Short(t *testing.T) {
	cases := map[TaskType]string{
		TypeTask:          "T",
		TypeBug:           "B",
		TypeFeature:       "F",
		TypeEpic:          "E",
		TypeChore:         "C",
		TaskType("weird"): "?",
	}
	for taskType, want := range cases {
		if got := taskType.Short(); got != want {
			t.Errorf("%s.Short() = %q, want %q", taskType, got, want)
		}
	}
}

func TestDependencyTypes(t *testing.T) {
	// The four dependency kinds the tracker reports.
	for _, dep := range []DependencyType{
		DependencyBlocks, DependencyParentChild, DependencyRelated, DependencyDiscoveredFrom,
	} {
		if dep == "" {
			t.Error("dependency type should have a wire value")
		}
	}
}

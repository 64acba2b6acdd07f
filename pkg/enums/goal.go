package enums

import "fmt"

// GoalCategory groups goals by the part of the practice they measure.
type GoalCategory string

const (
	GoalCategoryScheduling GoalCategory = "scheduling"
	GoalCategoryClients    GoalCategory = "clients"
	GoalCategoryBilling    GoalCategory = "billing"
	GoalCategoryStaffing   GoalCategory = "staffing"
)

var validGoalCategories = []GoalCategory{
	GoalCategoryScheduling,
	GoalCategoryClients,
	GoalCategoryBilling,
	GoalCategoryStaffing,
}

// IsValid reports whether the value is a known GoalCategory.
func (g GoalCategory) IsValid() bool {
	for _, candidate := range validGoalCategories {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGoalCategory converts raw input into a GoalCategory.
func ParseGoalCategory(value string) (GoalCategory, error) {
	for _, candidate := range validGoalCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid goal category %q", value)
}

// GoalStatus tracks goal progress.
type GoalStatus string

const (
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusDone       GoalStatus = "done"
)

var validGoalStatuses = []GoalStatus{
	GoalStatusInProgress,
	GoalStatusDone,
}

// IsValid reports whether the value is a known GoalStatus.
func (g GoalStatus) IsValid() bool {
	for _, candidate := range validGoalStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

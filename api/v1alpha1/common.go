package v1alpha1

func StringToRunStatus(s string) RunStatus {
	switch s {
	case string(RunStatusCompleted):
		return RunStatusCompleted
	case string(RunStatusFailed):
		return RunStatusFailed
	default:
		return RunStatusRunning
	}
}

// StringToStageAction returns false for an unknown action.
func StringToStageAction(s string) (StageAction, bool) {
	switch s {
	case string(StageActionAdvance):
		return StageActionAdvance, true
	case string(StageActionSkip):
		return StageActionSkip, true
	case string(StageActionReject):
		return StageActionReject, true
	default:
		return "", false
	}
}

package models

type WorkflowStep int

const (
	StepCollectHostname WorkflowStep = 1
	StepCollectDetails  WorkflowStep = 2
	StepShowResult      WorkflowStep = 3
)

func (s WorkflowStep) String() string {
	switch s {
	case StepCollectHostname:
		return "collect_hostname"
	case StepCollectDetails:
		return "collect_details"
	case StepShowResult:
		return "show_result"
	default:
		return "unknown"
	}
}

func (s WorkflowStep) Valid() bool {
	return s >= StepCollectHostname && s <= StepShowResult
}

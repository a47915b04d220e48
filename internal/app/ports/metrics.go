package ports

type DecisionMetrics interface {
	RecordCommand(packet string)
	RecordModeChange(mode string)
	RecordPlanFailure()
	RecordEscape()
}

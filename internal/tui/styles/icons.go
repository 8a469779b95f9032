package styles

const (
	CheckedIcon   string = "[x]"
	UncheckedIcon string = "[ ]"
	CursorIcon    string = "›"

	ExpandedIcon  string = "-"
	CollapsedIcon string = "+"

	SuccessIcon string = "✓"
	ErrorIcon   string = "✗"
	WarningIcon string = "⚠"
	RunningIcon string = "▶"
	PendingIcon string = "·"
)

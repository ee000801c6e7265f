package commands

import "strings"

type Intent string

const (
	IntentCommand      Intent = "command"
	IntentHelp         Intent = "help"
	IntentReminderHint Intent = "reminder_hint"
	IntentTrainingHint Intent = "training_hint"
	IntentStatus       Intent = "status"
	IntentGeneric      Intent = "generic"
)

const (
	verbRemind   = "/remind"
	verbAck      = "/ack"
	verbTraining = "/training"
	verbStatus   = "/status"
	verbHelp     = "/help"
)

// Command is a classified turn. Verb and Args are only set for IntentCommand.
type Command struct {
	Intent Intent
	Raw    string
	Verb   string
	Args   []string
}

// Classify decides what a turn is asking for. The first matching rule wins:
// a leading slash, then the keywords help, remind, training and status, then
// the generic fallback. Matching ignores case; Args keep theirs.
func Classify(text string) Command {
	raw := strings.TrimSpace(text)
	lower := strings.ToLower(raw)
	cmd := Command{Raw: raw}

	switch {
	case strings.HasPrefix(lower, "/"):
		cmd.Intent = IntentCommand
		parts := SplitArgs(raw)
		cmd.Verb = strings.ToLower(parts[0])
		cmd.Args = parts[1:]
	case strings.Contains(lower, "help"):
		cmd.Intent = IntentHelp
	case strings.Contains(lower, "remind"):
		cmd.Intent = IntentReminderHint
	case strings.Contains(lower, "training"):
		cmd.Intent = IntentTrainingHint
	case strings.Contains(lower, "status"):
		cmd.Intent = IntentStatus
	default:
		cmd.Intent = IntentGeneric
	}
	return cmd
}

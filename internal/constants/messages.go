package constants

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration is valid\n"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)

// Job messages
const (
	// MsgJobScheduled is the success message when an occurrence is scheduled.
	MsgJobScheduled = "✅ Repeatable job scheduled\n"

	MsgJobID     = "   ID:       %s\n"
	MsgJobKey    = "   Key:      %s\n"
	MsgJobFireAt = "   Fire at:  %s\n"
	MsgJobDelay  = "   Delay:    %s\n"
	MsgJobCount  = "   Count:    %d\n"

	// MsgJobDuplicate is appended when the occurrence already existed.
	MsgJobDuplicate = "   (occurrence already scheduled, nothing changed)\n"

	// MsgJobNotRepeatable is returned by advance for jobs without a rule.
	MsgJobNotRepeatable = "job %s is not a repeatable occurrence"

	// MsgJobNoOccurrence is printed when the rule yields nothing to schedule.
	MsgJobNoOccurrence = "⚠️  Rule has no upcoming occurrence, nothing scheduled\n"

	// MsgJobRemoved is the success message when a rule is removed.
	MsgJobRemoved = "✅ Repeatable job '%s' removed\n"

	// MsgJobNotFound is printed when removing a rule that is not indexed.
	MsgJobNotFound = "Repeatable job '%s' not found\n"

	// MsgJobNotFoundHint is the hint when a rule is not found.
	MsgJobNotFoundHint = "Use 'repeatq list' to see all repeatable jobs\n"
)

// Jobs list messages
const (
	// MsgJobsNotFound is the message when the index is empty.
	MsgJobsNotFound = "No repeatable jobs found.\n"

	// MsgJobsTotal is the message showing the total count of rules.
	MsgJobsTotal = "Total: %d repeatable job(s)\n"

	// MsgPendingNotFound is the message when no occurrence is delayed.
	MsgPendingNotFound = "No pending occurrences.\n"

	// MsgPendingTotal is the message showing the number of delayed occurrences.
	MsgPendingTotal = "Total: %d pending occurrence(s)\n"

	// MsgApplySummary closes the output of `repeatq apply`.
	MsgApplySummary = "Applied: %d ok, %d failed\n"

	// MsgNoFireTimes is printed by `next` when the expression never fires.
	MsgNoFireTimes = "No upcoming fire times.\n"
)

package exitcodes

// Exit codes of the maccleanup command.
// Declined targets and partial deletion failures still exit with Success;
// failures are listed in the summary.
const (
	Success       = 0 // Run completed
	Usage         = 1 // Invalid flags or arguments
	InvalidConfig = 2 // Config file invalid or home directory unresolvable
	RuntimeError  = 4 // Runtime error during execution
)

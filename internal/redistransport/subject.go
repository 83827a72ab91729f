package redistransport

import "strings"

// subjectToKey maps a dot-delimited subject to the colon-delimited Redis
// stream key the external broker actually uses, e.g.
// "gbe.tasks.email-send.queue" -> "gbe:tasks:email-send:queue".
func subjectToKey(subject string) string {
	return strings.ReplaceAll(subject, ".", ":")
}

// extractDomain returns the second colon-delimited token of a stream key,
// e.g. "gbe:tasks:email-send:queue" -> "tasks".
func extractDomain(streamKey string) string {
	parts := strings.Split(streamKey, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}

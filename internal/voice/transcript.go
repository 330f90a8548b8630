package voice

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one utterance in the conversation. Entries are appended
// in arrival order and never mutated afterwards; the ordered sequence is what
// the caller persists when the call ends.
type TranscriptEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

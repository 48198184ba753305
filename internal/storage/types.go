package storage

// Session is the one-row-per-conversation anchor everything else hangs
// off of by cascade.
type Session struct {
	ID                    string
	TranscriptPath        string
	ProjectDir            string
	StartedAt             string // optional, empty means unset
	LastLineIndex         int
	ProvisionalTurnStart  *int
	LastCompactLineIndex  *int
	CreatedAt             string
	UpdatedAt             string
}

// Entry is the raw per-line record the transcript parser produces.
type Entry struct {
	SessionID   string
	LineIndex   int
	EntryType   string
	Content     string
	ToolSummary string
	Timestamp   string // optional
}

// Turn is the atomic retrieval granule: a grouped (user, assistant, next
// user) span.
type Turn struct {
	ID          string
	SessionID   string
	StartLine   int
	EndLine     int
	Provisional bool
	FullText    string
}

// Chunk is a sub-turn text window with its embedding.
type Chunk struct {
	TurnID     string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// FileMention is a normalized project-relative path referenced by a Turn.
type FileMention struct {
	TurnID   string
	FilePath string
	ToolName string
}

// PrLink is a pull-request reference derived from a typed transcript
// entry.
type PrLink struct {
	SessionID    string
	PrNumber     int
	PrURL        string
	PrRepository string
	Timestamp    string
}

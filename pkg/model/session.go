package model

// Status is the session state. Transitions are driven exclusively by the
// session controller; at most one transition is active at a time.
type Status int

const (
	StatusInitializing Status = iota
	StatusWelcome
	StatusUploading
	StatusChatting
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusWelcome:
		return "welcome"
	case StatusUploading:
		return "uploading"
	case StatusChatting:
		return "chatting"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// UploadProgress reports a create-store run. Total is fileCount+2: one step
// for store creation, one per file, one for final registration. Current is
// monotonically non-decreasing within a run and absent between runs.
type UploadProgress struct {
	Current  int
	Total    int
	Message  string
	FileName string
}

// TargetKind discriminates what a confirmation request refers to.
type TargetKind string

const (
	TargetStore    TargetKind = "store"
	TargetDocument TargetKind = "document"
)

// ConfirmationRequest gates one destructive action at a time.
type ConfirmationRequest struct {
	Kind        TargetKind
	ID          string
	DisplayName string
}

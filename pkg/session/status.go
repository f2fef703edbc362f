package session

// Kind is the coarse per-platform status shown next to each panel.
type Kind int

const (
	StatusIdle Kind = iota
	StatusLoading
	StatusInjecting
	StatusSent
	StatusError
)

// Status is the display status of one platform session in one tab.
type Status struct {
	Kind    Kind
	Message string
}

// Labels used when a status carries no message of its own.
const (
	LabelIdle      = "Ready"
	LabelLoading   = "Loading..."
	LabelInjecting = "Injecting..."
	LabelSent      = "Sent"
	LabelError     = "Error"
	LabelLoadError = "Load failed"
)

func IdleStatus() Status      { return Status{Kind: StatusIdle} }
func LoadingStatus() Status   { return Status{Kind: StatusLoading} }
func InjectingStatus() Status { return Status{Kind: StatusInjecting} }
func SentStatus() Status      { return Status{Kind: StatusSent} }

// ErrorStatus reports a failure. An empty message reads as "Error".
func ErrorStatus(message string) Status {
	if message == "" {
		message = LabelError
	}
	return Status{Kind: StatusError, Message: message}
}

// StatusForLoad maps a page load state to the status it implies.
func StatusForLoad(state LoadState) Status {
	switch state {
	case Loading:
		return LoadingStatus()
	case Failed:
		return ErrorStatus(LabelLoadError)
	default:
		return IdleStatus()
	}
}

// Label returns the text shown for the status.
func (s Status) Label() string {
	switch s.Kind {
	case StatusLoading:
		return LabelLoading
	case StatusInjecting:
		return LabelInjecting
	case StatusSent:
		return LabelSent
	case StatusError:
		if s.Message == "" {
			return LabelError
		}
		return s.Message
	default:
		return LabelIdle
	}
}

func (k Kind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusInjecting:
		return "injecting"
	case StatusSent:
		return "sent"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

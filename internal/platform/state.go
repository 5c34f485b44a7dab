package platform

// Status names the variant of a LinkState.
type Status int

const (
	StatusUnlinked Status = iota
	StatusPending
	StatusVerified
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusVerified:
		return "verified"
	default:
		return "unlinked"
	}
}

// LinkState is exactly one of Unlinked, Pending or Verified.
type LinkState interface {
	Status() Status
	linkState()
}

// Unlinked: no link and no outstanding challenge.
type Unlinked struct{}

// Pending: a challenge was issued and awaits confirmation. The code lives only
// in client memory.
type Pending struct {
	Username string
	Code     string
}

// Verified: the backend confirmed ownership of the account.
type Verified struct {
	Username string
	Stats    Stats
}

func (Unlinked) Status() Status { return StatusUnlinked }
func (Pending) Status() Status  { return StatusPending }
func (Verified) Status() Status { return StatusVerified }

func (Unlinked) linkState() {}
func (Pending) linkState()  {}
func (Verified) linkState() {}

// FromRecord decodes a backend link record. A record that is not verified
// is Unlinked: the backend never carries pending codes.
func FromRecord(username string, verified bool, data map[string]any) LinkState {
	if !verified {
		return Unlinked{}
	}
	return Verified{Username: username, Stats: Stats(data).Clone()}
}

// Username returns the linked or pending username, if any.
func Username(s LinkState) string {
	switch st := s.(type) {
	case Pending:
		return st.Username
	case Verified:
		return st.Username
	default:
		return ""
	}
}

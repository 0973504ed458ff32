package plinkbed

// Mode selects which side of the current split a Session reads.
type Mode uint32

const (
	ModeTrain Mode = iota
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "train"
	case ModeTest:
		return "test"

	default:
		return "Illegal selection"
	}
}

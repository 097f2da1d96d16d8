package extract

// State is a step of one extraction run.
type State int

const (
	StateIdle State = iota
	StateReadingTextLayer
	StateRasterizing
	StateRunningOCR
	StateDone
	StateFailed
)

var stateNames = [...]string{"Idle", "ReadingTextLayer", "Rasterizing", "RunningOcr", "Done", "Failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

var transitions = map[State][]State{
	StateIdle:             {StateReadingTextLayer, StateRunningOCR, StateFailed},
	StateReadingTextLayer: {StateDone, StateRasterizing, StateFailed},
	StateRasterizing:      {StateRunningOCR, StateFailed},
	StateRunningOCR:       {StateDone, StateFailed},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// machine tracks one run. It is not shared between runs.
type machine struct {
	state State
	trace []State
}

func newMachine() *machine {
	return &machine{state: StateIdle, trace: []State{StateIdle}}
}

func (m *machine) to(next State) {
	if !CanTransition(m.state, next) {
		panic("extract: illegal transition " + m.state.String() + " -> " + next.String())
	}
	m.state = next
	m.trace = append(m.trace, next)
}

func (m *machine) snapshot() []State {
	return append([]State(nil), m.trace...)
}

package playback

import "fmt"

// State is the playback state machine position.
//
//	idle    --play-->  playing
//	playing --tick-->  playing | at_end
//	playing --pause--> paused
//	paused  --play-->  playing
//	any     --reset--> idle
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateAtEnd
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StatePlaying: "playing",
	StatePaused:  "paused",
	StateAtEnd:   "at_end",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

package acquisition

// State 采集状态（对外导出）
//
//	Idle -> Calling -> {TimedOut | CallFailed | CallSucceeded}
//	CallSucceeded -> Writing -> {WriteFailed | Done}
type State string

const (
	StateIdle          State = "Idle"
	StateCalling       State = "Calling"
	StateTimedOut      State = "TimedOut"
	StateCallFailed    State = "CallFailed"
	StateCallSucceeded State = "CallSucceeded"
	StateWriting       State = "Writing"
	StateWriteFailed   State = "WriteFailed"
	StateDone          State = "Done"
)

// IsTerminal 是否为终止状态
func (s State) IsTerminal() bool {
	switch s {
	case StateTimedOut, StateCallFailed, StateWriteFailed, StateDone:
		return true
	}
	return false
}

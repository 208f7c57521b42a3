package ui

import "github.com/ayusman/handsign/internal/session"

const keyEsc = 27

// KeyEvent maps a key code from gocv's WaitKey to a session event.
// Negative codes mean no key was pressed.
func KeyEvent(key int) session.Event {
	if key < 0 {
		return session.EventNone
	}

	switch key & 0xff {
	case 'c', 'C':
		return session.EventStart
	case 'r', 'R':
		return session.EventRedo
	case 'q', 'Q', keyEsc:
		return session.EventQuit
	default:
		return session.EventNone
	}
}

// NoEvents is an event source for headless runs; it never reports input.
type NoEvents struct{}

// Poll always returns session.EventNone.
func (NoEvents) Poll() session.Event {
	return session.EventNone
}

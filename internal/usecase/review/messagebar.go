package review

import (
	"sync"
	"time"
)

const (
	DefaultMessageFade   = 5 * time.Second
	DefaultMessageSettle = 200 * time.Millisecond
)

// Display renders the room message bar.
type Display interface {
	Show(text string)
	Hide()
}

// MessageBar keeps at most one pending unshown message. A new arrival
// replaces the pending one; only a message that is still the newest after the
// settle window reaches the display. The fade is measured from the newest
// arrival and restarts with each one.
type MessageBar struct {
	display Display
	fade    time.Duration
	settle  time.Duration

	mu        sync.Mutex
	pending   string
	text      string
	visible   bool
	gen       uint64
	showTimer *time.Timer
	fadeTimer *time.Timer
	stopped   bool
}

func NewMessageBar(display Display, fade, settle time.Duration) *MessageBar {
	if fade <= 0 {
		fade = DefaultMessageFade
	}
	if settle < 0 || settle >= fade {
		settle = 0
	}
	return &MessageBar{display: display, fade: fade, settle: settle}
}

func (b *MessageBar) Push(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	b.pending = text
	b.gen++
	gen := b.gen
	b.stopTimersLocked()
	b.showTimer = time.AfterFunc(b.settle, func() { b.show(gen) })
	b.fadeTimer = time.AfterFunc(b.fade, func() { b.hide(gen) })
}

func (b *MessageBar) show(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen || b.stopped {
		return
	}
	b.text = b.pending
	b.visible = true
	if b.display != nil {
		b.display.Show(b.text)
	}
}

func (b *MessageBar) hide(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen || b.stopped || !b.visible {
		return
	}
	b.visible = false
	if b.display != nil {
		b.display.Hide()
	}
}

// Current returns the last shown message and whether it is still visible.
func (b *MessageBar) Current() (text string, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.visible
}

func (b *MessageBar) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	b.visible = false
	b.stopTimersLocked()
}

func (b *MessageBar) stopTimersLocked() {
	if b.showTimer != nil {
		b.showTimer.Stop()
	}
	if b.fadeTimer != nil {
		b.fadeTimer.Stop()
	}
}

package viewer

// Scheduler runs deferred work on the UI goroutine. Callbacks queued with
// Next run on the following Tick; RequestFrame asks for one redraw at the
// end of that Tick no matter how many times it is called.
type Scheduler struct {
	queue []func()
	frame func()
	dirty bool

	// Wake is called when the scheduler goes from idle to having work, so
	// the host can trigger a Tick (Gio's Window.Invalidate).
	Wake func()
}

// NewScheduler returns a scheduler running frame for redraw requests.
func NewScheduler(frame func()) *Scheduler {
	return &Scheduler{frame: frame}
}

// Pending reports whether a Tick would do anything.
func (s *Scheduler) Pending() bool {
	return len(s.queue) > 0 || s.dirty
}

func (s *Scheduler) wake(wasPending bool) {
	if !wasPending && s.Wake != nil {
		s.Wake()
	}
}

// Next queues fn for the next Tick.
func (s *Scheduler) Next(fn func()) {
	was := s.Pending()
	s.queue = append(s.queue, fn)
	s.wake(was)
}

// RequestFrame marks a redraw as needed.
func (s *Scheduler) RequestFrame() {
	if s.dirty {
		return
	}
	was := s.Pending()
	s.dirty = true
	s.wake(was)
}

// Tick runs the callbacks queued before it started, then the frame callback
// if one was requested. Callbacks queued while ticking wait for the next
// Tick. It reports whether the frame callback ran.
func (s *Scheduler) Tick() bool {
	queued := s.queue
	s.queue = nil
	for _, fn := range queued {
		fn()
	}

	if !s.dirty {
		return false
	}
	s.dirty = false
	if s.frame != nil {
		s.frame()
	}
	return true
}

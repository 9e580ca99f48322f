package orchestrator

// lease tracks the loading flags one flow has raised. release lowers all of
// them in a single transition and is safe to call more than once, so a flow
// defers it once and every exit path is covered.
type lease struct {
	o        *Orchestrator
	held     Flag
	released bool
}

func (o *Orchestrator) newLease() *lease {
	return &lease{o: o}
}

// hold dispatches the start action that raises f and records f for release.
func (l *lease) hold(start Action, f Flag) {
	l.held |= f
	l.o.dispatch(start)
}

func (l *lease) release() {
	if l.released {
		return
	}
	l.released = true
	if l.held != 0 {
		l.o.dispatch(LoadingReleased{Flags: l.held})
	}
}

package schema

// SlicePhaseOf returns which window of the phase pattern slice t belongs to.
func SlicePhaseOf(w PhaseWindows, t int) SlicePhase {
	in := func(s, e int) bool { return t >= s && t < e }
	switch {
	case in(w.Peak.Start, w.Peak.End):
		return PhasePeak
	case in(w.Early.Start, w.Early.End):
		return PhaseEarly
	case in(w.Late.Start, w.Late.End):
		return PhaseLate
	case t == w.Peak.Start-1 || t == w.Peak.End:
		return PhaseTransition
	default:
		return PhaseIgnored
	}
}

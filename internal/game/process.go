package game

import "time"

// Manager is a process manager: a stateless rule that looks at the log and
// either asks for a system command or for a wake-up. Both functions must be
// pure.
type Manager struct {
	Name    string
	Command func(events []Event, now time.Time) (Command, bool)
	Alarm   func(events []Event, now time.Time) (time.Duration, bool)
}

// Managers lists the process managers in priority order.
var Managers = []Manager{
	{Name: "finish_game", Command: autoFinishGame},
	{Name: "start_round", Command: autoStartRound},
	{Name: "start_race", Command: autoStartRace, Alarm: bettingAlarm},
	{Name: "finish_race", Command: autoFinishRace, Alarm: raceAlarm},
	{Name: "next_round", Command: autoNextRound, Alarm: summaryAlarm},
}

func autoFinishGame(events []Event, _ time.Time) (Command, bool) {
	if CurrentPhase(events) != PhaseSummary {
		return nil, false
	}
	if RoundsCompleted(events) >= MaxRounds || Bankrupt(events) {
		return FinishGame{}, true
	}
	return nil, false
}

func autoStartRound(events []Event, _ time.Time) (Command, bool) {
	if CurrentPhase(events) == PhaseLobby && AllReady(events) {
		return StartRound{}, true
	}
	return nil, false
}

// bettingDeadline is when betting closes in the current round.
func bettingDeadline(events []Event) (time.Time, bool) {
	if CurrentPhase(events) != PhaseBetting {
		return time.Time{}, false
	}
	rs, ok := lastOf[RoundStarted](events)
	return rs.Time.Add(BettingTimeout), ok
}

func autoStartRace(events []Event, now time.Time) (Command, bool) {
	deadline, ok := bettingDeadline(events)
	if !ok {
		return nil, false
	}
	if AllBet(events) || !now.Before(deadline) {
		return StartRace{}, true
	}
	return nil, false
}

func bettingAlarm(events []Event, now time.Time) (time.Duration, bool) {
	deadline, ok := bettingDeadline(events)
	if !ok {
		return 0, false
	}
	return until(deadline, now), true
}

// raceEnd is when the running race's last jump lands.
func raceEnd(events []Event) (time.Time, bool) {
	if CurrentPhase(events) != PhaseRacing {
		return time.Time{}, false
	}
	rs, ok := lastOf[RaceStarted](events)
	if !ok {
		return time.Time{}, false
	}
	r, ok := CurrentRace(events)
	if !ok {
		return time.Time{}, false
	}
	return rs.Time.Add(time.Duration(r.Duration * float64(time.Second))), true
}

func autoFinishRace(events []Event, now time.Time) (Command, bool) {
	end, ok := raceEnd(events)
	if ok && !now.Before(end) {
		return FinishRace{}, true
	}
	return nil, false
}

func raceAlarm(events []Event, now time.Time) (time.Duration, bool) {
	end, ok := raceEnd(events)
	if !ok {
		return 0, false
	}
	return until(end, now), true
}

// summaryEnd is when the next round starts, if one remains.
func summaryEnd(events []Event) (time.Time, bool) {
	if CurrentPhase(events) != PhaseSummary || RoundsCompleted(events) >= MaxRounds || Bankrupt(events) {
		return time.Time{}, false
	}
	rf, ok := lastOf[RaceFinished](events)
	return rf.Time.Add(SummaryPause), ok
}

func autoNextRound(events []Event, now time.Time) (Command, bool) {
	end, ok := summaryEnd(events)
	if ok && !now.Before(end) {
		return StartRound{}, true
	}
	return nil, false
}

func summaryAlarm(events []Event, now time.Time) (time.Duration, bool) {
	end, ok := summaryEnd(events)
	if !ok {
		return 0, false
	}
	return until(end, now), true
}

func until(t, now time.Time) time.Duration {
	return max(0, t.Sub(now))
}

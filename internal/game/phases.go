// internal/game/phases.go
package game

import (
	"sort"
	"time"
)

// Phase transitions. Each begin...Unsafe sets the status, seeds the phase's
// state, arms the interval timer and broadcasts. Expiry handling funnels
// through handlePhaseExpiryUnsafe so the ticker goroutine stays tiny.

func (l *Lobby) beginThemeVotingUnsafe() {
	l.Status = StatusThemeVoting
	l.themeOptions = append([]string(nil), ColorThemes...)
	l.themeVotes = make(map[string]int)
	l.chosenTheme = ""
	l.prompt = ""
	for _, p := range l.players {
		p.ThemeVote = ""
	}
	l.log.Infof("Lobby %s: theme voting started", l.ID)
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.ThemeVotingTime) * time.Second)
	l.broadcastUnsafe()
	l.notifyListChangedUnsafe()
}

// finishThemeVotingUnsafe picks the winning theme and moves to drawing.
// Plurality wins; ties break uniformly at random among the leaders; with no
// votes at all the theme is drawn uniformly from the options.
func (l *Lobby) finishThemeVotingUnsafe() {
	best := -1
	var leaders []string
	for _, opt := range l.themeOptions {
		n := l.themeVotes[opt]
		switch {
		case n > best:
			best = n
			leaders = leaders[:0]
			leaders = append(leaders, opt)
		case n == best:
			leaders = append(leaders, opt)
		}
	}
	if best <= 0 {
		leaders = l.themeOptions
	}
	l.chosenTheme = leaders[l.rng.Intn(len(leaders))]

	pool := promptPool(l.Settings.CustomPrompts)
	l.prompt = pool[l.rng.Intn(len(pool))]
	l.log.Infof("Lobby %s: theme %q chosen, prompt %q", l.ID, l.chosenTheme, l.prompt)

	l.beginDrawingUnsafe()
}

func (l *Lobby) beginDrawingUnsafe() {
	l.Status = StatusDrawing
	l.drawings = nil
	for _, p := range l.players {
		p.DrawingID = ""
		p.DrawingVote = ""
	}
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.DrawingTime) * time.Second)
	l.broadcastUnsafe()
}

// finishDrawingUnsafe closes the drawing window at the deadline. Players who
// never submitted simply have no entry; with no drawings at all there is
// nothing to vote on and the game ends immediately.
func (l *Lobby) finishDrawingUnsafe() {
	if len(l.drawings) == 0 {
		l.log.Infof("Lobby %s: no drawings submitted, ending game", l.ID)
		l.endGameUnsafe()
		return
	}
	l.beginVotingUnsafe()
}

// beginVotingUnsafe starts the per-drawing voting carousel at the first
// submission. Also the early-completion target when every player submits
// before the drawing deadline.
func (l *Lobby) beginVotingUnsafe() {
	l.Status = StatusVotingForDrawings
	l.votingIndex = 0
	for _, p := range l.players {
		p.DrawingVote = ""
	}
	for _, d := range l.drawings {
		d.Votes = 0
		d.Voters = make(map[string]struct{})
	}
	l.log.Infof("Lobby %s: voting started over %d drawings", l.ID, len(l.drawings))
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.VoteTime) * time.Second)
	l.broadcastUnsafe()
}

// advanceVotingUnsafe moves the carousel to the next drawing, or into the
// showcase when the last drawing's window closes.
func (l *Lobby) advanceVotingUnsafe() {
	l.votingIndex++
	if l.votingIndex >= len(l.drawings) {
		l.beginShowcaseUnsafe()
		return
	}
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.VoteTime) * time.Second)
	l.broadcastUnsafe()
}

// beginShowcaseUnsafe orders the drawings by votes, best first, and walks
// through them one showcase interval at a time.
func (l *Lobby) beginShowcaseUnsafe() {
	l.Status = StatusShowcasingResults
	sort.SliceStable(l.drawings, func(i, j int) bool {
		return l.drawings[i].Votes > l.drawings[j].Votes
	})
	l.showcaseIndex = 0
	l.log.Infof("Lobby %s: showcase started", l.ID)
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.ShowcaseTime) * time.Second)
	l.broadcastUnsafe()
}

func (l *Lobby) advanceShowcaseUnsafe() {
	l.showcaseIndex++
	if l.showcaseIndex >= len(l.drawings) {
		l.endGameUnsafe()
		return
	}
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.ShowcaseTime) * time.Second)
	l.broadcastUnsafe()
}

// endGameUnsafe applies scores and parks the lobby in ENDED for one settle
// interval before resetting to WAITING_FOR_PLAYERS.
func (l *Lobby) endGameUnsafe() {
	l.Status = StatusEnded

	if l.Settings.WinnerTakesAll {
		top := 0
		for _, d := range l.drawings {
			if d.Votes > top {
				top = d.Votes
			}
		}
		if top > 0 {
			for _, d := range l.drawings {
				if d.Votes != top {
					continue
				}
				if author := l.playerUnsafe(d.PlayerID); author != nil {
					author.Score += d.Votes
				}
			}
		}
	} else {
		for _, d := range l.drawings {
			if author := l.playerUnsafe(d.PlayerID); author != nil {
				author.Score += d.Votes
			}
		}
	}

	l.log.Infof("Lobby %s: game ended", l.ID)
	l.startPhaseTimerUnsafe(time.Duration(l.Settings.ShowcaseTime) * time.Second)
	l.broadcastUnsafe()
	l.notifyListChangedUnsafe()
}

// resetUnsafe returns an ended lobby to WAITING_FOR_PLAYERS. Scores persist;
// everything round-scoped is cleared.
func (l *Lobby) resetUnsafe() {
	l.Status = StatusWaitingForPlayers
	l.themeOptions = nil
	l.themeVotes = make(map[string]int)
	l.chosenTheme = ""
	l.prompt = ""
	l.drawings = nil
	l.votingIndex = 0
	l.showcaseIndex = 0
	for _, p := range l.players {
		p.ResetRound()
	}
	l.stopPhaseUnsafe()
	l.log.Infof("Lobby %s: reset to waiting", l.ID)
	l.broadcastUnsafe()
	l.notifyListChangedUnsafe()
}

// handlePhaseExpiryUnsafe is the single timer-expiry entry point, invoked by
// the ticker goroutine with the lock held and the generation already checked.
func (l *Lobby) handlePhaseExpiryUnsafe() {
	switch l.Status {
	case StatusThemeVoting:
		l.finishThemeVotingUnsafe()
	case StatusDrawing:
		l.finishDrawingUnsafe()
	case StatusVotingForDrawings:
		l.advanceVotingUnsafe()
	case StatusShowcasingResults:
		l.advanceShowcaseUnsafe()
	case StatusEnded:
		l.resetUnsafe()
	}
}

// startPhaseTimerUnsafe arms a fresh interval. Bumping phaseGen first makes
// any ticker from a previous interval a no-op the next time it wakes.
func (l *Lobby) startPhaseTimerUnsafe(d time.Duration) {
	l.phaseGen++
	l.phaseLength = d
	l.phaseDeadline = l.clock.Now().Add(d)
	go l.runPhaseTicker(l.phaseGen)
}

// stopPhaseUnsafe disarms the current interval without starting another.
func (l *Lobby) stopPhaseUnsafe() {
	l.phaseGen++
	l.phaseDeadline = time.Time{}
	l.phaseLength = 0
}

// runPhaseTicker drives one timed interval. It wakes every second, rechecks
// its generation under the lock, broadcasts countdown updates on the phase's
// cadence and fires the expiry handler when the deadline passes. The
// injected clock makes the whole machine steppable in tests.
func (l *Lobby) runPhaseTicker(gen uint64) {
	ticker := l.clock.Ticker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		l.Mu.Lock()
		if l.phaseGen != gen {
			l.Mu.Unlock()
			return
		}
		remaining := l.phaseDeadline.Sub(l.clock.Now())
		if remaining <= 0 {
			l.handlePhaseExpiryUnsafe()
			l.Mu.Unlock()
			return
		}
		if shouldBroadcastCountdown(l.phaseLength, remaining) {
			l.broadcastUnsafe()
		}
		l.Mu.Unlock()
	}
}

// shouldBroadcastCountdown picks the countdown cadence: short intervals tick
// every second, long ones every five, tightening to every two inside the
// last thirty seconds. The final second always goes out.
func shouldBroadcastCountdown(total, remaining time.Duration) bool {
	secs := int(remaining.Round(time.Second) / time.Second)
	if secs <= 1 {
		return true
	}
	if total <= 60*time.Second {
		return true
	}
	if secs <= 30 {
		return secs%2 == 0
	}
	return secs%5 == 0
}

// PhaseTimeRemaining reports the seconds left in the current interval,
// zero when no timer is armed.
func (l *Lobby) PhaseTimeRemaining() int {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.phaseRemainingUnsafe()
}

func (l *Lobby) phaseRemainingUnsafe() int {
	if l.phaseDeadline.IsZero() {
		return 0
	}
	remaining := l.phaseDeadline.Sub(l.clock.Now())
	if remaining < 0 {
		return 0
	}
	return int(remaining.Round(time.Second) / time.Second)
}

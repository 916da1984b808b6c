// internal/game/lobby.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/drawdash/drawdash/internal/ident"
	"github.com/drawdash/drawdash/internal/models"
)

// Status is the lobby's game phase tag as it appears on the wire.
type Status string

const (
	StatusWaitingForPlayers Status = "waiting_for_players"
	StatusThemeVoting       Status = "theme_voting"
	StatusDrawing           Status = "drawing"
	StatusVotingForDrawings Status = "voting_for_drawings"
	StatusShowcasingResults Status = "showcasing_results"
	StatusEnded             Status = "ended"
)

// Frame is one outbound JSON message, {"type": ..., "data": ...}.
type Frame map[string]interface{}

// Stable refusal messages surfaced to clients.
var (
	ErrNotHost          = errors.New("Only the host can perform this action")
	ErrNotHostStart     = errors.New("Only the host can start the game")
	ErrLobbyFull        = errors.New("Lobby is full")
	ErrGameInProgress   = errors.New("Cannot join lobby - game already in progress")
	ErrAlreadyStarted   = errors.New("Game has already started")
	ErrBanned           = errors.New("You are banned from this lobby")
	ErrNotEnoughPlayers = errors.New("Not enough players to start the game")
	ErrNotAllReady      = errors.New("All players must be ready before starting the game")
	ErrSettingsInGame   = errors.New("Cannot change settings while game is in progress")
	ErrWrongPhase       = errors.New("Action not allowed in the current game phase")
	ErrUnknownPlayer    = errors.New("Player not found in this lobby")
	ErrSelfTarget       = errors.New("You cannot target yourself")
	ErrAlreadySubmitted = errors.New("You have already submitted a drawing")
	ErrUnknownTheme     = errors.New("That theme is not one of the options")
	ErrNotCurrentVote   = errors.New("You can only vote for the drawing currently on display")
	ErrOwnDrawing       = errors.New("You cannot vote for your own drawing")
	ErrAlreadyVoted     = errors.New("You have already voted for this drawing")
)

// Lobby owns all state for one game session: the ordered participant list,
// drawings, tallies and the phase machine. Every mutation happens while Mu is
// held; that mutex is the lobby's serialisation point, shared by inbound
// actions and timer expiries. Methods named ...Unsafe assume Mu is held.
//
// The lobby performs no I/O. Effects reach the outside world through the
// injected callbacks below, all of which must be non-blocking.
type Lobby struct {
	ID        string
	HostID    string
	Status    Status
	Settings  models.Settings
	CreatedAt time.Time

	players    []*models.Participant // join order; head is next in line for host
	spectators []*models.Spectator
	banned     map[string]struct{}

	themeOptions []string
	themeVotes   map[string]int // tally keyed by theme
	chosenTheme  string
	prompt       string

	drawings      []*models.Drawing // submission order; re-sorted by votes for the showcase
	votingIndex   int
	showcaseIndex int

	// phaseDeadline is the end of the current timed interval (a whole phase,
	// or one voting/showcase display). phaseLength is that interval's full
	// duration, used to pick the countdown broadcast cadence. phaseGen is
	// bumped on every transition so a stale ticker can never touch a lobby
	// that has moved on.
	phaseDeadline time.Time
	phaseLength   time.Duration
	phaseGen      uint64

	clock clock.Clock
	rng   *rand.Rand
	log   *logrus.Logger

	// BroadcastFn delivers a frame to every member (players and spectators).
	BroadcastFn func(frame Frame)
	// NotifyFn delivers a frame to a single member.
	NotifyFn func(playerID string, frame Frame)
	// OnEmpty fires after the last player leaves; the owner removes the lobby.
	OnEmpty func(lobbyID string)
	// OnListChanged fires when the joinable-lobby summary may have changed.
	OnListChanged func()
	// OnEvicted fires when a player is removed by kick or ban so the
	// connection layer can clear its lobby binding.
	OnEvicted func(playerID string)

	Mu sync.Mutex
}

// NewLobby builds an empty lobby in WAITING_FOR_PLAYERS.
func NewLobby(settings models.Settings, clk clock.Clock, logger *logrus.Logger) *Lobby {
	return &Lobby{
		ID:         ident.NewLobbyID(),
		Status:     StatusWaitingForPlayers,
		Settings:   settings,
		CreatedAt:  clk.Now(),
		banned:     make(map[string]struct{}),
		themeVotes: make(map[string]int),
		clock:      clk,
		rng:        rand.New(rand.NewSource(clk.Now().UnixNano())),
		log:        logger,
	}
}

// Join admits a player. When the lobby is full but spectators are allowed the
// caller is admitted as a spectator instead and asSpectator is true. The
// first player to join becomes host.
func (l *Lobby) Join(id, name string) (asSpectator bool, err error) {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if _, isBanned := l.banned[id]; isBanned {
		return false, ErrBanned
	}
	if l.Status != StatusWaitingForPlayers {
		return false, ErrGameInProgress
	}
	if len(l.players) >= l.Settings.MaxPlayers {
		if l.Settings.AllowSpectators {
			l.spectators = append(l.spectators, &models.Spectator{ID: id, DisplayName: name})
			l.log.Infof("Lobby %s: %s joined as spectator", l.ID, id)
			l.broadcastUnsafe()
			return true, nil
		}
		return false, ErrLobbyFull
	}

	p := &models.Participant{ID: id, DisplayName: name}
	if len(l.players) == 0 {
		p.IsHost = true
		l.HostID = id
	}
	l.players = append(l.players, p)
	l.log.Infof("Lobby %s: player %s (%s) joined", l.ID, id, name)
	l.broadcastUnsafe()
	l.notifyListChangedUnsafe()
	return false, nil
}

// CheckPassword compares the supplied password byte-for-byte against the
// lobby's password. Lobbies without a password always pass.
func (l *Lobby) CheckPassword(password string) bool {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.Settings.Password == "" || l.Settings.Password == password
}

// RequiresPassword reports whether joins must go through
// join_lobby_with_password.
func (l *Lobby) RequiresPassword() bool {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.Settings.PrivateLobby && l.Settings.Password != ""
}

// RemovePlayer removes a player unconditionally: leave, disconnect, kick or
// ban all end here. Handles vote revocation, drawing removal, host promotion
// and empty-lobby teardown per the phase rules.
func (l *Lobby) RemovePlayer(id string) {
	l.Mu.Lock()
	onEmpty, empty := l.removePlayerUnsafe(id)
	l.Mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty(l.ID)
	}
}

// removePlayerUnsafe does the removal work. Returns the OnEmpty callback and
// whether it should fire; the caller invokes it outside the lock.
func (l *Lobby) removePlayerUnsafe(id string) (func(string), bool) {
	idx := l.playerIndexUnsafe(id)
	if idx < 0 {
		l.removeSpectatorUnsafe(id)
		return nil, false
	}
	p := l.players[idx]

	// Revoke the leaver's votes before dropping them.
	if p.ThemeVote != "" && l.themeVotes[p.ThemeVote] > 0 {
		l.themeVotes[p.ThemeVote]--
	}
	if p.DrawingVote != "" {
		if d := l.drawingByIDUnsafe(p.DrawingVote); d != nil {
			if d.Votes > 0 {
				d.Votes--
			}
			delete(d.Voters, id)
		}
	}

	l.players = append(l.players[:idx], l.players[idx+1:]...)
	l.log.Infof("Lobby %s: player %s removed", l.ID, id)

	// A leaver's drawing disappears only while drawing is still open; once
	// voting has begun existing drawings persist so tallies stay coherent.
	if l.Status == StatusDrawing && p.DrawingID != "" {
		l.removeDrawingUnsafe(p.DrawingID)
	}

	if len(l.players) == 0 {
		l.HostID = ""
		l.stopPhaseUnsafe()
		return l.OnEmpty, true
	}

	if l.HostID == id {
		next := l.players[0]
		next.IsHost = true
		l.HostID = next.ID
		l.log.Infof("Lobby %s: host handed off to %s", l.ID, next.ID)
		l.emitUnsafe(Frame{
			"type": "host_transferred",
			"data": map[string]interface{}{"new_host_id": next.ID},
		})
	}

	// A departure can complete the drawing phase for everyone remaining.
	if l.Status == StatusDrawing && l.allSubmittedUnsafe() && len(l.drawings) > 0 {
		l.beginVotingUnsafe()
		return nil, false
	}

	l.broadcastUnsafe()
	l.notifyListChangedUnsafe()
	return nil, false
}

// removeDrawingUnsafe drops a drawing and clears every vote pointing at it.
func (l *Lobby) removeDrawingUnsafe(drawingID string) {
	for i, d := range l.drawings {
		if d.ID != drawingID {
			continue
		}
		for _, voter := range l.players {
			if voter.DrawingVote == drawingID {
				voter.DrawingVote = ""
			}
		}
		l.drawings = append(l.drawings[:i], l.drawings[i+1:]...)
		return
	}
}

func (l *Lobby) removeSpectatorUnsafe(id string) {
	for i, s := range l.spectators {
		if s.ID == id {
			l.spectators = append(l.spectators[:i], l.spectators[i+1:]...)
			l.broadcastUnsafe()
			return
		}
	}
}

// SetReady updates a player's ready flag. A no-op outside
// WAITING_FOR_PLAYERS and when the flag already has the requested value.
func (l *Lobby) SetReady(id string, ready bool) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != StatusWaitingForPlayers {
		return nil
	}
	p := l.playerUnsafe(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.IsReady == ready {
		return nil
	}
	p.IsReady = ready
	l.broadcastUnsafe()
	return nil
}

// StartGame begins theme voting. Host-only; requires min_players present and
// every player ready.
func (l *Lobby) StartGame(callerID string) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.HostID != callerID {
		return ErrNotHostStart
	}
	if l.Status != StatusWaitingForPlayers {
		return ErrAlreadyStarted
	}
	if len(l.players) < l.Settings.MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range l.players {
		if !p.IsReady {
			return ErrNotAllReady
		}
	}

	l.beginThemeVotingUnsafe()
	return nil
}

// CastThemeVote records a color theme vote during THEME_VOTING. A prior vote
// is replaced: its tally is decremented before the new one is incremented.
func (l *Lobby) CastThemeVote(id, theme string) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != StatusThemeVoting {
		return ErrWrongPhase
	}
	p := l.playerUnsafe(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	if !containsString(l.themeOptions, theme) {
		return ErrUnknownTheme
	}

	if p.ThemeVote == theme {
		return nil
	}
	if p.ThemeVote != "" && l.themeVotes[p.ThemeVote] > 0 {
		l.themeVotes[p.ThemeVote]--
	}
	p.ThemeVote = theme
	l.themeVotes[theme]++
	l.broadcastUnsafe()
	return nil
}

// SubmitDrawing stores a player's drawing during DRAWING. Second submissions
// are refused. When the last outstanding player submits, the voting phase
// begins without waiting for the deadline.
func (l *Lobby) SubmitDrawing(id, data string) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != StatusDrawing {
		return ErrWrongPhase
	}
	p := l.playerUnsafe(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	if p.HasSubmitted() {
		return ErrAlreadySubmitted
	}

	d := &models.Drawing{
		ID:         ident.NewDrawingID(),
		PlayerID:   p.ID,
		PlayerName: p.DisplayName,
		Data:       data,
		Prompt:     l.prompt,
		Voters:     make(map[string]struct{}),
	}
	l.drawings = append(l.drawings, d)
	p.DrawingID = d.ID
	l.log.Infof("Lobby %s: drawing %s submitted by %s", l.ID, d.ID, p.ID)

	l.notifyUnsafe(id, Frame{
		"type": "drawing_submitted",
		"data": map[string]interface{}{"success": true, "drawing_id": d.ID},
	})

	if l.allSubmittedUnsafe() {
		l.beginVotingUnsafe()
	} else {
		l.broadcastUnsafe()
	}
	return nil
}

// CastDrawingVote records a vote for the drawing currently on display.
// Replacing a vote cast on an earlier display decrements that drawing's
// tally first. Self-votes and repeat votes are refused.
func (l *Lobby) CastDrawingVote(voterID, drawingID string) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != StatusVotingForDrawings {
		return ErrWrongPhase
	}
	voter := l.playerUnsafe(voterID)
	if voter == nil {
		return ErrUnknownPlayer
	}
	current := l.currentVotingDrawingUnsafe()
	if current == nil || current.ID != drawingID {
		return ErrNotCurrentVote
	}
	if current.PlayerID == voterID {
		return ErrOwnDrawing
	}
	if voter.DrawingVote == drawingID {
		return ErrAlreadyVoted
	}

	if voter.DrawingVote != "" {
		if prior := l.drawingByIDUnsafe(voter.DrawingVote); prior != nil {
			if prior.Votes > 0 {
				prior.Votes--
			}
			delete(prior.Voters, voterID)
		}
	}
	voter.DrawingVote = drawingID
	current.Votes++
	current.Voters[voterID] = struct{}{}
	l.broadcastUnsafe()
	return nil
}

// DrawingByAuthor resolves a drawing by its author's player ID, for clients
// that vote by author rather than by drawing identifier.
func (l *Lobby) DrawingByAuthor(authorID string) (string, bool) {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	for _, d := range l.drawings {
		if d.PlayerID == authorID {
			return d.ID, true
		}
	}
	return "", false
}

// Kick removes a player on the host's order. Self-kicks are refused.
func (l *Lobby) Kick(callerID, targetID string) error {
	return l.evict(callerID, targetID, false)
}

// Ban removes a player and records the identifier so rejoins are rejected.
func (l *Lobby) Ban(callerID, targetID string) error {
	return l.evict(callerID, targetID, true)
}

func (l *Lobby) evict(callerID, targetID string, ban bool) error {
	l.Mu.Lock()

	if l.HostID != callerID {
		l.Mu.Unlock()
		return ErrNotHost
	}
	if callerID == targetID {
		l.Mu.Unlock()
		return ErrSelfTarget
	}
	if l.playerUnsafe(targetID) == nil {
		l.Mu.Unlock()
		return ErrUnknownPlayer
	}

	if ban {
		l.banned[targetID] = struct{}{}
		l.notifyUnsafe(targetID, Frame{
			"type": "banned_from_lobby",
			"data": map[string]interface{}{"lobby_id": l.ID},
		})
		l.emitUnsafe(Frame{
			"type": "player_banned",
			"data": map[string]interface{}{"player_id": targetID},
		})
	} else {
		l.notifyUnsafe(targetID, Frame{
			"type": "kicked_from_lobby",
			"data": map[string]interface{}{"lobby_id": l.ID},
		})
		l.emitUnsafe(Frame{
			"type": "player_kicked",
			"data": map[string]interface{}{"player_id": targetID},
		})
	}

	if l.OnEvicted != nil {
		l.OnEvicted(targetID)
	}

	onEmpty, empty := l.removePlayerUnsafe(targetID)
	l.Mu.Unlock()

	if empty && onEmpty != nil {
		onEmpty(l.ID)
	}
	return nil
}

// TransferHost hands the host role to another player.
func (l *Lobby) TransferHost(callerID, targetID string) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.HostID != callerID {
		return ErrNotHost
	}
	target := l.playerUnsafe(targetID)
	if target == nil {
		return ErrUnknownPlayer
	}
	if callerID == targetID {
		return nil
	}

	if current := l.playerUnsafe(callerID); current != nil {
		current.IsHost = false
	}
	target.IsHost = true
	l.HostID = targetID
	l.emitUnsafe(Frame{
		"type": "host_transferred",
		"data": map[string]interface{}{"new_host_id": targetID},
	})
	l.broadcastUnsafe()
	return nil
}

// UpdateSettings applies a partial settings patch. Host-only and only while
// waiting for players; fields outside their bounds are skipped silently.
func (l *Lobby) UpdateSettings(callerID string, patch map[string]interface{}) error {
	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.HostID != callerID {
		return ErrNotHost
	}
	if l.Status != StatusWaitingForPlayers {
		return ErrSettingsInGame
	}

	changed, err := l.Settings.ApplyPatch(patch, len(l.players))
	if err != nil {
		return err
	}
	if changed {
		l.emitUnsafe(Frame{
			"type": "settings_updated",
			"data": l.Settings.Public(),
		})
		l.broadcastUnsafe()
		l.notifyListChangedUnsafe()
	}
	return nil
}

// Snapshot returns the full client-facing state document.
func (l *Lobby) Snapshot() Frame {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.snapshotUnsafe()
}

// Summary returns the joinable-list entry for this lobby.
func (l *Lobby) Summary() LobbySummary {
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return LobbySummary{
		ID:           l.ID,
		HostID:       l.HostID,
		PlayerCount:  len(l.players),
		MaxPlayers:   l.Settings.MaxPlayers,
		Status:       l.Status,
		CreatedAt:    l.CreatedAt.Unix(),
		PrivateLobby: l.Settings.PrivateLobby,
		HasPassword:  l.Settings.Password != "",
	}
}

// --- internal helpers, lock held ---

func (l *Lobby) playerIndexUnsafe(id string) int {
	for i, p := range l.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (l *Lobby) playerUnsafe(id string) *models.Participant {
	if i := l.playerIndexUnsafe(id); i >= 0 {
		return l.players[i]
	}
	return nil
}

func (l *Lobby) drawingByIDUnsafe(id string) *models.Drawing {
	for _, d := range l.drawings {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (l *Lobby) allSubmittedUnsafe() bool {
	for _, p := range l.players {
		if !p.HasSubmitted() {
			return false
		}
	}
	return len(l.players) > 0
}

func (l *Lobby) currentVotingDrawingUnsafe() *models.Drawing {
	if l.Status != StatusVotingForDrawings {
		return nil
	}
	if l.votingIndex < 0 || l.votingIndex >= len(l.drawings) {
		return nil
	}
	return l.drawings[l.votingIndex]
}

// emitUnsafe pushes a standalone frame to every member.
func (l *Lobby) emitUnsafe(frame Frame) {
	if l.BroadcastFn != nil {
		l.BroadcastFn(frame)
	}
}

// notifyUnsafe pushes a frame to a single member.
func (l *Lobby) notifyUnsafe(playerID string, frame Frame) {
	if l.NotifyFn != nil {
		l.NotifyFn(playerID, frame)
	}
}

// broadcastUnsafe pushes a fresh snapshot to every member.
func (l *Lobby) broadcastUnsafe() {
	l.emitUnsafe(Frame{"type": "lobby_update", "data": l.snapshotUnsafe()})
}

func (l *Lobby) notifyListChangedUnsafe() {
	if l.OnListChanged != nil {
		l.OnListChanged()
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func (l *Lobby) String() string {
	return fmt.Sprintf("Lobby(%s)", l.ID)
}

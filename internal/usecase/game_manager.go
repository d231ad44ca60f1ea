package usecase

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

type matchArchive interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
}

type MatchStatus int

const (
	MatchWaiting MatchStatus = iota
	MatchStarted
)

func (that MatchStatus) String() string {
	if that == MatchStarted {
		return "started"
	}
	return "waiting"
}

// MatchResult answers a match request. Session and Turn are set only once the
// match started.
type MatchResult struct {
	Status  MatchStatus
	Session *GameSession
	Turn    *TurnResult
}

type challengeState int

const (
	challengeEmpty challengeState = iota
	challengePending
)

// challengeSlot is the single waiting room. The zero value is empty.
type challengeSlot struct {
	state      challengeState
	challenger entity.Participant
}

// GameManager is the session registry: the live sessions, an index from
// participant to session and the pending challenge. The registry lock is never
// held while a session lock is taken.
type GameManager struct {
	logger   *slog.Logger
	archive  matchArchive
	sprites  *canvas.Sprites
	template *image.RGBA
	newID    func() string

	mu            sync.Mutex
	challenge     challengeSlot
	sessions      map[string]*GameSession
	byParticipant map[string]*GameSession
}

func NewGameManager(logger *slog.Logger, sprites *canvas.Sprites, archive matchArchive) *GameManager {
	return &GameManager{
		logger:   logger,
		archive:  archive,
		sprites:  sprites,
		template: canvas.NewBoard(),
		newID:    uuid.NewString,

		sessions:      make(map[string]*GameSession),
		byParticipant: make(map[string]*GameSession),
	}
}

// RequestMatch puts the participant into the waiting room or, when someone is
// already waiting, starts a session with the waiting participant moving first.
func (that *GameManager) RequestMatch(ctx context.Context, participant entity.Participant) (*MatchResult, error) {
	log := that.logger.With("method", "RequestMatch", "participant", participant.ID)

	session, err := that.match(participant)
	if err != nil {
		return nil, fmt.Errorf("failed to request match: %w", err)
	}

	if session == nil {
		log.InfoContext(ctx, "participant is waiting for an opponent")

		return &MatchResult{Status: MatchWaiting}, nil
	}

	log.InfoContext(ctx, "game started", "session", session.ID, "first", session.First.ID, "second", session.Second.ID)

	return &MatchResult{
		Status:  MatchStarted,
		Session: session,
		Turn:    session.InitialRenders(),
	}, nil
}

// ResolveByParticipant returns the live session the participant plays in.
func (that *GameManager) ResolveByParticipant(participantID string) (*GameSession, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.byParticipant[participantID]
	if !ok {
		return nil, fmt.Errorf("%w: participant %s", apperror.ErrSessionNotFound, participantID)
	}

	return session, nil
}

// RemoveSession drops the session if this exact session is still registered.
// It reports whether anything was removed.
func (that *GameManager) RemoveSession(session *GameSession) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sessions[session.ID] != session {
		return false
	}

	delete(that.sessions, session.ID)

	for _, participant := range []entity.Participant{session.First, session.Second} {
		if that.byParticipant[participant.ID] == session {
			delete(that.byParticipant, participant.ID)
		}
	}

	return true
}

// Navigate moves the cursor of the participant's session.
func (that *GameManager) Navigate(ctx context.Context, participantID string, dir entity.Direction) (*TurnResult, error) {
	log := that.logger.With("method", "Navigate", "participant", participantID)

	session, err := that.ResolveByParticipant(participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	result := session.RequestNavigate(participantID, dir)
	if result.Ignored != nil {
		log.DebugContext(ctx, "navigate ignored", "reason", result.Ignored)
	}

	return result, nil
}

// Commit places the participant's mark. A commit that ends the game removes the
// session and archives the match.
func (that *GameManager) Commit(ctx context.Context, participantID string) (*TurnResult, error) {
	log := that.logger.With("method", "Commit", "participant", participantID)

	session, err := that.ResolveByParticipant(participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	result := session.RequestCommit(participantID)
	if result.Ignored != nil {
		log.DebugContext(ctx, "commit ignored", "reason", result.Ignored)

		return result, nil
	}

	if result.IsFinished() && that.RemoveSession(session) {
		log.InfoContext(ctx, "game finished", "session", session.ID, "status", result.Status.String())

		that.archiveMatch(ctx, session)
	}

	return result, nil
}

// Stop is the resign intent. It is accepted on the wire but has no behaviour yet.
func (that *GameManager) Stop(ctx context.Context, participantID string) error {
	log := that.logger.With("method", "Stop", "participant", participantID)
	log.DebugContext(ctx, "stop requested")

	return apperror.ErrNotImplemented
}

// Sessions lists the live sessions, oldest first.
func (that *GameManager) Sessions() []SessionInfo {
	that.mu.Lock()
	live := make([]*GameSession, 0, len(that.sessions))
	for _, session := range that.sessions {
		live = append(live, session)
	}
	that.mu.Unlock()

	infos := make([]SessionInfo, 0, len(live))
	for _, session := range live {
		infos = append(infos, session.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})

	return infos
}

func (that *GameManager) SessionByID(id string) (*GameSession, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return session, nil
}

// Withdraw empties the waiting room if the participant holds it. Live sessions are
// left alone. It reports whether the slot was cleared.
func (that *GameManager) Withdraw(ctx context.Context, participantID string) bool {
	log := that.logger.With("method", "Withdraw", "participant", participantID)

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.challenge.state != challengePending || that.challenge.challenger.ID != participantID {
		return false
	}

	that.challenge = challengeSlot{}
	log.InfoContext(ctx, "participant left the waiting room")

	return true
}

// Challenger returns the participant waiting for an opponent, if any.
func (that *GameManager) Challenger() (entity.Participant, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.challenge.state != challengePending {
		return entity.Participant{}, false
	}

	return that.challenge.challenger, true
}

// match runs the matchmaking step under the registry lock. A nil session means
// the participant now holds the waiting room.
func (that *GameManager) match(participant entity.Participant) (*GameSession, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.isBusyLocked(participant.ID) {
		return nil, fmt.Errorf("%w: participant %s", apperror.ErrAlreadyInGame, participant.ID)
	}

	if that.challenge.state == challengeEmpty {
		that.challenge = challengeSlot{state: challengePending, challenger: participant}

		return nil, nil
	}

	first := that.challenge.challenger
	that.challenge = challengeSlot{}

	session := newGameSession(that.newID(), first, participant, that.template, that.sprites)
	that.sessions[session.ID] = session
	that.byParticipant[first.ID] = session
	that.byParticipant[participant.ID] = session

	return session, nil
}

func (that *GameManager) isBusyLocked(participantID string) bool {
	if that.challenge.state == challengePending && that.challenge.challenger.ID == participantID {
		return true
	}

	_, playing := that.byParticipant[participantID]

	return playing
}

func (that *GameManager) archiveMatch(ctx context.Context, session *GameSession) {
	log := that.logger.With("method", "archiveMatch", "session", session.ID)

	if that.archive == nil {
		return
	}

	if err := that.archive.Save(ctx, session.Record()); err != nil {
		log.ErrorContext(ctx, "failed to archive match", "error", err)
	}
}

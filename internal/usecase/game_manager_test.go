package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/canvas"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
	"github.com/rocketscienceinc/tictactoe-canvas/internal/tictactoe"
)

var errRedisDown = errors.New("redis down")

var (
	playerX = entity.Participant{ID: "x", Name: "Xena"}
	playerO = entity.Participant{ID: "o", Name: "Otto"}
)

var testSprites = canvas.DefaultSprites()

type archiveMock struct {
	mock.Mock
}

func (that *archiveMock) Save(ctx context.Context, record *entity.MatchRecord) error {
	args := that.Called(ctx, record)
	return args.Error(0)
}

func newTestManager(t *testing.T, archive matchArchive) *GameManager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewGameManager(logger, testSprites, archive)
}

// startMatch pairs playerX (first) with playerO (second).
func startMatch(t *testing.T, manager *GameManager) *MatchResult {
	t.Helper()

	ctx := context.Background()

	waiting, err := manager.RequestMatch(ctx, playerX)
	require.NoError(t, err)
	require.Equal(t, MatchWaiting, waiting.Status)

	started, err := manager.RequestMatch(ctx, playerO)
	require.NoError(t, err)
	require.Equal(t, MatchStarted, started.Status)

	return started
}

// moveTo steers the cursor from the center to the cell.
func moveTo(t *testing.T, manager *GameManager, participantID string, cell int) {
	t.Helper()

	ctx := context.Background()
	rowDiff := cell/entity.BoardSide - entity.CenterCell/entity.BoardSide
	colDiff := cell%entity.BoardSide - entity.CenterCell%entity.BoardSide

	steps := make([]entity.Direction, 0, 2)
	switch {
	case rowDiff < 0:
		steps = append(steps, entity.DirectionUp)
	case rowDiff > 0:
		steps = append(steps, entity.DirectionDown)
	}
	switch {
	case colDiff < 0:
		steps = append(steps, entity.DirectionLeft)
	case colDiff > 0:
		steps = append(steps, entity.DirectionRight)
	}

	for _, dir := range steps {
		result, err := manager.Navigate(ctx, participantID, dir)
		require.NoError(t, err)
		require.NoError(t, result.Ignored)
	}
}

func playCell(t *testing.T, manager *GameManager, participantID string, cell int) *TurnResult {
	t.Helper()

	moveTo(t, manager, participantID, cell)

	result, err := manager.Commit(context.Background(), participantID)
	require.NoError(t, err)
	require.NoError(t, result.Ignored)

	return result
}

func TestGameManager_RequestMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("First request waits", func(t *testing.T) {
		// Given: an empty registry
		manager := newTestManager(t, nil)

		// When: a participant asks for a match
		result, err := manager.RequestMatch(ctx, playerX)

		// Then: the participant holds the waiting room
		require.NoError(t, err)
		assert.Equal(t, MatchWaiting, result.Status)
		assert.Nil(t, result.Session)

		challenger, ok := manager.Challenger()
		require.True(t, ok)
		assert.Equal(t, playerX, challenger)
	})

	t.Run("Second request starts a session with the challenger first", func(t *testing.T) {
		// Given: a waiting participant
		manager := newTestManager(t, nil)

		// When: another participant asks for a match
		result := startMatch(t, manager)

		// Then: the session is registered for both and the waiting room is empty
		require.NotNil(t, result.Session)
		assert.Equal(t, playerX, result.Session.First)
		assert.Equal(t, playerO, result.Session.Second)

		_, pending := manager.Challenger()
		assert.False(t, pending)

		for _, id := range []string{playerX.ID, playerO.ID} {
			session, err := manager.ResolveByParticipant(id)
			require.NoError(t, err)
			assert.Same(t, result.Session, session)
		}
	})

	t.Run("Initial renders prompt the first mover at the center", func(t *testing.T) {
		manager := newTestManager(t, nil)

		result := startMatch(t, manager)

		require.Len(t, result.Turn.Renders, 2)

		prompt, ok := result.Turn.RenderFor(playerX.ID)
		require.True(t, ok)
		assert.True(t, prompt.Active)
		assert.Equal(t, entity.Controls{Left: true, Down: true, Up: true, Right: true, Send: true}, prompt.Controls)
		assert.Equal(t, canvas.HighlightColor, prompt.Canvas.RGBAAt(100, 98))

		waiting, ok := result.Turn.RenderFor(playerO.ID)
		require.True(t, ok)
		assert.False(t, waiting.Active)
		assert.Equal(t, entity.Controls{}, waiting.Controls)
		assert.Equal(t, canvas.DividerColor, waiting.Canvas.RGBAAt(100, 98))

		assert.Equal(t, playerX, result.Turn.Turn)
	})

	t.Run("Duplicate request keeps the waiting room", func(t *testing.T) {
		// Given: a waiting participant
		manager := newTestManager(t, nil)

		_, err := manager.RequestMatch(ctx, playerX)
		require.NoError(t, err)

		// When: the same participant asks again
		result, err := manager.RequestMatch(ctx, playerX)

		// Then: the request is rejected and the slot still holds the participant
		require.ErrorIs(t, err, apperror.ErrAlreadyInGame)
		assert.Nil(t, result)

		challenger, ok := manager.Challenger()
		require.True(t, ok)
		assert.Equal(t, playerX.ID, challenger.ID)
	})

	t.Run("Participant in a live session is rejected", func(t *testing.T) {
		manager := newTestManager(t, nil)
		startMatch(t, manager)

		_, err := manager.RequestMatch(ctx, playerO)

		require.ErrorIs(t, err, apperror.ErrAlreadyInGame)

		_, pending := manager.Challenger()
		assert.False(t, pending)
	})

	t.Run("Concurrent requests pair everyone exactly once", func(t *testing.T) {
		// Given: an even number of participants asking at once
		manager := newTestManager(t, nil)
		const participants = 40

		var wg sync.WaitGroup
		for i := 0; i < participants; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				_, err := manager.RequestMatch(ctx, entity.Participant{ID: fmt.Sprintf("p%d", i)})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		// Then: every participant sits in exactly one session
		sessions := manager.Sessions()
		assert.Len(t, sessions, participants/2)

		_, pending := manager.Challenger()
		assert.False(t, pending)

		seen := make(map[string]int)
		for _, info := range sessions {
			seen[info.First.ID]++
			seen[info.Second.ID]++
		}
		assert.Len(t, seen, participants)
		for id, count := range seen {
			assert.Equal(t, 1, count, id)
		}
	})
}

func TestGameManager_Navigate(t *testing.T) {
	ctx := context.Background()

	t.Run("Moves the cursor and renders only the mover", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		// When: the first mover steps up
		result, err := manager.Navigate(ctx, playerX.ID, entity.DirectionUp)

		// Then: the prompt outlines the top-middle cell
		require.NoError(t, err)
		require.NoError(t, result.Ignored)
		require.Len(t, result.Renders, 1)

		prompt := result.Renders[0]
		assert.Equal(t, playerX.ID, prompt.ParticipantID)
		assert.Equal(t, entity.Controls{Left: true, Down: true, Right: true, Send: true}, prompt.Controls)
		for _, segment := range canvas.OutlineSegments(1) {
			assert.Equal(t, canvas.HighlightColor, prompt.Canvas.RGBAAt(segment.Min.X, segment.Min.Y))
		}

		// And: the persisted canvas never carries the outline
		spectator := started.Session.SpectatorRender()
		for _, segment := range canvas.OutlineSegments(1) {
			assert.Equal(t, canvas.DividerColor, spectator.Canvas.RGBAAt(segment.Min.X, segment.Min.Y))
		}
	})

	t.Run("Off-turn navigation is ignored", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		result, err := manager.Navigate(ctx, playerO.ID, entity.DirectionUp)

		require.NoError(t, err)
		require.ErrorIs(t, result.Ignored, apperror.ErrNotYourTurn)
		assert.Empty(t, result.Renders)

		prompt, _ := started.Session.InitialRenders().RenderFor(playerX.ID)
		assert.Equal(t, canvas.HighlightColor, prompt.Canvas.RGBAAt(100, 98))
	})

	t.Run("Unknown participant has no session", func(t *testing.T) {
		manager := newTestManager(t, nil)

		result, err := manager.Navigate(ctx, "nobody", entity.DirectionLeft)

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Nil(t, result)
	})
}

func TestGameManager_Commit(t *testing.T) {
	ctx := context.Background()

	t.Run("Left column win ends and archives the match", func(t *testing.T) {
		// Given: a started match and an archive
		archive := &archiveMock{}
		archive.On("Save", mock.Anything, mock.MatchedBy(func(record *entity.MatchRecord) bool {
			return record.Result == entity.MatchResultWin &&
				record.WinnerID == playerX.ID &&
				record.Line == entity.LineLeftColumn &&
				record.Board == [entity.BoardSize]string{"X", "O", "", "X", "O", "", "X", "", ""}
		})).Return(nil).Once()

		manager := newTestManager(t, archive)
		started := startMatch(t, manager)

		// When: cells 0, 1, 3, 4, 6 are played in turn
		playCell(t, manager, playerX.ID, 0)
		playCell(t, manager, playerO.ID, 1)
		playCell(t, manager, playerX.ID, 3)
		playCell(t, manager, playerO.ID, 4)
		result := playCell(t, manager, playerX.ID, 6)

		// Then: the first mover wins on the left column
		assert.True(t, result.IsFinished())
		assert.Equal(t, tictactoe.StatusWon, result.Status)
		assert.Equal(t, entity.LineLeftColumn, result.Outcome.Line)
		require.NotNil(t, result.Winner)
		assert.Equal(t, playerX, *result.Winner)

		// And: both see the final board with the strike and no controls
		require.Len(t, result.Renders, 2)
		for _, render := range result.Renders {
			assert.False(t, render.Active)
			assert.Equal(t, entity.Controls{}, render.Controls)

			struck := render.Canvas.RGBAAt(50, 95)
			assert.Greater(t, struck.R, uint8(150))
		}

		// And: the session is gone and the participants are free again
		_, err := manager.ResolveByParticipant(playerX.ID)
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		_, err = manager.SessionByID(started.Session.ID)
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Empty(t, manager.Sessions())

		archive.AssertExpectations(t)
	})

	t.Run("Draw is archived without a winner", func(t *testing.T) {
		archive := &archiveMock{}
		archive.On("Save", mock.Anything, mock.MatchedBy(func(record *entity.MatchRecord) bool {
			return record.IsDraw() && record.WinnerID == "" && record.Line == entity.NoLine
		})).Return(nil).Once()

		manager := newTestManager(t, archive)
		startMatch(t, manager)

		var result *TurnResult
		for i, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			mover := playerX.ID
			if i%2 == 1 {
				mover = playerO.ID
			}
			result = playCell(t, manager, mover, cell)
		}

		assert.Equal(t, tictactoe.StatusDrawn, result.Status)
		assert.Nil(t, result.Winner)
		require.NotNil(t, result.Spectator)
		assert.Equal(t, result.Renders[0].Canvas.Pix, result.Spectator.Canvas.Pix)

		archive.AssertExpectations(t)
	})

	t.Run("Turn passes and both renders are returned", func(t *testing.T) {
		manager := newTestManager(t, nil)
		startMatch(t, manager)

		result := playCell(t, manager, playerX.ID, 0)

		assert.False(t, result.IsFinished())
		assert.Equal(t, playerO, result.Turn)

		prompt, ok := result.RenderFor(playerO.ID)
		require.True(t, ok)
		assert.True(t, prompt.Active)

		view, ok := result.RenderFor(playerX.ID)
		require.True(t, ok)
		assert.False(t, view.Active)
		assert.NotEqual(t, canvas.BackgroundColor, view.Canvas.RGBAAt(50, 50))
	})

	t.Run("Occupied cell is ignored and the turn stays", func(t *testing.T) {
		manager := newTestManager(t, nil)
		startMatch(t, manager)

		playCell(t, manager, playerX.ID, 4)

		result, err := manager.Commit(ctx, playerO.ID)

		require.NoError(t, err)
		require.ErrorIs(t, result.Ignored, apperror.ErrCellOccupied)
		assert.Equal(t, playerO, result.Turn)
		assert.Empty(t, result.Renders)
	})

	t.Run("Off-turn commit is ignored", func(t *testing.T) {
		manager := newTestManager(t, nil)
		startMatch(t, manager)

		result, err := manager.Commit(ctx, playerO.ID)

		require.NoError(t, err)
		require.ErrorIs(t, result.Ignored, apperror.ErrNotYourTurn)
		assert.Equal(t, playerX, result.Turn)
	})

	t.Run("Archive failure does not fail the move", func(t *testing.T) {
		archive := &archiveMock{}
		archive.On("Save", mock.Anything, mock.Anything).Return(errRedisDown).Once()

		manager := newTestManager(t, archive)
		startMatch(t, manager)

		playCell(t, manager, playerX.ID, 0)
		playCell(t, manager, playerO.ID, 3)
		playCell(t, manager, playerX.ID, 1)
		playCell(t, manager, playerO.ID, 4)
		result := playCell(t, manager, playerX.ID, 2)

		assert.Equal(t, entity.LineTopRow, result.Outcome.Line)
		assert.Empty(t, manager.Sessions())
		archive.AssertExpectations(t)
	})

	t.Run("Late commit against a finished session is ignored", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		playCell(t, manager, playerX.ID, 0)
		playCell(t, manager, playerO.ID, 3)
		playCell(t, manager, playerX.ID, 1)
		playCell(t, manager, playerO.ID, 4)
		playCell(t, manager, playerX.ID, 2)

		result := started.Session.RequestCommit(playerO.ID)

		require.ErrorIs(t, result.Ignored, apperror.ErrGameFinished)
		assert.False(t, result.IsFinished())
	})
}

func TestGameManager_RemoveSession(t *testing.T) {
	t.Run("Removal is idempotent", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		assert.True(t, manager.RemoveSession(started.Session))
		assert.False(t, manager.RemoveSession(started.Session))
	})

	t.Run("A stale session with the same id is not removed", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		stale := newGameSession(started.Session.ID, playerX, playerO, canvas.NewBoard(), testSprites)

		assert.False(t, manager.RemoveSession(stale))

		session, err := manager.SessionByID(started.Session.ID)
		require.NoError(t, err)
		assert.Same(t, started.Session, session)
	})
}

func TestGameManager_Stop(t *testing.T) {
	manager := newTestManager(t, nil)
	startMatch(t, manager)

	err := manager.Stop(context.Background(), playerX.ID)

	require.ErrorIs(t, err, apperror.ErrNotImplemented)
	assert.Len(t, manager.Sessions(), 1)
}

func TestGameManager_Sessions(t *testing.T) {
	manager := newTestManager(t, nil)
	started := startMatch(t, manager)

	playCell(t, manager, playerX.ID, 8)

	sessions := manager.Sessions()

	require.Len(t, sessions, 1)
	info := sessions[0]
	assert.Equal(t, started.Session.ID, info.ID)
	assert.Equal(t, playerO.ID, info.Turn)
	assert.Equal(t, "X", info.Board[8])
	assert.Equal(t, "", info.Board[0])
}

func TestGameManager_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Challenger leaves the waiting room", func(t *testing.T) {
		// Given: a waiting participant
		manager := newTestManager(t, nil)
		_, err := manager.RequestMatch(ctx, playerX)
		require.NoError(t, err)

		// When: the participant withdraws
		cleared := manager.Withdraw(ctx, playerX.ID)

		// Then: the next request waits instead of starting a match
		assert.True(t, cleared)

		result, err := manager.RequestMatch(ctx, playerO)
		require.NoError(t, err)
		assert.Equal(t, MatchWaiting, result.Status)
	})

	t.Run("Someone else cannot clear the slot", func(t *testing.T) {
		manager := newTestManager(t, nil)
		_, err := manager.RequestMatch(ctx, playerX)
		require.NoError(t, err)

		assert.False(t, manager.Withdraw(ctx, playerO.ID))

		challenger, ok := manager.Challenger()
		require.True(t, ok)
		assert.Equal(t, playerX.ID, challenger.ID)
	})

	t.Run("Live sessions are untouched", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		assert.False(t, manager.Withdraw(ctx, playerX.ID))

		session, err := manager.ResolveByParticipant(playerX.ID)
		require.NoError(t, err)
		assert.Same(t, started.Session, session)
	})
}

func TestGameSession_Sequence(t *testing.T) {
	t.Run("Accepted requests advance the sequence", func(t *testing.T) {
		// Given: a started match
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)
		assert.Equal(t, uint64(0), started.Turn.Seq)

		// When: the first mover navigates and commits
		moved, err := manager.Navigate(context.Background(), playerX.ID, entity.DirectionUp)
		require.NoError(t, err)
		committed, err := manager.Commit(context.Background(), playerX.ID)
		require.NoError(t, err)
		require.NoError(t, committed.Ignored)

		// Then: every later result carries a larger sequence
		assert.Equal(t, uint64(1), moved.Seq)
		assert.Equal(t, uint64(2), committed.Seq)
	})

	t.Run("Ignored requests keep the sequence", func(t *testing.T) {
		manager := newTestManager(t, nil)
		startMatch(t, manager)

		result, err := manager.Commit(context.Background(), playerO.ID)

		require.NoError(t, err)
		require.ErrorIs(t, result.Ignored, apperror.ErrNotYourTurn)
		assert.Equal(t, uint64(0), result.Seq)
	})

	t.Run("Results name both participants", func(t *testing.T) {
		manager := newTestManager(t, nil)
		started := startMatch(t, manager)

		assert.Equal(t, playerX, started.Turn.First)
		assert.Equal(t, playerO, started.Turn.Second)
		require.NotNil(t, started.Turn.Spectator)
		assert.Equal(t, entity.Controls{}, started.Turn.Spectator.Controls)
	})
}

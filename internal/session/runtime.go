package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/songclash/songclash-backend/internal/catalog"
	"github.com/songclash/songclash-backend/internal/directory"
	"github.com/songclash/songclash-backend/internal/engine"
	"github.com/songclash/songclash-backend/internal/statesync"
)

// Writer identities stamped into the snapshot per owning component.
const (
	writerPhaseMachine = "phase_machine"
	writerCoordinator  = "turn_coordinator"
	writerAudio        = "audio_authority"
	writerAggregator   = "guess_aggregator"
	writerLedger       = "score_ledger"
	writerSession      = "session"
)

// Deps is the per-process service handle bundle passed into every
// runtime. No hidden globals.
type Deps struct {
	Propagator *statesync.Propagator
	Catalog    catalog.Catalog
	Directory  *directory.Memory
	Log        *zap.Logger
}

type client struct {
	playerID string
	out      chan Snapshot
	errs     chan string
}

// Runtime drives one session: it owns the phase state machine, validates
// client intents through the domain components, and writes partial deltas
// through the propagator. Its local state is always a projection of the
// last delivered snapshot; the store round-trip is authoritative, never
// the intent that produced it.
type Runtime struct {
	code string
	cfg  engine.Config

	inbox   chan Msg
	clients map[string]client
	version int

	state    engine.State
	rec      statesync.State
	recPhase string // raw phase string of the last applied record

	coord  *engine.Coordinator
	agg    *engine.Aggregator
	ledger *engine.Ledger
	audio  *engine.AudioAuthority

	prop *statesync.Propagator
	dir  *directory.Memory
	log  *zap.Logger

	timerGen int

	// pendingPhase is a phase write in flight; duplicate completion
	// signals for the same transition are ignored until it lands.
	pendingPhase engine.Phase
	settledTurn  string

	ctx    context.Context
	cancel context.CancelFunc
}

// New starts the runtime actor for a fresh session hosted by hostID.
func New(parent context.Context, code, hostID, hostName string, cfg engine.Config, deps Deps) *Runtime {
	ctx, cancel := context.WithCancel(parent)
	r := &Runtime{
		code:    code,
		cfg:     cfg,
		inbox:   make(chan Msg, 64),
		clients: make(map[string]client),
		state:   engine.NewState(engine.NewSession(code, hostID, cfg, time.Now())),
		coord:   engine.NewCoordinator(catalog.Source{Catalog: deps.Catalog}),
		agg:     engine.NewAggregator(cfg),
		ledger:  engine.NewLedger(cfg),
		audio:   engine.NewAudioAuthority(storeSessions{prop: deps.Propagator, cfg: cfg}),
		prop:    deps.Propagator,
		dir:     deps.Directory,
		log:     deps.Log.With(zap.String("session", code)),
		ctx:     ctx,
		cancel:  cancel,
	}
	deps.Directory.Register(hostID, hostName)
	go r.loop(hostID, hostName)
	return r
}

func (r *Runtime) Inbox() chan<- Msg { return r.inbox }

func (r *Runtime) Code() string { return r.code }

func (r *Runtime) loop(hostID, hostName string) {
	feed, cancelSub := r.prop.Subscribe(r.ctx, r.code)
	defer cancelSub()

	// Seed the canonical record before accepting any intent.
	r.upsert(statesync.Delta{
		SessionState: statesync.Str(string(engine.SessionWaiting)),
		HostID:       statesync.Str(hostID),
		PlayerOrder:  statesync.Strings([]string{hostID}),
		Scores: map[string]statesync.PlayerScore{
			hostID: {PlayerID: hostID, DisplayName: hostName, Score: 0},
		},
	}, writerSession)

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case ev, ok := <-feed:
			if !ok {
				r.log.Warn("change feed closed, resubscribing")
				feed, cancelSub = r.prop.Subscribe(r.ctx, r.code)
				continue
			}
			r.apply(ev.New)

		case m := <-r.inbox:
			// Fold in snapshots already delivered before acting, so every
			// command sees the freshest projection.
			r.drain(feed)
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				delete(r.clients, msg.ClientID)
				r.handleOffline(msg.PlayerID)

			case FromClient:
				if err := r.dispatch(msg.Cmd); err != nil {
					r.reject(msg.ClientID, msg.Cmd, err)
				}

			case PrimeTimer:
				r.armTimer(r.state.Phase)

			case timerFired:
				if msg.gen != r.timerGen {
					break // stale fire from an already-advanced phase
				}
				r.onDeadline()

			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					Phase:      r.state.Phase,
					State:      r.rec,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Runtime) drain(feed <-chan statesync.ChangeEvent) {
	for {
		select {
		case ev, ok := <-feed:
			if !ok {
				return
			}
			r.apply(ev.New)
		default:
			return
		}
	}
}

func (r *Runtime) handleJoin(msg Join) {
	r.dir.Register(msg.PlayerID, msg.DisplayName)
	r.dir.SetOnline(msg.PlayerID, true)
	r.clients[msg.ClientID] = client{playerID: msg.PlayerID, out: msg.Outbox, errs: msg.Errors}

	if !r.state.Session.HasPlayer(msg.PlayerID) {
		sess, err := r.state.Session.AddPlayer(msg.PlayerID)
		if err != nil {
			r.log.Warn("late join rejected",
				zap.String("player", msg.PlayerID), zap.Error(err))
		} else {
			r.upsert(statesync.Delta{
				PlayerOrder: statesync.Strings(sess.Players),
				Scores: map[string]statesync.PlayerScore{
					msg.PlayerID: {PlayerID: msg.PlayerID, DisplayName: msg.DisplayName, Score: 0, Online: true},
				},
			}, writerSession)
		}
	} else {
		ps := r.rec.Scores[msg.PlayerID]
		ps.PlayerID = msg.PlayerID
		if msg.DisplayName != "" {
			ps.DisplayName = msg.DisplayName
		}
		ps.Online = true
		r.upsert(statesync.Delta{
			Scores: map[string]statesync.PlayerScore{msg.PlayerID: ps},
		}, writerSession)
	}

	msg.Outbox <- Snapshot{Version: r.version, State: r.rec}
}

// handleOffline flips the player's online flag once their last connection
// is gone. Offline players still count toward vote and guess thresholds.
func (r *Runtime) handleOffline(playerID string) {
	for _, c := range r.clients {
		if c.playerID == playerID {
			return
		}
	}
	r.dir.SetOnline(playerID, false)
	if ps, ok := r.rec.Scores[playerID]; ok {
		ps.Online = false
		r.upsert(statesync.Delta{
			Scores: map[string]statesync.PlayerScore{playerID: ps},
		}, writerSession)
	}
}

func (r *Runtime) dispatch(cmd Command) error {
	now := time.Now()
	switch cmd.Type {
	case CmdStartGame:
		if cmd.PlayerID != r.state.Session.HostID {
			return engine.ErrUnauthorized
		}
		sess, err := r.state.Session.Start(now)
		if err != nil {
			return err
		}
		r.upsert(statesync.Delta{
			SessionState:    statesync.Str(string(sess.State)),
			Phase:           statesync.Str(engine.PhasePreGameCountdown.String()),
			TimeRemainingMS: statesync.Int64(remainingMS(engine.PhasePreGameCountdown, r.cfg)),
		}, writerPhaseMachine)
		return nil

	case CmdPlayAudio, CmdPauseAudio, CmdStopAudio:
		if r.state.Turn == nil || r.state.Phase != engine.PhaseAudioPlaying {
			return engine.ErrPhaseClosed
		}
		var (
			t   engine.Turn
			err error
		)
		ctx, cancel := context.WithTimeout(r.ctx, 3*time.Second)
		defer cancel()
		switch cmd.Type {
		case CmdPlayAudio:
			t, err = r.audio.Play(ctx, r.code, cmd.PlayerID, *r.state.Turn, now)
		case CmdPauseAudio:
			t, err = r.audio.Pause(ctx, r.code, cmd.PlayerID, *r.state.Turn, cmd.Position)
		default:
			t, err = r.audio.Stop(ctx, r.code, cmd.PlayerID, *r.state.Turn, cmd.Position)
		}
		if err != nil {
			return err
		}
		r.upsert(audioDelta(t.Audio), writerAudio)
		return nil

	case CmdSubmitGuess:
		if r.state.Turn == nil {
			return engine.ErrPhaseClosed
		}
		t, err := r.agg.SubmitGuess(r.state.Session, *r.state.Turn, cmd.PlayerID, cmd.Text, engine.Confidence(cmd.Confidence), now)
		if err != nil {
			return err
		}
		r.upsert(statesync.Delta{
			Guesses: statesync.GuessList(guessEntries(t.Guesses)),
		}, writerAggregator)
		return nil

	case CmdCastVote:
		if r.state.Turn == nil {
			return engine.ErrPhaseClosed
		}
		t, err := r.agg.CastVote(r.state.Session, *r.state.Turn, cmd.PlayerID, cmd.GuessID, now)
		if err != nil {
			return err
		}
		r.upsert(statesync.Delta{
			Votes:           statesync.VoteList(voteEntries(t.Voting.Votes)),
			AcceptedGuessID: statesync.Str(t.Voting.AcceptedGuessID),
			VotingCompleted: statesync.Bool(t.Voting.Completed),
		}, writerAggregator)
		return nil

	default:
		return engine.ErrPhaseClosed
	}
}

// apply folds a delivered snapshot into the local projection, broadcasts
// it, and runs the phase machine's reaction: arm the phase timer and act
// on completion signals. Re-delivery of an older record is skipped.
func (r *Runtime) apply(rec statesync.State) {
	if rec.UpdatedAt.Before(r.rec.UpdatedAt) {
		return
	}
	prevPhase := r.recPhase
	r.rec = rec
	r.recPhase = rec.Phase
	r.state = Project(rec, r.cfg)
	r.version++
	if rec.Phase == r.pendingPhase.String() {
		r.pendingPhase = ""
	}
	r.broadcast(Snapshot{Version: r.version, State: rec})

	if rec.Phase != prevPhase && rec.Phase != "" {
		r.armTimer(engine.Phase(rec.Phase))
	}

	// Completion signals beat timers.
	switch engine.Phase(rec.Phase) {
	case engine.PhaseAudioPlaying:
		if rec.AudioStopped {
			r.advanceTo(engine.PhaseGuessing)
		}
	case engine.PhaseGuessing:
		if len(rec.PlayerOrder) > 1 && len(rec.Guesses) >= len(rec.PlayerOrder)-1 {
			r.advanceTo(engine.PhaseVoting)
		}
	case engine.PhaseVoting:
		if rec.VotingCompleted {
			r.advanceTo(engine.PhaseTurnResults)
		}
	}
}

// onDeadline force-advances the phase with degraded defaults: whatever
// guesses and votes made it in, playback frozen at the last reported
// position. The machine never stalls on a missing signal.
func (r *Runtime) onDeadline() {
	if r.state.Session.State != engine.SessionPlaying {
		return
	}
	r.advanceTo(engine.NextPhase(r.state))
}

func (r *Runtime) advanceTo(target engine.Phase) {
	if r.pendingPhase != "" {
		return // a transition is already on its way through the store
	}
	cur := r.state.Phase
	if cur == target || !cur.CanTransitionTo(target) {
		r.log.Debug("transition rejected",
			zap.String("from", cur.String()), zap.String("to", target.String()))
		return
	}
	now := time.Now()

	if target == engine.PhaseTurnCountdown {
		r.startNextTurn(now)
		return
	}
	if target == engine.PhaseGameFinished {
		r.finishGame()
		return
	}

	d := statesync.Delta{
		Phase:           statesync.Str(target.String()),
		TimeRemainingMS: statesync.Int64(remainingMS(target, r.cfg)),
	}
	if ts, ok := engine.TurnStateFor(target); ok && r.state.Turn != nil {
		d.TurnState = statesync.Str(string(r.state.Turn.Advance(ts).State))
	}
	switch target {
	case engine.PhaseGuessing:
		// Leaving audio_playing: freeze playback where it last reported.
		d.IsPlaying = statesync.Bool(false)
	case engine.PhaseTurnResults:
		d.RevealArtwork = statesync.Bool(true)
		d.IsPlaying = statesync.Bool(false)
	case engine.PhasePreparingNext:
		if r.state.Turn != nil {
			d.TurnState = statesync.Str(string(engine.TurnCompleted))
		}
	}
	r.pendingPhase = target
	r.upsert(d, writerPhaseMachine)

	if target == engine.PhaseTurnResults {
		r.settleTurn(now)
	}
}

// startNextTurn asks the coordinator for the next (challenger, track)
// pair. A challenger without songs is skipped; if nobody has songs left
// the game ends instead of stalling.
func (r *Runtime) startNextTurn(now time.Time) {
	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()

	prev := r.state.Turn
	if prev != nil && prev.Live() {
		completed := r.coord.CompleteTurn(*prev, now)
		prev = &completed
	}
	t, newIdx, err := r.coord.StartTurn(ctx, r.state.Session, prev, r.state.TurnIndex, now)
	if errors.Is(err, engine.ErrNoSongsAvailable) {
		r.log.Info("no challengers with songs left, finishing game")
		r.finishGame()
		return
	}
	if err != nil {
		r.log.Error("start turn", zap.Error(err))
		return
	}
	defender, _ := engine.ChallengerAt(r.state.Session.Players, newIdx)
	d := turnDelta(t, newIdx, defender)
	d.Phase = statesync.Str(engine.PhaseTurnCountdown.String())
	d.TimeRemainingMS = statesync.Int64(remainingMS(engine.PhaseTurnCountdown, r.cfg))
	r.pendingPhase = engine.PhaseTurnCountdown
	r.upsert(d, writerCoordinator)
}

func (r *Runtime) finishGame() {
	r.pendingPhase = engine.PhaseGameFinished
	r.upsert(statesync.Delta{
		Phase:           statesync.Str(engine.PhaseGameFinished.String()),
		TimeRemainingMS: statesync.Int64(0),
		SessionState:    statesync.Str(string(engine.SessionFinished)),
		IsPlaying:       statesync.Bool(false),
	}, writerPhaseMachine)
}

// settleTurn hands the finished turn to the score ledger. With an
// accepted guess the guesser (and optionally the challenger) earn
// points; without one only the failed-attempts counter moves.
func (r *Runtime) settleTurn(now time.Time) {
	if r.state.Turn == nil || r.settledTurn == r.state.Turn.ID {
		return
	}
	r.settledTurn = r.state.Turn.ID
	completed := r.coord.CompleteTurn(*r.state.Turn, now)
	deltas := r.ledger.Settle(completed)
	if len(deltas) == 0 {
		r.upsert(statesync.Delta{
			FailedAttempts: statesync.Int(r.state.FailedAttempts + 1),
		}, writerLedger)
		return
	}
	totals := engine.ApplyDeltas(r.state.Scores, deltas)
	scores := make(map[string]statesync.PlayerScore, len(deltas))
	for _, sd := range deltas {
		ps := r.rec.Scores[sd.PlayerID]
		ps.PlayerID = sd.PlayerID
		ps.Score = totals[sd.PlayerID]
		scores[sd.PlayerID] = ps
	}
	r.upsert(statesync.Delta{Scores: scores}, writerLedger)
}

func (r *Runtime) upsert(d statesync.Delta, writer string) {
	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()
	if _, err := r.prop.Upsert(ctx, r.code, d, writer); err != nil {
		r.log.Error("snapshot upsert failed", zap.String("writer", writer), zap.Error(err))
		// Don't wedge the machine behind a write that never landed.
		r.pendingPhase = ""
	}
}

func (r *Runtime) armTimer(p engine.Phase) {
	r.timerGen++
	gen := r.timerGen
	if p == engine.PhaseGameFinished {
		return
	}
	dur := p.Duration(r.cfg)
	time.AfterFunc(dur, func() {
		select {
		case r.inbox <- timerFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Runtime) reject(clientID string, cmd Command, err error) {
	// ReplayLimitExceeded and PhaseClosed are normal outcomes, not faults.
	switch {
	case errors.Is(err, engine.ErrReplayLimitExceeded), errors.Is(err, engine.ErrPhaseClosed):
		r.log.Debug("command dropped", zap.String("type", string(cmd.Type)), zap.Error(err))
	default:
		r.log.Warn("command rejected", zap.String("type", string(cmd.Type)),
			zap.String("player", cmd.PlayerID), zap.Error(err))
	}
	if c, ok := r.clients[clientID]; ok && c.errs != nil {
		select {
		case c.errs <- err.Error():
		default:
		}
	}
}

func (r *Runtime) broadcast(snap Snapshot) {
	for id, c := range r.clients {
		select {
		case c.out <- snap:
		default:
			// Slow or wedged client: drop it rather than stall the session.
			close(c.out)
			delete(r.clients, id)
		}
	}
}

func (r *Runtime) shutdown() {
	for id, c := range r.clients {
		close(c.out)
		delete(r.clients, id)
	}
	r.cancel()
}

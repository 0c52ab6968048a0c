package tetrion

import (
	"io"

	"github.com/charmbracelet/log"
)

// Field dimensions and timing constants.
const (
	Width  = 10
	Height = 20

	// LockDelay is the number of steps a grounded piece may rest before it locks.
	LockDelay uint64 = 30
	// MaxLockDelays caps how often moves and rotations may extend a lock delay.
	MaxLockDelays = 30
	// PreviewCount is the number of upcoming kinds exposed for display.
	PreviewCount = 6
)

var spawnPosition = Point{X: 3, Y: 0}

// State is the lifecycle state of a tetrion.
type State uint8

const (
	StatePlaying State = iota
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "gameover"
	default:
		return "unknown"
	}
}

// CoreInformation is the externally comparable state of a tetrion.
type CoreInformation struct {
	TetrionIndex uint8
	Level        uint32
	Score        uint64
	LinesCleared uint32
	Stack        *MinoStack
}

// SnapshotSink receives end-of-step snapshots. recording.Writer implements it.
type SnapshotSink interface {
	AddSnapshot(step uint64, info CoreInformation) error
}

// Config holds the construction parameters of a Tetrion.
type Config struct {
	Index         uint8
	Seed          uint64
	StartingLevel uint32

	// Sink, if set, receives a snapshot after every step that locked a piece
	// or ended the game.
	Sink SnapshotSink
	// Logger defaults to a discarding logger.
	Logger *log.Logger
}

// Tetrion is one player's simulation. It is advanced only through
// HandleCommand and Update and is not safe for concurrent use.
type Tetrion struct {
	index         uint8
	seed          uint64
	startingLevel uint32

	stack    *MinoStack
	sequence sequence
	active   *Tetromino
	ghost    *Tetromino
	hold     *PieceKind
	previews [PreviewCount]PieceKind

	level        uint32
	score        uint64
	linesCleared uint32
	state        State

	nextGravityStep    uint64
	lockDelayStep      uint64
	lockDelaysExecuted int
	inLockDelay        bool
	accelerated        bool
	downPressed        bool
	allowedToHold      bool

	snapshotPending bool
	sink            SnapshotSink
	logger          *log.Logger
	err             error
}

// New creates a tetrion and spawns its first piece at step 0.
func New(cfg Config) *Tetrion {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	t := &Tetrion{
		index:         cfg.Index,
		seed:          cfg.Seed,
		startingLevel: cfg.StartingLevel,
		stack:         NewMinoStack(),
		sequence:      newSequence(cfg.Seed),
		level:         cfg.StartingLevel,
		lockDelayStep: LockDelay,
		allowedToHold: true,
		sink:          cfg.Sink,
		logger:        logger.With("tetrion", cfg.Index),
	}
	t.nextGravityStep = t.gravityDelay()
	t.spawnNext(0)
	return t
}

// Index returns the tetrion index within its recording.
func (t *Tetrion) Index() uint8 { return t.index }

// Seed returns the seed of the piece sequence.
func (t *Tetrion) Seed() uint64 { return t.seed }

// StartingLevel returns the level the game started at.
func (t *Tetrion) StartingLevel() uint32 { return t.startingLevel }

// Level returns the current level.
func (t *Tetrion) Level() uint32 { return t.level }

// Score returns the current score.
func (t *Tetrion) Score() uint64 { return t.score }

// LinesCleared returns the total number of cleared rows.
func (t *Tetrion) LinesCleared() uint32 { return t.linesCleared }

// State returns the lifecycle state.
func (t *Tetrion) State() State { return t.state }

// IsGameOver reports whether the game has ended.
func (t *Tetrion) IsGameOver() bool { return t.state == StateGameOver }

// Stack returns the locked minos. Callers must not modify it.
func (t *Tetrion) Stack() *MinoStack { return t.stack }

// Active returns the falling piece.
func (t *Tetrion) Active() (Tetromino, bool) { return optional(t.active) }

// Ghost returns the active piece moved down as far as it can go.
func (t *Tetrion) Ghost() (Tetromino, bool) { return optional(t.ghost) }

// Held returns the kind in the hold slot.
func (t *Tetrion) Held() (PieceKind, bool) {
	if t.hold == nil {
		return 0, false
	}
	return *t.hold, true
}

// CanHold reports whether a hold is allowed before the next lock.
func (t *Tetrion) CanHold() bool { return t.allowedToHold }

// Previews returns the upcoming kinds, next first.
func (t *Tetrion) Previews() [PreviewCount]PieceKind { return t.previews }

// Err returns the first error reported by the snapshot sink.
func (t *Tetrion) Err() error { return t.err }

// CoreInformation captures the comparable state. The stack is copied.
func (t *Tetrion) CoreInformation() CoreInformation {
	return CoreInformation{
		TetrionIndex: t.index,
		Level:        t.level,
		Score:        t.score,
		LinesCleared: t.linesCleared,
		Stack:        t.stack.Clone(),
	}
}

func optional(p *Tetromino) (Tetromino, bool) {
	if p == nil {
		return Tetromino{}, false
	}
	return *p, true
}

// Update advances gravity and lock delay for step. It must be called once for
// every step, in increasing order.
func (t *Tetrion) Update(step uint64) {
	if t.state == StatePlaying {
		if step >= t.nextGravityStep {
			if t.accelerated && !t.downPressed {
				t.nextGravityStep -= t.gravityDelay()
				t.accelerated = false
			} else {
				movement := movementGravity
				if t.accelerated {
					movement = movementForced
				}
				if t.moveDown(movement, step) {
					t.resetLockDelay(step)
				}
			}
			t.nextGravityStep += t.gravityDelay()
		}
		t.refreshGhost()
	}
	t.flushSnapshot(step)
}

// HandleCommand applies cmd at step and reports whether it had an effect.
// After game over every command is ignored.
func (t *Tetrion) HandleCommand(cmd Command, step uint64) bool {
	if t.state == StateGameOver {
		return false
	}

	switch cmd {
	case CommandRotateLeft:
		return t.withLockDelay(step, func() bool { return t.rotate(false) })
	case CommandRotateRight:
		return t.withLockDelay(step, func() bool { return t.rotate(true) })
	case CommandMoveLeft:
		return t.withLockDelay(step, func() bool { return t.shift(-1) })
	case CommandMoveRight:
		return t.withLockDelay(step, func() bool { return t.shift(1) })
	case CommandMoveDown:
		t.downPressed = true
		t.accelerated = true
		t.nextGravityStep = step + t.gravityDelay()
		if t.moveDown(movementForced, step) {
			t.resetLockDelay(step)
			return true
		}
		return false
	case CommandDrop:
		t.lockDelayStep = step
		return t.drop(step)
	case CommandReleaseMoveDown:
		t.downPressed = false
		return false
	case CommandHold:
		if !t.allowedToHold {
			return false
		}
		t.holdActive(step)
		t.resetLockDelay(step)
		t.allowedToHold = false
		return true
	default:
		return false
	}
}

// withLockDelay runs a lateral move or rotation, resetting the lock delay on
// success. Successes while grounded count against MaxLockDelays.
func (t *Tetrion) withLockDelay(step uint64, action func() bool) bool {
	if !action() {
		return false
	}
	if t.inLockDelay {
		t.lockDelaysExecuted++
	}
	t.resetLockDelay(step)
	return true
}

func (t *Tetrion) resetLockDelay(step uint64) {
	t.lockDelayStep = step + LockDelay
}

func (t *Tetrion) gravityDelay() uint64 {
	return GravityDelay(t.level, t.accelerated)
}

type movement uint8

const (
	movementGravity movement = iota
	movementForced
)

// moveDown moves the active piece one row down. A grounded piece enters lock
// delay and locks once the delay expired or the extensions are used up.
func (t *Tetrion) moveDown(m movement, step uint64) bool {
	if t.active == nil {
		return false
	}
	if m == movementForced {
		t.score += 4
	}

	if t.canMoveDown(*t.active) {
		t.active.Position.Y++
		return true
	}

	t.inLockDelay = true
	if t.lockDelaysExecuted >= MaxLockDelays || step >= t.lockDelayStep {
		t.lockActive(step)
		t.resetLockDelay(step)
	} else {
		t.nextGravityStep = step + 1
	}
	return false
}

func (t *Tetrion) drop(step uint64) bool {
	if t.active == nil {
		return false
	}
	var rows uint64
	for t.canMoveDown(*t.active) {
		t.active.Position.Y++
		rows++
	}
	t.score += 4 * rows
	t.lockActive(step)
	return rows > 0
}

func (t *Tetrion) shift(dx int) bool {
	if t.active == nil {
		return false
	}
	t.active.Position.X += dx
	if !t.isValid(*t.active) {
		t.active.Position.X -= dx
		return false
	}
	return true
}

// rotate turns the active piece and tries the wall kicks in order, reverting
// the rotation when none fits.
func (t *Tetrion) rotate(clockwise bool) bool {
	if t.active == nil {
		return false
	}
	kicks, ok := kicksFor(t.active.Kind)
	if !ok {
		return false
	}

	from := t.active.Rotation
	to := from.Left()
	if clockwise {
		to = from.Right()
	}
	t.active.Rotation = to

	for _, offset := range kicks[kickIndex(from, to)] {
		t.active.Position = t.active.Position.Add(offset)
		if t.isValid(*t.active) {
			return true
		}
		t.active.Position = t.active.Position.Add(Point{X: -offset.X, Y: -offset.Y})
	}

	t.active.Rotation = from
	return false
}

func (t *Tetrion) holdActive(step uint64) {
	if t.active == nil {
		return
	}
	kind := t.active.Kind
	if t.hold == nil {
		t.hold = &kind
		t.spawnNext(step)
		return
	}
	held := *t.hold
	t.hold = &kind
	t.spawn(held, step)
}

func (t *Tetrion) lockActive(step uint64) {
	for _, m := range t.active.Minos() {
		t.stack.Set(m.Position, m.Kind)
	}
	t.allowedToHold = true
	t.inLockDelay = false
	t.lockDelaysExecuted = 0
	t.clearFullRows()
	t.spawnNext(step)
	t.resetLockDelay(step)
	t.snapshotPending = true
}

// clearFullRows removes full rows one at a time, rescanning from the top after
// each removal, then scores the lines cleared by this lock.
func (t *Tetrion) clearFullRows() {
	before := t.linesCleared
	for {
		row, ok := t.firstFullRow()
		if !ok {
			break
		}
		t.linesCleared++
		if level := t.linesCleared / 10; level > t.level {
			t.level = level
			t.logger.Info("new level", "level", level)
		}
		t.stack.ClearRowAndSink(row)
	}

	cleared := t.linesCleared - before
	t.score += uint64(lineScores[cleared]) * uint64(t.level+1)
}

var lineScores = [...]uint32{0, 40, 100, 300, 1200}

func (t *Tetrion) firstFullRow() (int, bool) {
	for y := range Height {
		full := true
		for x := range Width {
			if t.stack.IsEmpty(Point{X: x, Y: y}) {
				full = false
				break
			}
		}
		if full {
			return y, true
		}
	}
	return 0, false
}

func (t *Tetrion) spawnNext(step uint64) {
	t.spawn(t.sequence.next(), step)
}

// spawn places kind at the spawn position. An invalid spawn ends the game:
// the piece is pushed up until it fits and merged into the stack.
func (t *Tetrion) spawn(kind PieceKind, step uint64) {
	piece := Tetromino{Kind: kind, Rotation: North, Position: spawnPosition}
	t.active = &piece
	t.sequence.peek(t.previews[:])

	if !t.isValid(piece) {
		t.state = StateGameOver
		t.fillOverflow(piece)
		t.logger.Info("game over", "step", step, "score", t.score)
		t.snapshotPending = true
		t.active = nil
		t.ghost = nil
		return
	}

	t.nextGravityStep = step + t.gravityDelay()
	t.refreshGhost()
}

func (t *Tetrion) fillOverflow(piece Tetromino) {
	minos := piece.Minos()
	shifted := minos
	moveUp := 0
	for fits := false; !fits; moveUp++ {
		fits = true
		for i := range shifted {
			if shifted[i].Position.Y == 0 {
				continue
			}
			shifted[i].Position.Y--
			if !t.isValidCell(shifted[i].Position) {
				fits = false
			}
		}
	}

	for _, m := range minos {
		if m.Position.Y >= moveUp {
			t.stack.Set(Point{X: m.Position.X, Y: m.Position.Y - moveUp}, m.Kind)
		}
	}
}

func (t *Tetrion) refreshGhost() {
	if t.active == nil {
		t.ghost = nil
		return
	}
	ghost := *t.active
	for t.canMoveDown(ghost) {
		ghost.Position.Y++
	}
	t.ghost = &ghost
}

func (t *Tetrion) isValidCell(p Point) bool {
	return p.X >= 0 && p.X < Width && p.Y >= 0 && p.Y < Height && t.stack.IsEmpty(p)
}

func (t *Tetrion) isValid(piece Tetromino) bool {
	for _, m := range piece.Minos() {
		if !t.isValidCell(m.Position) {
			return false
		}
	}
	return true
}

func (t *Tetrion) canMoveDown(piece Tetromino) bool {
	for _, m := range piece.Minos() {
		if m.Position.Y == Height-1 || !t.isValidCell(m.Position.Add(Point{Y: 1})) {
			return false
		}
	}
	return true
}

func (t *Tetrion) flushSnapshot(step uint64) {
	if !t.snapshotPending {
		return
	}
	t.snapshotPending = false
	if t.sink == nil {
		return
	}
	if err := t.sink.AddSnapshot(step, t.CoreInformation()); err != nil {
		t.logger.Error("cannot write snapshot", "step", step, "err", err)
		if t.err == nil {
			t.err = err
		}
		return
	}
	t.logger.Debug("snapshot written", "step", step)
}

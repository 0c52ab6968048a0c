package tetrion

import (
	"errors"
	"math/rand"
	"testing"
)

type captureSink struct {
	steps []uint64
	infos []CoreInformation
	err   error
}

func (s *captureSink) AddSnapshot(step uint64, info CoreInformation) error {
	if s.err != nil {
		return s.err
	}
	s.steps = append(s.steps, step)
	s.infos = append(s.infos, info)
	return nil
}

func TestNewBagContainsEveryKind(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		for range 3 {
			bag := NewBag(rng)
			var seen [KindCount]int
			for _, kind := range bag {
				if !kind.Valid() {
					t.Fatalf("seed %d: invalid kind %d", seed, kind)
				}
				seen[kind]++
			}
			for kind, n := range seen {
				if n != 1 {
					t.Fatalf("seed %d: kind %v appears %d times in %v", seed, PieceKind(kind), n, bag)
				}
			}
		}
	}
}

func TestSequencePeekMatchesNext(t *testing.T) {
	reference := newSequence(42)
	draws := make([]PieceKind, 40)
	for i := range draws {
		draws[i] = reference.next()
	}

	s := newSequence(42)
	for i := range 30 {
		if got := s.next(); got != draws[i] {
			t.Fatalf("draw %d: got %v, want %v", i, got, draws[i])
		}
		var upcoming [PreviewCount]PieceKind
		s.peek(upcoming[:])
		for j, kind := range upcoming {
			if want := draws[i+1+j]; kind != want {
				t.Fatalf("draw %d preview %d: got %v, want %v", i, j, kind, want)
			}
		}
	}
}

func TestGravityDelay(t *testing.T) {
	tests := []struct {
		level       uint32
		accelerated bool
		want        uint64
	}{
		{0, false, 48},
		{0, true, 2},
		{9, false, 6},
		{9, true, 1},
		{29, false, 1},
		{29, true, 1},
		{200, false, 1},
	}
	for _, tt := range tests {
		if got := GravityDelay(tt.level, tt.accelerated); got != tt.want {
			t.Errorf("GravityDelay(%d, %v) = %d, want %d", tt.level, tt.accelerated, got, tt.want)
		}
	}
}

func TestMinoStackClearBottomRow(t *testing.T) {
	s := NewMinoStack()
	for x := range Width {
		s.Set(Point{X: x, Y: Height - 1}, KindI)
	}
	s.ClearRowAndSink(Height - 1)

	for x := range Width {
		if !s.IsEmpty(Point{X: x, Y: Height - 1}) {
			t.Errorf("cell (%d,%d) not empty after clear", x, Height-1)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestMinoStackClearRowSinksRowsAbove(t *testing.T) {
	s := NewMinoStack()
	for x := range Width {
		s.Set(Point{X: x, Y: 18}, KindJ)
	}
	s.Set(Point{X: 2, Y: 17}, KindT)
	s.Set(Point{X: 5, Y: 19}, KindZ)

	s.ClearRowAndSink(18)

	if kind, ok := s.At(Point{X: 2, Y: 18}); !ok || kind != KindT {
		t.Errorf("mino above the cleared row did not sink: %v %v", kind, ok)
	}
	if kind, ok := s.At(Point{X: 5, Y: 19}); !ok || kind != KindZ {
		t.Errorf("mino below the cleared row moved: %v %v", kind, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestMinoStackEqual(t *testing.T) {
	a := NewMinoStack()
	b := NewMinoStack()
	a.Set(Point{X: 1, Y: 2}, KindS)
	a.Set(Point{X: 3, Y: 4}, KindL)
	b.Set(Point{X: 3, Y: 4}, KindL)
	b.Set(Point{X: 1, Y: 2}, KindS)

	if !a.Equal(b) {
		t.Fatal("stacks with the same minos in different order should be equal")
	}

	b.Set(Point{X: 1, Y: 2}, KindZ)
	if a.Equal(b) {
		t.Fatal("stacks with different kinds should differ")
	}
	if b.Len() != 2 {
		t.Errorf("replacing a mino changed Len() to %d", b.Len())
	}
}

func TestSpawnState(t *testing.T) {
	tt := New(Config{Seed: 42})

	active, ok := tt.Active()
	if !ok {
		t.Fatal("no active piece after New")
	}
	if active.Position != spawnPosition || active.Rotation != North {
		t.Errorf("active piece at %v %v, want %v North", active.Position, active.Rotation, spawnPosition)
	}
	ghost, ok := tt.Ghost()
	if !ok || ghost.Position.X != spawnPosition.X || ghost.Position.Y <= spawnPosition.Y {
		t.Errorf("ghost piece not below spawn: %v %v", ghost, ok)
	}
	if tt.nextGravityStep != 48 {
		t.Errorf("next gravity step = %d, want 48", tt.nextGravityStep)
	}

	reference := newSequence(42)
	if first := reference.next(); first != active.Kind {
		t.Errorf("first kind = %v, want %v", active.Kind, first)
	}
	var previews [PreviewCount]PieceKind
	reference.peek(previews[:])
	if tt.Previews() != previews {
		t.Errorf("previews = %v, want %v", tt.Previews(), previews)
	}
}

func TestLockDelayCap(t *testing.T) {
	tt := New(Config{Seed: 7})
	for tt.canMoveDown(*tt.active) {
		tt.active.Position.Y++
	}

	dir := CommandMoveLeft
	lockedAt := uint64(0)
	for step := uint64(1); step < 1000; step++ {
		if !tt.HandleCommand(dir, step) {
			t.Fatalf("step %d: lateral move failed", step)
		}
		if dir == CommandMoveLeft {
			dir = CommandMoveRight
		} else {
			dir = CommandMoveLeft
		}
		tt.Update(step)
		if tt.Stack().Len() > 0 {
			lockedAt = step
			break
		}
	}

	// Grounded at the first gravity step (48), the next gravity step is 97;
	// every move in between extends the deadline and uses one extension.
	if lockedAt != 97 {
		t.Fatalf("piece locked at step %d, want 97", lockedAt)
	}
	if tt.lockDelaysExecuted != 0 || tt.inLockDelay {
		t.Errorf("lock delay state not reset after lock")
	}
}

func TestLockDelayExpires(t *testing.T) {
	tt := New(Config{Seed: 7})
	for tt.canMoveDown(*tt.active) {
		tt.active.Position.Y++
	}

	lockedAt := uint64(0)
	for step := uint64(1); step < 1000; step++ {
		tt.Update(step)
		if tt.Stack().Len() > 0 {
			lockedAt = step
			break
		}
	}
	// Deadline from spawn is 30, first gravity step is 48.
	if lockedAt != 48 {
		t.Fatalf("piece locked at step %d, want 48", lockedAt)
	}
}

func TestWallKickFromLeftWall(t *testing.T) {
	tt := New(Config{Seed: 1})
	tt.active = &Tetromino{Kind: KindI, Rotation: East, Position: Point{X: -2, Y: 5}}

	if !tt.HandleCommand(CommandRotateLeft, 1) {
		t.Fatal("rotation should succeed with a kick")
	}
	want := Tetromino{Kind: KindI, Rotation: North, Position: Point{X: 0, Y: 5}}
	if *tt.active != want {
		t.Errorf("active = %+v, want %+v", *tt.active, want)
	}
}

func TestWallKickDeterminism(t *testing.T) {
	script := []Command{
		CommandMoveLeft, CommandMoveLeft, CommandMoveLeft, CommandMoveLeft,
		CommandRotateRight, CommandRotateRight, CommandRotateLeft, CommandMoveLeft,
		CommandRotateLeft, CommandRotateLeft, CommandRotateRight,
	}

	run := func() Tetromino {
		tt := New(Config{Seed: 99})
		for i, cmd := range script {
			tt.HandleCommand(cmd, uint64(i+1))
		}
		active, _ := tt.Active()
		return active
	}

	first := run()
	for range 10 {
		if got := run(); got != first {
			t.Fatalf("rotation sequence diverged: %+v vs %+v", got, first)
		}
	}
}

func TestRotateO(t *testing.T) {
	tt := New(Config{Seed: 1})
	tt.active = &Tetromino{Kind: KindO, Rotation: North, Position: Point{X: 4, Y: 4}}

	if tt.HandleCommand(CommandRotateRight, 1) {
		t.Error("O piece rotation should report no effect")
	}
	if tt.active.Rotation != North {
		t.Errorf("O piece rotated to %v", tt.active.Rotation)
	}
}

func TestDropClearsLine(t *testing.T) {
	sink := &captureSink{}
	tt := New(Config{Seed: 3, Sink: sink})
	for _, x := range []int{0, 1, 2, 7, 8, 9} {
		tt.stack.Set(Point{X: x, Y: Height - 1}, KindZ)
	}
	tt.active = &Tetromino{Kind: KindI, Rotation: North, Position: spawnPosition}

	if !tt.HandleCommand(CommandDrop, 5) {
		t.Fatal("drop should report movement")
	}
	tt.Update(5)

	// 18 rows dropped at 4 points each plus one line at level 0.
	if tt.Score() != 18*4+40 {
		t.Errorf("score = %d, want %d", tt.Score(), 18*4+40)
	}
	if tt.LinesCleared() != 1 {
		t.Errorf("lines = %d, want 1", tt.LinesCleared())
	}
	if tt.Stack().Len() != 0 {
		t.Errorf("stack not empty after clear:\n%s", tt.Stack())
	}
	if len(sink.steps) != 1 || sink.steps[0] != 5 {
		t.Fatalf("snapshots at %v, want [5]", sink.steps)
	}
	if sink.infos[0].Score != tt.Score() {
		t.Errorf("snapshot score = %d, want %d", sink.infos[0].Score, tt.Score())
	}
}

func TestLevelUpScoring(t *testing.T) {
	tt := New(Config{Seed: 3})
	tt.linesCleared = 9
	for x := range Width {
		if x < 3 || x > 6 {
			tt.stack.Set(Point{X: x, Y: Height - 1}, KindZ)
		}
	}
	tt.active = &Tetromino{Kind: KindI, Rotation: North, Position: Point{X: 3, Y: Height - 2}}

	tt.HandleCommand(CommandDrop, 1)

	if tt.Level() != 1 {
		t.Errorf("level = %d, want 1", tt.Level())
	}
	if tt.Score() != 40*2 {
		t.Errorf("score = %d, want %d", tt.Score(), 40*2)
	}
}

func TestHold(t *testing.T) {
	tt := New(Config{Seed: 11})
	first, _ := tt.Active()
	next := tt.Previews()[0]

	if !tt.HandleCommand(CommandHold, 1) {
		t.Fatal("first hold should succeed")
	}
	if held, ok := tt.Held(); !ok || held != first.Kind {
		t.Errorf("held = %v %v, want %v", held, ok, first.Kind)
	}
	if active, _ := tt.Active(); active.Kind != next {
		t.Errorf("active after hold = %v, want %v", active.Kind, next)
	}
	if tt.HandleCommand(CommandHold, 2) {
		t.Error("second hold before a lock should be refused")
	}

	tt.HandleCommand(CommandDrop, 3)
	if !tt.CanHold() {
		t.Fatal("hold should be allowed again after a lock")
	}
	if !tt.HandleCommand(CommandHold, 4) {
		t.Fatal("hold after lock should succeed")
	}
	if active, _ := tt.Active(); active.Kind != first.Kind {
		t.Errorf("swapped in %v, want %v", active.Kind, first.Kind)
	}
}

func TestGameOver(t *testing.T) {
	sink := &captureSink{}
	tt := New(Config{Seed: 5, Sink: sink})
	for y := 0; y < Height; y++ {
		for x := 3; x <= 6; x++ {
			tt.stack.Set(Point{X: x, Y: y}, KindJ)
		}
	}

	tt.HandleCommand(CommandDrop, 10)
	tt.Update(10)

	if !tt.IsGameOver() {
		t.Fatal("expected game over")
	}
	if _, ok := tt.Active(); ok {
		t.Error("active piece should be cleared on game over")
	}
	if len(sink.steps) != 1 || sink.steps[0] != 10 {
		t.Errorf("snapshots at %v, want [10]", sink.steps)
	}

	score := tt.Score()
	for step := uint64(11); step < 200; step++ {
		if tt.HandleCommand(CommandMoveDown, step) {
			t.Fatal("commands should have no effect after game over")
		}
		tt.Update(step)
	}
	if tt.Score() != score {
		t.Errorf("score changed after game over: %d -> %d", score, tt.Score())
	}
	if len(sink.steps) != 1 {
		t.Errorf("unexpected snapshots after game over: %v", sink.steps)
	}
}

func TestSinkErrorIsKept(t *testing.T) {
	want := errors.New("disk full")
	tt := New(Config{Seed: 5, Sink: &captureSink{err: want}})

	tt.HandleCommand(CommandDrop, 1)
	tt.Update(1)

	if !errors.Is(tt.Err(), want) {
		t.Errorf("Err() = %v, want %v", tt.Err(), want)
	}
}

func TestDeterminism(t *testing.T) {
	script := map[uint64]Command{}
	rng := rand.New(rand.NewSource(2024))
	commands := []Command{
		CommandMoveLeft, CommandMoveRight, CommandRotateLeft, CommandRotateRight,
		CommandMoveDown, CommandReleaseMoveDown, CommandDrop, CommandHold,
	}
	for step := uint64(1); step < 5000; step += uint64(1 + rng.Intn(12)) {
		script[step] = commands[rng.Intn(len(commands))]
	}

	run := func() (*Tetrion, []CoreInformation) {
		sink := &captureSink{}
		tt := New(Config{Seed: 42, StartingLevel: 3, Sink: sink})
		for step := uint64(1); step < 5000 && !tt.IsGameOver(); step++ {
			if cmd, ok := script[step]; ok {
				tt.HandleCommand(cmd, step)
			}
			tt.Update(step)
		}
		return tt, sink.infos
	}

	a, snapsA := run()
	b, snapsB := run()

	if a.Score() != b.Score() || a.Level() != b.Level() || a.LinesCleared() != b.LinesCleared() {
		t.Fatalf("state mismatch: %d/%d/%d vs %d/%d/%d",
			a.Score(), a.Level(), a.LinesCleared(), b.Score(), b.Level(), b.LinesCleared())
	}
	if !a.Stack().Equal(b.Stack()) {
		t.Fatalf("stack mismatch:\n%s\nvs\n%s", a.Stack(), b.Stack())
	}
	if len(snapsA) != len(snapsB) || len(snapsA) == 0 {
		t.Fatalf("snapshot counts: %d vs %d", len(snapsA), len(snapsB))
	}
	for i := range snapsA {
		if !snapsA[i].Stack.Equal(snapsB[i].Stack) || snapsA[i].Score != snapsB[i].Score {
			t.Fatalf("snapshot %d differs", i)
		}
	}
}

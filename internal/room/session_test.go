package room

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

func TestReconcileDropsGhostsAndKeepsOrder(t *testing.T) {
	s := newSession("r1", "c1")
	s.players = []string{"c1", "c2"}

	dropped := s.Reconcile([]string{"c2"})
	if dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
	if !reflect.DeepEqual(s.Players(), []string{"c2"}) {
		t.Fatalf("unexpected players: %v", s.Players())
	}

	// Idempotent: a second pass against the same live set changes nothing.
	if dropped := s.Reconcile([]string{"c2"}); dropped != 0 {
		t.Fatalf("expected reconcile to be idempotent, dropped %d", dropped)
	}
	if !reflect.DeepEqual(s.Players(), []string{"c2"}) {
		t.Fatalf("players changed on idempotent reconcile: %v", s.Players())
	}
}

func TestReconcilePreservesSlotOrder(t *testing.T) {
	s := newSession("r1", "c1")
	s.players = []string{"c1", "c2"}
	s.Reconcile([]string{"c2", "c1"})
	if !reflect.DeepEqual(s.Players(), []string{"c1", "c2"}) {
		t.Fatalf("slot order not preserved: %v", s.Players())
	}
}

func TestJoinOutcomes(t *testing.T) {
	s := newSession("r1", "c1")

	res, st := s.Join("c2", []string{"c1"})
	if res != Joined {
		t.Fatalf("expected Joined, got %v", res)
	}
	if !reflect.DeepEqual(st.Players, []string{"c1", "c2"}) {
		t.Fatalf("unexpected players: %v", st.Players)
	}

	// Duplicate join of a seated connection is a no-op.
	if res, _ := s.Join("c2", []string{"c1", "c2"}); res != AlreadySeated {
		t.Fatalf("expected AlreadySeated, got %v", res)
	}
	if s.Occupancy() != 2 {
		t.Fatalf("occupancy changed on duplicate join: %d", s.Occupancy())
	}

	if res, _ := s.Join("c3", []string{"c1", "c2"}); res != Full {
		t.Fatalf("expected Full, got %v", res)
	}
}

func TestJoinAfterGhostPurge(t *testing.T) {
	s := newSession("r1", "c1")
	s.players = []string{"c1", "c2"}

	// c2 is recorded but no longer live; a third connection must get the seat.
	res, st := s.Join("c3", []string{"c1"})
	if res != Joined {
		t.Fatalf("expected Joined after ghost purge, got %v", res)
	}
	if !reflect.DeepEqual(st.Players, []string{"c1", "c3"}) {
		t.Fatalf("unexpected players: %v", st.Players)
	}
	if s.Occupancy() > 2 {
		t.Fatalf("occupancy exceeded 2: %d", s.Occupancy())
	}
}

func TestApplyMoveFieldPolicy(t *testing.T) {
	s := newSession("r1", "c1")

	s.ApplyMove(relaydto.MoveSnapshot{
		Board:   json.RawMessage(`[["R"]]`),
		Turn:    "black",
		Economy: json.RawMessage(`{"white":3,"black":1}`),
	})
	st := s.State()
	if string(st.Board) != `[["R"]]` || st.Turn != Black {
		t.Fatalf("board/turn not overwritten: %s %s", st.Board, st.Turn)
	}
	if string(st.Economy) != `{"white":3,"black":1}` {
		t.Fatalf("economy not overwritten: %s", st.Economy)
	}
	// Fields the client did not supply keep their previous value.
	if string(st.Graveyard) != string(DefaultGraveyard) {
		t.Fatalf("graveyard changed without input: %s", st.Graveyard)
	}
	if st.Mode != DefaultMode {
		t.Fatalf("mode changed without input: %s", st.Mode)
	}

	// Board and turn are unconditional, even for empty/null input; the
	// sticky fields are retained for both absent and explicit-null input.
	s.ApplyMove(relaydto.MoveSnapshot{
		Board:   json.RawMessage(`null`),
		Turn:    "",
		Economy: json.RawMessage(`null`),
	})
	st = s.State()
	if string(st.Board) != `null` {
		t.Fatalf("null board must overwrite, got %s", st.Board)
	}
	if st.Turn != "" {
		t.Fatalf("empty turn must overwrite, got %q", st.Turn)
	}
	if string(st.Economy) != `{"white":3,"black":1}` {
		t.Fatalf("null economy must be retained, got %s", st.Economy)
	}
}

func TestApplyMoveUpdatesStickyFields(t *testing.T) {
	s := newSession("r1", "c1")
	s.ApplyMove(relaydto.MoveSnapshot{
		Board:          json.RawMessage(`[]`),
		Turn:           "black",
		Mode:           "chimera",
		ChimeraTracker: json.RawMessage(`{"a":1}`),
		Graveyard:      json.RawMessage(`{"white":["P"],"black":[]}`),
		ResHist:        json.RawMessage(`{"white":[1],"black":[]}`),
	})
	st := s.State()
	if st.Mode != "chimera" {
		t.Fatalf("mode: %s", st.Mode)
	}
	if string(st.ChimeraTracker) != `{"a":1}` {
		t.Fatalf("chimeraTracker: %s", st.ChimeraTracker)
	}
	if string(st.Graveyard) != `{"white":["P"],"black":[]}` {
		t.Fatalf("graveyard: %s", st.Graveyard)
	}
	if string(st.ResHist) != `{"white":[1],"black":[]}` {
		t.Fatalf("resHist: %s", st.ResHist)
	}
}

func TestRemovePlayer(t *testing.T) {
	s := newSession("r1", "c1")
	s.players = []string{"c1", "c2"}

	if !s.RemovePlayer("c1") {
		t.Fatalf("expected removal of seated player")
	}
	if !reflect.DeepEqual(s.Players(), []string{"c2"}) {
		t.Fatalf("unexpected players: %v", s.Players())
	}
	if s.RemovePlayer("c1") {
		t.Fatalf("second removal must report false")
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := newSession("r1", "c1")
	st := s.State()
	if st.Turn != White || st.Mode != DefaultMode {
		t.Fatalf("unexpected defaults: %s %s", st.Turn, st.Mode)
	}
	if st.Board != nil {
		t.Fatalf("board must be unset before the first move: %s", st.Board)
	}
	if string(st.Economy) != string(DefaultEconomy) {
		t.Fatalf("economy default: %s", st.Economy)
	}
}

package arena

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHappyPath_FullMatch(t *testing.T) {
	e, _ := newTestEngine(t)

	alice, aliceConn := helloClient(t, e, "alice")
	require.Contains(t, aliceConn.last(), "WELCOME ")
	bob, bobConn := helloClient(t, e, "bob")
	require.Contains(t, bobConn.last(), "WELCOME ")

	require.False(t, e.Dispatch(alice, "CREATE g1", false))
	assert.Equal(t, "R_CREATED 1", aliceConn.last())

	require.False(t, e.Dispatch(bob, "LIST", false))
	lines := bobConn.lines()
	assert.Equal(t, "R_LIST 1", lines[len(lines)-2])
	assert.Equal(t, "ROOM 1 g1 1/2 OPEN", lines[len(lines)-1])

	require.False(t, e.Dispatch(bob, "JOIN 1", false))
	assert.Equal(t, "R_JOINED 1", bobConn.last())
	assert.Equal(t, "P_JOINED bob", aliceConn.last())

	require.False(t, e.Dispatch(alice, "READY", false))
	assert.Equal(t, "OK you_are_ready", aliceConn.last())
	assert.Equal(t, "P_READY alice", bobConn.last())

	require.False(t, e.Dispatch(bob, "READY", false))
	assert.Equal(t, "G_ST", aliceConn.lines()[len(aliceConn.lines())-2])
	assert.Equal(t, "R_ST 1", aliceConn.last())
	assert.Equal(t, "R_ST 1", bobConn.last())

	require.False(t, e.Dispatch(alice, "MOVE R", false))
	assert.Equal(t, "M_ACC", aliceConn.last())
	require.False(t, e.Dispatch(bob, "MOVE S", false))

	// The round result is followed by the next round's R_ST.
	assert.Equal(t, "R_RE alice R S 1 0", aliceConn.lines()[len(aliceConn.lines())-2])
	assert.Equal(t, "R_RE alice S R 0 1", bobConn.lines()[len(bobConn.lines())-2])
	assert.Equal(t, "R_ST 2", aliceConn.last())

	// Second round: alice wins again, which (with WinThreshold=2 in the
	// test engine) ends the match.
	require.False(t, e.Dispatch(alice, "MOVE P", false))
	require.False(t, e.Dispatch(bob, "MOVE R", false))

	assert.Equal(t, "G_END alice", aliceConn.last())
	assert.Equal(t, "G_END alice", bobConn.last())
	assert.Nil(t, e.rooms.FindByID(1))
}

func TestHello_NicknameCollision(t *testing.T) {
	e, _ := newTestEngine(t)
	helloClient(t, e, "alice")

	c, fc := connectClient(t, e)
	closeConn := e.Dispatch(c, "HELLO alice", false)
	assert.False(t, closeConn)
	assert.Equal(t, "ERR 107 NICKNAME_TAKEN", fc.last())
	assert.Equal(t, 0, int(c.State))
}

func TestJoin_UnknownRoomAfterRemoval(t *testing.T) {
	e, _ := newTestEngine(t)
	alice, aliceConn := helloClient(t, e, "alice")
	require.False(t, e.Dispatch(alice, "CREATE g1", false))
	assert.Equal(t, "R_CREATED 1", aliceConn.last())

	r := e.rooms.FindByID(1)
	require.NotNil(t, r)
	e.rooms.RemoveRoom(r)

	dave, daveConn := helloClient(t, e, "dave")
	require.False(t, e.Dispatch(dave, "JOIN 1", false))
	assert.Equal(t, "ERR 104 UNKNOWN_ROOM", daveConn.last())
}

func TestMove_RoundIdempotence(t *testing.T) {
	e, _ := newTestEngine(t)
	alice, aliceConn := helloClient(t, e, "alice")
	bob, _ := helloClient(t, e, "bob")
	require.False(t, e.Dispatch(alice, "CREATE g1", false))
	require.False(t, e.Dispatch(bob, "JOIN 1", false))
	require.False(t, e.Dispatch(alice, "READY", false))
	require.False(t, e.Dispatch(bob, "READY", false))

	require.False(t, e.Dispatch(alice, "MOVE R", false))
	assert.Equal(t, "M_ACC", aliceConn.last())

	closeConn := e.Dispatch(alice, "MOVE P", false)
	assert.False(t, closeConn)
	assert.Equal(t, "ERR 101 INVALID_STATE", aliceConn.last())

	r := e.rooms.FindByPlayer(alice)
	assert.NotEqual(t, 0, int(r.MoveOf(alice)))
}

func TestDispatch_UnknownVerbDisconnectsAfterThreeStrikes(t *testing.T) {
	e, _ := newTestEngine(t)
	c, fc := connectClient(t, e)

	require.False(t, e.Dispatch(c, "BOGUS", false))
	require.False(t, e.Dispatch(c, "BOGUS", false))
	closeConn := e.Dispatch(c, "BOGUS", false)

	assert.True(t, closeConn)
	assert.Equal(t, 3, c.InvalidStreak)
	for _, line := range fc.lines() {
		assert.True(t, strings.HasPrefix(line, "ERR 100 BAD_FORMAT"))
	}
}

func TestLeave_NotifiesRemainingOccupant(t *testing.T) {
	e, _ := newTestEngine(t)
	alice, _ := helloClient(t, e, "alice")
	bob, bobConn := helloClient(t, e, "bob")
	require.False(t, e.Dispatch(alice, "CREATE g1", false))
	require.False(t, e.Dispatch(bob, "JOIN 1", false))

	closeConn := e.Dispatch(alice, "LEAVE", false)
	assert.False(t, closeConn)
	assert.Equal(t, "OPP_INF NONE", bobConn.last())

	r := e.rooms.FindByID(1)
	require.NotNil(t, r)
	assert.Equal(t, 1, r.PlayerCount)
	assert.Same(t, bob, r.P1)
}

func TestLeave_LastOccupantReleasesRoom(t *testing.T) {
	e, _ := newTestEngine(t)
	alice, aliceConn := helloClient(t, e, "alice")
	require.False(t, e.Dispatch(alice, "CREATE g1", false))

	closeConn := e.Dispatch(alice, "LEAVE", false)
	assert.False(t, closeConn)
	assert.Equal(t, "OK left_room 1", aliceConn.last())
	assert.Nil(t, e.rooms.FindByID(1))
	assert.Equal(t, 0, int(alice.RoomID))
}

func TestGetOpp_AloneAndWithOpponent(t *testing.T) {
	e, _ := newTestEngine(t)
	alice, aliceConn := helloClient(t, e, "alice")
	require.False(t, e.Dispatch(alice, "CREATE g1", false))
	require.False(t, e.Dispatch(alice, "GET_OPP", false))
	assert.Equal(t, "OPP_INF NONE", aliceConn.last())

	bob, _ := helloClient(t, e, "bob")
	require.False(t, e.Dispatch(bob, "JOIN 1", false))

	require.False(t, e.Dispatch(alice, "GET_OPP", false))
	assert.Equal(t, "OPP_INF bob NOT_READY", aliceConn.last())
}

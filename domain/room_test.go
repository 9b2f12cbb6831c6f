package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoom_AddIsIdempotent(t *testing.T) {
	req := require.New(t)
	room := NewRoom("r1")

	req.True(room.Add(NewParticipant("c1", "Alice")))
	req.False(room.Add(NewParticipant("c1", "Alice again")))

	req.Equal(1, room.Size())
	req.Equal("Alice", room.Members()[0].Username)
	req.Equal(DefaultLanguage, room.Language)
}

func TestRoom_RemoveNonMemberIsNoop(t *testing.T) {
	req := require.New(t)
	room := NewRoom("r1")
	room.Add(NewParticipant("c1", "Alice"))

	_, ok := room.Remove("c2")
	req.False(ok)
	p, ok := room.Remove("c1")
	req.True(ok)
	req.Equal(ConnectionID("c1"), p.ConnectionID)
	req.True(room.Empty())
}

func TestRoom_MembersAreOrderedSnapshots(t *testing.T) {
	req := require.New(t)
	room := NewRoom("r1")
	room.Add(NewParticipant("c3", "Carol"))
	room.Add(NewParticipant("c1", "Alice"))
	room.Add(NewParticipant("c2", ""))

	members := room.Members()
	room.Remove("c1")

	req.Equal([]ConnectionID{"c1", "c2", "c3"}, []ConnectionID{members[0].ConnectionID, members[1].ConnectionID, members[2].ConnectionID})
	req.Equal(AnonymousName, members[1].Username)
	req.Len(room.Members(), 2)
}

func TestParseLanguage(t *testing.T) {
	req := require.New(t)

	lang, err := ParseLanguage("Java")
	req.NoError(err)
	req.Equal(Java, lang)

	_, err = ParseLanguage("cobol")
	req.Error(err)
	_, err = ParseLanguage("")
	req.Error(err)
}

func TestExecutionResult_Combined(t *testing.T) {
	req := require.New(t)

	req.Equal("out", ExecutionResult{Output: Output{Stdout: "out", Stderr: "err"}}.Combined())
	req.Equal("err", ExecutionResult{Output: Output{Stderr: "err"}}.Combined())
	req.Equal(NoOutputMessage, ExecutionResult{}.Combined())
	req.False(Output{Stderr: " \n"}.Failed())
	req.True(Output{Stderr: "Traceback"}.Failed())
}

func TestExample_Solution(t *testing.T) {
	require.Equal(t, "fix", Example{Fix: "fix", Code: "code"}.Solution())
	require.Equal(t, "code", Example{Code: "code"}.Solution())
}

package anthropic

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
	"github.com/ewilliams-labs/moodtunes/internal/core/ports"
)

type mockMessages struct {
	captured sdk.MessageNewParams
	resp     *sdk.Message
	err      error
}

func (m *mockMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	m.captured = body
	return m.resp, m.err
}

func TestClient_Complete(t *testing.T) {
	mock := &mockMessages{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "Oi! "},
			{Type: "text", Text: "Qual é o seu nome?"},
		},
	}}
	c, err := New(mock, "")
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), ports.CompletionRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "sys"},
			{Role: domain.RoleUser, Content: "oi"},
			{Role: domain.RoleAssistant, Content: "olá"},
			{Role: domain.RoleUser, Content: "Ana"},
			{Role: domain.RoleSystem, Content: "directive"},
		},
		Temperature: 0.5,
	})
	require.NoError(t, err)
	require.Equal(t, "Oi! Qual é o seu nome?", reply)

	p := mock.captured
	require.Equal(t, sdk.Model(DefaultModel), p.Model)
	require.EqualValues(t, DefaultMaxTokens, p.MaxTokens)
	require.Len(t, p.System, 2)
	require.Equal(t, "sys", p.System[0].Text)
	require.Equal(t, "directive", p.System[1].Text)
	require.Len(t, p.Messages, 3)
	require.Equal(t, sdk.MessageParamRoleUser, p.Messages[0].Role)
	require.Equal(t, sdk.MessageParamRoleAssistant, p.Messages[1].Role)
}

func TestClient_CompleteMergesSameRoleTurns(t *testing.T) {
	_, conversation := encodeMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "a"},
		{Role: domain.RoleUser, Content: "b"},
		{Role: domain.RoleAssistant, Content: "c"},
	})
	require.Len(t, conversation, 2)
	require.Len(t, conversation[0].Content, 2)
}

func TestClient_CompleteErrors(t *testing.T) {
	c, err := New(&mockMessages{err: errors.New("overloaded")}, "m")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ports.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "oi"}},
	})
	require.ErrorContains(t, err, "overloaded")

	c, err = New(&mockMessages{resp: &sdk.Message{}}, "m")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ports.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "oi"}},
	})
	require.Error(t, err)

	_, err = c.Complete(context.Background(), ports.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleSystem, Content: "only system"}},
	})
	require.Error(t, err)

	_, err = New(nil, "m")
	require.Error(t, err)
}

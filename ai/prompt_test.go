package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var holmes = Persona{
	Name:        "Sherlock Holmes",
	Book:        "A Study in Scarlet",
	Author:      "Arthur Conan Doyle",
	Description: "A consulting detective with formidable powers of deduction.",
}

func TestSystemPromptEmbedsPersona(t *testing.T) {
	prompt := SystemPrompt(holmes)

	assert.True(t, strings.HasPrefix(prompt,
		`You are embodying the character Sherlock Holmes from the book "A Study in Scarlet" by Arthur Conan Doyle.`))
	assert.Contains(t, prompt, "think *only* as Sherlock Holmes")
	assert.Contains(t, prompt, "Character Background: A consulting detective with formidable powers of deduction.")
	assert.Contains(t, prompt, "Respond concisely (1-2 paragraphs)")
	assert.Contains(t, prompt, "outside the original story.")
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	messages := BuildPrompt(holmes, nil, "Who are you?")

	require.Len(t, messages, 2)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "Who are you?"}, messages[1])
}

func TestBuildPromptPreservesHistoryOrder(t *testing.T) {
	history := []Turn{
		{Text: "Good morning.", FromUser: true},
		{Text: "You have been in Afghanistan, I perceive.", FromUser: false},
		{Text: "How did you know?", FromUser: true},
		{Text: "Elementary.", FromUser: false},
	}

	messages := BuildPrompt(holmes, history, "Explain.")

	require.Len(t, messages, len(history)+2)
	assert.Equal(t, RoleSystem, messages[0].Role)
	for i, turn := range history {
		want := RoleAssistant
		if turn.FromUser {
			want = RoleUser
		}
		assert.Equal(t, want, messages[i+1].Role)
		assert.Equal(t, turn.Text, messages[i+1].Content)
	}
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "Explain."}, messages[len(messages)-1])
}

func TestBuildPromptKeepsEmptyPersonaFields(t *testing.T) {
	messages := BuildPrompt(Persona{Name: "Nobody"}, nil, "")

	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Content, `from the book "" by .`)
	assert.Equal(t, "", messages[1].Content)
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	history := []Turn{
		{Text: "Good morning.", FromUser: true},
		{Text: "You have been in Afghanistan, I perceive.", FromUser: false},
	}

	first := BuildPrompt(holmes, history, "How did you know?")
	second := BuildPrompt(holmes, history, "How did you know?")
	assert.Equal(t, first, second)

	// history is not aliased into the result
	history[0].Text = "changed"
	assert.Equal(t, "Good morning.", first[1].Content)
}

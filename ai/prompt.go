package ai

import (
	"fmt"
)

// Chat roles understood by the completion API
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Persona is the slice of a character the prompt is built from
type Persona struct {
	Name        string
	Book        string
	Author      string
	Description string
}

// Turn is one prior message of a conversation, oldest first
type Turn struct {
	Text     string
	FromUser bool
}

// ChatMessage is one role-tagged entry sent to the model
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const personaTemplate = "You are embodying the character %[1]s from the book \"%[2]s\" by %[3]s.\n" +
	"Your task is to speak, act, and think *only* as %[1]s, fully adopting their personality, " +
	"speech patterns, knowledge, and mannerisms as described below. Do not break character. " +
	"Do not act as an AI assistant.\n\n" +
	"Character Background: %[4]s\n\n" +
	"Respond concisely (1-2 paragraphs) based on this persona. If asked about events beyond " +
	"the book's narrative, you may speculate based on the character's personality, but clarify " +
	"that this is outside the original story."

// SystemPrompt renders the persona instructions for p
func SystemPrompt(p Persona) string {
	return fmt.Sprintf(personaTemplate, p.Name, p.Book, p.Author, p.Description)
}

// BuildPrompt assembles the message list for one completion: the persona
// instructions, then history in order, then the new user text.
// It never fails and never drops history; callers bound the window.
func BuildPrompt(p Persona, history []Turn, newText string) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: SystemPrompt(p)})

	for _, turn := range history {
		role := RoleAssistant
		if turn.FromUser {
			role = RoleUser
		}
		messages = append(messages, ChatMessage{Role: role, Content: turn.Text})
	}

	return append(messages, ChatMessage{Role: RoleUser, Content: newText})
}

// Package transcript models a customer-service conversation as an ordered
// list of role-tagged messages.
package transcript

import (
	"fmt"
	"strings"
)

// Role identifies who produced a message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAgent     Role = "agent"
	RoleAutomated Role = "automated"
)

// ParseRole normalizes the free-form role labels that show up in exported
// chat logs into one of the three canonical roles.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user", "client":
		return RoleCustomer, nil
	case "agent", "support", "rep":
		return RoleAgent, nil
	case "automated", "bot", "system":
		return RoleAutomated, nil
	default:
		return "", fmt.Errorf("transcript: unknown role %q", s)
	}
}

// Message is one utterance in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is an ordered conversation between a customer and an agent,
// possibly including automated messages.
type Transcript struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}

// Validate checks that the transcript is non-empty and every message carries
// a known role and non-blank content.
func (t *Transcript) Validate() error {
	if len(t.Messages) == 0 {
		return fmt.Errorf("transcript: no messages")
	}
	for i, msg := range t.Messages {
		switch msg.Role {
		case RoleCustomer, RoleAgent, RoleAutomated:
		default:
			return fmt.Errorf("transcript: message %d has unknown role %q", i, msg.Role)
		}
		if strings.TrimSpace(msg.Content) == "" {
			return fmt.Errorf("transcript: message %d has empty content", i)
		}
	}
	return nil
}

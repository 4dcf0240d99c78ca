package moderation

import (
	"fmt"
	"time"
)

type ActionKind string

const (
	ActionBan              ActionKind = "ban"
	ActionUnban            ActionKind = "unban"
	ActionWarn             ActionKind = "warn"
	ActionTrust            ActionKind = "trust"
	ActionUntrust          ActionKind = "untrust"
	ActionRevokeTrust      ActionKind = "revoke-trust"
	ActionDelete           ActionKind = "delete"
	ActionTempBan          ActionKind = "temp-ban"
	ActionRestrict         ActionKind = "restrict"
	ActionMarkAsSpamAndBan ActionKind = "spam-ban"
)

// A single requested moderation action. One Intent is constructed per call
// and handled exactly once; fields beyond the common set are only meaningful
// for the kinds documented on them.
//
// Immutable
type Intent struct {
	Kind   ActionKind
	UserID int64
	Actor  Actor
	Reason string

	// Chat scope for single-chat actions (delete, warn notification,
	// chat-scoped trust revocation). Zero means "no specific chat".
	ChatID int64
	// Message to remove; required for delete, optional for spam-ban.
	MessageID int64
	// How long the sanction lasts; required for temp-ban and restrict.
	Duration time.Duration
	// For unban: also re-grant trusted status after lifting the ban.
	RestoreTrust bool
}

// Checks that the intent carries the fields its kind requires.
func (i *Intent) Validate() error {
	if i.UserID == 0 {
		return fmt.Errorf("intent missing target user")
	}
	switch i.Kind {
	case ActionBan, ActionUnban, ActionWarn, ActionTrust, ActionUntrust, ActionRevokeTrust:
		// no extra fields required
	case ActionDelete:
		if i.ChatID == 0 || i.MessageID == 0 {
			return fmt.Errorf("delete intent requires both chat and message")
		}
	case ActionTempBan, ActionRestrict:
		if i.Duration <= 0 {
			return fmt.Errorf("%s intent requires a positive duration", i.Kind)
		}
	case ActionMarkAsSpamAndBan:
		if i.MessageID != 0 && i.ChatID == 0 {
			return fmt.Errorf("spam-ban with a message requires the chat it was posted in")
		}
	default:
		return fmt.Errorf("unexpected action kind: %s", i.Kind)
	}
	return nil
}

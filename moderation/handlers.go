package moderation

import (
	"context"
	"fmt"
	"time"
)

// Handlers complete all of their own platform calls and state mutation
// before returning. Chaining (eg, ban then revoke-trust) is signaled via
// result flags and performed by the caller, never implicitly here.

func (e *Engine) handleBan(ctx context.Context, intent Intent) Result {
	ct := e.ExecuteAcrossTargets(ctx, "ban", func(ctx context.Context, t Target) error {
		return e.Platform.BanMember(ctx, t.ID, intent.UserID, time.Time{})
	})
	res := resultFromCrossTarget(ActionBan, ct)
	// success in at least one chat: ask the caller to chain revoke-trust
	res.ShouldRevokeTrust = res.Success
	return res
}

func (e *Engine) handleUnban(ctx context.Context, intent Intent) Result {
	ct := e.ExecuteAcrossTargets(ctx, "unban", func(ctx context.Context, t Target) error {
		return e.Platform.UnbanMember(ctx, t.ID, intent.UserID)
	})
	res := resultFromCrossTarget(ActionUnban, ct)
	if intent.RestoreTrust && res.Success {
		if err := e.Trust.SetTrusted(ctx, intent.UserID, true); err != nil {
			e.Logger.Error("restoring trust after unban failed", "userID", intent.UserID, "err", err)
		} else {
			res.TrustRestored = true
		}
	}
	return res
}

func (e *Engine) handleTempBan(ctx context.Context, intent Intent) Result {
	until := time.Now().Add(intent.Duration)
	ct := e.ExecuteAcrossTargets(ctx, "temp-ban", func(ctx context.Context, t Target) error {
		return e.Platform.BanMember(ctx, t.ID, intent.UserID, until)
	})
	res := resultFromCrossTarget(ActionTempBan, ct)
	if res.Success {
		res.ExpiresAt = &until
	}
	return res
}

func (e *Engine) handleRestrict(ctx context.Context, intent Intent) Result {
	until := time.Now().Add(intent.Duration)
	ct := e.ExecuteAcrossTargets(ctx, "restrict", func(ctx context.Context, t Target) error {
		return e.Platform.RestrictMember(ctx, t.ID, intent.UserID, until)
	})
	res := resultFromCrossTarget(ActionRestrict, ct)
	if res.Success {
		res.ExpiresAt = &until
	}
	return res
}

func (e *Engine) handleWarn(ctx context.Context, intent Intent) Result {
	count, err := e.Warnings.Add(ctx, intent.UserID)
	if err != nil {
		return failedResult(ActionWarn, fmt.Sprintf("recording warning: %v", err))
	}
	if intent.ChatID != 0 {
		text := fmt.Sprintf("You have been warned (%d): %s", count, intent.Reason)
		if err := e.Platform.SendMessage(ctx, intent.ChatID, text); err != nil {
			// the warning is recorded either way; notification is best-effort
			e.Logger.Warn("warn notification failed", "chatID", intent.ChatID, "userID", intent.UserID, "err", err)
		}
	}
	return Result{Kind: ActionWarn, Success: true, WarningCount: count}
}

func (e *Engine) handleTrust(ctx context.Context, intent Intent) Result {
	if intent.ChatID != 0 {
		if err := e.Trust.SetTrustedInChat(ctx, intent.UserID, intent.ChatID); err != nil {
			return failedResult(ActionTrust, err.Error())
		}
	} else if err := e.Trust.SetTrusted(ctx, intent.UserID, true); err != nil {
		return failedResult(ActionTrust, err.Error())
	}
	// trusting a user forgives accumulated warnings
	if err := e.Warnings.Reset(ctx, intent.UserID); err != nil {
		e.Logger.Warn("resetting warnings on trust failed", "userID", intent.UserID, "err", err)
	}
	return Result{Kind: ActionTrust, Success: true}
}

func (e *Engine) handleUntrust(ctx context.Context, intent Intent) Result {
	if err := e.Trust.SetTrusted(ctx, intent.UserID, false); err != nil {
		return failedResult(ActionUntrust, err.Error())
	}
	return Result{Kind: ActionUntrust, Success: true}
}

func (e *Engine) handleRevokeTrust(ctx context.Context, intent Intent) Result {
	var chatID *int64
	if intent.ChatID != 0 {
		chatID = &intent.ChatID
	}
	if err := e.Trust.ExpireTrustsForUser(ctx, intent.UserID, chatID); err != nil {
		return failedResult(ActionRevokeTrust, err.Error())
	}
	return Result{Kind: ActionRevokeTrust, Success: true}
}

func (e *Engine) handleDelete(ctx context.Context, intent Intent) Result {
	if err := e.Platform.DeleteMessage(ctx, intent.ChatID, intent.MessageID); err != nil {
		return failedResult(ActionDelete, fmt.Sprintf("deleting message: %v", err))
	}
	return Result{Kind: ActionDelete, Success: true, MessageDeleted: true}
}

// Spam verdict path: remove the offending message where it was posted, then
// ban across all chats.
func (e *Engine) handleMarkAsSpamAndBan(ctx context.Context, intent Intent) Result {
	deleted := false
	if intent.MessageID != 0 {
		if err := e.Platform.DeleteMessage(ctx, intent.ChatID, intent.MessageID); err != nil {
			e.Logger.Warn("deleting spam message failed", "chatID", intent.ChatID, "messageID", intent.MessageID, "err", err)
		} else {
			deleted = true
		}
	}
	ct := e.ExecuteAcrossTargets(ctx, "spam-ban", func(ctx context.Context, t Target) error {
		return e.Platform.BanMember(ctx, t.ID, intent.UserID, time.Time{})
	})
	res := resultFromCrossTarget(ActionMarkAsSpamAndBan, ct)
	res.MessageDeleted = deleted
	res.ShouldRevokeTrust = res.Success
	return res
}

func resultFromCrossTarget(kind ActionKind, ct CrossTargetResult) Result {
	res := Result{
		Kind:          kind,
		Success:       ct.Succeeded > 0,
		ChatsAffected: ct.Succeeded,
		ChatsFailed:   ct.Failed,
		ChatsSkipped:  ct.Skipped,
	}
	if !res.Success {
		res.ErrorMessage = fmt.Sprintf("action did not succeed in any chat (%d failed, %d skipped)", ct.Failed, ct.Skipped)
	}
	return res
}

package moderation

import (
	"context"
	"fmt"

	"github.com/groupwarden/warden/moderation/auditstore"
	"github.com/groupwarden/warden/moderation/refetch"
	"github.com/groupwarden/warden/moderation/warnstore"
)

func recoveredError(r any) error {
	return fmt.Errorf("handler panicked: %v", r)
}

// Records every completed action in the audit sink. Runs first so the audit
// trail survives failures in later handlers.
func AuditHandler(sink auditstore.AuditSink) EventHandler {
	return EventHandler{
		Name:     "audit",
		Priority: 10,
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			entry := auditstore.Entry{
				Action:         string(evt.Kind),
				UserID:         evt.UserID,
				ActorLabel:     evt.Actor.String(),
				Reason:         evt.Reason,
				ChatID:         evt.ChatID,
				MessageID:      evt.MessageID,
				ChatsAffected:  evt.ChatsAffected,
				ChatsFailed:    evt.ChatsFailed,
				WarningCount:   evt.WarningCount,
				TrustRevoked:   evt.TrustRevoked,
				MessageDeleted: evt.MessageDeleted,
				CreatedAt:      evt.CreatedAt,
			}
			return FollowUpNone, sink.Record(ctx, &entry)
		},
	}
}

// Requests a ban follow-up once a user's warning count reaches the
// threshold. Only the request is made here; executing the ban is the
// caller's decision.
func EscalationHandler(warnings warnstore.WarnStore, threshold int) EventHandler {
	return EventHandler{
		Name:     "escalation",
		Priority: 20,
		Kinds:    []ActionKind{ActionWarn},
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			count := evt.WarningCount
			if count == 0 {
				var err error
				count, err = warnings.Count(ctx, evt.UserID)
				if err != nil {
					return FollowUpNone, err
				}
			}
			if threshold > 0 && count >= threshold {
				return FollowUpBan, nil
			}
			return FollowUpNone, nil
		},
	}
}

// Posts a short summary of ban-flavored outcomes to an admin chat.
func NotifierHandler(platform ChatPlatform, adminChatID int64) EventHandler {
	return EventHandler{
		Name:     "notifier",
		Priority: 30,
		Kinds:    []ActionKind{ActionBan, ActionTempBan, ActionMarkAsSpamAndBan, ActionRestrict},
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			if adminChatID == 0 {
				return FollowUpNone, nil
			}
			text := fmt.Sprintf("%s user %d by %s: %s (%d chats, %d failed)",
				evt.Kind, evt.UserID, evt.Actor.String(), evt.Reason, evt.ChatsAffected, evt.ChatsFailed)
			return FollowUpNone, platform.SendMessage(ctx, adminChatID, text)
		},
	}
}

// Queues a best-effort profile-image fetch for users hit by spam actions,
// so reviewers have the evidence even after the account scrubs itself.
func RefetchHandler(fetcher *refetch.Fetcher) EventHandler {
	return EventHandler{
		Name:     "refetch",
		Priority: 40,
		Kinds:    []ActionKind{ActionBan, ActionMarkAsSpamAndBan},
		Handle: func(ctx context.Context, evt *Event) (FollowUpKind, error) {
			req := refetch.Request{
				TargetID: evt.UserID,
				SubKind:  "avatar",
				Kind:     refetch.KindProfileImage,
			}
			if !fetcher.Enqueue(req) {
				// duplicate, already queued; fine
				return FollowUpNone, nil
			}
			return FollowUpNone, nil
		},
	}
}

package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groupwarden/warden/moderation/detect"
	"github.com/groupwarden/warden/moderation/refetch"
)

// Processor ties the pipeline together: score a message, execute the
// resulting action, dispatch side effects, and honor at most one follow-up.
// It is "the caller" in the handler and dispatcher contracts.
type Processor struct {
	Logger     *slog.Logger
	Engine     *Engine
	Scorer     *detect.Aggregator
	Dispatcher *Dispatcher
	// Optional; review-decision content fetches are skipped when nil.
	Fetcher *refetch.Fetcher
}

// ProcessMessage scores one inbound message and acts on the decision.
// Trusted users bypass scoring entirely.
func (p *Processor) ProcessMessage(ctx context.Context, msg *detect.Message) (*detect.Verdict, *Result, error) {
	trusted, err := p.Engine.Trust.IsTrusted(ctx, msg.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("checking trust: %w", err)
	}
	if trusted {
		return &detect.Verdict{Decision: detect.DecisionPass}, nil, nil
	}

	verdict := p.Scorer.Score(ctx, msg)
	switch verdict.Decision {
	case detect.DecisionPass:
		return &verdict, nil, nil
	case detect.DecisionReview:
		// stash the content for the review queue before it can be edited away
		if p.Fetcher != nil {
			p.Fetcher.Enqueue(refetch.Request{
				TargetID: msg.MessageID,
				SubKind:  fmt.Sprintf("chat-%d", msg.ChatID),
				Kind:     refetch.KindContent,
			})
		}
		return &verdict, nil, nil
	case detect.DecisionAutoBan:
		intent := Intent{
			Kind:      ActionMarkAsSpamAndBan,
			UserID:    msg.UserID,
			Actor:     SystemActor(),
			Reason:    fmt.Sprintf("spam detected (confidence %.1f)", verdict.Score),
			ChatID:    msg.ChatID,
			MessageID: msg.MessageID,
		}
		res := p.ExecuteIntent(ctx, intent)
		return &verdict, &res, nil
	}
	return &verdict, nil, nil
}

// ExecuteIntent runs the full action lifecycle: handle, chain revoke-trust
// when the result asks for it, dispatch side effects, and execute at most
// one follow-up intent. Follow-ups get their own dispatch pass, but any
// follow-up requests from that pass are not executed again.
func (p *Processor) ExecuteIntent(ctx context.Context, intent Intent) Result {
	res := p.Engine.HandleIntent(ctx, intent)

	trustRevoked := false
	if res.ShouldRevokeTrust {
		revoke := Intent{
			Kind:   ActionRevokeTrust,
			UserID: intent.UserID,
			Actor:  intent.Actor,
			Reason: fmt.Sprintf("chained after %s", intent.Kind),
		}
		rr := p.Engine.HandleIntent(ctx, revoke)
		trustRevoked = rr.Success
		if !rr.Success {
			p.Logger.Error("chained revoke-trust failed", "userID", intent.UserID, "err", rr.ErrorMessage)
		}
	}

	evt := EventFromResult(intent, res)
	// the chained revocation is part of this action's outcome; the event and
	// audit trail must carry it
	if trustRevoked {
		evt.TrustRevoked = true
	}
	dr := p.Dispatcher.Dispatch(ctx, &evt)
	if dr.FollowUp == FollowUpNone {
		return res
	}
	if dr.FollowUp == FollowUpBan && intent.Kind != ActionBan {
		p.Logger.Info("executing follow-up", "followUp", dr.FollowUp, "userID", intent.UserID, "reason", dr.Reason)
		fuIntent := Intent{
			Kind:   ActionBan,
			UserID: intent.UserID,
			Actor:  SystemActor(),
			Reason: dr.Reason,
		}
		fuRes := p.Engine.HandleIntent(ctx, fuIntent)
		fuEvt := EventFromResult(fuIntent, fuRes)
		if fuRes.ShouldRevokeTrust {
			revoke := Intent{
				Kind:   ActionRevokeTrust,
				UserID: intent.UserID,
				Actor:  SystemActor(),
				Reason: "chained after follow-up ban",
			}
			rr := p.Engine.HandleIntent(ctx, revoke)
			fuEvt.TrustRevoked = rr.Success
		}
		// dispatch the follow-up's own event; further follow-ups are not
		// honored, preventing recursion
		p.Dispatcher.Dispatch(ctx, &fuEvt)
	}
	return res
}

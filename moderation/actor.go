package moderation

import "fmt"

// Who initiated a moderation action. Constructed at call sites and carried
// on intents and events; never persisted by this package.
type ActorKind string

const (
	// Automated decisions (detector verdicts, escalations, scheduled cleanup)
	ActorSystem ActorKind = "system"
	// A moderator acting through the web admin panel
	ActorWeb ActorKind = "web"
	// A moderator acting from inside a chat (eg, via bot command)
	ActorChat ActorKind = "chat"
)

// Immutable
type Actor struct {
	Kind ActorKind
	// User identifier on the originating surface. Zero for system actors.
	ID int64
	// Display name, best-effort. May be empty.
	Name string
}

func SystemActor() Actor {
	return Actor{Kind: ActorSystem}
}

func WebActor(id int64, name string) Actor {
	return Actor{Kind: ActorWeb, ID: id, Name: name}
}

func ChatActor(id int64, name string) Actor {
	return Actor{Kind: ActorChat, ID: id, Name: name}
}

func (a Actor) String() string {
	if a.Kind == ActorSystem {
		return "system"
	}
	if a.Name != "" {
		return fmt.Sprintf("%s:%s", a.Kind, a.Name)
	}
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

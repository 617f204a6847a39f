package cooldown

// ChatKind is the platform chat type a media event was posted in.
type ChatKind int

const (
	ChatKindUnknown ChatKind = iota
	ChatKindPrivate
	ChatKindGroup
	ChatKindSupergroup
	ChatKindChannel
)

// ParseChatKind maps a Telegram chat type string. Unknown values map to ChatKindUnknown.
func ParseChatKind(s string) ChatKind {
	switch s {
	case "private":
		return ChatKindPrivate
	case "group":
		return ChatKindGroup
	case "supergroup":
		return ChatKindSupergroup
	case "channel":
		return ChatKindChannel
	default:
		return ChatKindUnknown
	}
}

func (k ChatKind) String() string {
	switch k {
	case ChatKindPrivate:
		return "private"
	case ChatKindGroup:
		return "group"
	case ChatKindSupergroup:
		return "supergroup"
	case ChatKindChannel:
		return "channel"
	default:
		return "unknown"
	}
}

func (k ChatKind) moderated() bool {
	return k == ChatKindGroup || k == ChatKindSupergroup
}

type Kind int

const (
	Ignore Kind = iota
	Allow
	Delete
	DeleteAndWarn
)

func (k Kind) String() string {
	switch k {
	case Ignore:
		return "ignore"
	case Allow:
		return "allow"
	case Delete:
		return "delete"
	case DeleteAndWarn:
		return "delete_and_warn"
	default:
		return "unknown"
	}
}

// MessageKey names the warning to show for a DeleteAndWarn decision.
type MessageKey string

const (
	KeyNewMemberMedia MessageKey = "new_member_media"
	KeyMediaCooldown  MessageKey = "media_cooldown"
)

// Decision is the outcome of classifying one media event.
// MessageKey is only set when Kind is DeleteAndWarn.
type Decision struct {
	Kind       Kind
	MessageKey MessageKey
}

func (d Decision) ShouldDelete() bool {
	return d.Kind == Delete || d.Kind == DeleteAndWarn
}

func (d Decision) ShouldWarn() bool {
	return d.Kind == DeleteAndWarn
}

func (d Decision) String() string {
	if d.Kind == DeleteAndWarn {
		return d.Kind.String() + "(" + string(d.MessageKey) + ")"
	}
	return d.Kind.String()
}

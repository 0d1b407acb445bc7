package review

// A Proposal is an inbound request asking for a content update to be reviewed.
type Proposal struct {
	Username string        `json:"username" validate:"required"`
	Source   string        `json:"source"`
	Update   ContentUpdate `json:"update"`
}

// Action is the kind of change a content update makes.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// State is the review status of a content update.
type State string

const (
	StatePending  State = "PENDING"
	StateApproved State = "APPROVED"
	StateRejected State = "REJECTED"
)

// A ContentUpdate identifies the change under review.
type ContentUpdate struct {
	ID              int            `json:"id"`
	CreatedAt       string         `json:"created_at"`
	UserID          string         `json:"user_id" validate:"required"`
	Type            string         `json:"type" validate:"required"`
	RefID           *int           `json:"ref_id,omitempty"`
	Action          Action         `json:"action" validate:"required,oneof=CREATE UPDATE DELETE"`
	Data            map[string]any `json:"data"`
	ContentSourceID int            `json:"content_source_id"`
	Status          Status         `json:"status"`
	Upvotes         []Vote         `json:"upvotes"`
	Downvotes       []Vote         `json:"downvotes"`
	DiscordMsgID    string         `json:"discord_msg_id,omitempty"`
}

// Status records the outcome of a review once a reviewer has decided.
type Status struct {
	State           State  `json:"state" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	DiscordUserID   string `json:"discord_user_id,omitempty"`
	DiscordUserName string `json:"discord_user_name,omitempty"`
}

// A Vote is one entry of the upvote or downvote tally.
type Vote struct {
	DiscordUserID string `json:"discord_user_id"`
}

// ObjectName returns the display name of the object being changed: the
// string field "name" of the data payload when present, else the update type.
func (u ContentUpdate) ObjectName() string {
	if name, ok := u.Data["name"].(string); ok && name != "" {
		return name
	}
	return u.Type
}

// Emoji is a reaction emoji name as reported by the chat platform.
type Emoji string

// The four reviewer signals.
const (
	EmojiApprove  Emoji = "✅"
	EmojiReject   Emoji = "❌"
	EmojiUpvote   Emoji = "👍"
	EmojiDownvote Emoji = "👎"
)

// Affordances lists the reactions attached to every review card, in order.
var Affordances = []Emoji{EmojiApprove, EmojiReject, EmojiUpvote, EmojiDownvote}

// Kind is the decision carried by a Decision event.
type Kind string

const (
	KindApprove  Kind = "APPROVE"
	KindReject   Kind = "REJECT"
	KindUpvote   Kind = "UPVOTE"
	KindDownvote Kind = "DOWNVOTE"
)

// A Decision is the normalized output of a reaction event.
type Decision struct {
	MessageID string
	UserID    string
	UserName  string
	Kind      Kind
}

// A Channel is a chat channel the poster may send to.
type Channel struct {
	ID        string
	TextBased bool
}

// A Message is a chat message resolved to its full form.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
}

// A User is a chat user resolved to its full form.
type User struct {
	ID   string
	Name string
	Bot  bool
}

// A Reaction is one user's reaction on a message.
type Reaction struct {
	Emoji  Emoji
	UserID string
}

// A ReactionEvent is a raw reaction-add event. User is nil when the platform
// only delivered the user id.
type ReactionEvent struct {
	Emoji     Emoji
	UserID    string
	User      *User
	ChannelID string
	MessageID string
	GuildID   string
}

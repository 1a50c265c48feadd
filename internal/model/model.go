package model

// User is a registered account. Users are created at registration and never
// deleted. The password field holds an opaque bcrypt hash.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// Group is a named household/group chores can belong to. Names are trimmed
// and unique case-insensitively.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Chore is a named task, optionally scoped to a group. The same name may
// exist once per group and once ungrouped.
type Chore struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId,omitempty"`
}

// WeeklyGoal mirrors Chore's shape. Creating a goal also guarantees a chore
// with the same (name, group) exists.
type WeeklyGoal struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId,omitempty"`
}

// Log records one chore completion. UserID and ChoreID are weak references:
// referents are never deleted by normal operation, but reads tolerate missing
// ones. Ts is epoch milliseconds.
type Log struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	ChoreID string `json:"choreId"`
	Ts      int64  `json:"ts"`
}

// Document is the full persisted state: one JSON object with five array
// fields. Array order is preserved on round-trip; it carries chronology for
// logs and first-wins priority for the dedupe pass.
type Document struct {
	Users       []User       `json:"users"`
	Chores      []Chore      `json:"chores"`
	Logs        []Log        `json:"logs"`
	Groups      []Group      `json:"groups"`
	WeeklyGoals []WeeklyGoal `json:"weeklyGoals"`
}

// NewDocument returns an empty document with all five collections present.
func NewDocument() *Document {
	return &Document{
		Users:       []User{},
		Chores:      []Chore{},
		Logs:        []Log{},
		Groups:      []Group{},
		WeeklyGoals: []WeeklyGoal{},
	}
}

// LogEntry is a log joined with the names of its referents for read paths.
// Missing referents degrade to "unknown" (user, chore) or "" (group).
type LogEntry struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	ChoreID string `json:"choreId"`
	Ts      int64  `json:"ts"`
	User    string `json:"user,omitempty"`
	Chore   string `json:"chore"`
	Group   string `json:"group"`
}

// GoalEntry is a weekly goal joined with its group name.
type GoalEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// ChoreRank is a chore annotated with its group name for the top-chores view.
type ChoreRank struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

package store

import (
	"strings"
	"time"

	"library-assistant-be/pkg/utils"
)

const (
	// MaxHistory bounds the conversation turns kept per session.
	MaxHistory = 20
	// MaxSeen bounds the recently-viewed map.
	MaxSeen = 20

	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// Turn is one utterance in the conversation history.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SeenTitle is the summary kept for a catalog title surfaced to the user.
type SeenTitle struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Author string    `json:"author,omitempty"`
	SeenAt time.Time `json:"seen_at"`
}

// UserInfo is present when the patron is authenticated.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Session is the per-session memory. Seen is ordered oldest first, so the
// last element is the most recently viewed title.
type Session struct {
	Key       string      `json:"key"`
	User      *UserInfo   `json:"user,omitempty"`
	Seen      []SeenTitle `json:"seen"`
	History   []Turn      `json:"history"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewSession(key string) *Session {
	return &Session{Key: key}
}

// Clone returns a deep copy so a turn can read without sharing slices.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	c.Seen = append([]SeenTitle(nil), s.Seen...)
	c.History = append([]Turn(nil), s.History...)
	return &c
}

// Remember inserts or refreshes a title. Refreshing moves it to the most
// recent position.
func (s *Session) Remember(t SeenTitle) {
	if t.ID == "" {
		return
	}
	for i, seen := range s.Seen {
		if seen.ID == t.ID {
			s.Seen = append(s.Seen[:i], s.Seen[i+1:]...)
			break
		}
	}
	s.Seen = append(s.Seen, t)
	if len(s.Seen) > MaxSeen {
		s.Seen = s.Seen[len(s.Seen)-MaxSeen:]
	}
}

// MostRecent returns the last viewed title.
func (s *Session) MostRecent() (SeenTitle, bool) {
	if len(s.Seen) == 0 {
		return SeenTitle{}, false
	}
	return s.Seen[len(s.Seen)-1], true
}

// FindSeen matches a title from the recently-viewed map against the user's
// message or extracted query. An exact title match wins; otherwise the most
// recent title whose full name appears in the message is returned.
func (s *Session) FindSeen(message, query string) (SeenTitle, bool) {
	fq := utils.Fold(query)
	fm := utils.Fold(message)

	for i := len(s.Seen) - 1; i >= 0; i-- {
		if fq != "" && utils.Fold(s.Seen[i].Title) == fq {
			return s.Seen[i], true
		}
	}
	for i := len(s.Seen) - 1; i >= 0; i-- {
		title := strings.Join(utils.Words(utils.Fold(s.Seen[i].Title)), " ")
		if title != "" && utils.ContainsPhrase(fm, title) {
			return s.Seen[i], true
		}
	}
	return SeenTitle{}, false
}

// AppendTurn adds a message to the history, keeping the newest MaxHistory.
func (s *Session) AppendTurn(t Turn) {
	s.History = append(s.History, t)
	if len(s.History) > MaxHistory {
		s.History = s.History[len(s.History)-MaxHistory:]
	}
}

// Draft collects the changes one turn makes. Reads go through View, which
// already reflects the draft; Apply replays the changes onto the latest
// stored session at commit time.
type Draft struct {
	View *Session

	seen  []SeenTitle
	turns []Turn
	user  *UserInfo
}

// NewDraft starts a turn on a private copy of snapshot.
func NewDraft(snapshot *Session) *Draft {
	return &Draft{View: snapshot.Clone()}
}

func (d *Draft) Remember(t SeenTitle) {
	d.seen = append(d.seen, t)
	d.View.Remember(t)
}

func (d *Draft) AppendTurn(t Turn) {
	d.turns = append(d.turns, t)
	d.View.AppendTurn(t)
}

func (d *Draft) SetUser(u *UserInfo) {
	if u == nil {
		return
	}
	copied := *u
	d.user = &copied
	d.View.User = &copied
}

// Empty reports whether the turn changed nothing.
func (d *Draft) Empty() bool {
	return len(d.seen) == 0 && len(d.turns) == 0 && d.user == nil
}

// Apply replays the draft onto s.
func (d *Draft) Apply(s *Session, now time.Time) {
	if d.user != nil {
		u := *d.user
		s.User = &u
	}
	for _, t := range d.seen {
		s.Remember(t)
	}
	for _, t := range d.turns {
		s.AppendTurn(t)
	}
	s.UpdatedAt = now
}

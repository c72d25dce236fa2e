package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRemember(t *testing.T) {
	s := NewSession("library:abc")
	s.Remember(SeenTitle{ID: "ID-1", Title: "Dế Mèn Phiêu Lưu Ký"})
	s.Remember(SeenTitle{ID: "ID-42", Title: "1984"})
	s.Remember(SeenTitle{ID: "ID-1", Title: "Dế Mèn Phiêu Lưu Ký"})

	require.Len(t, s.Seen, 2)
	recent, ok := s.MostRecent()
	require.True(t, ok)
	assert.Equal(t, "ID-1", recent.ID)
	assert.Equal(t, "ID-42", s.Seen[0].ID)

	s.Remember(SeenTitle{})
	assert.Len(t, s.Seen, 2)
}

func TestSessionCaps(t *testing.T) {
	s := NewSession("k")
	for i := 0; i < MaxSeen+5; i++ {
		s.Remember(SeenTitle{ID: fmt.Sprintf("ID-%d", i)})
	}
	for i := 0; i < MaxHistory+3; i++ {
		s.AppendTurn(Turn{Role: RoleHuman, Content: fmt.Sprint(i)})
	}

	assert.Len(t, s.Seen, MaxSeen)
	assert.Equal(t, "ID-5", s.Seen[0].ID)
	assert.Len(t, s.History, MaxHistory)
	assert.Equal(t, "3", s.History[0].Content)
}

func TestSessionFindSeen(t *testing.T) {
	s := NewSession("k")
	s.Remember(SeenTitle{ID: "ID-42", Title: "1984"})
	s.Remember(SeenTitle{ID: "ID-7", Title: "Nhà Giả Kim"})

	tests := []struct {
		name    string
		message string
		query   string
		wantID  string
		wantOK  bool
	}{
		{"exact query", "Sách 1984 còn không?", "1984", "ID-42", true},
		{"title inside message without accents", "nha gia kim con ko", "", "ID-7", true},
		{"deictic has no title", "còn sách đó không", "", "", false},
		{"unknown title", "Sách Tắt Đèn còn không?", "Tắt Đèn", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.FindSeen(tt.message, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestDraftIsIsolatedUntilApplied(t *testing.T) {
	stored := NewSession("k")
	stored.Remember(SeenTitle{ID: "ID-1", Title: "A"})

	d := NewDraft(stored)
	d.Remember(SeenTitle{ID: "ID-42", Title: "1984"})
	d.AppendTurn(Turn{Role: RoleHuman, Content: "hi"})
	d.SetUser(&UserInfo{ID: "u-1"})

	assert.Len(t, stored.Seen, 1, "draft must not leak into the stored session")
	assert.Empty(t, stored.History)
	recent, _ := d.View.MostRecent()
	assert.Equal(t, "ID-42", recent.ID)
	assert.False(t, d.Empty())

	// Another turn committed meanwhile.
	stored.Remember(SeenTitle{ID: "ID-9", Title: "Other"})

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d.Apply(stored, now)

	require.Len(t, stored.Seen, 3)
	assert.Equal(t, "ID-42", stored.Seen[2].ID)
	assert.Len(t, stored.History, 1)
	assert.Equal(t, "u-1", stored.User.ID)
	assert.Equal(t, now, stored.UpdatedAt)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewSession("k")
	s.User = &UserInfo{ID: "u"}
	s.Remember(SeenTitle{ID: "a"})

	c := s.Clone()
	c.User.ID = "changed"
	c.Seen[0].ID = "changed"

	assert.Equal(t, "u", s.User.ID)
	assert.Equal(t, "a", s.Seen[0].ID)
	assert.Nil(t, (*Session)(nil).Clone())
}

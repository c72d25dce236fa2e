package router

import (
	"testing"
)

func TestParseLibraryRequest(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantAction  Action
		wantQuery   string
		wantDeictic bool
		wantID      string
	}{
		{
			name:       "availability with title",
			message:    "Sách 1984 còn không?",
			wantAction: ActionAvailability,
			wantQuery:  "1984",
		},
		{
			name:       "availability without accents",
			message:    "sach nha gia kim con ko",
			wantAction: ActionAvailability,
			wantQuery:  "nha gia kim",
		},
		{
			name:        "deictic follow-up",
			message:     "còn sách đó không",
			wantAction:  ActionAvailability,
			wantQuery:   "",
			wantDeictic: true,
		},
		{
			name:       "discovery by topic",
			message:    "Tìm sách về lập trình Go",
			wantAction: ActionDiscovery,
			wantQuery:  "lập trình Go",
		},
		{
			name:       "discovery and availability",
			message:    "Có sách nào về kinh tế học còn không?",
			wantAction: ActionDiscoveryAvailability,
			wantQuery:  "kinh tế học",
		},
		{
			name:       "quoted title keeps its words",
			message:    `Cuốn "Không gia đình" còn không?`,
			wantAction: ActionAvailability,
			wantQuery:  "Không gia đình",
		},
		{
			name:       "wiki title",
			message:    "[[Bố già]] mượn được không",
			wantAction: ActionAvailability,
			wantQuery:  "Bố già",
		},
		{
			name:       "explicit identifier",
			message:    "@book:ID-42 thì sao?",
			wantAction: ActionAvailability,
			wantQuery:  "thì sao",
			wantID:     "ID-42",
		},
		{
			name:       "english availability",
			message:    "Is The Hobbit available?",
			wantAction: ActionAvailability,
			wantQuery:  "The Hobbit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLibraryRequest(tt.message)

			if got.Action != tt.wantAction {
				t.Errorf("Action = %s, want %s", got.Action, tt.wantAction)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Deictic != tt.wantDeictic {
				t.Errorf("Deictic = %v, want %v", got.Deictic, tt.wantDeictic)
			}
			if got.ExplicitID != tt.wantID {
				t.Errorf("ExplicitID = %q, want %q", got.ExplicitID, tt.wantID)
			}
		})
	}
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Sách 1984 còn không?", "1984"},
		{"  giúp mình tìm cuốn Dế Mèn Phiêu Lưu Ký nhé!", "Dế Mèn Phiêu Lưu Ký"},
		{"còn không", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := extractQuery(tt.text); got != tt.want {
				t.Errorf("extractQuery(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestLibraryRequestEmpty(t *testing.T) {
	if !ParseLibraryRequest("   ").Empty() {
		t.Error("blank message should be empty")
	}
	if ParseLibraryRequest("1984").Empty() {
		t.Error("title-only message should not be empty")
	}
}

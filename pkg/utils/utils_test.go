package utils

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Còn sách đó không?", "con sach do khong?"},
		{"Tóm tắt   TOÀN BỘ", "tom tat toan bo"},
		{"Chương 2 nói gì", "chuong 2 noi gi"},
		{"Đường Xưa Mây Trắng", "duong xua may trang"},
		{"plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, ContainsPhrase("con sach do khong?", "sach do"))
	assert.True(t, ContainsPhrase("tom tat toan bo", "tom tat"))
	assert.False(t, ContainsPhrase("sach doremon", "sach do"))
	assert.False(t, ContainsPhrase("anything", ""))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON("Sure! ```json\n{\"a\":1}\n```"))
	assert.Equal(t, "", ExtractJSON("no json here"))
	assert.Equal(t, "", ExtractJSON("} backwards {"))
}

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitText("hello", 100, 10))
	})

	t.Run("long text respects chunk size", func(t *testing.T) {
		text := strings.Repeat("thư viện số ", 50)
		chunks := SplitText(text, 40, 8)

		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 40)
		}
		assert.True(t, strings.HasPrefix(text, chunks[0]))
		assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	})

	t.Run("overlap larger than size is ignored", func(t *testing.T) {
		chunks := SplitText(strings.Repeat("a", 25), 10, 50)
		assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 5)}, chunks)
	})
}

func TestRetryOnce(t *testing.T) {
	errFlaky := errors.New("flaky")
	errFatal := errors.New("fatal")
	retryable := func(err error) bool { return errors.Is(err, errFlaky) }

	t.Run("succeeds on second attempt", func(t *testing.T) {
		calls := 0
		got, err := RetryOnce(context.Background(), retryable, func(ctx context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, errFlaky
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		calls := 0
		_, err := RetryOnce(context.Background(), retryable, func(ctx context.Context) (int, error) {
			calls++
			return 0, errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 2, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		_, err := RetryOnce(context.Background(), retryable, func(ctx context.Context) (int, error) {
			calls++
			return 0, errFatal
		})
		assert.ErrorIs(t, err, errFatal)
		assert.Equal(t, 1, calls)
	})
}

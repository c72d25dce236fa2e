package response

import (
	"errors"
	"fmt"
	"strings"

	"library-assistant-be/pkg/rag"
	"library-assistant-be/pkg/rag/search"
	"library-assistant-be/pkg/store"
)

// Fixed replies. These never come from the LLM so they cannot drift.
const (
	MsgNotInMaterial    = "Mình không tìm thấy thông tin này trong tài liệu. Bạn thử hỏi cụ thể hơn hoặc dùng từ khóa khác nhé."
	MsgDocumentAbsent   = "Mình chưa tìm thấy tài liệu này. Bạn kiểm tra lại tài liệu đã được tải lên chưa nhé."
	MsgDocumentIndexing = "Tài liệu này đang được xử lý nên mình chưa đọc được nội dung. Bạn vui lòng hỏi lại sau ít phút nhé."
	MsgDocumentFailed   = "Tài liệu này xử lý chưa thành công nên mình không đọc được nội dung. Bạn vui lòng tải lại tài liệu nhé."
	MsgClarify          = "Bạn đang hỏi về cuốn sách nào vậy? Bạn cho mình biết tên sách để mình kiểm tra nhé."
	MsgApology          = "Xin lỗi, hệ thống đang gặp sự cố nên mình chưa trả lời được. Bạn vui lòng thử lại sau nhé."
	MsgTryAgain         = "Xin lỗi, hệ thống phản hồi quá lâu. Bạn vui lòng thử lại sau ít phút nhé."
	MsgEmptyQuestion    = "Bạn muốn hỏi gì về sách hoặc tài liệu? Mình sẵn sàng giúp."
)

// NotInCatalog is used when the title does not exist at all.
func NotInCatalog(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Thư viện hiện không có cuốn sách bạn tìm."
	}
	return fmt.Sprintf("Thư viện hiện không có sách \"%s\" trong danh mục. Bạn thử tìm bằng tên khác hoặc tên tác giả nhé.", query)
}

// Availability renders a copy count. Zero available copies of an existing
// title is "currently unavailable", never "not in catalog".
func Availability(s store.AvailabilityStatus) string {
	switch {
	case s.Total == 0:
		return fmt.Sprintf("Sách \"%s\" có trong danh mục nhưng thư viện chưa có bản nào để cho mượn.", s.Title)
	case s.Available == 0:
		return fmt.Sprintf("Sách \"%s\" hiện đang tạm hết: cả %d bản đều đang được mượn. Bạn quay lại sau nhé.", s.Title, s.Total)
	default:
		return fmt.Sprintf("Sách \"%s\" hiện còn %d/%d bản có thể mượn.", s.Title, s.Available, s.Total)
	}
}

// Discovery lists search results in rank order.
func Discovery(query string, titles []search.ScoredTitle) string {
	if len(titles) == 0 {
		return NotInCatalog(query)
	}

	var b strings.Builder
	if len(titles) == 1 {
		b.WriteString("Mình tìm thấy 1 cuốn sách phù hợp:\n")
	} else {
		fmt.Fprintf(&b, "Mình tìm thấy %d cuốn sách phù hợp:\n", len(titles))
	}
	for i, t := range titles {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
		if t.Author != "" {
			fmt.Fprintf(&b, " - %s", t.Author)
		}
		b.WriteString("\n")
	}
	b.WriteString("Bạn muốn kiểm tra tình trạng mượn của cuốn nào?")
	return b.String()
}

// DiscoveryWithAvailability lists results with their copy counts. Titles
// missing from statuses are listed without a count.
func DiscoveryWithAvailability(query string, titles []search.ScoredTitle, statuses map[string]store.AvailabilityStatus) string {
	if len(titles) == 0 {
		return NotInCatalog(query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Mình tìm thấy %d cuốn sách phù hợp:\n", len(titles))
	for i, t := range titles {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
		if t.Author != "" {
			fmt.Fprintf(&b, " - %s", t.Author)
		}
		if s, ok := statuses[t.ID]; ok {
			switch {
			case s.Available > 0:
				fmt.Fprintf(&b, " (còn %d/%d bản)", s.Available, s.Total)
			case s.Total > 0:
				b.WriteString(" (tạm hết)")
			default:
				b.WriteString(" (chưa có bản cho mượn)")
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// ForError maps a classified failure to its user-facing text. Unclassified
// errors get the generic apology.
func ForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rag.ErrAmbiguousReference), errors.Is(err, rag.ErrMissingIdentifier):
		return MsgClarify
	case errors.Is(err, rag.ErrUpstreamTimeout):
		return MsgTryAgain
	case errors.Is(err, rag.ErrNoGroundingFound):
		return MsgNotInMaterial
	case errors.Is(err, rag.ErrNotFound):
		return NotInCatalog("")
	default:
		return MsgApology
	}
}

package response

import (
	"fmt"
	"strings"

	"library-assistant-be/pkg/rag/intent"
	"library-assistant-be/pkg/store"
)

const systemPrompt = `Bạn là trợ lý thư viện. Bạn trả lời câu hỏi về tài liệu PDF mà người dùng đang đọc.
Luôn trả lời bằng tiếng Việt, rõ ràng và ngắn gọn.`

func buildEvidencePrompt(question string, strategy intent.Strategy, chunks []store.Chunk) string {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	for i, c := range chunks {
		fmt.Fprintf(&prompt, "--- ĐOẠN %d (trang %d", i+1, c.Page)
		if c.Heading != "" {
			fmt.Fprintf(&prompt, ", mục: %s", c.Heading)
		}
		prompt.WriteString(") ---\n")
		prompt.WriteString(strings.TrimSpace(c.Text))
		prompt.WriteString("\n")
	}
	prompt.WriteString("</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	switch strategy {
	case intent.Summary:
		prompt.WriteString("Tóm tắt nội dung chính của toàn bộ tài liệu dựa trên các đoạn trích trải đều ở trên.\n")
	case intent.SectionLookup:
		prompt.WriteString("Trình bày nội dung của phần/chương được hỏi theo đúng thứ tự xuất hiện trong tài liệu.\n")
	default:
		prompt.WriteString("Trả lời câu hỏi dựa trên các đoạn trích liên quan ở trên.\n")
	}
	prompt.WriteString("QUY TẮC:\n")
	prompt.WriteString("1. CHỈ dùng thông tin trong <grounded_reference_material>. Không dùng kiến thức bên ngoài.\n")
	prompt.WriteString("2. Nếu các đoạn trích không chứa câu trả lời, trả về answer rỗng.\n")
	prompt.WriteString("3. KHÔNG chèn ký hiệu trích dẫn như [1] hay [ref_1] vào câu trả lời.\n")
	prompt.WriteString("4. Trong trường used, liệt kê số thứ tự các ĐOẠN bạn đã dùng.\n")
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString(`Chỉ trả về một đối tượng JSON: {"answer": "...", "used": [1, 2]}`)
	prompt.WriteString("\n\nCÂU HỎI: ")
	prompt.WriteString(question)
	return prompt.String()
}

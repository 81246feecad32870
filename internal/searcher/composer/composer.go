// Package composer renders an answer plan as the text returned to the caller.
package composer

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/executor"
)

const (
	NotIndexedMessage = "❌ No PDF indexed. Please upload a PDF first."
	NotFoundMessage   = "⚠️ The document does not contain information related to this question."
	OverviewHeader    = "📘 Document Overview (from content):\n\n"
	AnswerHeader      = "📘 Answer (from document):\n\n"
	bullet            = "• "
)

// Compose formats plan. It never fails and has no side effects.
func Compose(plan *executor.Plan) string {
	if plan == nil {
		return NotIndexedMessage
	}
	switch plan.Kind {
	case executor.KindNotIndexed:
		return NotIndexedMessage
	case executor.KindNotFound:
		return NotFoundMessage
	case executor.KindOverview:
		return OverviewHeader + bullets(plan)
	default:
		return AnswerHeader + bullets(plan)
	}
}

func bullets(plan *executor.Plan) string {
	var b strings.Builder
	for i, u := range plan.Units {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(bullet)
		b.WriteString(u.Unit.Text)
	}
	return b.String()
}

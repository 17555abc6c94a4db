package analyzer

import (
	"web-page-analyzer/internal/entity"
	"web-page-analyzer/pkg/apperr"
)

// AnalyzeStructure aggregates page-level landmark and media counts.
// Pure aggregation over the parsed tree; no per-element classification.
func AnalyzeStructure(doc Document) (*entity.PageStructure, error) {
	const op = "AnalyzeStructure"

	forms, err := doc.Forms()
	if err != nil {
		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "form_enumeration_failed",
			apperr.MetaStage:  apperr.StageStructure,
		})
	}

	structure := &entity.PageStructure{
		Forms:     forms,
		FormCount: len(forms),
	}

	counts := []struct {
		selector string
		target   *int
	}{
		{"nav", &structure.Navigation},
		{"header", &structure.Headers},
		{"footer", &structure.Footers},
		{"main", &structure.Mains},
		{"article", &structure.Articles},
		{"section", &structure.Sections},
		{"img", &structure.Images},
		{"video", &structure.Videos},
	}

	for _, c := range counts {
		n, err := doc.Count(c.selector)
		if err != nil {
			return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
				apperr.MetaReason:   "count_failed",
				apperr.MetaStage:    apperr.StageStructure,
				apperr.MetaSelector: c.selector,
			})
		}

		*c.target = n
	}

	return structure, nil
}

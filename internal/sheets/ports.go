package sheets

import (
	"context"

	"mintward/internal/core"
)

// Ports for outbound template adapters.
type (
	// TemplateReader loads the budget template that drives classification
	// and projection. Implementations must return the template as stored;
	// validation happens in the pipeline.
	TemplateReader interface {
		ReadTemplate(ctx context.Context) (core.BudgetTemplate, error)
	}
)

package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mintward/internal/core"
	ports "mintward/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the budget template from a Google spreadsheet. The template
// lives on three sheets: two rule tables (Subgroup, Column, Pattern) and the
// expected-amount table (Subgroup, Expected).
type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	recurringSheet   string
	investmentsSheet string
	budgetSheet      string
}

// Ensure interface conformance
var _ ports.TemplateReader = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_RECURRING_SHEET_NAME (default "Recurring"),
// GOOGLE_INVESTMENTS_SHEET_NAME (default "Investments"),
// GOOGLE_BUDGET_SHEET_NAME (default "Budget").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	recurring := strings.TrimSpace(os.Getenv("GOOGLE_RECURRING_SHEET_NAME"))
	if recurring == "" {
		recurring = "Recurring"
	}
	investments := strings.TrimSpace(os.Getenv("GOOGLE_INVESTMENTS_SHEET_NAME"))
	if investments == "" {
		investments = "Investments"
	}
	budget := strings.TrimSpace(os.Getenv("GOOGLE_BUDGET_SHEET_NAME"))
	if budget == "" {
		budget = "Budget"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		recurringSheet:   recurring,
		investmentsSheet: investments,
		budgetSheet:      budget,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTemplate fetches and parses the three template sheets. Each run reads
// the spreadsheet fresh so edits take effect on the next report.
func (c *Client) ReadTemplate(ctx context.Context) (core.BudgetTemplate, error) {
	if c.svc == nil {
		return core.BudgetTemplate{}, errors.New("sheets service not initialized")
	}

	recurringRows, err := c.readSheet(ctx, c.recurringSheet, "A1:C1000")
	if err != nil {
		return core.BudgetTemplate{}, err
	}
	investmentRows, err := c.readSheet(ctx, c.investmentsSheet, "A1:C1000")
	if err != nil {
		return core.BudgetTemplate{}, err
	}
	budgetRows, err := c.readSheet(ctx, c.budgetSheet, "A1:B1000")
	if err != nil {
		return core.BudgetTemplate{}, err
	}

	recurring, err := parseRuleSheet(recurringRows)
	if err != nil {
		return core.BudgetTemplate{}, fmt.Errorf("parse sheet %s: %w", c.recurringSheet, err)
	}
	investments, err := parseRuleSheet(investmentRows)
	if err != nil {
		return core.BudgetTemplate{}, fmt.Errorf("parse sheet %s: %w", c.investmentsSheet, err)
	}
	items, err := parseBudgetSheet(budgetRows)
	if err != nil {
		return core.BudgetTemplate{}, fmt.Errorf("parse sheet %s: %w", c.budgetSheet, err)
	}

	slog.InfoContext(ctx, "Budget template loaded",
		"recurring_rules", recurring.Len(),
		"investment_rules", investments.Len(),
		"budget_rows", len(items))

	return core.BudgetTemplate{
		Recurring:   recurring,
		Investments: investments,
		LineItems:   items,
	}, nil
}

func (c *Client) readSheet(ctx context.Context, sheetName, cells string) ([][]interface{}, error) {
	rng := fmt.Sprintf("%s!%s", sheetName, cells)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

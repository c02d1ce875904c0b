package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/model"
)

// SheetName is the worksheet the ledger is exported to.
const SheetName = "Leads"

// SheetDateLayout is the day-first date format used in the shared sheet.
const SheetDateLayout = "02-01-2006"

// SheetColumns is the fixed 26-column layout of the shared sheet (A..Z).
// The "---" columns are visual separators and carry no data.
var SheetColumns = []string{
	"Company", "First Name", "Last Name", "Job Title", "Email", "Phone", "LinkedIn URL",
	"Enriched", "AI Status", "Mail Status", "Datum Mail", "Follow-up datum",
	"Reactie ontvangen", "Opmerking", "---",
	"Consultant", "Vestiging", "Type", "Gevallen", "Hoe kom je aan dit contact", "---",
	"Request ID", "Contact ID", "isShown", "AI Bericht", "AI Tokens",
}

const (
	colCompany = iota
	colFirstName
	colLastName
	colJobTitle
	colEmail
	colPhone
	colLinkedIn
	colEnriched
	colAIStatus
	colMailStatus
	colSentAt
	colFollowUp
	colReply
	colAnnotation
	_
	colConsultant
	colBranch
	colContactType
	colCases
	colChannel
	_
	colRequestID
	colContactID
	colShown
	colMessage
	colTokens
)

// SheetRowError reports a sheet row that could not be imported.
type SheetRowError struct {
	Row int // 1-based spreadsheet row, header is row 1
	Err error
}

func (e *SheetRowError) Error() string {
	return fmt.Sprintf("sheet row %d: %v", e.Row, e.Err)
}

func (e *SheetRowError) Unwrap() error { return e.Err }

// SheetRow renders a lead in SheetColumns order.
func SheetRow(l *model.Lead) []string {
	row := make([]string, len(SheetColumns))
	row[colCompany] = l.Company
	row[colFirstName] = l.FirstName
	row[colLastName] = l.LastName
	row[colJobTitle] = l.JobTitle
	row[colEmail] = l.Email
	row[colPhone] = l.Phone
	row[colLinkedIn] = l.LinkedInURL
	row[colEnriched] = string(l.EnrichStatus)
	row[colAIStatus] = string(l.AIStatus)
	row[colMailStatus] = string(l.MailStatus)
	row[colSentAt] = formatSheetDate(l.SentAt)
	row[colFollowUp] = formatSheetDate(l.FollowUpAt)
	row[colReply] = formatSheetBool(l.ReplyReceived)
	row[colAnnotation] = l.Annotation
	row[colConsultant] = l.Consultant
	row[colBranch] = l.Branch
	row[colContactType] = l.ContactType
	row[colCases] = l.Cases
	row[colChannel] = l.Channel
	row[colRequestID] = l.RequestID
	row[colContactID] = l.ContactID
	row[colShown] = formatSheetBool(l.Shown)
	row[colMessage] = l.Message
	if l.TokensUsed > 0 {
		row[colTokens] = strconv.FormatInt(l.TokensUsed, 10)
	}
	return row
}

// WriteSheet exports leads to an xlsx file in the shared sheet layout.
func WriteSheet(path string, leads []model.Lead) error {
	rows := make([][]string, len(leads))
	for i := range leads {
		rows[i] = SheetRow(&leads[i])
	}
	return eris.Wrap(fetcher.WriteXLSX(path, SheetName, SheetColumns, rows), "ledger: write sheet")
}

// ReadSheet imports leads from an xlsx or csv file in the shared sheet
// layout. Rows that cannot be parsed are skipped and reported as
// *SheetRowError; the returned error is only set when the file itself is
// unreadable. Imported leads carry no ID.
func ReadSheet(ctx context.Context, path string) ([]model.Lead, []error, error) {
	tbl, err := fetcher.ReadTable(ctx, path, fetcher.ReadOptions{SheetName: SheetName})
	if err != nil {
		// Exports from other tools often rename the sheet.
		tbl, err = fetcher.ReadTable(ctx, path, fetcher.ReadOptions{})
		if err != nil {
			return nil, nil, eris.Wrap(err, "ledger: read sheet")
		}
	}
	if fetcher.Cell(tbl.Header, colCompany) != SheetColumns[colCompany] {
		return nil, nil, eris.Errorf("ledger: read sheet: unexpected header %q in column A", fetcher.Cell(tbl.Header, colCompany))
	}

	var (
		leads   []model.Lead
		rowErrs []error
	)
	for i, row := range tbl.Rows {
		l, err := ParseSheetRow(row)
		if err != nil {
			rowErrs = append(rowErrs, &SheetRowError{Row: i + 2, Err: err})
			continue
		}
		leads = append(leads, l)
	}
	return leads, rowErrs, nil
}

// ParseSheetRow converts one row in SheetColumns order to a lead. Empty
// status cells read as PENDING.
func ParseSheetRow(row []string) (model.Lead, error) {
	cell := func(i int) string { return fetcher.Cell(row, i) }

	l := model.Lead{
		Company:     cell(colCompany),
		FirstName:   cell(colFirstName),
		LastName:    cell(colLastName),
		JobTitle:    cell(colJobTitle),
		Email:       model.NormalizeEmail(cell(colEmail)),
		Phone:       cell(colPhone),
		LinkedInURL: cell(colLinkedIn),
		Annotation:  cell(colAnnotation),
		Consultant:  cell(colConsultant),
		Branch:      cell(colBranch),
		ContactType: cell(colContactType),
		Cases:       cell(colCases),
		Channel:     cell(colChannel),
		RequestID:   cell(colRequestID),
		ContactID:   cell(colContactID),
		Message:     cell(colMessage),
	}
	if l.Company == "" {
		return l, eris.New("company is empty")
	}

	var ok bool
	if l.EnrichStatus, ok = model.ParseStageStatus(strings.ToUpper(cell(colEnriched))); !ok {
		return l, eris.Errorf("unknown enrich status %q", cell(colEnriched))
	}
	if l.AIStatus, ok = model.ParseStageStatus(strings.ToUpper(cell(colAIStatus))); !ok {
		return l, eris.Errorf("unknown AI status %q", cell(colAIStatus))
	}
	if l.MailStatus, ok = model.ParseMailStatus(strings.ToUpper(cell(colMailStatus))); !ok {
		return l, eris.Errorf("unknown mail status %q", cell(colMailStatus))
	}

	var err error
	if l.SentAt, err = parseSheetDate(cell(colSentAt)); err != nil {
		return l, eris.Wrap(err, "Datum Mail")
	}
	if l.FollowUpAt, err = parseSheetDate(cell(colFollowUp)); err != nil {
		return l, eris.Wrap(err, "Follow-up datum")
	}
	l.ReplyReceived = parseSheetBool(cell(colReply))
	l.Shown = parseSheetBool(cell(colShown))

	if raw := cell(colTokens); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return l, eris.Errorf("invalid AI tokens %q", raw)
		}
		l.TokensUsed = n
	}
	return l, nil
}

func formatSheetDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(SheetDateLayout)
}

func parseSheetDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(SheetDateLayout, s, time.Local)
	if err != nil {
		return nil, eris.Errorf("invalid date %q, want dd-mm-yyyy", s)
	}
	return &t, nil
}

func formatSheetBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func parseSheetBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "ja", "yes", "1", "x":
		return true
	default:
		return false
	}
}

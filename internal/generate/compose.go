package generate

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Default message blocks. Placeholders in braces are filled from the
// sender profile.
const (
	DefaultOpening = "Ik ben {sender_name}, student {study} aan de {university} " +
		"en werkzaam bij Young Advisory Group (YAG), een volledig studenten-gerund adviesbureau. " +
		"Omdat wij onze eigen acquisitie doen, ben ik actief op zoek naar bedrijven " +
		"waar onze kennis waarde kan toevoegen."

	DefaultPitch = `Met de Young Advisory Group (YAG) hebben we door de jaren heen veel verschillende projecten afgerond in veel verschillende industrieën. Om concrete voorbeelden te geven: recent hebben we gewerkt aan een project voor een bedrijf in de biertank industrie waarbij we geholpen hebben met de implementatie van een ERP systeem. Ook hebben we advies gegeven aan een grote dierentuin hoe zij het beste 'dynamic pricing' kon implementeren.

Graag zou ik willen voorstellen om een gesprek in te plannen, waarin we kennis kunnen maken en de mogelijkheden voor een eventuele samenwerking kunnen verkennen.

Ik hoor graag of dit schikt en bij verdere vragen ben ik altijd bereikbaar!`

	DefaultSignature = `Met vriendelijke groet,

{sender_name}
Strategy Consultant - Young Advisory Group
–––––––––––––––––––––––––
Vestiging {branch}
{sender_phone}
{sender_email} | www.youngadvisorygroup.nl`

	DefaultSubject = "Young Advisory Group x {company}"

	// PreviewPlaceholder stands in for the model output in dry runs.
	PreviewPlaceholder = "[AI CONNECTIEZINNEN KOMEN HIER]"

	defaultBranch = "Eindhoven-Tilburg"
	closingLine   = "Graag verken ik de mogelijkheden voor een samenwerking."
)

// Sender is the consultant profile the message is written for.
type Sender struct {
	Name       string `mapstructure:"name"`
	Email      string `mapstructure:"email"`
	Phone      string `mapstructure:"phone"`
	Study      string `mapstructure:"study"`
	University string `mapstructure:"university"`
}

// FirstName returns the first word of the sender's name.
func (s Sender) FirstName() string {
	if f := strings.Fields(s.Name); len(f) > 0 {
		return f[0]
	}
	return ""
}

// Templates overrides the fixed message blocks. Empty fields use the
// defaults.
type Templates struct {
	Opening   string `mapstructure:"opening"`
	Pitch     string `mapstructure:"pitch"`
	Signature string `mapstructure:"signature"`
	Subject   string `mapstructure:"subject"`
}

func (t Templates) withDefaults() Templates {
	if t.Opening == "" {
		t.Opening = DefaultOpening
	}
	if t.Pitch == "" {
		t.Pitch = DefaultPitch
	}
	if t.Signature == "" {
		t.Signature = DefaultSignature
	}
	if t.Subject == "" {
		t.Subject = DefaultSubject
	}
	return t
}

// Draft is a composed email.
type Draft struct {
	Subject      string
	Body         string
	Connection   string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Tokens       int64
}

// Composer assembles outreach emails.
type Composer struct {
	backend   Backend
	sender    Sender
	templates Templates
	maxTokens int64
}

// NewComposer creates a composer. backend may be nil when only previews
// and subjects are needed.
func NewComposer(backend Backend, sender Sender, templates Templates) *Composer {
	return &Composer{
		backend:   backend,
		sender:    sender,
		templates: templates.withDefaults(),
		maxTokens: DefaultMaxToken,
	}
}

// SetMaxTokens caps the model output. Values <= 0 keep DefaultMaxToken.
func (c *Composer) SetMaxTokens(n int64) {
	if n > 0 {
		c.maxTokens = n
	}
}

// ValidateLead checks the fields a message cannot be written without.
func ValidateLead(l *model.Lead) error {
	switch {
	case strings.TrimSpace(l.Company) == "":
		return eris.New("generate: company name is required")
	case strings.TrimSpace(l.FirstName) == "":
		return eris.New("generate: first name is required")
	}
	return nil
}

// Compose asks the backend for connection sentences and assembles the full
// message.
func (c *Composer) Compose(ctx context.Context, l *model.Lead) (Draft, error) {
	if err := ValidateLead(l); err != nil {
		return Draft{}, err
	}
	if c.backend == nil {
		return Draft{}, eris.New("generate: no model backend configured")
	}

	out, err := c.backend.Complete(ctx, Prompt{
		System:    systemPrompt,
		User:      connectionPrompt(c.sender, l.FirstName, l.JobTitle, l.Company),
		MaxTokens: c.maxTokens,
		LeadID:    l.ID,
	})
	if err != nil {
		return Draft{}, err
	}
	text := cleanConnection(out.Text)
	if text == "" {
		return Draft{}, eris.Errorf("generate: %s returned an empty response", c.backend.Name())
	}

	return Draft{
		Subject:      c.Subject(l.Company),
		Body:         c.assemble(l, text),
		Connection:   text,
		Model:        out.Model,
		InputTokens:  out.InputTokens,
		OutputTokens: out.OutputTokens,
		Tokens:       out.Tokens(),
	}, nil
}

// Preview assembles the message with a placeholder instead of calling the
// model.
func (c *Composer) Preview(l *model.Lead) (Draft, error) {
	if err := ValidateLead(l); err != nil {
		return Draft{}, err
	}
	return Draft{
		Subject:    c.Subject(l.Company),
		Body:       c.assemble(l, PreviewPlaceholder),
		Connection: PreviewPlaceholder,
	}, nil
}

// Subject renders the subject line for company.
func (c *Composer) Subject(company string) string {
	company = strings.TrimSpace(company)
	if company == "" {
		company = "jullie"
	}
	return strings.NewReplacer("{company}", company).Replace(c.templates.Subject)
}

func (c *Composer) assemble(l *model.Lead, connection string) string {
	branch := l.Branch
	if branch == "" {
		branch = defaultBranch
	}
	r := strings.NewReplacer(
		"{sender_name}", c.sender.Name,
		"{sender_email}", c.sender.Email,
		"{sender_phone}", c.sender.Phone,
		"{study}", c.sender.Study,
		"{university}", c.sender.University,
		"{branch}", branch,
		"{company}", l.Company,
	)

	lines := []string{
		"Beste " + strings.TrimSpace(l.FirstName) + ",",
		"",
		r.Replace(c.templates.Opening) + " " + connection + " " + closingLine,
		"",
		r.Replace(c.templates.Pitch),
		"",
		r.Replace(c.templates.Signature),
	}
	return strings.Join(lines, "\n")
}

// cleanConnection flattens model output to a single paragraph and strips
// wrapping quotes.
func cleanConnection(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, `"'`)
}

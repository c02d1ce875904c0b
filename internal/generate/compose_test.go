package generate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(ctx context.Context, p Prompt) (Completion, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Completion), args.Error(1)
}

func testSender() Sender {
	return Sender{
		Name:       "Jan de Vries",
		Email:      "jan@youngadvisory.nl",
		Phone:      "+31 6 0000 0000",
		Study:      "Technische Bedrijfskunde",
		University: "TU Eindhoven",
	}
}

func testLead() *model.Lead {
	l := model.NewLead()
	l.ID = "l1"
	l.Company = "Acme Holding B.V."
	l.FirstName = "Piet"
	l.JobTitle = "CFO"
	l.Branch = "Tilburg"
	return &l
}

func TestCompose(t *testing.T) {
	b := &mockBackend{}
	b.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool {
		return p.LeadID == "l1" &&
			strings.Contains(p.User, "Acme Holding B.V.") &&
			strings.Contains(p.User, "Piet, CFO") &&
			strings.Contains(p.User, "perspectief en de interesse van Jan:") &&
			p.System == systemPrompt
	})).Return(Completion{Text: "\"Jullie logistiek\n raakt mijn studie.\"", InputTokens: 300, OutputTokens: 60}, nil)

	c := NewComposer(b, testSender(), Templates{})
	d, err := c.Compose(context.Background(), testLead())
	require.NoError(t, err)

	assert.Equal(t, "Young Advisory Group x Acme Holding B.V.", d.Subject)
	assert.Equal(t, "Jullie logistiek raakt mijn studie.", d.Connection)
	assert.EqualValues(t, 360, d.Tokens)
	assert.EqualValues(t, 300, d.InputTokens)
	assert.EqualValues(t, 60, d.OutputTokens)
	assert.True(t, strings.HasPrefix(d.Body, "Beste Piet,\n\nIk ben Jan de Vries, student Technische Bedrijfskunde aan de TU Eindhoven"))
	assert.Contains(t, d.Body, "waarde kan toevoegen. Jullie logistiek raakt mijn studie. Graag verken ik")
	assert.Contains(t, d.Body, "Vestiging Tilburg")
	assert.Contains(t, d.Body, "jan@youngadvisory.nl | www.youngadvisorygroup.nl")
	b.AssertExpectations(t)
}

func TestCompose_Errors(t *testing.T) {
	b := &mockBackend{}
	b.On("Complete", mock.Anything, mock.Anything).Return(Completion{}, errors.New("boom")).Once()
	b.On("Complete", mock.Anything, mock.Anything).Return(Completion{Text: "  "}, nil).Once()

	c := NewComposer(b, testSender(), Templates{})
	_, err := c.Compose(context.Background(), testLead())
	assert.EqualError(t, err, "boom")

	_, err = c.Compose(context.Background(), testLead())
	assert.ErrorContains(t, err, "empty response")

	l := testLead()
	l.FirstName = ""
	_, err = c.Compose(context.Background(), l)
	assert.ErrorContains(t, err, "first name")

	_, err = NewComposer(nil, testSender(), Templates{}).Compose(context.Background(), testLead())
	assert.ErrorContains(t, err, "no model backend")
}

func TestPreview(t *testing.T) {
	c := NewComposer(nil, testSender(), Templates{Subject: "{company} en YAG", Signature: "Groet, {sender_name} ({branch})"})
	l := testLead()
	l.Branch = ""

	d, err := c.Preview(l)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holding B.V. en YAG", d.Subject)
	assert.Contains(t, d.Body, PreviewPlaceholder)
	assert.True(t, strings.HasSuffix(d.Body, "Groet, Jan de Vries (Eindhoven-Tilburg)"))
	assert.Zero(t, d.Tokens)

	l.Company = " "
	_, err = c.Preview(l)
	assert.Error(t, err)
}

func TestSubject_EmptyCompany(t *testing.T) {
	c := NewComposer(nil, testSender(), Templates{})
	assert.Equal(t, "Young Advisory Group x jullie", c.Subject(""))
}

func TestSender_FirstName(t *testing.T) {
	assert.Equal(t, "Jan", testSender().FirstName())
	assert.Empty(t, Sender{}.FirstName())
}

func TestSetMaxTokens(t *testing.T) {
	b := &mockBackend{}
	b.On("Complete", mock.Anything, mock.MatchedBy(func(p Prompt) bool { return p.MaxTokens == 250 })).
		Return(Completion{Text: "Past goed."}, nil).Once()

	c := NewComposer(b, testSender(), Templates{})
	c.SetMaxTokens(0)
	c.SetMaxTokens(250)
	_, err := c.Compose(context.Background(), testLead())
	require.NoError(t, err)
	b.AssertExpectations(t)
}

package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/generate"
	"github.com/sells-group/outreach-cli/pkg/mailer"
)

// stubRefs returns fixed reference lists.
type stubRefs struct {
	refs eligibility.References
	err  error
}

func (s *stubRefs) Load(_ context.Context, _ time.Time) (eligibility.References, error) {
	return s.refs, s.err
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Complete(ctx context.Context, p generate.Prompt) (generate.Completion, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(generate.Completion), args.Error(1)
}

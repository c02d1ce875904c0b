// Package mocks provides test doubles for the lusha client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	lusha "github.com/sells-group/outreach-cli/pkg/lusha"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, preset, page, size
func (_m *MockClient) Search(ctx context.Context, preset lusha.Preset, page int, size int) (*lusha.SearchResult, error) {
	ret := _m.Called(ctx, preset, page, size)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *lusha.SearchResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*lusha.SearchResult)
	}
	return r0, ret.Error(1)
}

// SearchPages provides a mock function with given fields: ctx, preset, start, pages, size
func (_m *MockClient) SearchPages(ctx context.Context, preset lusha.Preset, start int, pages int, size int) ([]lusha.Contact, error) {
	ret := _m.Called(ctx, preset, start, pages, size)

	if len(ret) == 0 {
		panic("no return value specified for SearchPages")
	}

	var r0 []lusha.Contact
	if rf, ok := ret.Get(0).(func(context.Context, lusha.Preset, int, int, int) []lusha.Contact); ok {
		r0 = rf(ctx, preset, start, pages, size)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]lusha.Contact)
	}
	return r0, ret.Error(1)
}

// Enrich provides a mock function with given fields: ctx, requestID, contactIDs
func (_m *MockClient) Enrich(ctx context.Context, requestID string, contactIDs []string) ([]lusha.Enriched, error) {
	ret := _m.Called(ctx, requestID, contactIDs)

	if len(ret) == 0 {
		panic("no return value specified for Enrich")
	}

	var r0 []lusha.Enriched
	if rf, ok := ret.Get(0).(func(context.Context, string, []string) []lusha.Enriched); ok {
		r0 = rf(ctx, requestID, contactIDs)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]lusha.Enriched)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ lusha.Client = (*MockClient)(nil)

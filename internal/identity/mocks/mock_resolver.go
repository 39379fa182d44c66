package mocks

import (
	"context"

	"docstore/internal/identity"

	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, credential string) (identity.Identity, error) {
	args := m.Called(ctx, credential)
	return args.Get(0).(identity.Identity), args.Error(1)
}

package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/classkit/internal/repository"
)

// MockClassRepository is a mock implementation of the ClassBlobRepository
// interface.
type MockClassRepository struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockClassRepository) Get(ctx context.Context, name string) (*repository.ClassBlob, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ClassBlob), args.Error(1)
}

// Save mocks the Save method.
func (m *MockClassRepository) Save(ctx context.Context, blob *repository.ClassBlob) error {
	args := m.Called(ctx, blob)
	return args.Error(0)
}

// Delete mocks the Delete method.
func (m *MockClassRepository) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// ListNames mocks the ListNames method.
func (m *MockClassRepository) ListNames(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// Count mocks the Count method.
func (m *MockClassRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// ExpectGet sets up an expectation for Get.
func (m *MockClassRepository) ExpectGet(name string, blob *repository.ClassBlob, err error) *mock.Call {
	return m.On("Get", mock.Anything, name).Return(blob, err)
}

// ExpectAnySave sets up an expectation for any Save call.
func (m *MockClassRepository) ExpectAnySave(err error) *mock.Call {
	return m.On("Save", mock.Anything, mock.Anything).Return(err)
}

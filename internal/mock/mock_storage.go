package mock

import (
	"bytes"
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the Storage interface.
type MockStorage struct {
	mock.Mock
}

// Put mocks the Put method.
func (m *MockStorage) Put(ctx context.Context, key string, reader io.Reader) error {
	args := m.Called(ctx, key, reader)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// List mocks the List method.
func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// URL mocks the URL method.
func (m *MockStorage) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// ExpectPut sets up an expectation for Put.
func (m *MockStorage) ExpectPut(key string, err error) *mock.Call {
	return m.On("Put", mock.Anything, key, mock.Anything).Return(err)
}

// ExpectAnyPut sets up an expectation for any Put call.
func (m *MockStorage) ExpectAnyPut(err error) *mock.Call {
	return m.On("Put", mock.Anything, mock.Anything, mock.Anything).Return(err)
}

// ExpectGet sets up Get to return data, or err when data is nil.
func (m *MockStorage) ExpectGet(key string, data []byte, err error) *mock.Call {
	if data == nil {
		return m.On("Get", mock.Anything, key).Return(nil, err)
	}
	return m.On("Get", mock.Anything, key).Return(io.NopCloser(bytes.NewReader(data)), err)
}

// ExpectList sets up an expectation for List.
func (m *MockStorage) ExpectList(prefix string, keys []string, err error) *mock.Call {
	return m.On("List", mock.Anything, prefix).Return(keys, err)
}

package mock

import (
	"github.com/stretchr/testify/mock"

	"github.com/classkit/internal/bytesource"
)

// MockSource is a mock implementation of bytesource.Source.
type MockSource struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockSource) Get(name string) ([]byte, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ExpectGet sets up an expectation for Get.
func (m *MockSource) ExpectGet(name string, data []byte, err error) *mock.Call {
	return m.On("Get", name).Return(data, err)
}

// ExpectMissing sets up Get to report name as not found.
func (m *MockSource) ExpectMissing(name string) *mock.Call {
	return m.On("Get", name).Return(nil, bytesource.ErrNotFound)
}

// MockEnumerableSource is a MockSource that can also enumerate.
type MockEnumerableSource struct {
	MockSource
}

// Enumerate mocks the Enumerate method.
func (m *MockEnumerableSource) Enumerate() (map[string]bytesource.Supplier, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bytesource.Supplier), args.Error(1)
}

// ExpectEnumerate sets up Enumerate to list entries.
func (m *MockEnumerableSource) ExpectEnumerate(entries map[string][]byte) *mock.Call {
	suppliers := make(map[string]bytesource.Supplier, len(entries))
	for name, data := range entries {
		suppliers[name] = func() ([]byte, error) { return data, nil }
	}
	return m.On("Enumerate").Return(suppliers, nil)
}

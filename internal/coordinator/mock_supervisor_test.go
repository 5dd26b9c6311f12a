package coordinator

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mindplus/offloader/internal/execution/supervisor"
)

// MockSupervisor is a mock type for the Supervisor type
type MockSupervisor struct {
	mock.Mock
}

type MockSupervisor_Expecter struct {
	mock *mock.Mock
}

func (_m *MockSupervisor) EXPECT() *MockSupervisor_Expecter {
	return &MockSupervisor_Expecter{mock: &_m.Mock}
}

// Start provides a mock function with given fields: ctx, spec
func (_m *MockSupervisor) Start(ctx context.Context, spec supervisor.WorkerSpec) error {
	ret := _m.Called(ctx, spec)

	return ret.Error(0)
}

type MockSupervisor_Start_Call struct {
	*mock.Call
}

func (_e *MockSupervisor_Expecter) Start(ctx interface{}, spec interface{}) *MockSupervisor_Start_Call {
	return &MockSupervisor_Start_Call{Call: _e.mock.On("Start", ctx, spec)}
}

func (_c *MockSupervisor_Start_Call) Return(_a0 error) *MockSupervisor_Start_Call {
	_c.Call.Return(_a0)
	return _c
}

// Stop provides a mock function with given fields: id
func (_m *MockSupervisor) Stop(id string) error {
	ret := _m.Called(id)

	return ret.Error(0)
}

type MockSupervisor_Stop_Call struct {
	*mock.Call
}

func (_e *MockSupervisor_Expecter) Stop(id interface{}) *MockSupervisor_Stop_Call {
	return &MockSupervisor_Stop_Call{Call: _e.mock.On("Stop", id)}
}

func (_c *MockSupervisor_Stop_Call) Return(_a0 error) *MockSupervisor_Stop_Call {
	_c.Call.Return(_a0)
	return _c
}

// IsRunning provides a mock function with given fields: id
func (_m *MockSupervisor) IsRunning(id string) bool {
	ret := _m.Called(id)

	return ret.Bool(0)
}

type MockSupervisor_IsRunning_Call struct {
	*mock.Call
}

func (_e *MockSupervisor_Expecter) IsRunning(id interface{}) *MockSupervisor_IsRunning_Call {
	return &MockSupervisor_IsRunning_Call{Call: _e.mock.On("IsRunning", id)}
}

func (_c *MockSupervisor_IsRunning_Call) Return(_a0 bool) *MockSupervisor_IsRunning_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockSupervisor creates a new instance of MockSupervisor. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockSupervisor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSupervisor {
	m := &MockSupervisor{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockPortCleaner is a mock type for the PortCleaner type
type MockPortCleaner struct {
	mock.Mock
}

type MockPortCleaner_Expecter struct {
	mock *mock.Mock
}

func (_m *MockPortCleaner) EXPECT() *MockPortCleaner_Expecter {
	return &MockPortCleaner_Expecter{mock: &_m.Mock}
}

// Cleanup provides a mock function with given fields: ctx, ports
func (_m *MockPortCleaner) Cleanup(ctx context.Context, ports []int) bool {
	ret := _m.Called(ctx, ports)

	return ret.Bool(0)
}

type MockPortCleaner_Cleanup_Call struct {
	*mock.Call
}

func (_e *MockPortCleaner_Expecter) Cleanup(ctx interface{}, ports interface{}) *MockPortCleaner_Cleanup_Call {
	return &MockPortCleaner_Cleanup_Call{Call: _e.mock.On("Cleanup", ctx, ports)}
}

func (_c *MockPortCleaner_Cleanup_Call) Return(_a0 bool) *MockPortCleaner_Cleanup_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockPortCleaner creates a new instance of MockPortCleaner. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockPortCleaner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPortCleaner {
	m := &MockPortCleaner{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

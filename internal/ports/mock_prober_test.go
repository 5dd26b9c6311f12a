package ports

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProber is a mock type for the Prober type
type MockProber struct {
	mock.Mock
}

type MockProber_Expecter struct {
	mock *mock.Mock
}

func (_m *MockProber) EXPECT() *MockProber_Expecter {
	return &MockProber_Expecter{mock: &_m.Mock}
}

// Probe provides a mock function with given fields: ctx, port
func (_m *MockProber) Probe(ctx context.Context, port int) (bool, []int32, error) {
	ret := _m.Called(ctx, port)

	var pids []int32
	if v := ret.Get(1); v != nil {
		pids = v.([]int32)
	}

	return ret.Bool(0), pids, ret.Error(2)
}

type MockProber_Probe_Call struct {
	*mock.Call
}

func (_e *MockProber_Expecter) Probe(ctx interface{}, port interface{}) *MockProber_Probe_Call {
	return &MockProber_Probe_Call{Call: _e.mock.On("Probe", ctx, port)}
}

func (_c *MockProber_Probe_Call) Return(busy bool, pids []int32, err error) *MockProber_Probe_Call {
	_c.Call.Return(busy, pids, err)
	return _c
}

// Terminate provides a mock function with given fields: ctx, pid
func (_m *MockProber) Terminate(ctx context.Context, pid int32) error {
	ret := _m.Called(ctx, pid)

	return ret.Error(0)
}

type MockProber_Terminate_Call struct {
	*mock.Call
}

func (_e *MockProber_Expecter) Terminate(ctx interface{}, pid interface{}) *MockProber_Terminate_Call {
	return &MockProber_Terminate_Call{Call: _e.mock.On("Terminate", ctx, pid)}
}

func (_c *MockProber_Terminate_Call) Return(_a0 error) *MockProber_Terminate_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockProber creates a new instance of MockProber. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockProber(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProber {
	m := &MockProber{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

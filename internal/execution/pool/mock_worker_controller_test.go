package pool

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockWorkerController is a mock type for the WorkerController type
type MockWorkerController struct {
	mock.Mock
}

type MockWorkerController_Expecter struct {
	mock *mock.Mock
}

func (_m *MockWorkerController) EXPECT() *MockWorkerController_Expecter {
	return &MockWorkerController_Expecter{mock: &_m.Mock}
}

// StartWorker provides a mock function with given fields: ctx, id
func (_m *MockWorkerController) StartWorker(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)

	return ret.Error(0)
}

type MockWorkerController_StartWorker_Call struct {
	*mock.Call
}

func (_e *MockWorkerController_Expecter) StartWorker(ctx interface{}, id interface{}) *MockWorkerController_StartWorker_Call {
	return &MockWorkerController_StartWorker_Call{Call: _e.mock.On("StartWorker", ctx, id)}
}

func (_c *MockWorkerController_StartWorker_Call) Return(_a0 error) *MockWorkerController_StartWorker_Call {
	_c.Call.Return(_a0)
	return _c
}

// StopWorker provides a mock function with given fields: id
func (_m *MockWorkerController) StopWorker(id string) error {
	ret := _m.Called(id)

	return ret.Error(0)
}

type MockWorkerController_StopWorker_Call struct {
	*mock.Call
}

func (_e *MockWorkerController_Expecter) StopWorker(id interface{}) *MockWorkerController_StopWorker_Call {
	return &MockWorkerController_StopWorker_Call{Call: _e.mock.On("StopWorker", id)}
}

func (_c *MockWorkerController_StopWorker_Call) Return(_a0 error) *MockWorkerController_StopWorker_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockWorkerController creates a new instance of MockWorkerController. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkerController(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkerController {
	m := &MockWorkerController{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

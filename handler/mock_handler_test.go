package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mindplus/offloader/internal/coordinator"
	"github.com/mindplus/offloader/internal/execution/supervisor"
	"github.com/mindplus/offloader/models"
)

// MockGenerator is a mock type for the Generator type
type MockGenerator struct {
	mock.Mock
}

type MockGenerator_Expecter struct {
	mock *mock.Mock
}

func (_m *MockGenerator) EXPECT() *MockGenerator_Expecter {
	return &MockGenerator_Expecter{mock: &_m.Mock}
}

// GenerateChunk provides a mock function with given fields: ctx, x, z
func (_m *MockGenerator) GenerateChunk(ctx context.Context, x int32, z int32) (*coordinator.GenerationReport, error) {
	ret := _m.Called(ctx, x, z)

	var r0 *coordinator.GenerationReport
	if rf, ok := ret.Get(0).(*coordinator.GenerationReport); ok {
		r0 = rf
	}

	return r0, ret.Error(1)
}

type MockGenerator_GenerateChunk_Call struct {
	*mock.Call
}

func (_e *MockGenerator_Expecter) GenerateChunk(ctx interface{}, x interface{}, z interface{}) *MockGenerator_GenerateChunk_Call {
	return &MockGenerator_GenerateChunk_Call{Call: _e.mock.On("GenerateChunk", ctx, x, z)}
}

func (_c *MockGenerator_GenerateChunk_Call) Return(_a0 *coordinator.GenerationReport, _a1 error) *MockGenerator_GenerateChunk_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// SendTaskToWorker provides a mock function with given fields: ctx, kind, payload
func (_m *MockGenerator) SendTaskToWorker(ctx context.Context, kind models.WorkerKind, payload []byte) ([]byte, error) {
	ret := _m.Called(ctx, kind, payload)

	var r0 []byte
	if rf, ok := ret.Get(0).([]byte); ok {
		r0 = rf
	}

	return r0, ret.Error(1)
}

type MockGenerator_SendTaskToWorker_Call struct {
	*mock.Call
}

func (_e *MockGenerator_Expecter) SendTaskToWorker(ctx interface{}, kind interface{}, payload interface{}) *MockGenerator_SendTaskToWorker_Call {
	return &MockGenerator_SendTaskToWorker_Call{Call: _e.mock.On("SendTaskToWorker", ctx, kind, payload)}
}

func (_c *MockGenerator_SendTaskToWorker_Call) Return(_a0 []byte, _a1 error) *MockGenerator_SendTaskToWorker_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

// NewMockGenerator creates a new instance of MockGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockStreams is a mock type for the Streams type
type MockStreams struct {
	mock.Mock
}

type MockStreams_Expecter struct {
	mock *mock.Mock
}

func (_m *MockStreams) EXPECT() *MockStreams_Expecter {
	return &MockStreams_Expecter{mock: &_m.Mock}
}

// SendAITask provides a mock function with given fields: ctx, task
func (_m *MockStreams) SendAITask(ctx context.Context, task models.AITask) bool {
	ret := _m.Called(ctx, task)

	return ret.Bool(0)
}

type MockStreams_SendAITask_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) SendAITask(ctx interface{}, task interface{}) *MockStreams_SendAITask_Call {
	return &MockStreams_SendAITask_Call{Call: _e.mock.On("SendAITask", ctx, task)}
}

func (_c *MockStreams_SendAITask_Call) Return(_a0 bool) *MockStreams_SendAITask_Call {
	_c.Call.Return(_a0)
	return _c
}

// SendPreloadTask provides a mock function with given fields: ctx, x, z
func (_m *MockStreams) SendPreloadTask(ctx context.Context, x int32, z int32) bool {
	ret := _m.Called(ctx, x, z)

	return ret.Bool(0)
}

type MockStreams_SendPreloadTask_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) SendPreloadTask(ctx interface{}, x interface{}, z interface{}) *MockStreams_SendPreloadTask_Call {
	return &MockStreams_SendPreloadTask_Call{Call: _e.mock.On("SendPreloadTask", ctx, x, z)}
}

func (_c *MockStreams_SendPreloadTask_Call) Return(_a0 bool) *MockStreams_SendPreloadTask_Call {
	_c.Call.Return(_a0)
	return _c
}

// SendWorldGenTask provides a mock function with given fields: ctx, x, z
func (_m *MockStreams) SendWorldGenTask(ctx context.Context, x int32, z int32) bool {
	ret := _m.Called(ctx, x, z)

	return ret.Bool(0)
}

type MockStreams_SendWorldGenTask_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) SendWorldGenTask(ctx interface{}, x interface{}, z interface{}) *MockStreams_SendWorldGenTask_Call {
	return &MockStreams_SendWorldGenTask_Call{Call: _e.mock.On("SendWorldGenTask", ctx, x, z)}
}

func (_c *MockStreams_SendWorldGenTask_Call) Return(_a0 bool) *MockStreams_SendWorldGenTask_Call {
	_c.Call.Return(_a0)
	return _c
}

// SendRenderTask provides a mock function with given fields: ctx, task
func (_m *MockStreams) SendRenderTask(ctx context.Context, task models.RenderTask) bool {
	ret := _m.Called(ctx, task)

	return ret.Bool(0)
}

type MockStreams_SendRenderTask_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) SendRenderTask(ctx interface{}, task interface{}) *MockStreams_SendRenderTask_Call {
	return &MockStreams_SendRenderTask_Call{Call: _e.mock.On("SendRenderTask", ctx, task)}
}

func (_c *MockStreams_SendRenderTask_Call) Return(_a0 bool) *MockStreams_SendRenderTask_Call {
	_c.Call.Return(_a0)
	return _c
}

// SendSuperRender provides a mock function with given fields: ctx, cmd
func (_m *MockStreams) SendSuperRender(ctx context.Context, cmd models.SuperRenderCommand) bool {
	ret := _m.Called(ctx, cmd)

	return ret.Bool(0)
}

type MockStreams_SendSuperRender_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) SendSuperRender(ctx interface{}, cmd interface{}) *MockStreams_SendSuperRender_Call {
	return &MockStreams_SendSuperRender_Call{Call: _e.mock.On("SendSuperRender", ctx, cmd)}
}

func (_c *MockStreams_SendSuperRender_Call) Return(_a0 bool) *MockStreams_SendSuperRender_Call {
	_c.Call.Return(_a0)
	return _c
}

// RecordFrame provides a mock function with given fields: ts
func (_m *MockStreams) RecordFrame(ts time.Time) {
	_m.Called(ts)
}

type MockStreams_RecordFrame_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) RecordFrame(ts interface{}) *MockStreams_RecordFrame_Call {
	return &MockStreams_RecordFrame_Call{Call: _e.mock.On("RecordFrame", ts)}
}

func (_c *MockStreams_RecordFrame_Call) Return() *MockStreams_RecordFrame_Call {
	_c.Call.Return()
	return _c
}

// Stats provides a mock function with given fields:
func (_m *MockStreams) Stats() coordinator.RuntimeStats {
	ret := _m.Called()

	return ret.Get(0).(coordinator.RuntimeStats)
}

type MockStreams_Stats_Call struct {
	*mock.Call
}

func (_e *MockStreams_Expecter) Stats() *MockStreams_Stats_Call {
	return &MockStreams_Stats_Call{Call: _e.mock.On("Stats")}
}

func (_c *MockStreams_Stats_Call) Return(_a0 coordinator.RuntimeStats) *MockStreams_Stats_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockStreams creates a new instance of MockStreams. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockStreams(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStreams {
	m := &MockStreams{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockWorkers is a mock type for the Workers type
type MockWorkers struct {
	mock.Mock
}

type MockWorkers_Expecter struct {
	mock *mock.Mock
}

func (_m *MockWorkers) EXPECT() *MockWorkers_Expecter {
	return &MockWorkers_Expecter{mock: &_m.Mock}
}

// Workers provides a mock function with given fields:
func (_m *MockWorkers) Workers() []supervisor.WorkerInfo {
	ret := _m.Called()

	var r0 []supervisor.WorkerInfo
	if rf, ok := ret.Get(0).([]supervisor.WorkerInfo); ok {
		r0 = rf
	}

	return r0
}

type MockWorkers_Workers_Call struct {
	*mock.Call
}

func (_e *MockWorkers_Expecter) Workers() *MockWorkers_Workers_Call {
	return &MockWorkers_Workers_Call{Call: _e.mock.On("Workers")}
}

func (_c *MockWorkers_Workers_Call) Return(_a0 []supervisor.WorkerInfo) *MockWorkers_Workers_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockWorkers creates a new instance of MockWorkers. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkers(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkers {
	m := &MockWorkers{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIndexRunner is a mock implementation of IndexRunner
type MockIndexRunner struct {
	mock.Mock
}

func (m *MockIndexRunner) Run(ctx context.Context, req *domain.IndexRequest) (*domain.IndexResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IndexResponse), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestReindexWorker_ProcessJobs_IncrementalRun tests that each poll runs an
// incremental pass over the watched path
func TestReindexWorker_ProcessJobs_IncrementalRun(t *testing.T) {
	mockRunner := new(MockIndexRunner)
	mockRunner.On("Run", mock.Anything, mock.MatchedBy(func(req *domain.IndexRequest) bool {
		return req.SourcePath == "/src/project" && req.Incremental && !req.DryRun
	})).Return(&domain.IndexResponse{TotalFiles: 2, IndexedChunks: 5}, nil)

	worker := NewReindexWorker(mockRunner, "/src/project", []domain.Language{domain.LanguageGo})
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_RunError tests runner error propagation
func TestReindexWorker_ProcessJobs_RunError(t *testing.T) {
	mockRunner := new(MockIndexRunner)
	mockRunner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("schema missing"))

	worker := NewReindexWorker(mockRunner, "/src/project", nil)
	err := worker.ProcessJobs(context.Background())

	assert.Error(t, err)
	mockRunner.AssertExpectations(t)
}

// TestReindexWorker_ProcessJobs_QuietWhenUnchanged tests that an unchanged
// tree produces no error
func TestReindexWorker_ProcessJobs_QuietWhenUnchanged(t *testing.T) {
	mockRunner := new(MockIndexRunner)
	mockRunner.On("Run", mock.Anything, mock.Anything).Return(&domain.IndexResponse{}, nil)

	worker := NewReindexWorker(mockRunner, "/src/project", nil)
	err := worker.ProcessJobs(context.Background())

	assert.NoError(t, err)
	mockRunner.AssertExpectations(t)
}

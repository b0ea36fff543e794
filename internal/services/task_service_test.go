package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-tracker-api/internal/models"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	suite.Require().NoError(suite.db.AutoMigrate(&models.Task{}))

	suite.service, err = NewTaskService(repository.NewTaskRepository(suite.db), telemetry.NoopProvider(), discardLogger())
	suite.Require().NoError(err)
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string {
	return &s
}

func (suite *TaskServiceTestSuite) create(title string, status models.TaskStatus, priority models.TaskPriority) *models.Task {
	task, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{Title: title, Status: status, Priority: priority})
	suite.Require().NoError(err)
	return task
}

func (suite *TaskServiceTestSuite) TestCreateTask_TrimsTitle() {
	task := suite.create("  Write docs  ", "", "")

	suite.Equal("Write docs", task.Title)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.NotZero(task.ID)
}

func (suite *TaskServiceTestSuite) TestCreateTask_BlankTitle() {
	_, err := suite.service.CreateTask(suite.ctx, CreateTaskInput{Title: " \t "})

	suite.ErrorIs(err, ErrTitleEmpty)
}

func (suite *TaskServiceTestSuite) TestGetTask_NotFound() {
	_, err := suite.service.GetTask(suite.ctx, 999)

	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdateTask() {
	task := suite.create("Original", "", "")
	status := models.TaskStatusInProgress

	updated, err := suite.service.UpdateTask(suite.ctx, task.ID, repository.TaskPatch{Status: &status})

	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusInProgress, updated.Status)
	suite.Equal("Original", updated.Title)
	suite.NotNil(updated.UpdatedAt)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_EmptyPatch() {
	task := suite.create("Original", "", "")

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, repository.TaskPatch{})

	suite.ErrorIs(err, ErrNoFieldsToUpdate)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_BlankTitle() {
	task := suite.create("Original", "", "")

	_, err := suite.service.UpdateTask(suite.ctx, task.ID, repository.TaskPatch{Title: strPtr("   ")})

	suite.ErrorIs(err, ErrTitleEmpty)
}

func (suite *TaskServiceTestSuite) TestUpdateTask_NotFound() {
	_, err := suite.service.UpdateTask(suite.ctx, 42, repository.TaskPatch{Title: strPtr("x")})

	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestDeleteTask() {
	task := suite.create("Doomed", "", "")

	suite.NoError(suite.service.DeleteTask(suite.ctx, task.ID))
	suite.ErrorIs(suite.service.DeleteTask(suite.ctx, task.ID), ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestListByStatusAndPriority() {
	suite.create("a", models.TaskStatusCompleted, models.TaskPriorityHigh)
	suite.create("b", models.TaskStatusCompleted, models.TaskPriorityLow)
	suite.create("c", models.TaskStatusPending, models.TaskPriorityHigh)

	tasks, total, err := suite.service.ListByStatus(suite.ctx, models.TaskStatusCompleted, repository.Page{Limit: 100})
	suite.Require().NoError(err)
	suite.EqualValues(2, total)
	suite.Len(tasks, 2)

	tasks, total, err = suite.service.ListByPriority(suite.ctx, models.TaskPriorityHigh, repository.Page{Limit: 1})
	suite.Require().NoError(err)
	suite.EqualValues(2, total)
	suite.Len(tasks, 1)
}

func (suite *TaskServiceTestSuite) TestListTasks_InvalidSort() {
	_, _, err := suite.service.ListTasks(suite.ctx, ListTasksInput{
		Sort: repository.TaskSort{Field: "password", Order: models.SortOrderAsc},
	})

	suite.ErrorIs(err, ErrInvalidSortOptions)
}

func (suite *TaskServiceTestSuite) TestSearchTasks() {
	suite.create("Add Unit Tests", "", "")

	tasks, total, err := suite.service.SearchTasks(suite.ctx, "unit", repository.Page{Limit: 100})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Len(tasks, 1)
}

func (suite *TaskServiceTestSuite) TestBulkUpdateTasks() {
	a := suite.create("a", "", "")
	b := suite.create("b", "", "")
	status := models.TaskStatusCancelled

	result, err := suite.service.BulkUpdateTasks(suite.ctx, BulkUpdateInput{
		TaskIDs: []uint64{a.ID, b.ID, 999},
		Patch:   repository.TaskPatch{Status: &status},
	})

	suite.Require().NoError(err)
	suite.EqualValues(2, result.Succeeded)
	suite.Equal(3, result.Requested)
}

func (suite *TaskServiceTestSuite) TestBulkOperations_IDLimits() {
	_, err := suite.service.BulkDeleteTasks(suite.ctx, nil)
	suite.ErrorIs(err, ErrNoTaskIDsProvided)

	ids := make([]uint64, 101)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}
	_, err = suite.service.BulkUpdateTasks(suite.ctx, BulkUpdateInput{TaskIDs: ids})
	suite.ErrorIs(err, ErrTooManyTaskIDs)
}

func (suite *TaskServiceTestSuite) TestBulkDeleteTasks() {
	a := suite.create("a", "", "")

	result, err := suite.service.BulkDeleteTasks(suite.ctx, []uint64{a.ID, 77})

	suite.Require().NoError(err)
	suite.EqualValues(1, result.Succeeded)
	suite.Equal(2, result.Requested)
}

// failingRepository fails every call with err
type failingRepository struct {
	err error
}

func (r failingRepository) Create(context.Context, *models.Task) error { return r.err }
func (r failingRepository) FindByID(context.Context, uint64) (*models.Task, bool, error) {
	return nil, false, r.err
}
func (r failingRepository) List(context.Context, repository.TaskFilter, repository.TaskSort, repository.Page) ([]models.Task, int64, error) {
	return nil, 0, r.err
}
func (r failingRepository) Search(context.Context, string, repository.Page) ([]models.Task, int64, error) {
	return nil, 0, r.err
}
func (r failingRepository) Update(context.Context, uint64, repository.TaskPatch) (*models.Task, bool, error) {
	return nil, false, r.err
}
func (r failingRepository) Delete(context.Context, uint64) (bool, error) { return false, r.err }
func (r failingRepository) BulkUpdate(context.Context, []uint64, repository.TaskPatch) (repository.BulkResult, error) {
	return repository.BulkResult{}, r.err
}
func (r failingRepository) BulkDelete(context.Context, []uint64) (repository.BulkResult, error) {
	return repository.BulkResult{}, r.err
}

func TestTaskService_WrapsStorageErrors(t *testing.T) {
	storageErr := errors.New("database is locked")
	service, err := NewTaskService(failingRepository{err: storageErr}, nil, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = service.CreateTask(ctx, CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, storageErr)

	_, err = service.GetTask(ctx, 1)
	assert.ErrorIs(t, err, storageErr)
	assert.NotErrorIs(t, err, ErrTaskNotFound)

	_, _, err = service.ListTasks(ctx, ListTasksInput{})
	assert.ErrorIs(t, err, storageErr)

	err = service.DeleteTask(ctx, 1)
	assert.ErrorIs(t, err, storageErr)

	_, err = service.BulkDeleteTasks(ctx, []uint64{1})
	assert.ErrorIs(t, err, storageErr)
}

func TestTaskService_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	provider := telemetry.NoopProvider()
	provider.Meter = mp.Meter(telemetry.ScopeName)

	service, err := NewTaskService(failingRepository{err: errors.New("boom")}, provider, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = service.GetTask(ctx, 1)
	_, _ = service.BulkDeleteTasks(ctx, []uint64{1})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var errorCount int64
	var sawDuration bool
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				if md.Name == "tasks.store.errors" {
					for _, dp := range data.DataPoints {
						errorCount += dp.Value
					}
				}
			case metricdata.Histogram[float64]:
				sawDuration = md.Name == "tasks.store.duration" || sawDuration
			}
		}
	}
	assert.EqualValues(t, 2, errorCount)
	assert.True(t, sawDuration)
}

func (suite *TaskServiceTestSuite) TestBulkDeleteTasks_SpanAttributes() {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(suite.ctx)

	provider := telemetry.NoopProvider()
	provider.Tracer = tp.Tracer(telemetry.ScopeName)
	service, err := NewTaskService(repository.NewTaskRepository(suite.db), provider, discardLogger())
	suite.Require().NoError(err)

	task := suite.create("a", models.TaskStatusPending, models.TaskPriorityLow)
	_, err = service.BulkDeleteTasks(suite.ctx, []uint64{task.ID, 77})
	suite.Require().NoError(err)

	spans := recorder.Ended()
	suite.Require().Len(spans, 1)
	suite.Equal("TaskService.bulk_delete", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	suite.EqualValues(2, attrs[telemetry.AttrRequested].AsInt64())
	suite.EqualValues(1, attrs[telemetry.AttrSucceeded].AsInt64())
	suite.Equal("success", attrs[telemetry.AttrOutcome].AsString())
}

func TestIgnoreNotFound(t *testing.T) {
	assert.NoError(t, ignoreNotFound(ErrTaskNotFound))
	assert.Error(t, ignoreNotFound(errors.New("x")))
	assert.NoError(t, ignoreNotFound(nil))
}

package generator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

type fakeStore struct {
	configs   map[int64]*domain.DomainConfig
	results   []*domain.TimetableResult
	configErr error
	insertErr error
}

func (s *fakeStore) GetDomainConfig(id int64) (*domain.DomainConfig, error) {
	if s.configErr != nil {
		return nil, s.configErr
	}
	dc, ok := s.configs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return dc, nil
}

func (s *fakeStore) InsertTimetableResult(result *domain.TimetableResult) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	result.ID = int64(len(s.results) + 1)
	s.results = append(s.results, result)
	return nil
}

func (s *fakeStore) GetTimetableResultByJobID(jobID string) (*domain.TimetableResult, error) {
	for _, result := range s.results {
		if result.JobID != nil && *result.JobID == jobID {
			return result, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeJobStore struct {
	jobs     map[string]domain.GenerationJob
	statuses []domain.JobStatus
	// saveErr 返回非空时本次保存失败
	saveErr func(job *domain.GenerationJob) error
}

func (s *fakeJobStore) SaveJob(ctx context.Context, job *domain.GenerationJob) error {
	if s.saveErr != nil {
		if err := s.saveErr(job); err != nil {
			return err
		}
	}
	s.jobs[job.ID] = *job
	s.statuses = append(s.statuses, job.Status)
	return nil
}

func (s *fakeJobStore) GetJob(ctx context.Context, id string) (*domain.GenerationJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

type published struct {
	queue string
	value any
}

type fakePublisher struct {
	messages []published
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, queue string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{queue: queue, value: v})
	return nil
}

type testGenerator struct {
	*Generator
	store     *fakeStore
	jobs      *fakeJobStore
	publisher *fakePublisher
}

func newTestGenerator() *testGenerator {
	cfg := &config.Config{}
	cfg.Email.NotifyAddress = "office@example.com"

	store := &fakeStore{configs: map[int64]*domain.DomainConfig{7: sampleConfig()}}
	jobs := &fakeJobStore{jobs: map[string]domain.GenerationJob{}}
	publisher := &fakePublisher{}

	return &testGenerator{
		Generator: &Generator{cfg: cfg, store: store, jobs: jobs, publisher: publisher},
		store:     store,
		jobs:      jobs,
		publisher: publisher,
	}
}

func smallParameters() domain.GenerationParameters {
	return domain.GenerationParameters{
		PopulationSize: 6,
		MaxGenerations: 3,
		CrossoverRate:  0.7,
		MutationRate:   0.2,
		EliteCount:     1,
		Seed:           seedOf(42),
	}
}

func jobBody(t *testing.T, job *domain.GenerationJob) []byte {
	t.Helper()
	body, err := json.Marshal(job)
	require.NoError(t, err)
	return body
}

func mailTypes(p *fakePublisher) []string {
	types := []string{}
	for _, m := range p.messages {
		if m.queue != EmailQueue {
			continue
		}
		types = append(types, m.value.(domain.MailMessage).Type)
	}
	return types
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name            string
		configID        int64
		params          func(p *domain.GenerationParameters)
		setup           func(g *testGenerator)
		wantDisposition Disposition
		wantStatuses    []domain.JobStatus
		wantResults     int
		wantMails       []string
	}{
		{
			name:            "succeeds",
			configID:        7,
			wantDisposition: DispositionAck,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusSucceeded},
			wantResults:     1,
			wantMails:       []string{domain.MailTypeTimetableGenerated},
		},
		{
			name:     "invalid input fails the job",
			configID: 7,
			setup: func(g *testGenerator) {
				g.store.configs[7].Rooms = nil
			},
			wantDisposition: DispositionAck,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed},
			wantMails:       []string{domain.MailTypeTimetableFailed},
		},
		{
			name:     "invalid parameters fail the job",
			configID: 7,
			params: func(p *domain.GenerationParameters) {
				p.PopulationSize = 1
			},
			wantDisposition: DispositionAck,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed},
			wantMails:       []string{domain.MailTypeTimetableFailed},
		},
		{
			name:            "missing config fails the job",
			configID:        8,
			wantDisposition: DispositionAck,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusFailed},
			wantMails:       []string{domain.MailTypeTimetableFailed},
		},
		{
			name:     "database unavailable requeues",
			configID: 7,
			setup: func(g *testGenerator) {
				g.store.configErr = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
			},
			wantDisposition: DispositionRequeue,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning},
			wantMails:       []string{},
		},
		{
			name:     "insert failure requeues",
			configID: 7,
			setup: func(g *testGenerator) {
				g.store.insertErr = errors.New("conn closed")
			},
			wantDisposition: DispositionRequeue,
			wantStatuses:    []domain.JobStatus{domain.JobStatusRunning},
			wantMails:       []string{},
		},
		{
			name:     "job store unavailable requeues",
			configID: 7,
			setup: func(g *testGenerator) {
				g.jobs.saveErr = func(job *domain.GenerationJob) error {
					return errors.New("redis: connection pool timeout")
				}
			},
			wantDisposition: DispositionRequeue,
			wantStatuses:    nil,
			wantMails:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGenerator()
			if tt.setup != nil {
				tt.setup(g)
			}

			params := smallParameters()
			if tt.params != nil {
				tt.params(&params)
			}
			job := NewJob(tt.configID, params)

			err := g.Process(context.Background(), jobBody(t, job))
			assert.Equal(t, tt.wantDisposition, Classify(err))
			assert.Equal(t, tt.wantStatuses, g.jobs.statuses)
			assert.Len(t, g.store.results, tt.wantResults)
			assert.Equal(t, tt.wantMails, mailTypes(g.publisher))

			stored, ok := g.jobs.jobs[job.ID]
			switch {
			case !ok:
			case stored.Status == domain.JobStatusSucceeded:
				require.NotNil(t, stored.ResultID)
				assert.Equal(t, g.store.results[0].ID, *stored.ResultID)
				require.NotNil(t, g.store.results[0].JobID)
				assert.Equal(t, job.ID, *g.store.results[0].JobID)
				assert.Equal(t, int64(42), g.store.results[0].Seed)
			case stored.Status == domain.JobStatusFailed:
				assert.NotEmpty(t, stored.Error)
				assert.Nil(t, stored.ResultID)
			}
		})
	}
}

func TestProcess_MalformedMessageIsDropped(t *testing.T) {
	g := newTestGenerator()

	for _, body := range []string{"not json", `{"domainConfigID": 7}`} {
		err := g.Process(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrMalformedJob)
		assert.Equal(t, DispositionDrop, Classify(err))
	}
	assert.Empty(t, g.jobs.statuses)
	assert.Empty(t, g.publisher.messages)
}

func TestProcess_SkipsFinishedJobs(t *testing.T) {
	for _, status := range []domain.JobStatus{domain.JobStatusSucceeded, domain.JobStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			g := newTestGenerator()
			job := NewJob(7, smallParameters())

			finished := *job
			finished.Status = status
			g.jobs.jobs[job.ID] = finished

			err := g.Process(context.Background(), jobBody(t, job))
			assert.NoError(t, err)
			assert.Empty(t, g.jobs.statuses)
			assert.Empty(t, g.store.results)
			assert.Empty(t, g.publisher.messages)
		})
	}
}

func TestProcess_RedeliveryDoesNotDuplicateResult(t *testing.T) {
	g := newTestGenerator()
	job := NewJob(7, smallParameters())
	body := jobBody(t, job)

	// 结果写入之后，保存成功状态失败一次
	failed := false
	g.jobs.saveErr = func(job *domain.GenerationJob) error {
		if job.Status == domain.JobStatusSucceeded && !failed {
			failed = true
			return errors.New("redis: i/o timeout")
		}
		return nil
	}

	err := g.Process(context.Background(), body)
	assert.Equal(t, DispositionRequeue, Classify(err))
	require.Len(t, g.store.results, 1)
	assert.Empty(t, g.publisher.messages)

	err = g.Process(context.Background(), body)
	assert.NoError(t, err)
	require.Len(t, g.store.results, 1)

	stored := g.jobs.jobs[job.ID]
	assert.Equal(t, domain.JobStatusSucceeded, stored.Status)
	require.NotNil(t, stored.ResultID)
	assert.Equal(t, g.store.results[0].ID, *stored.ResultID)
	assert.Equal(t, []string{domain.MailTypeTimetableGenerated}, mailTypes(g.publisher))
}

func TestProcess_NotificationFailureKeepsResult(t *testing.T) {
	g := newTestGenerator()
	g.publisher.err = errors.New("channel/connection is not open")
	job := NewJob(7, smallParameters())

	err := g.Process(context.Background(), jobBody(t, job))
	assert.NoError(t, err)
	assert.Len(t, g.store.results, 1)
	assert.Equal(t, domain.JobStatusSucceeded, g.jobs.jobs[job.ID].Status)
}

func TestProcess_NoNotifyAddress(t *testing.T) {
	g := newTestGenerator()
	g.cfg.Email.NotifyAddress = ""
	job := NewJob(7, smallParameters())

	require.NoError(t, g.Process(context.Background(), jobBody(t, job)))
	assert.Empty(t, g.publisher.messages)
}

func TestEnqueue(t *testing.T) {
	g := newTestGenerator()
	job := NewJob(7, smallParameters())

	require.NoError(t, g.Enqueue(context.Background(), job))
	assert.Equal(t, []domain.JobStatus{domain.JobStatusQueued}, g.jobs.statuses)
	require.Len(t, g.publisher.messages, 1)
	assert.Equal(t, TimetableQueue, g.publisher.messages[0].queue)
	assert.Equal(t, job, g.publisher.messages[0].value)

	stored, err := g.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, stored.Status)

	_, err = g.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Disposition
	}{
		{"nil", nil, DispositionAck},
		{"malformed", ErrMalformedJob, DispositionDrop},
		{"wrapped malformed", decodeError(), DispositionDrop},
		{"infrastructure", errors.New("connection refused"), DispositionRequeue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func decodeError() error {
	_, err := DecodeJob([]byte("{"))
	return err
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/reentry/internal/domain"
	"github.com/saturnino-fabrica-de-software/reentry/internal/store"
)

type MockFaceExtractor struct {
	mock.Mock
}

func (m *MockFaceExtractor) Extract(ctx context.Context, image []byte) (domain.Embedding, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Embedding), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(eventType string, data interface{}) {
	m.Called(eventType, data)
}

type serviceFixture struct {
	svc       *FaceService
	store     *store.FaceStore
	persister *fakePersister
	extractor *MockFaceExtractor
	events    *MockEventPublisher
}

func newFixture(dimension int) *serviceFixture {
	s, p := newTestStore()
	extractor := new(MockFaceExtractor)
	events := new(MockEventPublisher)

	svc := NewFaceService(
		extractor,
		s,
		NewEnrollmentService(s, dimension, testLogger()),
		NewMatchEngine(DefaultThreshold, testLogger()),
		testLogger(),
	).WithEvents(events)

	return &serviceFixture{svc: svc, store: s, persister: p, extractor: extractor, events: events}
}

var (
	aliceImage = []byte("alice.jpg")
	bobImage   = []byte("bob.jpg")
	queryImage = []byte("query.jpg")
)

func TestFaceService_Enroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{3, 4}, nil)
	f.events.On("Publish", EventFaceEnrolled, mock.AnythingOfType("*domain.Enrollment")).Once()

	result, err := f.svc.Enroll(ctx, "alice", aliceImage)
	require.NoError(t, err)

	assert.Equal(t, "alice", result.Identity)
	assert.False(t, result.Replaced)
	assert.Equal(t, 2, result.Dimension)
	assert.Equal(t, 1, result.TotalFaces)
	assert.NotEmpty(t, result.ID)

	stored, ok := f.store.Get("alice")
	require.True(t, ok)
	assert.InDelta(t, 0.6, stored[0], 1e-6)
	assert.InDelta(t, 0.8, stored[1], 1e-6)

	f.extractor.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestFaceService_EnrollTwiceKeepsOneEmbedding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{1, 0}, nil)
	f.extractor.On("Extract", ctx, bobImage).Return(domain.Embedding{0, 1}, nil)
	f.events.On("Publish", EventFaceEnrolled, mock.Anything)

	_, err := f.svc.Enroll(ctx, "alice", aliceImage)
	require.NoError(t, err)
	result, err := f.svc.Enroll(ctx, "alice", bobImage)
	require.NoError(t, err)

	assert.True(t, result.Replaced)
	assert.Equal(t, 1, f.svc.Count())
	stored, _ := f.store.Get("alice")
	assert.Equal(t, domain.Embedding{0, 1}, stored)
}

func TestFaceService_EnrollErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		identity   string
		image      []byte
		setupMocks func(*serviceFixture)
		wantErr    error
	}{
		{
			name:       "empty identity never reaches the model",
			identity:   "  ",
			image:      aliceImage,
			setupMocks: func(*serviceFixture) {},
			wantErr:    domain.ErrInvalidIdentity,
		},
		{
			name:       "empty image",
			identity:   "alice",
			image:      nil,
			setupMocks: func(*serviceFixture) {},
			wantErr:    domain.ErrInvalidImage,
		},
		{
			name:     "no face",
			identity: "alice",
			image:    aliceImage,
			setupMocks: func(f *serviceFixture) {
				f.extractor.On("Extract", ctx, aliceImage).Return(nil, domain.ErrNoFaceDetected)
			},
			wantErr: domain.ErrNoFaceDetected,
		},
		{
			name:     "model unavailable",
			identity: "alice",
			image:    aliceImage,
			setupMocks: func(f *serviceFixture) {
				f.extractor.On("Extract", ctx, aliceImage).
					Return(nil, domain.ErrModelUnavailable.WithError(errors.New("connection refused")))
			},
			wantErr: domain.ErrModelUnavailable,
		},
		{
			name:     "wrong dimension",
			identity: "alice",
			image:    aliceImage,
			setupMocks: func(f *serviceFixture) {
				f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{1, 0, 0}, nil)
			},
			wantErr: domain.ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(2)
			tt.setupMocks(f)

			result, err := f.svc.Enroll(ctx, tt.identity, tt.image)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, f.svc.Count())

			f.extractor.AssertExpectations(t)
			f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestFaceService_EnrollStorageError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)
	f.persister.saveErr = errors.New("permission denied")

	f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{1, 0}, nil)

	_, err := f.svc.Enroll(ctx, "alice", aliceImage)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, 1, f.svc.Count(), "in-memory state keeps the enrollment")
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFaceService_Recognize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(3)

	f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{2, 0, 0}, nil)
	f.extractor.On("Extract", ctx, queryImage).Return(domain.Embedding{0.99, 0.141, 0}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything)

	t.Run("empty database", func(t *testing.T) {
		result, err := f.svc.Recognize(ctx, queryImage)
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Empty(t, result.Identity)
		assert.Equal(t, 0, result.Candidates)
		assert.Equal(t, DefaultThreshold, result.Threshold)
	})

	_, err := f.svc.Enroll(ctx, "bob", aliceImage)
	require.NoError(t, err)

	t.Run("same image matches at zero distance", func(t *testing.T) {
		result, err := f.svc.Recognize(ctx, aliceImage)
		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, "bob", result.Identity)
		assert.InDelta(t, 0, result.Distance, 1e-9)
	})

	t.Run("close face matches", func(t *testing.T) {
		result, err := f.svc.Recognize(ctx, queryImage)
		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, "bob", result.Identity)
		assert.InDelta(t, 0.141, result.Distance, 1e-3)
		assert.Equal(t, 1, result.Candidates)
	})

	t.Run("no match after clear", func(t *testing.T) {
		require.NoError(t, f.svc.ClearAll(ctx))
		assert.Equal(t, 0, f.svc.Count())

		result, err := f.svc.Recognize(ctx, aliceImage)
		require.NoError(t, err)
		assert.False(t, result.Matched)
	})

	f.events.AssertCalled(t, "Publish", EventFaceRecognized, mock.AnythingOfType("*domain.MatchResult"))
	f.events.AssertCalled(t, "Publish", EventStoreCleared, mock.Anything)
}

func TestFaceService_RecognizeFarFaceIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)

	f.extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{1, 0}, nil)
	f.extractor.On("Extract", ctx, queryImage).Return(domain.Embedding{-1, 0.1}, nil)
	f.events.On("Publish", mock.Anything, mock.Anything)

	_, err := f.svc.Enroll(ctx, "alice", aliceImage)
	require.NoError(t, err)

	result, err := f.svc.Recognize(ctx, queryImage)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, 1, result.Candidates)
}

func TestFaceService_RecognizeErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("no face", func(t *testing.T) {
		f := newFixture(2)
		f.extractor.On("Extract", ctx, queryImage).Return(nil, domain.ErrNoFaceDetected)

		_, err := f.svc.Recognize(ctx, queryImage)
		assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
	})

	t.Run("shape mismatch with stored faces", func(t *testing.T) {
		f := newFixture(0)
		_, err := f.store.Put(ctx, "bob", domain.Embedding{1, 0, 0})
		require.NoError(t, err)
		f.extractor.On("Extract", ctx, queryImage).Return(domain.Embedding{1, 0}, nil)

		_, err = f.svc.Recognize(ctx, queryImage)
		assert.ErrorIs(t, err, domain.ErrShapeMismatch)
	})
}

func TestFaceService_ClearAllStorageError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(2)
	f.persister.saveErr = errors.New("read-only file system")

	err := f.svc.ClearAll(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestFaceService_WithoutEvents(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()
	extractor := new(MockFaceExtractor)
	extractor.On("Extract", ctx, aliceImage).Return(domain.Embedding{1, 0}, nil)

	svc := NewFaceService(extractor, s, NewEnrollmentService(s, 0, testLogger()), NewMatchEngine(0, testLogger()), testLogger())

	_, err := svc.Enroll(ctx, "alice", aliceImage)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Count())
}

func TestPublishers(t *testing.T) {
	first := new(MockEventPublisher)
	second := new(MockEventPublisher)
	first.On("Publish", EventStoreCleared, nil).Once()
	second.On("Publish", EventStoreCleared, nil).Once()

	Publishers{first, second}.Publish(EventStoreCleared, nil)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

package mocks

import (
	"context"
	"iter"

	"github.com/stretchr/testify/mock"

	"noteally/internal/auth"
	"noteally/internal/model"
	"noteally/internal/service"
)

type MockNoteService struct {
	mock.Mock
}

func (m *MockNoteService) Upload(ctx context.Context, sess *auth.Session, in service.UploadInput) (*model.Note, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Get(ctx context.Context, id string) (*model.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Feed(ctx context.Context, q service.FeedQuery) (*service.FeedResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FeedResult), args.Error(1)
}

func (m *MockNoteService) SubscribeFeed(ctx context.Context, q service.FeedQuery) iter.Seq2[*service.FeedResult, error] {
	args := m.Called(ctx, q)
	return args.Get(0).(iter.Seq2[*service.FeedResult, error])
}

func (m *MockNoteService) Dashboard(ctx context.Context, sess *auth.Session) (*service.DashboardResult, error) {
	args := m.Called(ctx, sess)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardResult), args.Error(1)
}

func (m *MockNoteService) SubscribeDashboard(ctx context.Context, sess *auth.Session) iter.Seq2[*service.DashboardResult, error] {
	args := m.Called(ctx, sess)
	return args.Get(0).(iter.Seq2[*service.DashboardResult, error])
}

func (m *MockNoteService) ToggleLike(ctx context.Context, sess *auth.Session, id string) (*model.Note, error) {
	args := m.Called(ctx, sess, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) RecordView(ctx context.Context, id string) (*model.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}

func (m *MockNoteService) Delete(ctx context.Context, sess *auth.Session, id string, confirmed bool) error {
	args := m.Called(ctx, sess, id, confirmed)
	return args.Error(0)
}

func (m *MockNoteService) Download(ctx context.Context, key string) (*service.Download, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}

package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/service"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, req service.ScanRequest) (*service.ScanResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanResult), args.Error(1)
}

func (m *MockScanner) BuildSlips(ctx context.Context, req service.SlipRequest) (*service.SlipResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SlipResult), args.Error(1)
}

func (m *MockScanner) SaveVersion(ctx context.Context, version *models.ScanVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func scanResult() *service.ScanResult {
	return &service.ScanResult{
		Sport: "nba",
		Scope: service.ScopeSmart,
		Opportunities: []models.Opportunity{
			{Leg: models.Leg{PlayerName: "Jayson Tatum", EdgePct: 5}, IsCalculated: true, EligibleForSlip: true},
			{Leg: models.Leg{PlayerName: "Nikola Jokic"}},
		},
		Stats: service.ScanStats{TotalScanned: 2, PlaysFound: 1},
	}
}

func TestScheduleScanLifecycle(t *testing.T) {
	s := NewScheduler(new(MockScanner), time.Second, quietLogger())

	assert.Error(t, s.Start(), "no jobs scheduled")
	assert.Error(t, s.ScheduleScan("not a cron", service.ScanRequest{}, false))

	require.NoError(t, s.ScheduleScan("*/5 * * * *", service.ScanRequest{Sport: "nba"}, false))
	require.Len(t, s.Entries(), 1)
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleScan("@hourly", service.ScanRequest{}, false))

	var next time.Time
	require.Eventually(t, func() bool {
		next = s.GetNextRun()
		return !next.IsZero()
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.UTC, next.Location())
	assert.Equal(t, 0, next.Minute()%5)

	assert.Error(t, s.RemoveJob(s.Entries()[0].ID))
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())

	require.NoError(t, s.RemoveJob(s.Entries()[0].ID))
	assert.Empty(t, s.Entries())
}

func TestRunScanWithoutSave(t *testing.T) {
	scanner := new(MockScanner)
	req := service.ScanRequest{Sport: "nba", Scope: service.ScopeFull}
	scanner.On("Scan", mock.Anything, req).Return(scanResult(), nil).Once()

	s := NewScheduler(scanner, time.Second, quietLogger())
	require.NoError(t, s.runScan(req, false))

	scanner.AssertExpectations(t)
	scanner.AssertNotCalled(t, "SaveVersion", mock.Anything, mock.Anything)
}

func TestRunScanSavesVersion(t *testing.T) {
	scanner := new(MockScanner)
	req := service.ScanRequest{Sport: "nba"}
	slips := []models.RankedSlip{{Rank: 1, SlipSize: 2}}

	scanner.On("Scan", mock.Anything, req).Return(scanResult(), nil)
	scanner.On("BuildSlips", mock.Anything, mock.MatchedBy(func(r service.SlipRequest) bool {
		return len(r.Legs) == 1 && r.Legs[0].PlayerName == "Jayson Tatum" && r.Sport == "nba"
	})).Return(&service.SlipResult{Slips: slips}, nil)
	scanner.On("SaveVersion", mock.Anything, mock.MatchedBy(func(v *models.ScanVersion) bool {
		return v.Sport == "nba" && len(v.Results) == 2 && len(v.Slips) == 1 && v.PlaysFound == 1
	})).Return(nil)

	s := NewScheduler(scanner, time.Second, quietLogger())
	require.NoError(t, s.runScan(req, true))
	scanner.AssertExpectations(t)
}

func TestRunScanErrors(t *testing.T) {
	t.Run("scan failure", func(t *testing.T) {
		scanner := new(MockScanner)
		scanner.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("quota"))

		s := NewScheduler(scanner, time.Second, quietLogger())
		err := s.runScan(service.ScanRequest{}, true)
		assert.ErrorContains(t, err, "quota")
	})

	t.Run("slip failure still saves", func(t *testing.T) {
		scanner := new(MockScanner)
		scanner.On("Scan", mock.Anything, mock.Anything).Return(scanResult(), nil)
		scanner.On("BuildSlips", mock.Anything, mock.Anything).Return(nil, errors.New("cancelled"))
		scanner.On("SaveVersion", mock.Anything, mock.MatchedBy(func(v *models.ScanVersion) bool {
			return len(v.Slips) == 0
		})).Return(nil)

		s := NewScheduler(scanner, time.Second, quietLogger())
		require.NoError(t, s.runScan(service.ScanRequest{}, true))
		scanner.AssertExpectations(t)
	})

	t.Run("save failure", func(t *testing.T) {
		scanner := new(MockScanner)
		scanner.On("Scan", mock.Anything, mock.Anything).Return(scanResult(), nil)
		scanner.On("BuildSlips", mock.Anything, mock.Anything).Return(&service.SlipResult{}, nil)
		scanner.On("SaveVersion", mock.Anything, mock.Anything).Return(service.ErrHistoryDisabled)

		s := NewScheduler(scanner, time.Second, quietLogger())
		err := s.runScan(service.ScanRequest{}, true)
		assert.ErrorIs(t, err, service.ErrHistoryDisabled)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/srtpal/internal/api/srt"
	"github.com/danpilch/srtpal/internal/booking"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
interval: 30s
watches:
  - name: chuseok
    from: 수서
    to: 부산
    date: "20261020"
    time: "080000"
    time_limit: "120000"
    passengers:
      child: 1
      adult: 2
    seat: special_first
    window_seat: true
    standby: true
    standby_phone: 010-1234-5678
    agree_sms: true
  - from: 동탄
    to: 대전
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, srt.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	require.Len(t, cfg.Watches, 2)

	w := cfg.Watches[0]
	assert.Equal(t, "chuseok", w.Name)
	assert.Equal(t, booking.SpecialFirst, w.Seat)
	require.NotNil(t, w.WindowSeat)
	assert.True(t, *w.WindowSeat)
	assert.True(t, w.Standby)
	assert.Equal(t, []booking.Passenger{booking.Adult(2), booking.Child(1)}, w.PassengerList())

	q := w.Query()
	assert.Equal(t, "수서", q.Dep)
	assert.Equal(t, "20261020", q.Date)
	assert.Equal(t, "120000", q.TimeLimit)
	assert.True(t, q.IncludeSoldOut)

	defaults := cfg.Watches[1]
	assert.Equal(t, "동탄-대전", defaults.Name)
	assert.Equal(t, booking.GeneralFirst, defaults.Seat)
	assert.Nil(t, defaults.WindowSeat)
	assert.Equal(t, []booking.Passenger{booking.Adult(1)}, defaults.PassengerList())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad yaml",
			content: "watches: [",
			wantErr: "parsing config file",
		},
		{
			name:    "no watches",
			content: "interval: 1m\n",
			wantErr: "at least one watch",
		},
		{
			name:    "unknown station",
			content: "watches:\n  - from: 서울\n    to: 부산\n",
			wantErr: `unknown station "서울"`,
		},
		{
			name:    "unknown seat policy",
			content: "watches:\n  - from: 수서\n    to: 부산\n    seat: business\n",
			wantErr: "parsing config file",
		},
		{
			name:    "unknown passenger type",
			content: "watches:\n  - from: 수서\n    to: 부산\n    passengers:\n      infant: 1\n",
			wantErr: "parsing config file",
		},
		{
			name:    "bad date",
			content: "watches:\n  - from: 수서\n    to: 부산\n    date: 2026-10-20\n",
			wantErr: "must be YYYYMMDD",
		},
		{
			name:    "limit before time",
			content: "watches:\n  - from: 수서\n    to: 부산\n    time: \"120000\"\n    time_limit: \"080000\"\n",
			wantErr: "is before time",
		},
		{
			name:    "sms without phone",
			content: "watches:\n  - from: 수서\n    to: 부산\n    standby: true\n    agree_sms: true\n",
			wantErr: "agree_sms requires standby_phone",
		},
		{
			name:    "duplicate names",
			content: "watches:\n  - from: 수서\n    to: 부산\n  - from: 수서\n    to: 부산\n",
			wantErr: "duplicate name",
		},
		{
			name:    "interval too short",
			content: "interval: 1s\nwatches:\n  - from: 수서\n    to: 부산\n",
			wantErr: "interval must be at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestWatchExpired(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local)

	assert.True(t, Watch{Date: "20261018"}.Expired(now))
	assert.False(t, Watch{Date: "20261019"}.Expired(now))
	assert.False(t, Watch{}.Expired(now))
}

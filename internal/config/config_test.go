package config_test

import (
	"testing"
	"time"

	"motoka/internal/config"

	"github.com/stretchr/testify/require"
)

const _localConfig = "../../configs/local.yaml"

func TestLoadPath_LocalConfig(t *testing.T) {
	cfg, err := config.LoadPath(_localConfig)

	require.NoError(t, err)
	require.Equal(t, "paystack", cfg.Payment.DefaultGateway)
	require.GreaterOrEqual(t, cfg.Sweep.LockTTL, cfg.Sweep.WorstCaseRun())
}

func TestLoadPath_SweepLockMustOutliveRun(t *testing.T) {
	testCases := []struct {
		desc        string
		lockTTL     string
		batchSize   string
		concurrency string
		callTimeout string
		wantErr     bool
	}{
		{
			desc: "Lock shorter than a full batch", lockTTL: "10m",
			batchSize: "200", concurrency: "4", callTimeout: "30s", wantErr: true,
		},
		{
			desc: "Lock covers a full batch", lockTTL: "25m",
			batchSize: "200", concurrency: "4", callTimeout: "30s",
		},
		{
			desc: "Partial last wave counts", lockTTL: "1m",
			batchSize: "5", concurrency: "4", callTimeout: "30s",
		},
		{
			desc: "Partial last wave over budget", lockTTL: "59s",
			batchSize: "5", concurrency: "4", callTimeout: "30s", wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Setenv("SWEEP_LOCK_TTL", tc.lockTTL)
			t.Setenv("SWEEP_BATCH_SIZE", tc.batchSize)
			t.Setenv("SWEEP_CONCURRENCY", tc.concurrency)
			t.Setenv("SWEEP_CALL_TIMEOUT", tc.callTimeout)

			_, err := config.LoadPath(_localConfig)

			if tc.wantErr {
				require.ErrorContains(t, err, "lock_ttl")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSweep_WorstCaseRun(t *testing.T) {
	s := config.Sweep{BatchSize: 200, Concurrency: 4, CallTimeout: 30 * time.Second}

	require.Equal(t, 25*time.Minute, s.WorstCaseRun())
}

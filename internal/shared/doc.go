// Package shared holds code used across packages without belonging to any
// one layer. Its testutil subpackage provides log capture and dataset
// fixtures for tests:
//
//	logger, logs := testutil.NewTestLogger()
//	store := datasets.NewStore(testutil.DatasetFS(t, testutil.DefaultDocs()), logger)
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelWarn, "dataset missing")
package shared

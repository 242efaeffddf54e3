// Package shared holds helpers used by more than one internal package.
//
// The testutil subpackage provides a capturing slog handler so tests can
// assert on what a component logged:
//
//	logger, handler := testutil.NewTestLogger(t)
//	loader := loader.New(loader.Options{Logger: logger})
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Skipping source file")
package shared

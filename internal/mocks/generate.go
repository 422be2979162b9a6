// Package mocks provides mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks.
// Regenerate after interface changes with:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	feed := mocks.NewMockChangeFeed(ctrl)
//	feed.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for the change feed port.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=change_feed_mock.go github.com/hellforge/tradepost/internal/ports ChangeFeed

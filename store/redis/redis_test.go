package redis

import (
	"testing"

	"github.com/hupe1980/threadflow/core"
)

// Interface compliance (compile-time assertion)
var _ core.ThreadStore = (*Store)(nil)

func TestRedisStore_InterfaceOnly(t *testing.T) {
	// Behavior is covered against a live server in integration environments;
	// this file keeps the compile-time assertion above exercised.
}

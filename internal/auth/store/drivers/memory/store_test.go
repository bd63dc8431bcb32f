package memory_test

import (
	"testing"

	"github.com/bonechkabonechka/tgauth/internal/auth/store"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/drivers/memory"
	"github.com/bonechkabonechka/tgauth/internal/auth/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CAMPOPACK_TEST_MODE", "1")
		if os.Getenv("RELAY_URL") == "" {
			_ = os.Setenv("RELAY_URL", "http://127.0.0.1:0/relay")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

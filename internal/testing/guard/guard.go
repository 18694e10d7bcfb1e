package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CRM_TEST_MODE") == "" {
			_ = os.Setenv("CRM_TEST_MODE", "1")
		}
	})
}

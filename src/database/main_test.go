package database

import (
	"os"
	"testing"

	"github.com/username/coinsensei/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	InitDB(":memory:")
	os.Exit(m.Run())
}

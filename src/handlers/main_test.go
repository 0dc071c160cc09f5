package handlers

import (
	"os"
	"testing"

	"github.com/username/coinsensei/backend/src/database"
	"github.com/username/coinsensei/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	database.InitDB(":memory:")
	os.Exit(m.Run())
}

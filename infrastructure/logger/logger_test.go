package logger

import (
	"runtime"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestGetLogger_RecordsEachCallSite(t *testing.T) {
	first := GetLogger()
	_, file, firstLine, _ := runtime.Caller(0)
	second := GetLogger()
	_, _, secondLine, _ := runtime.Caller(0)

	assert.Equal(t, file, first.Data["file"])
	assert.Equal(t, firstLine-1, first.Data["line"])
	assert.Equal(t, secondLine-1, second.Data["line"])
	assert.Contains(t, first.Data["function"], "TestGetLogger_RecordsEachCallSite")
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("info") })

	SetLevel("debug")
	assert.Equal(t, log.DebugLevel, logger.GetLevel())

	SetLevel("nonsense")
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

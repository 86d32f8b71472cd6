package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "v1.2.3", Commit: "0123456789abcdef", GoVersion: "go1.24", Platform: "linux/amd64"}.String()
	assert.Equal(t, "teamboard v1.2.3 (0123456789ab, go1.24, linux/amd64)", s)
	assert.True(t, strings.HasPrefix(Info{Version: "dev", Commit: "none"}.String(), "teamboard dev (none"))
}

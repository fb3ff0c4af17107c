package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfoWithValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		version       string
		commit        string
		buildDate     string
		buildType     string
		wantVersion   string
		wantBuildDate string
		wantRelease   bool
	}{
		{
			name:          "release build",
			version:       "v1.2.3",
			commit:        "0123456789abcdef",
			buildDate:     "2026-01-15T10:30:00Z",
			buildType:     "release",
			wantVersion:   "v1.2.3",
			wantBuildDate: "2026-01-15 10:30:00 UTC",
			wantRelease:   true,
		},
		{
			name:          "dev build uses truncated commit",
			version:       "dev",
			commit:        "0123456789abcdef",
			buildDate:     "not-a-date",
			buildType:     "development",
			wantVersion:   "build-01234567",
			wantBuildDate: "not-a-date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info := getVersionInfoWithValues(tt.version, tt.commit, tt.buildDate, tt.buildType)

			assert.Equal(t, tt.wantVersion, info.Version)
			assert.Equal(t, tt.commit, info.Commit)
			assert.Equal(t, tt.wantBuildDate, info.BuildDate)
			assert.Equal(t, tt.wantRelease, info.Release)
			assert.Equal(t, runtime.Version(), info.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
		})
	}
}

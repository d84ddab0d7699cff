package util

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	projectRootDir string
	dirOnce        sync.Once
)

// GetEnv 读取环境变量, 未设置时返回默认值
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}

	return defaultVal
}

// GetEnvAsInt 读取整数环境变量
func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")

	if val, err := strconv.Atoi(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsBool 读取布尔环境变量
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")

	if val, err := strconv.ParseBool(strVal); err == nil {
		return val
	}

	return defaultVal
}

// GetEnvAsStringArr reads ENV and returns the values split by separator.
func GetEnvAsStringArr(key string, defaultVal []string, separator ...string) []string {
	strVal := GetEnv(key, "")

	if len(strVal) == 0 {
		return defaultVal
	}

	sep := ","
	if len(separator) >= 1 {
		sep = separator[0]
	}

	parts := strings.Split(strVal, sep)
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			res = append(res, p)
		}
	}

	return res
}

// GetProjectRootDir returns the path as string to the project_root, which holds the go.mod.
// Falls back to the current working directory if no go.mod can be found.
func GetProjectRootDir() string {
	dirOnce.Do(func() {
		if val, ok := os.LookupEnv("PROJECT_ROOT_DIR"); ok {
			projectRootDir = val
			return
		}

		wd, err := os.Getwd()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to get working directory")
			projectRootDir = "."
			return
		}

		dir := wd
		for {
			if _, err := os.Stat(dir + "/go.mod"); err == nil {
				projectRootDir = dir
				return
			}

			idx := strings.LastIndex(dir, "/")
			if idx <= 0 {
				projectRootDir = wd
				return
			}
			dir = dir[:idx]
		}
	})

	return projectRootDir
}

// RunningInTest returns true if the binary was built by `go test`.
func RunningInTest() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}
